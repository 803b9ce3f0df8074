package workflow

// EntityType tags the kind of document a status or rule applies to
type EntityType string

const (
	EntityOrder        EntityType = "order"
	EntityInvoice      EntityType = "invoice"
	EntityRequest      EntityType = "request"
	EntityStockReceipt EntityType = "stock_receipt"
)

// String returns the string representation of the entity type
func (e EntityType) String() string {
	return string(e)
}

// Status represents a document status in the approval lifecycle
type Status string

const (
	// Order statuses
	StatusDraft      Status = "DRAFT"
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusApproved   Status = "APPROVED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"

	// Invoice statuses
	StatusManagerApproved Status = "MANAGER_APPROVED"
	StatusCEOApproved     Status = "CEO_APPROVED"
	StatusRejected        Status = "REJECTED"

	// Request statuses (PENDING/APPROVED/REJECTED shared above)
	StatusMarkedForInvoice Status = "MARKED_FOR_INVOICE"

	// Stock receipt statuses
	StatusPartiallyReceived Status = "PARTIALLY_RECEIVED"
	StatusFullyReceived     Status = "FULLY_RECEIVED"
)

// StatusAll is the wildcard filter value that matches every status.
const StatusAll = "all"

var validStatuses = map[EntityType]map[Status]bool{
	EntityOrder: {
		StatusDraft:      true,
		StatusPending:    true,
		StatusInProgress: true,
		StatusApproved:   true,
		StatusCompleted:  true,
		StatusCancelled:  true,
	},
	EntityInvoice: {
		StatusPending:         true,
		StatusManagerApproved: true,
		StatusCEOApproved:     true,
		StatusRejected:        true,
	},
	EntityRequest: {
		StatusPending:          true,
		StatusApproved:         true,
		StatusRejected:         true,
		StatusMarkedForInvoice: true,
	},
	EntityStockReceipt: {
		StatusPending:           true,
		StatusPartiallyReceived: true,
		StatusFullyReceived:     true,
	},
}

var terminalStatuses = map[EntityType]map[Status]bool{
	EntityOrder: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
	EntityInvoice: {
		StatusCEOApproved: true,
		StatusRejected:    true,
	},
	EntityRequest: {
		StatusRejected:         true,
		StatusMarkedForInvoice: true,
	},
	// Fully received receipts stay at FULLY_RECEIVED; the accountant
	// sign-off is a flag on the receipt, not a further status change.
	EntityStockReceipt: {},
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ValidFor returns true if the status belongs to the given entity type
func (s Status) ValidFor(entity EntityType) bool {
	return validStatuses[entity][s]
}

// TerminalFor returns true if the status ends the entity's lifecycle
// (no transition rule leads out of it)
func (s Status) TerminalFor(entity EntityType) bool {
	return terminalStatuses[entity][s]
}
