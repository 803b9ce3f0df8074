package workflow

// Rule is one row of the transition rule table: from the given status,
// any of the listed roles may move an entity of this type to the target
// status.
type Rule struct {
	Entity EntityType
	From   Status
	Roles  []Role
	To     Status
}

// rules is the complete transition table for every document type the
// portal manages. Lookups are pure and total: any combination without a
// row is simply not permitted.
var rules = []Rule{
	// Orders: the order manager submits a draft, accounting or management
	// moves it into progress, management or the CEO signs it off.
	{EntityOrder, StatusDraft, []Role{RoleOrderManager}, StatusPending},
	{EntityOrder, StatusPending, []Role{RoleAccountant, RoleManager}, StatusInProgress},
	{EntityOrder, StatusInProgress, []Role{RoleManager, RoleCEO}, StatusApproved},
	{EntityOrder, StatusApproved, []Role{RoleOrderManager, RoleManager}, StatusCompleted},
	{EntityOrder, StatusPending, []Role{RoleAccountant, RoleManager}, StatusCancelled},
	{EntityOrder, StatusInProgress, []Role{RoleManager, RoleCEO}, StatusCancelled},

	// Invoices: two-stage approval, manager first, then CEO. Either
	// approver may reject at their stage.
	{EntityInvoice, StatusPending, []Role{RoleManager}, StatusManagerApproved},
	{EntityInvoice, StatusManagerApproved, []Role{RoleCEO}, StatusCEOApproved},
	{EntityInvoice, StatusPending, []Role{RoleManager, RoleCEO}, StatusRejected},
	{EntityInvoice, StatusManagerApproved, []Role{RoleManager, RoleCEO}, StatusRejected},

	// Requests: approved or rejected by management; once approved,
	// accounting marks them for invoicing, which generates the invoice.
	{EntityRequest, StatusPending, []Role{RoleManager, RoleCEO}, StatusApproved},
	{EntityRequest, StatusPending, []Role{RoleManager, RoleCEO}, StatusRejected},
	{EntityRequest, StatusApproved, []Role{RoleAccountant}, StatusMarkedForInvoice},

	// Stock receipts: the stock manager records deliveries until the
	// expected quantity is met. A partial receipt may be topped up by
	// further deliveries.
	{EntityStockReceipt, StatusPending, []Role{RoleStockManager}, StatusPartiallyReceived},
	{EntityStockReceipt, StatusPending, []Role{RoleStockManager}, StatusFullyReceived},
	{EntityStockReceipt, StatusPartiallyReceived, []Role{RoleStockManager}, StatusPartiallyReceived},
	{EntityStockReceipt, StatusPartiallyReceived, []Role{RoleStockManager}, StatusFullyReceived},
}

func roleAllowed(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Permitted reports whether the rule table allows the given role to move
// an entity of this type from one status to another. It is deterministic,
// side-effect free, and never panics: unknown combinations return false.
func Permitted(entity EntityType, from Status, role Role, to Status) bool {
	for _, rule := range rules {
		if rule.Entity == entity && rule.From == from && rule.To == to && roleAllowed(rule.Roles, role) {
			return true
		}
	}
	return false
}

// Targets returns every status the given role may move the entity to from
// its current status, in rule-table order. An empty slice means no
// transition is allowed.
func Targets(entity EntityType, from Status, role Role) []Status {
	var targets []Status
	for _, rule := range rules {
		if rule.Entity == entity && rule.From == from && roleAllowed(rule.Roles, role) {
			targets = append(targets, rule.To)
		}
	}
	return targets
}

// Next returns the single forward (non-cancel, non-reject) status the role
// may advance the entity to, or false when the role has no forward move.
func Next(entity EntityType, from Status, role Role) (Status, bool) {
	for _, rule := range rules {
		if rule.Entity != entity || rule.From != from || !roleAllowed(rule.Roles, role) {
			continue
		}
		if rule.To == StatusCancelled || rule.To == StatusRejected {
			continue
		}
		return rule.To, true
	}
	return "", false
}

// ReceiveTarget applies the quantity policy for stock receiving: a
// delivery short of the expected quantity yields PARTIALLY_RECEIVED, an
// exact fill yields FULLY_RECEIVED, and anything over is rejected locally
// before a network call is ever made. Quantities are never clamped.
func ReceiveTarget(received, delta, expected int64) (Status, error) {
	if delta <= 0 {
		return "", ErrInvalidQuantity
	}
	total := received + delta
	switch {
	case total > expected:
		return "", ErrOverReceive
	case total == expected:
		return StatusFullyReceived, nil
	default:
		return StatusPartiallyReceived, nil
	}
}
