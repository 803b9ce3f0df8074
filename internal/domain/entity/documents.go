package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
)

// Order is a customer order for chicken stock or feed
type Order struct {
	Document
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
	Notes        string `json:"notes,omitempty"`
}

// Invoice bills a customer for an approved order or request. It passes a
// two-stage approval: manager first, then CEO.
type Invoice struct {
	Document
	OrderID    string    `json:"orderId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	CustomerID string    `json:"customerId"`
	DueDate    time.Time `json:"dueDate"`
}

// Request is an internal purchase or expense request. Once approved it can
// be marked for invoicing by accounting, which generates the invoice.
type Request struct {
	Document
	RequestedBy string `json:"requestedBy"`
	Purpose     string `json:"purpose,omitempty"`
	InvoiceID   string `json:"invoiceId,omitempty"`
}

// StockReceipt tracks goods arriving against an expected delivery.
// Receiving accumulates quantity; the accountant's sign-off is a flag, not
// a further status change.
type StockReceipt struct {
	ID                   string          `json:"id"`
	HumanNumber          string          `json:"humanNumber"`
	Status               workflow.Status `json:"status"`
	ProductName          string          `json:"productName"`
	ExpectedQuantity     int64           `json:"expectedQuantity"`
	ReceivedQuantity     int64           `json:"receivedQuantity"`
	UnitPrice            decimal.Decimal `json:"unitPrice"`
	SupplierName         string          `json:"supplierName,omitempty"`
	ApprovedByAccountant bool            `json:"approvedByAccountant"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// EntityID returns the opaque upstream identifier
func (r StockReceipt) EntityID() string {
	return r.ID
}

// CurrentStatus returns the receipt's workflow status
func (r StockReceipt) CurrentStatus() workflow.Status {
	return r.Status
}

// DocumentNumber returns the human-readable display number
func (r StockReceipt) DocumentNumber() string {
	return r.HumanNumber
}

// Remaining returns the quantity still outstanding on the receipt
func (r StockReceipt) Remaining() int64 {
	return r.ExpectedQuantity - r.ReceivedQuantity
}
