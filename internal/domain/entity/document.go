// Package entity defines the portal's document types. Every document that
// moves through the approval workflow shares the same shape: an opaque id
// and human-readable number assigned by the upstream API, a status, an
// approval trail, line items, and decimal money fields.
package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
)

// Approval records one sign-off in a document's approval trail
type Approval struct {
	ApproverID   string        `json:"approverId"`
	ApproverRole workflow.Role `json:"approverRole"`
	Timestamp    time.Time     `json:"timestamp"`
}

// LineItem is one priced line of a document. TotalPrice is always
// Quantity x UnitPrice at the instant of computation; it is never trusted
// from a stale payload.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// Recalculate recomputes TotalPrice from Quantity and UnitPrice. Applying
// it twice yields the same result as applying it once.
func (li *LineItem) Recalculate() {
	li.TotalPrice = li.Quantity.Mul(li.UnitPrice)
}

// Document is the generic shape shared by orders, invoices, requests and
// stock receipts. The upstream API assigns ID, HumanNumber and the
// timestamps; the portal never invents them.
type Document struct {
	ID          string          `json:"id"`
	HumanNumber string          `json:"humanNumber"`
	Status      workflow.Status `json:"status"`
	Approvals   []Approval      `json:"approvals,omitempty"`
	Items       []LineItem      `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// EntityID returns the opaque upstream identifier
func (d Document) EntityID() string {
	return d.ID
}

// CurrentStatus returns the document's workflow status
func (d Document) CurrentStatus() workflow.Status {
	return d.Status
}

// DocumentNumber returns the human-readable display number
func (d Document) DocumentNumber() string {
	return d.HumanNumber
}

// RecalculateTotals recomputes every line item's total and then the
// document's subtotal and total. The aggregate total is always the
// recomputed sum of item totals plus tax, never an independently edited
// figure.
func (d *Document) RecalculateTotals() {
	subtotal := decimal.Zero
	for i := range d.Items {
		d.Items[i].Recalculate()
		subtotal = subtotal.Add(d.Items[i].TotalPrice)
	}
	d.Subtotal = subtotal
	d.Total = subtotal.Add(d.Tax)
}
