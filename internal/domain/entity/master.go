package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
)

// Customer is a farm-supply customer record
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EntityID returns the opaque upstream identifier
func (c Customer) EntityID() string { return c.ID }

// Loan tracks money lent to a customer against future deliveries
type Loan struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId"`
	Principal  decimal.Decimal `json:"principal"`
	Balance    decimal.Decimal `json:"balance"`
	Status     workflow.Status `json:"status"`
	IssuedAt   time.Time       `json:"issuedAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// EntityID returns the opaque upstream identifier
func (l Loan) EntityID() string { return l.ID }

// User is a portal account with a role that gates workflow actions
type User struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Role      workflow.Role `json:"role"`
	Active    bool          `json:"active"`
	CreatedAt time.Time     `json:"createdAt"`
}

// EntityID returns the opaque upstream identifier
func (u User) EntityID() string { return u.ID }
