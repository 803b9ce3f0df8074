package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/domain/entity"
	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/session"
	"github.com/wa2g/denis-portal/internal/store"
	"github.com/wa2g/denis-portal/internal/upstream"
)

// MastersService serves the reference collections the dashboard reads but
// never transitions: customers, loans and portal users.
type MastersService struct {
	customers *store.Store[entity.Customer]
	loans     *store.Store[entity.Loan]
	users     *store.Store[entity.User]
	logger    *zap.Logger
}

// NewMastersService creates the reference-data service
func NewMastersService(client *upstream.Client, logger *zap.Logger) *MastersService {
	return &MastersService{
		customers: store.New("customers", func(ctx context.Context, token string) ([]entity.Customer, error) {
			return upstream.List[entity.Customer](ctx, client, token, "customers")
		}, logger),
		loans: store.New("loans", func(ctx context.Context, token string) ([]entity.Loan, error) {
			return upstream.List[entity.Loan](ctx, client, token, "loans")
		}, logger),
		users: store.New("users", func(ctx context.Context, token string) ([]entity.User, error) {
			return upstream.List[entity.User](ctx, client, token, "users")
		}, logger),
		logger: logger,
	}
}

// CustomerStore exposes the customers store for background refresh
func (s *MastersService) CustomerStore() *store.Store[entity.Customer] { return s.customers }

// LoanStore exposes the loans store for background refresh
func (s *MastersService) LoanStore() *store.Store[entity.Loan] { return s.loans }

// UserStore exposes the users store for background refresh
func (s *MastersService) UserStore() *store.Store[entity.User] { return s.users }

// Customers lists all customers in upstream order
func (s *MastersService) Customers(ctx context.Context, sess session.Session) ([]entity.Customer, error) {
	if !s.customers.Loaded() {
		if err := s.customers.Load(ctx, sess.Token); err != nil {
			return nil, err
		}
	}
	return s.customers.All(), nil
}

// Loans lists loans, optionally filtered by status
func (s *MastersService) Loans(ctx context.Context, sess session.Session, filter string) ([]entity.Loan, error) {
	if !s.loans.Loaded() {
		if err := s.loans.Load(ctx, sess.Token); err != nil {
			return nil, err
		}
	}
	all := s.loans.All()
	if filter == "" || filter == workflow.StatusAll {
		return all, nil
	}
	out := make([]entity.Loan, 0, len(all))
	for _, l := range all {
		if StatusMatches(l.Status, filter) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Users lists portal accounts. Only admins see the user list.
func (s *MastersService) Users(ctx context.Context, sess session.Session) ([]entity.User, error) {
	if sess.Role != workflow.RoleAdmin {
		return nil, workflow.ErrNotPermitted
	}
	if !s.users.Loaded() {
		if err := s.users.Load(ctx, sess.Token); err != nil {
			return nil, err
		}
	}
	return s.users.All(), nil
}
