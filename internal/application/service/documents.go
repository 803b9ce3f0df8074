package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/domain/entity"
	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/session"
	"github.com/wa2g/denis-portal/internal/store"
	"github.com/wa2g/denis-portal/internal/upstream"
)

// DocumentService is the shared list/stats/transition surface behind one
// dashboard page. Per-entity services embed it and add their own
// operations.
type DocumentService[T Workflowed] struct {
	entityType workflow.EntityType
	collection string
	client     *upstream.Client
	store      *store.Store[T]
	exec       *Executor[T]
	amount     func(T) decimal.Decimal
	logger     *zap.Logger
}

// NewDocumentService wires the store and executor for one collection
func NewDocumentService[T Workflowed](
	entityType workflow.EntityType,
	collection string,
	client *upstream.Client,
	history HistoryRecorder,
	keys KeyLedger,
	amount func(T) decimal.Decimal,
	logger *zap.Logger,
) *DocumentService[T] {
	st := store.New(collection, func(ctx context.Context, token string) ([]T, error) {
		return upstream.List[T](ctx, client, token, collection)
	}, logger)

	exec := NewExecutor(entityType, st,
		func(ctx context.Context, token, id, status, reason, key string) (T, error) {
			return upstream.UpdateStatus[T](ctx, client, token, collection, id, status, reason, key)
		},
		history, keys, logger)

	return &DocumentService[T]{
		entityType: entityType,
		collection: collection,
		client:     client,
		store:      st,
		exec:       exec,
		amount:     amount,
		logger:     logger,
	}
}

// Store exposes the backing store for wiring (background refresh)
func (s *DocumentService[T]) Store() *store.Store[T] {
	return s.store
}

func (s *DocumentService[T]) ensureLoaded(ctx context.Context, token string) error {
	if s.store.Loaded() {
		return nil
	}
	return s.store.Load(ctx, token)
}

// Refresh refetches the collection from the upstream API
func (s *DocumentService[T]) Refresh(ctx context.Context, sess session.Session) error {
	return s.store.Load(ctx, sess.Token)
}

// List returns the collection filtered by status, in upstream order.
// The "all" wildcard (or empty filter) returns everything.
func (s *DocumentService[T]) List(ctx context.Context, sess session.Session, filter string) ([]T, error) {
	if err := s.ensureLoaded(ctx, sess.Token); err != nil {
		return nil, err
	}
	return FilterByStatus(s.store.All(), filter), nil
}

// Get returns one entity from the current snapshot
func (s *DocumentService[T]) Get(ctx context.Context, sess session.Session, id string) (T, error) {
	var zero T
	if err := s.ensureLoaded(ctx, sess.Token); err != nil {
		return zero, err
	}
	got, ok := s.store.Get(id)
	if !ok {
		return zero, fmt.Errorf("%w: %s %s", ErrEntityNotFound, s.entityType, id)
	}
	return got, nil
}

// Summary derives the dashboard card counts and amount total from the
// current snapshot
func (s *DocumentService[T]) Summary(ctx context.Context, sess session.Session) (Summary, error) {
	if err := s.ensureLoaded(ctx, sess.Token); err != nil {
		return Summary{}, err
	}
	return Summarize(s.store.All(), s.amount), nil
}

// Transition attempts a status change through the workflow executor
func (s *DocumentService[T]) Transition(ctx context.Context, sess session.Session, id string, target workflow.Status, reason string) (T, error) {
	var zero T
	if err := s.ensureLoaded(ctx, sess.Token); err != nil {
		return zero, err
	}
	return s.exec.Transition(ctx, sess, id, target, reason)
}

// Delete is the privileged admin-only override. Normal users never delete
// workflow documents.
func (s *DocumentService[T]) Delete(ctx context.Context, sess session.Session, id string) error {
	if sess.Role != workflow.RoleAdmin {
		return fmt.Errorf("%w: only %s may delete a %s",
			workflow.ErrNotPermitted, workflow.RoleAdmin, s.entityType)
	}
	if err := s.client.Delete(ctx, sess.Token, s.collection, id); err != nil {
		return err
	}
	s.store.Remove(id)
	s.logger.Info("Entity deleted by admin override",
		zap.String("entity_type", s.entityType.String()),
		zap.String("entity_id", id),
		zap.String("actor", sess.UserID))
	return nil
}

// OrderDraft is the payload a dashboard form submits to create an order
type OrderDraft struct {
	CustomerID   string            `json:"customerId"`
	CustomerName string            `json:"customerName"`
	Notes        string            `json:"notes,omitempty"`
	Tax          decimal.Decimal   `json:"tax"`
	Items        []entity.LineItem `json:"items"`
}

// OrdersService manages customer orders
type OrdersService struct {
	*DocumentService[entity.Order]
}

// NewOrdersService creates the orders service
func NewOrdersService(client *upstream.Client, history HistoryRecorder, keys KeyLedger, logger *zap.Logger) *OrdersService {
	return &OrdersService{
		DocumentService: NewDocumentService[entity.Order](
			workflow.EntityOrder, "orders", client, history, keys,
			func(o entity.Order) decimal.Decimal { return o.Total },
			logger),
	}
}

// Create composes an order draft and posts it upstream. The human number
// comes from the server-side counter; the portal never generates numbers
// locally. The created order starts as the order manager's draft.
func (s *OrdersService) Create(ctx context.Context, sess session.Session, draft OrderDraft) (entity.Order, error) {
	if sess.Role != workflow.RoleOrderManager && sess.Role != workflow.RoleAdmin {
		return entity.Order{}, fmt.Errorf("%w: %s cannot create orders", workflow.ErrNotPermitted, sess.Role)
	}
	if len(draft.Items) == 0 {
		return entity.Order{}, fmt.Errorf("order draft has no items")
	}

	number, err := s.client.NextNumber(ctx, sess.Token, s.collection)
	if err != nil {
		return entity.Order{}, err
	}

	order := entity.Order{
		Document: entity.Document{
			HumanNumber: number,
			Status:      workflow.StatusDraft,
			Items:       draft.Items,
			Tax:         draft.Tax,
		},
		CustomerID:   draft.CustomerID,
		CustomerName: draft.CustomerName,
		Notes:        draft.Notes,
	}
	order.RecalculateTotals()

	created, err := upstream.Create[entity.Order](ctx, s.client, sess.Token, s.collection, order, newAttemptKey())
	if err != nil {
		return entity.Order{}, err
	}

	s.store.Replace(created)
	s.logger.Info("Order created",
		zap.String("order_id", created.ID),
		zap.String("number", created.HumanNumber),
		zap.String("actor", sess.UserID))
	return created, nil
}

// InvoicesService manages customer invoices and their two-stage approval
type InvoicesService struct {
	*DocumentService[entity.Invoice]
}

// NewInvoicesService creates the invoices service
func NewInvoicesService(client *upstream.Client, history HistoryRecorder, keys KeyLedger, logger *zap.Logger) *InvoicesService {
	return &InvoicesService{
		DocumentService: NewDocumentService[entity.Invoice](
			workflow.EntityInvoice, "invoices", client, history, keys,
			func(i entity.Invoice) decimal.Decimal { return i.Total },
			logger),
	}
}

// RequestsService manages internal requests
type RequestsService struct {
	*DocumentService[entity.Request]
	invoices *InvoicesService
}

// NewRequestsService creates the requests service. It holds the invoices
// service because marking a request for invoicing generates an invoice.
func NewRequestsService(client *upstream.Client, invoices *InvoicesService, history HistoryRecorder, keys KeyLedger, logger *zap.Logger) *RequestsService {
	return &RequestsService{
		DocumentService: NewDocumentService[entity.Request](
			workflow.EntityRequest, "requests", client, history, keys,
			func(r entity.Request) decimal.Decimal { return r.Total },
			logger),
		invoices: invoices,
	}
}

// MarkForInvoice moves an approved request to MARKED_FOR_INVOICE and
// generates the corresponding invoice draft upstream
func (s *RequestsService) MarkForInvoice(ctx context.Context, sess session.Session, id string) (entity.Request, error) {
	updated, err := s.Transition(ctx, sess, id, workflow.StatusMarkedForInvoice, "")
	if err != nil {
		return entity.Request{}, err
	}

	invoice := entity.Invoice{
		Document: entity.Document{
			Status: workflow.StatusPending,
			Items:  updated.Items,
			Tax:    updated.Tax,
		},
		RequestID: updated.ID,
	}
	invoice.RecalculateTotals()

	created, err := upstream.Create[entity.Invoice](ctx, s.client, sess.Token, "invoices", invoice, newAttemptKey())
	if err != nil {
		// The request is already marked upstream; surface the invoice
		// failure so the user can retry generation.
		s.logger.Error("Invoice generation failed for marked request",
			zap.String("request_id", updated.ID),
			zap.Error(err))
		return updated, fmt.Errorf("request marked but invoice generation failed: %w", err)
	}

	s.invoices.Store().Replace(created)
	s.logger.Info("Invoice generated from request",
		zap.String("request_id", updated.ID),
		zap.String("invoice_id", created.ID))
	return updated, nil
}
