package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/domain/entity"
	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/repository"
	"github.com/wa2g/denis-portal/internal/session"
	"github.com/wa2g/denis-portal/internal/upstream"
)

// StockService manages stock receipts: chicken and feed deliveries
// received against expected quantities, then signed off by accounting.
type StockService struct {
	*DocumentService[entity.StockReceipt]
	history HistoryRecorder
}

// NewStockService creates the stock receipts service
func NewStockService(client *upstream.Client, history HistoryRecorder, keys KeyLedger, logger *zap.Logger) *StockService {
	return &StockService{
		DocumentService: NewDocumentService[entity.StockReceipt](
			workflow.EntityStockReceipt, "stock-receipts", client, history, keys,
			func(r entity.StockReceipt) decimal.Decimal {
				return r.UnitPrice.Mul(decimal.NewFromInt(r.ReceivedQuantity))
			},
			logger),
		history: history,
	}
}

// Receive records a delivered quantity against a receipt. The quantity
// policy runs locally first: a delivery exceeding the remaining expected
// quantity is rejected before any network call, never clamped.
func (s *StockService) Receive(ctx context.Context, sess session.Session, id string, quantity int64) (entity.StockReceipt, error) {
	if err := s.ensureLoaded(ctx, sess.Token); err != nil {
		return entity.StockReceipt{}, err
	}

	receipt, ok := s.store.Get(id)
	if !ok {
		return entity.StockReceipt{}, fmt.Errorf("%w: stock receipt %s", ErrEntityNotFound, id)
	}

	target, err := workflow.ReceiveTarget(receipt.ReceivedQuantity, quantity, receipt.ExpectedQuantity)
	if err != nil {
		return entity.StockReceipt{}, err
	}

	reason := fmt.Sprintf("Received %d of %d", receipt.ReceivedQuantity+quantity, receipt.ExpectedQuantity)
	return s.exec.Execute(ctx, sess, id, target, reason, func(ctx context.Context, key string) (entity.StockReceipt, error) {
		return upstream.Receive[entity.StockReceipt](ctx, s.client, sess.Token, s.collection, id, quantity, key)
	})
}

// Approve records the accountant's sign-off on a received receipt. It
// sets the terminal approval flag; the status itself does not change.
func (s *StockService) Approve(ctx context.Context, sess session.Session, id string) (entity.StockReceipt, error) {
	if err := s.ensureLoaded(ctx, sess.Token); err != nil {
		return entity.StockReceipt{}, err
	}

	receipt, ok := s.store.Get(id)
	if !ok {
		return entity.StockReceipt{}, fmt.Errorf("%w: stock receipt %s", ErrEntityNotFound, id)
	}

	if sess.Role != workflow.RoleAccountant {
		return entity.StockReceipt{}, fmt.Errorf("%w: only %s may approve receipts",
			workflow.ErrNotPermitted, workflow.RoleAccountant)
	}
	if receipt.Status != workflow.StatusPartiallyReceived && receipt.Status != workflow.StatusFullyReceived {
		return entity.StockReceipt{}, fmt.Errorf("%w: receipt %s has received nothing yet",
			workflow.ErrNotPermitted, id)
	}
	if receipt.ApprovedByAccountant {
		return entity.StockReceipt{}, fmt.Errorf("%w: receipt %s is already approved",
			workflow.ErrNotPermitted, id)
	}

	// Same double-submit guard as status transitions: the executor's
	// in-memory map plus the persisted key ledger.
	key, err := s.exec.begin(id, receipt.Status)
	if err != nil {
		return entity.StockReceipt{}, err
	}
	defer s.exec.finish(id, key)

	updated, err := upstream.Approve[entity.StockReceipt](ctx, s.client, sess.Token, s.collection, id, key)
	if err != nil {
		return entity.StockReceipt{}, err
	}

	s.store.Replace(updated)

	rec := &repository.TransitionRecord{
		EntityType:     workflow.EntityStockReceipt.String(),
		EntityID:       updated.ID,
		HumanNumber:    updated.HumanNumber,
		PreviousStatus: receipt.Status.String(),
		NewStatus:      updated.Status.String(),
		ActorID:        sess.UserID,
		ActorRole:      sess.Role.String(),
		Reason:         "Receipt approved by accountant",
		IdempotencyKey: key,
	}
	if err := s.history.Create(rec); err != nil {
		s.logger.Error("Failed to record receipt approval audit",
			zap.String("receipt_id", id),
			zap.Error(err))
	}

	return updated, nil
}
