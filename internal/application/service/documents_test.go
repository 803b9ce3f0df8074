package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/domain/entity"
	"github.com/wa2g/denis-portal/internal/domain/workflow"
	"github.com/wa2g/denis-portal/internal/upstream"
)

func newUpstreamClient(t *testing.T, handler http.Handler) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return upstream.NewClient(upstream.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, zap.NewNop())
}

func TestOrdersService_CreateUsesServerCounter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /counters/orders/next", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"number": "ORD-20240101-0042"})
	})
	var posted entity.Order
	var createKey string
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		createKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
		posted.ID = "o-new"
		json.NewEncoder(w).Encode(posted)
	})

	svc := NewOrdersService(newUpstreamClient(t, mux), &fakeHistory{}, &fakeKeys{}, zap.NewNop())

	draft := OrderDraft{
		CustomerID: "c1",
		Items: []entity.LineItem{
			{Description: "Day-old chicks", Quantity: decimal.NewFromInt(200), UnitPrice: decimal.RequireFromString("2.50")},
			{Description: "Starter feed 50kg", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(80)},
		},
	}

	created, err := svc.Create(context.Background(), sessionFor(workflow.RoleOrderManager), draft)
	require.NoError(t, err)

	assert.Equal(t, "o-new", created.ID)
	assert.Equal(t, "ORD-20240101-0042", created.HumanNumber)
	assert.Equal(t, workflow.StatusDraft, created.Status)

	// The create carries its own dedupe key so a double submit cannot
	// produce two orders upstream.
	assert.NotEmpty(t, createKey)

	// Totals are recomputed from the items, never trusted from the form.
	assert.True(t, posted.Subtotal.Equal(decimal.RequireFromString("820")), "Subtotal = %s", posted.Subtotal)
	assert.True(t, posted.Total.Equal(decimal.RequireFromString("820")))

	// The created order lands in the store.
	got, ok := svc.Store().Get("o-new")
	require.True(t, ok)
	assert.Equal(t, "ORD-20240101-0042", got.HumanNumber)
}

func TestOrdersService_CreateRequiresOrderManager(t *testing.T) {
	calls := 0
	svc := NewOrdersService(newUpstreamClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})), &fakeHistory{}, &fakeKeys{}, zap.NewNop())

	_, err := svc.Create(context.Background(), sessionFor(workflow.RoleAccountant), OrderDraft{
		Items: []entity.LineItem{{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, workflow.ErrNotPermitted)
	assert.Zero(t, calls)
}

func TestDocumentService_ListFiltersByStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Order{
			{Document: entity.Document{ID: "o1", Status: workflow.StatusPending}},
			{Document: entity.Document{ID: "o2", Status: workflow.StatusApproved}},
			{Document: entity.Document{ID: "o3", Status: workflow.StatusPending}},
		})
	})

	svc := NewOrdersService(newUpstreamClient(t, mux), &fakeHistory{}, &fakeKeys{}, zap.NewNop())
	sess := sessionFor(workflow.RoleManager)

	all, err := svc.List(context.Background(), sess, workflow.StatusAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := svc.List(context.Background(), sess, "PENDING")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "o1", pending[0].ID)
	assert.Equal(t, "o3", pending[1].ID)
}

func TestDocumentService_UnauthorizedPropagatesUniformly(t *testing.T) {
	svc := NewOrdersService(newUpstreamClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})), &fakeHistory{}, &fakeKeys{}, zap.NewNop())

	_, err := svc.List(context.Background(), sessionFor(workflow.RoleManager), workflow.StatusAll)
	assert.ErrorIs(t, err, upstream.ErrUnauthorized)

	_, err = svc.Summary(context.Background(), sessionFor(workflow.RoleManager))
	assert.ErrorIs(t, err, upstream.ErrUnauthorized)
}

func TestDocumentService_DeleteIsAdminOnly(t *testing.T) {
	deleted := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Order{{Document: entity.Document{ID: "o1", Status: workflow.StatusPending}}})
	})
	mux.HandleFunc("DELETE /orders/o1", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})

	svc := NewOrdersService(newUpstreamClient(t, mux), &fakeHistory{}, &fakeKeys{}, zap.NewNop())
	sess := sessionFor(workflow.RoleManager)
	require.NoError(t, svc.Refresh(context.Background(), sess))

	err := svc.Delete(context.Background(), sess, "o1")
	assert.ErrorIs(t, err, workflow.ErrNotPermitted)
	assert.False(t, deleted)

	require.NoError(t, svc.Delete(context.Background(), sessionFor(workflow.RoleAdmin), "o1"))
	assert.True(t, deleted)
	assert.Zero(t, svc.Store().Len())
}

func TestRequestsService_MarkForInvoiceGeneratesInvoice(t *testing.T) {
	approvedRequest := entity.Request{
		Document: entity.Document{
			ID:          "r1",
			HumanNumber: "REQ000009",
			Status:      workflow.StatusApproved,
			Items: []entity.LineItem{
				{Description: "Vaccination syringes", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(12)},
			},
		},
		RequestedBy: "u-9",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /requests", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Request{approvedRequest})
	})
	mux.HandleFunc("PATCH /requests/r1/status", func(w http.ResponseWriter, r *http.Request) {
		updated := approvedRequest
		updated.Status = workflow.StatusMarkedForInvoice
		json.NewEncoder(w).Encode(updated)
	})
	var createdInvoice entity.Invoice
	var invoiceKey string
	mux.HandleFunc("POST /invoices", func(w http.ResponseWriter, r *http.Request) {
		invoiceKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&createdInvoice))
		createdInvoice.ID = "i-gen"
		json.NewEncoder(w).Encode(createdInvoice)
	})

	client := newUpstreamClient(t, mux)
	invoices := NewInvoicesService(client, &fakeHistory{}, &fakeKeys{}, zap.NewNop())
	requests := NewRequestsService(client, invoices, &fakeHistory{}, &fakeKeys{}, zap.NewNop())

	updated, err := requests.MarkForInvoice(context.Background(), sessionFor(workflow.RoleAccountant), "r1")
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusMarkedForInvoice, updated.Status)

	// The generated invoice references the request and carries its items.
	assert.Equal(t, "r1", createdInvoice.RequestID)
	assert.Equal(t, workflow.StatusPending, createdInvoice.Status)
	assert.True(t, createdInvoice.Total.Equal(decimal.NewFromInt(120)))
	assert.NotEmpty(t, invoiceKey)

	got, ok := invoices.Store().Get("i-gen")
	require.True(t, ok)
	assert.Equal(t, "r1", got.RequestID)
}

func TestRequestsService_MarkForInvoiceRequiresApprovedRequest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /requests", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Request{
			{Document: entity.Document{ID: "r1", Status: workflow.StatusPending}},
		})
	})

	client := newUpstreamClient(t, mux)
	invoices := NewInvoicesService(client, &fakeHistory{}, &fakeKeys{}, zap.NewNop())
	requests := NewRequestsService(client, invoices, &fakeHistory{}, &fakeKeys{}, zap.NewNop())

	_, err := requests.MarkForInvoice(context.Background(), sessionFor(workflow.RoleAccountant), "r1")
	assert.ErrorIs(t, err, workflow.ErrNotPermitted)
}
