package paymentRepo

import (
	"context"
	"sync"
	"time"

	"slotpass/models"

	"github.com/google/uuid"
)

// MemoryPaymentRepo is an in-memory PaymentRepository used by service tests.
// RunInTransaction only serializes; webhook tests exercise the idempotent
// swaps rather than rollback.
type MemoryPaymentRepo struct {
	mu       sync.Mutex
	txnMu    sync.Mutex
	payments map[string]models.Payment
}

// NewMemoryPaymentRepo constructs an empty in-memory store.
func NewMemoryPaymentRepo() *MemoryPaymentRepo {
	return &MemoryPaymentRepo{payments: make(map[string]models.Payment)}
}

func (r *MemoryPaymentRepo) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txnMu.Lock()
	defer r.txnMu.Unlock()
	return fn(ctx)
}

func (r *MemoryPaymentRepo) Insert(ctx context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.payments[p.GatewayOrderID]; exists {
		return ErrOrderExists
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	r.payments[p.GatewayOrderID] = *p
	return nil
}

func (r *MemoryPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryPaymentRepo) GetByEntity(ctx context.Context, entityType, entityID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.EntityType == entityType && p.EntityID == entityID {
			out := p
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryPaymentRepo) MarkCaptured(ctx context.Context, orderID, gatewayPaymentID, method string) (bool, error) {
	return r.swap(orderID, models.PaymentPending, models.PaymentCaptured, gatewayPaymentID, method)
}

func (r *MemoryPaymentRepo) MarkFailed(ctx context.Context, orderID, gatewayPaymentID, method string) (bool, error) {
	return r.swap(orderID, models.PaymentPending, models.PaymentFailed, gatewayPaymentID, method)
}

func (r *MemoryPaymentRepo) swap(orderID, from, to, gatewayPaymentID, method string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.GatewayPaymentID = gatewayPaymentID
	p.Method = method
	p.UpdatedAt = time.Now()
	r.payments[orderID] = p
	return true, nil
}

func (r *MemoryPaymentRepo) MarkRefunded(ctx context.Context, orderID, refundID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil
	}
	p.Status = models.PaymentRefunded
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	p.Metadata["refund_id"] = refundID
	p.UpdatedAt = time.Now()
	r.payments[orderID] = p
	return nil
}

func (r *MemoryPaymentRepo) RebindEntity(ctx context.Context, orderID, entityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[orderID]
	if !ok {
		return nil
	}
	p.EntityID = entityID
	p.UpdatedAt = time.Now()
	r.payments[orderID] = p
	return nil
}
