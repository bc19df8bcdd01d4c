package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelichko/storefront/internal/model"
)

type mockSubRepo struct {
	subs map[uuid.UUID]*model.RestockSubscription
}

func newMockSubRepo() *mockSubRepo {
	return &mockSubRepo{subs: make(map[uuid.UUID]*model.RestockSubscription)}
}

func (m *mockSubRepo) Upsert(_ context.Context, sub *model.RestockSubscription) error {
	for _, existing := range m.subs {
		if existing.ProductID == sub.ProductID && existing.Email == sub.Email {
			sub.ID = existing.ID
			return nil
		}
	}
	sub.ID = uuid.New()
	sub.CreatedAt = time.Now()
	m.subs[sub.ID] = sub
	return nil
}

func (m *mockSubRepo) ListByProductIDs(_ context.Context, productIDs []uuid.UUID) ([]model.RestockSubscription, error) {
	wanted := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var subs []model.RestockSubscription
	for _, sub := range m.subs {
		if wanted[sub.ProductID] {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}

func (m *mockSubRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.subs, id)
	return nil
}

type mockMailer struct {
	sent    []string // recipient addresses in send order
	failFor map[string]bool
}

func newMockMailer() *mockMailer {
	return &mockMailer{failFor: make(map[string]bool)}
}

func (m *mockMailer) Send(_ context.Context, _, _, to string) error {
	if m.failFor[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestNotificationService(subRepo *mockSubRepo, productRepo *mockProductRepo, m *mockMailer) *NotificationService {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotificationService(subRepo, productRepo, m, log)
}

func TestNotificationService_Subscribe(t *testing.T) {
	productRepo := newMockProductRepo()
	product := productRepo.addProduct("widget-a", decimal.RequireFromString("10.00"), false)
	subRepo := newMockSubRepo()
	svc := newTestNotificationService(subRepo, productRepo, newMockMailer())

	sub, err := svc.Subscribe(context.Background(), "widget-a", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, product.ID, sub.ProductID)

	// Subscribing again with the same address keeps a single row.
	_, err = svc.Subscribe(context.Background(), "widget-a", "a@example.com")
	require.NoError(t, err)
	assert.Len(t, subRepo.subs, 1)
}

func TestNotificationService_Subscribe_ProductNotFound(t *testing.T) {
	svc := newTestNotificationService(newMockSubRepo(), newMockProductRepo(), newMockMailer())

	_, err := svc.Subscribe(context.Background(), "missing", "a@example.com")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestNotificationService_NotifyForProducts(t *testing.T) {
	productRepo := newMockProductRepo()
	product := productRepo.addProduct("widget-a", decimal.RequireFromString("10.00"), true)
	subRepo := newMockSubRepo()
	m := newMockMailer()
	svc := newTestNotificationService(subRepo, productRepo, m)

	_, err := svc.Subscribe(context.Background(), "widget-a", "a@example.com")
	require.NoError(t, err)
	_, err = svc.Subscribe(context.Background(), "widget-a", "b@example.com")
	require.NoError(t, err)

	sent, err := svc.NotifyForProducts(context.Background(), []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, m.sent, 2)

	// Each mailed subscriber's row is gone.
	assert.Empty(t, subRepo.subs)
}

func TestNotificationService_NotifyForProducts_ScopedToGivenIDs(t *testing.T) {
	productRepo := newMockProductRepo()
	restocked := productRepo.addProduct("widget-a", decimal.RequireFromString("10.00"), true)
	other := productRepo.addProduct("widget-b", decimal.RequireFromString("10.00"), true)
	subRepo := newMockSubRepo()
	m := newMockMailer()
	svc := newTestNotificationService(subRepo, productRepo, m)

	_, err := svc.Subscribe(context.Background(), "widget-a", "a@example.com")
	require.NoError(t, err)
	otherSub, err := svc.Subscribe(context.Background(), "widget-b", "b@example.com")
	require.NoError(t, err)

	// Only widget-a is in the event; widget-b subscribers stay untouched
	// even though the product happens to be available.
	sent, err := svc.NotifyForProducts(context.Background(), []uuid.UUID{restocked.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"a@example.com"}, m.sent)
	require.Len(t, subRepo.subs, 1)
	assert.Equal(t, other.ID, subRepo.subs[otherSub.ID].ProductID)
}

func TestNotificationService_NotifyForProducts_UnavailableSkipped(t *testing.T) {
	productRepo := newMockProductRepo()
	product := productRepo.addProduct("widget-a", decimal.RequireFromString("10.00"), false)
	subRepo := newMockSubRepo()
	m := newMockMailer()
	svc := newTestNotificationService(subRepo, productRepo, m)

	_, err := svc.Subscribe(context.Background(), "widget-a", "a@example.com")
	require.NoError(t, err)

	sent, err := svc.NotifyForProducts(context.Background(), []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, m.sent)
	assert.Len(t, subRepo.subs, 1)
}

func TestNotificationService_NotifyForProducts_FailedSendKeepsRow(t *testing.T) {
	productRepo := newMockProductRepo()
	product := productRepo.addProduct("widget-a", decimal.RequireFromString("10.00"), true)
	subRepo := newMockSubRepo()
	m := newMockMailer()
	m.failFor["broken@example.com"] = true
	svc := newTestNotificationService(subRepo, productRepo, m)

	brokenSub, err := svc.Subscribe(context.Background(), "widget-a", "broken@example.com")
	require.NoError(t, err)
	_, err = svc.Subscribe(context.Background(), "widget-a", "ok@example.com")
	require.NoError(t, err)

	sent, err := svc.NotifyForProducts(context.Background(), []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"ok@example.com"}, m.sent)

	// The failed recipient's row survives for a later attempt.
	require.Len(t, subRepo.subs, 1)
	assert.Equal(t, "broken@example.com", subRepo.subs[brokenSub.ID].Email)
}

func TestNotificationService_NotifyForProducts_EmptyIDs(t *testing.T) {
	svc := newTestNotificationService(newMockSubRepo(), newMockProductRepo(), newMockMailer())

	sent, err := svc.NotifyForProducts(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, sent)
}
