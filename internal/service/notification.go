package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/avelichko/storefront/internal/mailer"
	"github.com/avelichko/storefront/internal/model"
	"github.com/avelichko/storefront/internal/repository"
)

const restockSubject = "Your item has arrived!"

type NotificationService struct {
	subRepo     repository.SubscriptionRepository
	productRepo repository.ProductRepository
	mailer      mailer.Mailer
	log         *slog.Logger
}

func NewNotificationService(
	subRepo repository.SubscriptionRepository,
	productRepo repository.ProductRepository,
	m mailer.Mailer,
	log *slog.Logger,
) *NotificationService {
	return &NotificationService{subRepo: subRepo, productRepo: productRepo, mailer: m, log: log}
}

// Subscribe records a restock request for the product identified by slug.
// Subscribing twice with the same e-mail keeps a single registry row.
func (s *NotificationService) Subscribe(ctx context.Context, productSlug, email string) (*model.RestockSubscription, error) {
	product, err := s.productRepo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	sub := &model.RestockSubscription{ProductID: product.ID, Email: email}
	if err := s.subRepo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return sub, nil
}

// NotifyForProducts scans the registry rows for exactly the given products.
// Each row whose product is available at scan time gets one mail and is then
// deleted. A failed send keeps its row for a later attempt and the scan
// continues. Returns the number of notified subscribers.
func (s *NotificationService) NotifyForProducts(ctx context.Context, productIDs []uuid.UUID) (int, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return 0, fmt.Errorf("get products: %w", err)
	}
	available := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		if products[i].Available {
			available[products[i].ID] = &products[i]
		}
	}

	subs, err := s.subRepo.ListByProductIDs(ctx, productIDs)
	if err != nil {
		return 0, fmt.Errorf("list subscriptions: %w", err)
	}

	sent := 0
	for _, sub := range subs {
		product, ok := available[sub.ProductID]
		if !ok {
			continue
		}

		body := fmt.Sprintf("Item: %s now available in our store!", product.Title)
		if err := s.mailer.Send(ctx, restockSubject, body, sub.Email); err != nil {
			s.log.Error("send restock mail", "subscription_id", sub.ID, "email", sub.Email, "error", err)
			continue
		}
		if err := s.subRepo.Delete(ctx, sub.ID); err != nil {
			s.log.Error("delete subscription", "subscription_id", sub.ID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}
