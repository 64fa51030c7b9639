package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	"github.com/zalar2202/logashop/pkg/logger"
)

type stubCreator struct {
	created []*models.Notification
	err     error
}

func (s *stubCreator) Create(ctx context.Context, notification *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, notification)
	return nil
}

func newDispatcher(t *testing.T, repo notificationCreator) *Dispatcher {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	d, err := NewDispatcher(repo, nil, logg)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	return d
}

func TestOrderConfirmed_RecordsNotification(t *testing.T) {
	t.Parallel()

	repo := &stubCreator{}
	d := newDispatcher(t, repo)

	userID := uuid.New()
	order := &models.Order{
		ID:          uuid.New(),
		OrderNumber: "LS-20250615-ABCDEF",
		UserID:      &userID,
		TotalCents:  11349,
		Status:      enums.OrderStatusPendingPayment,
	}
	d.OrderConfirmed(context.Background(), order)

	if len(repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.created))
	}
	got := repo.created[0]
	if got.Type != enums.NotificationTypeOrderConfirmed {
		t.Fatalf("type = %s", got.Type)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Fatalf("user not carried: %+v", got)
	}
	if got.Payload["order_number"] != order.OrderNumber {
		t.Fatalf("payload = %+v", got.Payload)
	}
}

func TestLowStock_SkipsEmptyBatch(t *testing.T) {
	t.Parallel()

	repo := &stubCreator{}
	d := newDispatcher(t, repo)

	d.LowStock(context.Background(), nil)
	if len(repo.created) != 0 {
		t.Fatalf("expected no notification for empty batch, got %d", len(repo.created))
	}

	d.LowStock(context.Background(), []LowStockItem{{Name: "Poster", SKU: "POST-1", Stock: 2}})
	if len(repo.created) != 1 || repo.created[0].Type != enums.NotificationTypeLowStock {
		t.Fatalf("expected low stock notification, got %+v", repo.created)
	}
	if repo.created[0].UserID != nil {
		t.Fatal("low stock alerts are staff-wide, not user-scoped")
	}
}

func TestDispatcher_SwallowsRepoErrors(t *testing.T) {
	t.Parallel()

	d := newDispatcher(t, &stubCreator{err: errors.New("db down")})

	// Must not panic or surface the failure.
	d.OrderConfirmed(context.Background(), &models.Order{ID: uuid.New(), OrderNumber: "LS-1"})
	d.LowStock(context.Background(), []LowStockItem{{Name: "Poster", SKU: "P", Stock: 1}})
}

func TestDigitalDeliveryReady(t *testing.T) {
	t.Parallel()

	repo := &stubCreator{}
	d := newDispatcher(t, repo)

	email := "guest@example.com"
	order := &models.Order{ID: uuid.New(), OrderNumber: "LS-2", GuestEmail: &email}
	d.DigitalDeliveryReady(context.Background(), order, []models.DigitalDelivery{
		{DownloadToken: "tok-1"},
		{DownloadToken: "tok-2"},
	})

	if len(repo.created) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.created))
	}
	got := repo.created[0]
	if got.Type != enums.NotificationTypeDigitalDelivery {
		t.Fatalf("type = %s", got.Type)
	}
	if got.RecipientEmail == nil || *got.RecipientEmail != email {
		t.Fatalf("guest email not carried: %+v", got)
	}
	tokens, ok := got.Payload["download_tokens"].([]string)
	if !ok || len(tokens) != 2 {
		t.Fatalf("payload = %+v", got.Payload)
	}

	d.DigitalDeliveryReady(context.Background(), order, nil)
	if len(repo.created) != 1 {
		t.Fatal("no grants must mean no notification")
	}
}
