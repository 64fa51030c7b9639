package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/zalar2202/logashop/pkg/db/models"
	"github.com/zalar2202/logashop/pkg/enums"
	"github.com/zalar2202/logashop/pkg/logger"
)

const publishTimeout = 10 * time.Second

type notificationCreator interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type orderEventPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) *gcppubsub.PublishResult
}

// LowStockItem describes one product or variant that crossed the
// low-stock threshold during checkout.
type LowStockItem struct {
	Name  string `json:"name"`
	SKU   string `json:"sku"`
	Stock int    `json:"stock"`
}

// Dispatcher records in-app notifications and publishes order events.
// Every method is best-effort: failures are logged and swallowed so a
// notification outage can never fail a checkout.
type Dispatcher struct {
	repo      notificationCreator
	publisher orderEventPublisher
	logg      *logger.Logger
}

// NewDispatcher builds the dispatcher. The publisher may be nil when
// Pub/Sub is not configured; events are then only stored in-app.
func NewDispatcher(repo notificationCreator, publisher orderEventPublisher, logg *logger.Logger) (*Dispatcher, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{repo: repo, publisher: publisher, logg: logg}, nil
}

// OrderConfirmed notifies the buyer that the order was placed.
func (d *Dispatcher) OrderConfirmed(ctx context.Context, order *models.Order) {
	notification := &models.Notification{
		UserID:         order.UserID,
		RecipientEmail: order.GuestEmail,
		Type:           enums.NotificationTypeOrderConfirmed,
		Title:          "Order confirmed",
		Message:        fmt.Sprintf("Your order %s has been placed.", order.OrderNumber),
		Payload: map[string]any{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"total_cents":  order.TotalCents,
		},
	}
	d.record(ctx, notification)
	d.publish(ctx, "order.confirmed", map[string]any{
		"order_id":     order.ID.String(),
		"order_number": order.OrderNumber,
		"total_cents":  order.TotalCents,
		"status":       order.Status.String(),
	})
}

// DigitalDeliveryReady tells the buyer their download links exist.
func (d *Dispatcher) DigitalDeliveryReady(ctx context.Context, order *models.Order, grants []models.DigitalDelivery) {
	if len(grants) == 0 {
		return
	}
	tokens := make([]string, 0, len(grants))
	for _, grant := range grants {
		tokens = append(tokens, grant.DownloadToken)
	}
	notification := &models.Notification{
		UserID:         order.UserID,
		RecipientEmail: order.GuestEmail,
		Type:           enums.NotificationTypeDigitalDelivery,
		Title:          "Your downloads are ready",
		Message:        fmt.Sprintf("Order %s includes %d digital item(s).", order.OrderNumber, len(grants)),
		Payload: map[string]any{
			"order_id":        order.ID.String(),
			"download_tokens": tokens,
		},
	}
	d.record(ctx, notification)
}

// LowStock raises a restock alert for staff. It carries no UserID; the
// admin surface reads these by type.
func (d *Dispatcher) LowStock(ctx context.Context, items []LowStockItem) {
	if len(items) == 0 {
		return
	}
	notification := &models.Notification{
		Type:    enums.NotificationTypeLowStock,
		Title:   "Low stock",
		Message: fmt.Sprintf("%d product(s) are at or below the restock threshold.", len(items)),
		Payload: map[string]any{"items": items},
	}
	d.record(ctx, notification)
	d.publish(ctx, "inventory.low_stock", map[string]any{"items": items})
}

func (d *Dispatcher) record(ctx context.Context, notification *models.Notification) {
	if err := d.repo.Create(ctx, notification); err != nil {
		ctx = d.logg.WithField(ctx, "notification_type", string(notification.Type))
		d.logg.Error(ctx, "failed to record notification", err)
	}
}

func (d *Dispatcher) publish(ctx context.Context, eventType string, payload map[string]any) {
	if d.publisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		d.logg.Error(ctx, "failed to encode order event", err)
		return
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	result := d.publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type":  eventType,
			"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	if result == nil {
		return
	}
	if _, err := result.Get(publishCtx); err != nil {
		ctx = d.logg.WithField(ctx, "event_type", eventType)
		d.logg.Error(ctx, "failed to publish order event", err)
	}
}
