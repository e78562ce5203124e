package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/mail"
	"github.com/mountemart/backend/pkg/outbox"
	"github.com/mountemart/backend/pkg/outbox/idempotency"
	"github.com/mountemart/backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type userLoader interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Consumer turns order and return lifecycle events into in-app notifications
// and, for confirmations, an invoice email.
type Consumer struct {
	repo         repository
	users        userLoader
	mailer       mail.Sender
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// ConsumerParams bundles the consumer dependencies. Mailer may be nil;
// invoice emails are skipped when it is.
type ConsumerParams struct {
	Repo         repository
	Users        userLoader
	Mailer       mail.Sender
	Subscription *pubsub.Subscriber
	Idempotency  *idempotency.Manager
	Logger       *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("notifications repository required")
	case params.Users == nil:
		return nil, fmt.Errorf("user loader required")
	case params.Subscription == nil:
		return nil, fmt.Errorf("domain subscription required")
	case params.Idempotency == nil:
		return nil, fmt.Errorf("idempotency manager required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         params.Repo,
		users:        params.Users,
		mailer:       params.Mailer,
		subscription: params.Subscription,
		idempotency:  params.Idempotency,
		logg:         params.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if !handledEvent(eventType) {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func handledEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderConfirmed,
		enums.EventOrderStatusChanged,
		enums.EventOrderCancelled,
		enums.EventReturnRequested,
		enums.EventReturnStatusChanged:
		return true
	}
	return false
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventOrderConfirmed:
		var payload payloads.OrderConfirmedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.handleOrderConfirmed(ctx, payload, logCtx)
	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, payload.UserID,
			"Order update",
			fmt.Sprintf("Your order %s is now %s.", payload.OrderCode, payload.NewStatus))
	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, payload.UserID,
			"Order cancelled",
			fmt.Sprintf("Your order %s has been cancelled.", payload.OrderCode))
	case enums.EventReturnRequested:
		var payload payloads.ReturnRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, payload.UserID,
			"Return requested",
			fmt.Sprintf("We received your return request for order %s.", payload.OrderCode))
	case enums.EventReturnStatusChanged:
		var payload payloads.ReturnStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notify(ctx, payload.UserID,
			"Return update",
			fmt.Sprintf("Your return request is now %s.", payload.NewStatus))
	}
	return nil
}

func (c *Consumer) handleOrderConfirmed(ctx context.Context, payload payloads.OrderConfirmedEvent, logCtx context.Context) error {
	if err := c.notify(ctx, payload.UserID,
		"Order confirmed",
		fmt.Sprintf("Order %s is confirmed. Total: %s.", payload.OrderCode, payload.Price.StringFixed(2))); err != nil {
		return err
	}

	if c.mailer == nil {
		c.logg.Info(logCtx, "mailer not configured, skipping invoice email")
		return nil
	}
	user, err := c.users.FindUserByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("load user for invoice: %w", err)
	}
	if err := c.mailer.Send(ctx, invoiceEmail(user, payload)); err != nil {
		// The in-app notification is already written; email delivery is
		// retried via nack.
		return fmt.Errorf("send invoice email: %w", err)
	}
	c.logg.Info(logCtx, "invoice email sent")
	return nil
}

func (c *Consumer) notify(ctx context.Context, userID uuid.UUID, title, message string) error {
	return c.repo.Create(ctx, &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Title:   title,
		Message: message,
	})
}

func invoiceEmail(user *models.User, payload payloads.OrderConfirmedEvent) mail.Message {
	name := user.FirstName + " " + user.LastName
	plain := fmt.Sprintf(
		"Hi %s,\n\nYour order %s has been confirmed on %s.\n\nTotal: %s\nPayment method: %s\n\nThank you for shopping with us.",
		user.FirstName,
		payload.OrderCode,
		payload.ConfirmedAt.Format("2 Jan 2006"),
		payload.Price.StringFixed(2),
		payload.PaymentMethod,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your order <strong>%s</strong> has been confirmed.</p><p>Total: <strong>%s</strong><br>Payment method: %s</p><p>Thank you for shopping with us.</p>",
		user.FirstName,
		payload.OrderCode,
		payload.Price.StringFixed(2),
		payload.PaymentMethod,
	)
	return mail.Message{
		ToName:    name,
		ToEmail:   user.Email,
		Subject:   fmt.Sprintf("Invoice for order %s", payload.OrderCode),
		PlainBody: plain,
		HTMLBody:  html,
	}
}
