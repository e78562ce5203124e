package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/mail"
	"github.com/mountemart/backend/pkg/outbox/payloads"
)

type stubRepo struct {
	created []models.Notification
	err     error
}

func (s *stubRepo) Create(_ context.Context, notification *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, *notification)
	return nil
}

type stubUsers struct {
	user *models.User
	err  error
}

func (s *stubUsers) FindUserByID(context.Context, uuid.UUID) (*models.User, error) {
	return s.user, s.err
}

type stubMailer struct {
	sent []mail.Message
	err  error
}

func (s *stubMailer) Send(_ context.Context, msg mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newTestConsumer(repo *stubRepo, users *stubUsers, mailer mail.Sender) *Consumer {
	return &Consumer{
		repo:   repo,
		users:  users,
		mailer: mailer,
		logg:   logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard}),
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestHandleOrderConfirmedSendsInvoice(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	mailer := &stubMailer{}
	users := &stubUsers{user: &models.User{
		ID:        uuid.New(),
		Email:     "asha@example.com",
		FirstName: "Asha",
		LastName:  "Shrestha",
	}}
	consumer := newTestConsumer(repo, users, mailer)

	payload := payloads.OrderConfirmedEvent{
		OrderID:       uuid.New(),
		OrderCode:     "AB23CDE",
		UserID:        users.user.ID,
		Price:         decimal.NewFromInt(510),
		PaymentMethod: enums.PaymentMethodCOD,
		ConfirmedAt:   time.Now(),
	}
	err := consumer.handle(context.Background(), enums.EventOrderConfirmed, mustJSON(t, payload), context.Background())
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].Title != "Order confirmed" {
		t.Fatalf("expected in-app notification, got %+v", repo.created)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected invoice email, got %d", len(mailer.sent))
	}
	if mailer.sent[0].ToEmail != "asha@example.com" || mailer.sent[0].Subject != "Invoice for order AB23CDE" {
		t.Fatalf("unexpected email %+v", mailer.sent[0])
	}
}

func TestHandleOrderConfirmedWithoutMailer(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	consumer := newTestConsumer(repo, &stubUsers{}, nil)

	payload := payloads.OrderConfirmedEvent{OrderCode: "AB23CDE", UserID: uuid.New(), Price: decimal.NewFromInt(100)}
	err := consumer.handle(context.Background(), enums.EventOrderConfirmed, mustJSON(t, payload), context.Background())
	if err != nil {
		t.Fatalf("handle without mailer: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
}

func TestHandleMailFailurePropagates(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	mailer := &stubMailer{err: errors.New("sendgrid down")}
	users := &stubUsers{user: &models.User{ID: uuid.New(), Email: "u@example.com", FirstName: "U"}}
	consumer := newTestConsumer(repo, users, mailer)

	payload := payloads.OrderConfirmedEvent{OrderCode: "AB23CDE", UserID: users.user.ID, Price: decimal.NewFromInt(100)}
	err := consumer.handle(context.Background(), enums.EventOrderConfirmed, mustJSON(t, payload), context.Background())
	if err == nil {
		t.Fatal("expected error so the message is redelivered")
	}
}

func TestHandleStatusAndReturnEvents(t *testing.T) {
	t.Parallel()

	repo := &stubRepo{}
	consumer := newTestConsumer(repo, &stubUsers{}, nil)
	ctx := context.Background()
	userID := uuid.New()

	statusPayload := payloads.OrderStatusChangedEvent{
		OrderCode: "AB23CDE",
		UserID:    userID,
		OldStatus: enums.OrderStatusProcessing,
		NewStatus: enums.OrderStatusShipped,
	}
	if err := consumer.handle(ctx, enums.EventOrderStatusChanged, mustJSON(t, statusPayload), ctx); err != nil {
		t.Fatalf("status event: %v", err)
	}

	returnPayload := payloads.ReturnRequestedEvent{OrderCode: "AB23CDE", UserID: userID, Reason: "damaged"}
	if err := consumer.handle(ctx, enums.EventReturnRequested, mustJSON(t, returnPayload), ctx); err != nil {
		t.Fatalf("return event: %v", err)
	}

	if len(repo.created) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(repo.created))
	}
	if repo.created[0].Message != "Your order AB23CDE is now SHIPPED." {
		t.Fatalf("unexpected message %q", repo.created[0].Message)
	}
}

func TestHandledEventFilter(t *testing.T) {
	t.Parallel()

	if handledEvent(enums.OutboxEventType("something_else")) {
		t.Fatal("unexpected event must not be handled")
	}
	if !handledEvent(enums.EventOrderCancelled) {
		t.Fatal("order cancelled must be handled")
	}
}
