package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "Order update",
		Message:   "Your order shipped.",
		CreatedAt: createdAt,
	}
	if err := db.Create(notification).Error; err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return notification
}

func TestNotifyAndList(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	if err := svc.Notify(ctx, userID, "Order Placed!", "Your order ABC1234 has been placed."); err != nil {
		t.Fatalf("notify: %v", err)
	}

	result, err := svc.List(ctx, ListParams{UserID: userID, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Title != "Order Placed!" {
		t.Fatalf("unexpected items %+v", result.Items)
	}
	if result.Cursor != "" {
		t.Fatalf("expected no next page, got cursor %q", result.Cursor)
	}
}

func TestListPaginates(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := svc.List(ctx, ListParams{UserID: userID, Limit: 3})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 3 || first.Cursor == "" {
		t.Fatalf("expected full first page with cursor, got %d items", len(first.Items))
	}

	second, err := svc.List(ctx, ListParams{UserID: userID, Limit: 3, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 2 || second.Cursor != "" {
		t.Fatalf("expected final page of 2, got %d items cursor %q", len(second.Items), second.Cursor)
	}
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	notification := seedNotification(t, db, userID, time.Now())

	if err := svc.MarkRead(ctx, userID, notification.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	var reloaded models.Notification
	if err := db.First(&reloaded, "id = ?", notification.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ReadAt == nil {
		t.Fatal("expected read_at set")
	}

	// Idempotent for an already-read row, not found for a foreign user.
	if err := svc.MarkRead(ctx, userID, notification.ID); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if err := svc.MarkRead(ctx, uuid.New(), notification.ID); pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	seedNotification(t, db, userID, time.Now())
	seedNotification(t, db, userID, time.Now())
	seedNotification(t, db, uuid.New(), time.Now())

	count, err := svc.MarkAllRead(ctx, userID)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 updated, got %d", count)
	}

	unread, err := svc.List(ctx, ListParams{UserID: userID, Limit: 10, UnreadOnly: true})
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread.Items) != 0 {
		t.Fatalf("expected no unread, got %d", len(unread.Items))
	}
}
