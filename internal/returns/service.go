package returns

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/logger"
	"github.com/mountemart/backend/pkg/outbox"
	"github.com/mountemart/backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// allowedTransitions is keyed by the current status. Resolved and Cancelled
// are terminal.
var allowedTransitions = map[enums.ReturnStatus][]enums.ReturnStatus{
	enums.ReturnStatusPending:    {enums.ReturnStatusProcessing, enums.ReturnStatusCancelled},
	enums.ReturnStatusProcessing: {enums.ReturnStatusPickup, enums.ReturnStatusCancelled},
	enums.ReturnStatusPickup:     {enums.ReturnStatusResolved},
}

// Service handles return requests against delivered orders.
type Service interface {
	Request(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.ReturnRequest, error)
	CancelRequest(ctx context.Context, userID, returnID uuid.UUID) error
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.ReturnRequest, error)
	ListByStatus(ctx context.Context, status enums.ReturnStatus) ([]models.ReturnRequest, error)
	AdminSetStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus) (*models.ReturnRequest, error)
}

type service struct {
	repo   Repository
	orders orderLoader
	tx     txRunner
	outbox outboxPublisher
	logg   *logger.Logger
}

// ServiceParams bundles the return service dependencies.
type ServiceParams struct {
	Repo   Repository
	Orders orderLoader
	Tx     txRunner
	Outbox outboxPublisher
	Logger *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Orders == nil:
		return nil, errors.New("order loader is required")
	case params.Tx == nil:
		return nil, errors.New("transaction runner is required")
	case params.Outbox == nil:
		return nil, errors.New("outbox publisher is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &service{
		repo:   params.Repo,
		orders: params.Orders,
		tx:     params.Tx,
		outbox: params.Outbox,
		logg:   params.Logger,
	}, nil
}

func (s *service) Request(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.ReturnRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only delivered orders can be returned").
			WithDetails(map[string]any{"status": order.Status})
	}

	request := &models.ReturnRequest{
		ID:      uuid.New(),
		OrderID: order.ID,
		UserID:  userID,
		Reason:  reason,
		Status:  enums.ReturnStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindOpenByOrder(ctx, order.ID); err == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "a return is already open for this order")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := repo.Create(ctx, request); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReturnRequested,
			AggregateType: enums.AggregateReturn,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.ReturnRequestedEvent{
				ReturnID:  request.ID,
				OrderID:   order.ID,
				OrderCode: order.Code,
				UserID:    userID,
				Reason:    reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"return_id": request.ID,
		"order_id":  order.ID,
	})
	s.logg.Info(ctx, "return requested")
	return request, nil
}

func (s *service) CancelRequest(ctx context.Context, userID, returnID uuid.UUID) error {
	request, err := s.repo.FindByID(ctx, returnID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}
	if err != nil {
		return err
	}
	if request.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.UpdateStatusIf(ctx, returnID, enums.ReturnStatusPending, enums.ReturnStatusCancelled)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending returns can be cancelled")
		}
		return s.emitStatusChange(ctx, tx, request, enums.ReturnStatusCancelled)
	})
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.ReturnRequest, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListByStatus(ctx context.Context, status enums.ReturnStatus) ([]models.ReturnRequest, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *service) AdminSetStatus(ctx context.Context, returnID uuid.UUID, status enums.ReturnStatus) (*models.ReturnRequest, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid return status")
	}
	request, err := s.repo.FindByID(ctx, returnID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(request.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invalid return status transition").
			WithDetails(map[string]any{"from": request.Status, "to": status})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		moved, err := repo.UpdateStatusIf(ctx, returnID, request.Status, status)
		if err != nil {
			return err
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "return request changed, retry")
		}
		return s.emitStatusChange(ctx, tx, request, status)
	})
	if err != nil {
		return nil, err
	}

	request.Status = status
	return request, nil
}

func (s *service) emitStatusChange(ctx context.Context, tx *gorm.DB, request *models.ReturnRequest, to enums.ReturnStatus) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReturnStatusChanged,
		AggregateType: enums.AggregateReturn,
		AggregateID:   request.ID,
		Data: payloads.ReturnStatusChangedEvent{
			ReturnID:  request.ID,
			OrderID:   request.OrderID,
			UserID:    request.UserID,
			OldStatus: request.Status,
			NewStatus: to,
		},
	})
}

func transitionAllowed(from, to enums.ReturnStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
