package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/statemachine"
	"github.com/threemeal/threemeal-backend/internal/validation"
	"github.com/threemeal/threemeal-backend/internal/websocket"
	"github.com/threemeal/threemeal-backend/pkg/events"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"github.com/threemeal/threemeal-backend/pkg/mailer"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrUnsupportedZipcode  = errors.New("meal is not offered in this zip code")
	ErrCannotCancelHandled = errors.New("a handled order can no longer be canceled")
	ErrInvalidOrderFilter  = errors.New("order filter must be all, unhandled, handled, completed or canceled")
	ErrInvalidTransition   = statemachine.ErrInvalidTransition
)

const publishTimeout = 5 * time.Second

// OrderInput carries the delivery details of a new order.
type OrderInput struct {
	Zipcode string
	Address string
	Phone   string
	Message string
}

// CustomerEditInput holds the customer's changes; nil fields stay as they are.
type CustomerEditInput struct {
	Address *string
	Phone   *string
	Message *string
	Status  *model.OrderStatus
}

// ParseOrderFilter maps a listing filter to a status; "all" yields nil.
func ParseOrderFilter(s string) (*model.OrderStatus, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	status, ok := model.ParseOrderStatus(s)
	if !ok {
		return nil, ErrInvalidOrderFilter
	}
	return &status, nil
}

type OrderService interface {
	PlaceOrder(ctx context.Context, customerID, mealID uint, input OrderInput) (*model.Order, error)
	CustomerEdit(ctx context.Context, p model.Principal, orderID uint, input CustomerEditInput) (*model.Order, error)
	ChefUpdateStatus(ctx context.Context, p model.Principal, orderID uint, status model.OrderStatus, remark string) (*model.Order, error)
	ViewOrder(p model.Principal, orderID uint) (*model.Order, error)
	History(p model.Principal, orderID uint) ([]model.OrderStatusHistory, error)
	ListForCustomer(customerID uint) ([]model.Order, error)
	ListForChef(chefID uint, status *model.OrderStatus) ([]model.Order, error)
	ChefOrderStats(chefID uint) (map[model.OrderStatus]int64, error)
	RemindStaleOrders(ctx context.Context, olderThan time.Duration) (int, error)
	AutoCompleteHandled(ctx context.Context, olderThan time.Duration) (int, error)
}

type orderService struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	mealRepo  repository.MealRepository
	zipRepo   repository.ZipcodeRepository
	mzRepo    repository.MealZipcodeRepository
	mail      mailer.Mailer
	publisher events.Publisher
	notifier  websocket.Notifier
	now       func() time.Time
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	mealRepo repository.MealRepository,
	zipRepo repository.ZipcodeRepository,
	mzRepo repository.MealZipcodeRepository,
	mail mailer.Mailer,
	publisher events.Publisher,
	notifier websocket.Notifier,
) OrderService {
	return &orderService{
		db:        db,
		orderRepo: orderRepo,
		mealRepo:  mealRepo,
		zipRepo:   zipRepo,
		mzRepo:    mzRepo,
		mail:      mail,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
}

func (s *orderService) PlaceOrder(ctx context.Context, customerID, mealID uint, input OrderInput) (*model.Order, error) {
	code := strings.TrimSpace(input.Zipcode)
	logger.Info("Placing order", map[string]interface{}{
		"client_id": customerID,
		"meal_id":   mealID,
		"zipcode":   code,
	})

	if !validation.IsValidZipcode(code) {
		return nil, ErrInvalidZipcode
	}

	var order *model.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		meal, err := s.mealRepo.WithTx(tx).FindByID(mealID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMealNotFound
			}
			return err
		}

		zip, err := s.zipRepo.WithTx(tx).FindByCode(code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnsupportedZipcode
			}
			return err
		}
		if _, err := s.mzRepo.WithTx(tx).Find(meal.ID, zip.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnsupportedZipcode
			}
			return err
		}

		orders := s.orderRepo.WithTx(tx)
		order = &model.Order{
			MealID:    meal.ID,
			ZipcodeID: zip.ID,
			ClientID:  customerID,
			ChefID:    meal.ChefID,
			Address:   strings.TrimSpace(input.Address),
			Phone:     strings.TrimSpace(input.Phone),
			Message:   strings.TrimSpace(input.Message),
			Status:    model.OrderStatusUnhandled,
		}
		if err := orders.Create(order); err != nil {
			return err
		}
		return orders.AddHistory(&model.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  model.OrderStatusUnhandled,
			ChangedBy: customerID,
			Actor:     string(statemachine.ActorCustomer),
		})
	})
	if err != nil {
		if errors.Is(err, ErrMealNotFound) || errors.Is(err, ErrUnsupportedZipcode) {
			logger.Warn("Order rejected", map[string]interface{}{
				"client_id": customerID,
				"meal_id":   mealID,
				"reason":    err.Error(),
			})
		} else {
			logger.Error("Failed to place order", err, map[string]interface{}{
				"client_id": customerID,
				"meal_id":   mealID,
			})
		}
		return nil, err
	}

	logger.Info("Order placed", map[string]interface{}{
		"order_id": order.ID,
		"chef_id":  order.ChefID,
	})

	s.announce(ctx, events.OrderPlaced, order, "", customerID)
	return s.load(order.ID)
}

// CustomerEdit applies the customer's changes. Details only change while the
// order is unhandled; otherwise they are kept as they are.
func (s *orderService) CustomerEdit(ctx context.Context, p model.Principal, orderID uint, input CustomerEditInput) (*model.Order, error) {
	var (
		order *model.Order
		from  model.OrderStatus
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		var err error
		order, err = lockOrder(orders, orderID)
		if err != nil {
			return err
		}
		if err := CanEditAsCustomer(p, order).Err(); err != nil {
			return err
		}

		actor := statemachine.ActorCustomer
		if p.UserID != order.ClientID {
			actor = statemachine.ActorAdmin
		}

		from = order.Status
		to := from
		if input.Status != nil && *input.Status != from {
			to = *input.Status
			if to == model.OrderStatusCanceled && from == model.OrderStatusHandled {
				return ErrCannotCancelHandled
			}
			if err := statemachine.CanTransition(from, to, actor); err != nil {
				return err
			}
		}

		if from == model.OrderStatusUnhandled {
			if input.Address != nil {
				order.Address = strings.TrimSpace(*input.Address)
			}
			if input.Phone != nil {
				order.Phone = strings.TrimSpace(*input.Phone)
			}
			if input.Message != nil {
				order.Message = strings.TrimSpace(*input.Message)
			}
		}
		order.Status = to

		if err := updateOrder(orders, order, from); err != nil {
			return err
		}
		if to == from {
			return nil
		}
		return orders.AddHistory(&model.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   to,
			ChangedBy:  p.UserID,
			Actor:      string(actor),
		})
	})
	if err != nil {
		logOrderRejection("Customer order edit rejected", orderID, p.UserID, err)
		return nil, err
	}

	if order.Status != from {
		s.announce(ctx, events.OrderStatusChanged, order, from, p.UserID)
	}
	return s.load(order.ID)
}

// ChefUpdateStatus moves the order and always overwrites the remark, even
// when the status stays the same.
func (s *orderService) ChefUpdateStatus(ctx context.Context, p model.Principal, orderID uint, status model.OrderStatus, remark string) (*model.Order, error) {
	var (
		order *model.Order
		from  model.OrderStatus
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		var err error
		order, err = lockOrder(orders, orderID)
		if err != nil {
			return err
		}
		if err := CanEditAsChef(p, order).Err(); err != nil {
			return err
		}

		actor := statemachine.ActorChef
		if p.UserID != order.ChefID {
			actor = statemachine.ActorAdmin
		}
		if actor == statemachine.ActorChef &&
			status != model.OrderStatusHandled && status != model.OrderStatusCanceled {
			return statemachine.CanTransition(order.Status, status, actor)
		}

		from = order.Status
		if status != from {
			if err := statemachine.CanTransition(from, status, actor); err != nil {
				return err
			}
		}

		order.Status = status
		order.Remark = strings.TrimSpace(remark)
		if err := updateOrder(orders, order, from); err != nil {
			return err
		}
		if status == from {
			return nil
		}
		return orders.AddHistory(&model.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   status,
			ChangedBy:  p.UserID,
			Actor:      string(actor),
			Note:       truncate(order.Remark, 256),
		})
	})
	if err != nil {
		logOrderRejection("Chef status update rejected", orderID, p.UserID, err)
		return nil, err
	}

	if order.Status != from {
		s.announce(ctx, events.OrderStatusChanged, order, from, p.UserID)
	}
	return s.load(order.ID)
}

func (s *orderService) ViewOrder(p model.Principal, orderID uint) (*model.Order, error) {
	order, err := findOrder(s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	if err := CanViewOrder(p, order).Err(); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) History(p model.Principal, orderID uint) ([]model.OrderStatusHistory, error) {
	if _, err := s.ViewOrder(p, orderID); err != nil {
		return nil, err
	}
	return s.orderRepo.ListHistory(orderID)
}

func (s *orderService) ListForCustomer(customerID uint) ([]model.Order, error) {
	return s.orderRepo.ListByClient(customerID)
}

func (s *orderService) ListForChef(chefID uint, status *model.OrderStatus) ([]model.Order, error) {
	return s.orderRepo.ListByChef(chefID, status)
}

func (s *orderService) ChefOrderStats(chefID uint) (map[model.OrderStatus]int64, error) {
	return s.orderRepo.CountByStatusForChef(chefID)
}

// RemindStaleOrders mails every chef holding unhandled orders older than
// olderThan. It returns the number of chefs mailed.
func (s *orderService) RemindStaleOrders(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := s.orderRepo.ListOlderThan(model.OrderStatusUnhandled, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	counts := make(map[uint]int)
	chefs := make(map[uint]model.User)
	var order []uint
	for _, o := range stale {
		if _, ok := chefs[o.ChefID]; !ok {
			chefs[o.ChefID] = o.Chef
			order = append(order, o.ChefID)
		}
		counts[o.ChefID]++
	}

	mailed := 0
	for _, chefID := range order {
		chef := chefs[chefID]
		if chef.Email == "" {
			continue
		}
		if err := s.mail.Send(ctx, chef.Email, "Orders waiting for you", mailer.StaleOrdersHTML(chef.Nickname, counts[chefID])); err != nil {
			logger.Warn("Failed to send stale order reminder", map[string]interface{}{
				"chef_id": chefID,
				"error":   err.Error(),
			})
			continue
		}
		mailed++
	}

	logger.Info("Stale order reminders sent", map[string]interface{}{
		"orders": len(stale),
		"chefs":  mailed,
	})
	return mailed, nil
}

// AutoCompleteHandled completes handled orders nobody confirmed within olderThan.
func (s *orderService) AutoCompleteHandled(ctx context.Context, olderThan time.Duration) (int, error) {
	handled, err := s.orderRepo.ListOlderThan(model.OrderStatusHandled, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, candidate := range handled {
		var order *model.Order
		err := s.db.Transaction(func(tx *gorm.DB) error {
			orders := s.orderRepo.WithTx(tx)
			var err error
			order, err = lockOrder(orders, candidate.ID)
			if err != nil {
				return err
			}
			if err := statemachine.CanTransition(order.Status, model.OrderStatusCompleted, statemachine.ActorSystem); err != nil {
				return err
			}
			order.Status = model.OrderStatusCompleted
			if err := updateOrder(orders, order, model.OrderStatusHandled); err != nil {
				return err
			}
			return orders.AddHistory(&model.OrderStatusHistory{
				OrderID:    order.ID,
				FromStatus: model.OrderStatusHandled,
				ToStatus:   model.OrderStatusCompleted,
				Actor:      string(statemachine.ActorSystem),
				Note:       "completed automatically",
			})
		})
		if errors.Is(err, ErrInvalidTransition) {
			logger.Debug("Order moved on before auto completion", map[string]interface{}{
				"order_id": candidate.ID,
			})
			continue
		}
		if err != nil {
			logger.Error("Failed to auto complete order", err, map[string]interface{}{
				"order_id": candidate.ID,
			})
			continue
		}
		completed++
		s.announce(ctx, events.OrderStatusChanged, order, model.OrderStatusHandled, 0)
	}

	logger.Info("Handled orders auto completed", map[string]interface{}{
		"candidates": len(handled),
		"completed":  completed,
	})
	return completed, nil
}

// announce publishes the event and pushes it to the chef and the customer.
// Failures are logged and never reach the caller.
func (s *orderService) announce(ctx context.Context, eventType string, order *model.Order, from model.OrderStatus, actorID uint) {
	event := events.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		MealID:     order.MealID,
		ChefID:     order.ChefID,
		ClientID:   order.ClientID,
		FromStatus: string(from),
		Status:     string(order.Status),
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishOrderEvent(pubCtx, event); err != nil {
		logger.Warn("Failed to publish order event", map[string]interface{}{
			"order_id": order.ID,
			"type":     eventType,
			"error":    err.Error(),
		})
	}

	notification := websocket.Notification{
		Type:      eventType,
		Data:      event,
		CreatedAt: event.OccurredAt,
	}
	if actorID != order.ChefID {
		s.notifier.NotifyUser(order.ChefID, notification)
	}
	if actorID != order.ClientID {
		s.notifier.NotifyUser(order.ClientID, notification)
	}
}

func (s *orderService) load(orderID uint) (*model.Order, error) {
	return findOrder(s.orderRepo, orderID)
}

func findOrder(orders repository.OrderRepository, orderID uint) (*model.Order, error) {
	order, err := orders.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// lockOrder loads the order under a row lock so concurrent transitions serialize.
func lockOrder(orders repository.OrderRepository, orderID uint) (*model.Order, error) {
	order, err := orders.FindByIDForUpdate(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// updateOrder writes order if it is still in status from.
func updateOrder(orders repository.OrderRepository, order *model.Order, from model.OrderStatus) error {
	err := orders.UpdateFields(order, from)
	if errors.Is(err, repository.ErrStatusChanged) {
		return fmt.Errorf("%w: order is no longer %s", ErrInvalidTransition, from)
	}
	return err
}

func logOrderRejection(msg string, orderID, userID uint, err error) {
	fields := map[string]interface{}{
		"order_id": orderID,
		"user_id":  userID,
	}
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrCannotCancelHandled):
		fields["reason"] = err.Error()
		logger.Warn(msg, fields)
	default:
		logger.Error(msg, err, fields)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
