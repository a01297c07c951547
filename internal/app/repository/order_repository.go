package repository

import (
	"errors"
	"time"

	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStatusChanged reports that the row left the expected status before the write.
var ErrStatusChanged = errors.New("status changed concurrently")

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindByIDForUpdate(id uint) (*model.Order, error)
	UpdateFields(order *model.Order, from model.OrderStatus) error
	ListByClient(clientID uint) ([]model.Order, error)
	ListByChef(chefID uint, status *model.OrderStatus) ([]model.Order, error)
	CountByStatusForChef(chefID uint) (map[model.OrderStatus]int64, error)
	ListOlderThan(status model.OrderStatus, before time.Time) ([]model.Order, error)
	AddHistory(entry *model.OrderStatusHistory) error
	ListHistory(orderID uint) ([]model.OrderStatusHistory, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

// withDetails preloads the meal even when it has been soft deleted.
func (r *orderRepository) withDetails() *gorm.DB {
	return r.db.
		Preload("Meal", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("Zipcode").
		Preload("Client").
		Preload("Chef")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"client_id": order.ClientID,
		"meal_id":   order.MealID,
	})

	if err := r.db.Omit(clause.Associations).Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"client_id": order.ClientID,
			"meal_id":   order.MealID,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id": order.ID,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.withDetails().First(&order, id).Error; err != nil {
		logLookupError("Failed to find order by ID", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row for the rest of the transaction
// and then loads it with its details.
func (r *orderRepository) FindByIDForUpdate(id uint) (*model.Order, error) {
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&model.Order{}, id).Error
	if err != nil {
		logLookupError("Failed to lock order", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return r.FindByID(id)
}

// UpdateFields writes the mutable columns of an order, provided it is still
// in status from. Otherwise nothing is written and ErrStatusChanged is returned.
func (r *orderRepository) UpdateFields(order *model.Order, from model.OrderStatus) error {
	logger.Debug("Updating order in database", map[string]interface{}{
		"order_id": order.ID,
		"from":     from,
		"status":   order.Status,
	})

	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(map[string]interface{}{
			"address": order.Address,
			"phone":   order.Phone,
			"message": order.Message,
			"remark":  order.Remark,
			"status":  order.Status,
		})
	if result.Error != nil {
		logger.Error("Failed to update order in database", result.Error, map[string]interface{}{
			"order_id": order.ID,
		})
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports zero rows when the values were already in place.
	var matched int64
	if err := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Count(&matched).Error; err != nil {
		return err
	}
	if matched == 0 {
		logger.Warn("Order status changed before update", map[string]interface{}{
			"order_id": order.ID,
			"from":     from,
		})
		return ErrStatusChanged
	}
	return nil
}

func (r *orderRepository) ListByClient(clientID uint) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.withDetails().
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to list orders by client", err, map[string]interface{}{
			"client_id": clientID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListByChef(chefID uint, status *model.OrderStatus) ([]model.Order, error) {
	orders := []model.Order{}
	query := r.withDetails().Where("chef_id = ?", chefID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		logger.Error("Failed to list orders by chef", err, map[string]interface{}{
			"chef_id": chefID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) CountByStatusForChef(chefID uint) (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Where("chef_id = ?", chefID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count orders by status", err, map[string]interface{}{
			"chef_id": chefID,
		})
		return nil, err
	}

	counts := map[model.OrderStatus]int64{
		model.OrderStatusUnhandled: 0,
		model.OrderStatusHandled:   0,
		model.OrderStatusCompleted: 0,
		model.OrderStatusCanceled:  0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// ListOlderThan returns orders in status last updated before the cutoff.
func (r *orderRepository) ListOlderThan(status model.OrderStatus, before time.Time) ([]model.Order, error) {
	orders := []model.Order{}
	err := r.db.Preload("Chef").
		Where("status = ? AND updated_at < ?", status, before).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to list stale orders", err, map[string]interface{}{
			"status": status,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) AddHistory(entry *model.OrderStatusHistory) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to record order history", err, map[string]interface{}{
			"order_id": entry.OrderID,
		})
		return err
	}
	return nil
}

func (r *orderRepository) ListHistory(orderID uint) ([]model.OrderStatusHistory, error) {
	entries := []model.OrderStatusHistory{}
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&entries).Error
	if err != nil {
		logger.Error("Failed to list order history", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}
	return entries, nil
}
