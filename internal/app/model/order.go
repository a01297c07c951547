package model

import (
	"strings"
	"time"
)

type OrderStatus string // order lifecycle state

const (
	OrderStatusUnhandled OrderStatus = "UNHANDLED" // placed, waiting for the chef
	OrderStatusHandled   OrderStatus = "HANDLED"   // accepted by the chef
	OrderStatusCompleted OrderStatus = "COMPLETED" // received by the customer
	OrderStatusCanceled  OrderStatus = "CANCELED"  // canceled before handling
)

// ParseOrderStatus accepts any casing of a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderStatusUnhandled:
		return OrderStatusUnhandled, true
	case OrderStatusHandled:
		return OrderStatusHandled, true
	case OrderStatusCompleted:
		return OrderStatusCompleted, true
	case OrderStatusCanceled:
		return OrderStatusCanceled, true
	}
	return "", false
}

type Order struct {
	ID        uint        `gorm:"primarykey" json:"id"`                                     // order ID
	MealID    uint        `gorm:"not null;index" json:"meal_id"`                            // ordered meal
	ZipcodeID uint        `gorm:"not null;index" json:"zipcode_id"`                         // delivery zip code
	ClientID  uint        `gorm:"not null;index" json:"client_id"`                          // customer
	ChefID    uint        `gorm:"not null;index" json:"chef_id"`                            // copied from the meal at placement
	Address   string      `gorm:"size:256;not null" json:"address"`                         // delivery address
	Phone     string      `gorm:"size:20;not null" json:"phone"`                            // contact phone
	Message   string      `gorm:"size:256" json:"message"`                                  // note to the chef
	Remark    string      `gorm:"type:text" json:"remark"`                                  // note from the chef
	Status    OrderStatus `gorm:"size:16;not null;default:'UNHANDLED';index" json:"status"` // lifecycle state
	CreatedAt time.Time   `json:"created_at"`                                               // placement time
	UpdatedAt time.Time   `json:"updated_at"`                                               // update time

	Meal    Meal    `gorm:"foreignKey:MealID" json:"meal,omitempty"`       // meal, including soft deleted
	Zipcode Zipcode `gorm:"foreignKey:ZipcodeID" json:"zipcode,omitempty"` // zip code
	Client  User    `gorm:"foreignKey:ClientID" json:"client,omitempty"`   // customer profile
	Chef    User    `gorm:"foreignKey:ChefID" json:"chef,omitempty"`       // chef profile
}

func (Order) TableName() string {
	return "orders"
}

// OrderStatusHistory records every accepted transition of an order.
type OrderStatusHistory struct {
	ID         uint        `gorm:"primarykey" json:"id"`              // history ID
	OrderID    uint        `gorm:"not null;index" json:"order_id"`    // order ID
	FromStatus OrderStatus `gorm:"size:16" json:"from_status"`        // empty on placement
	ToStatus   OrderStatus `gorm:"size:16;not null" json:"to_status"` // resulting status
	ChangedBy  uint        `json:"changed_by"`                        // 0 for the scheduler
	Actor      string      `gorm:"size:16" json:"actor"`              // acting role
	Note       string      `gorm:"size:256" json:"note,omitempty"`    // free text
	CreatedAt  time.Time   `json:"created_at"`                        // transition time
}

func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
