package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/threemeal/threemeal-backend/internal/app/model"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	apperrors "github.com/threemeal/threemeal-backend/internal/errors"
	"github.com/threemeal/threemeal-backend/internal/middleware"
	"github.com/threemeal/threemeal-backend/internal/session"
	"github.com/threemeal/threemeal-backend/internal/statemachine"
)

type OrderController struct {
	orderService service.OrderService
	zipService   service.ZipcodeService
}

func NewOrderController(orderService service.OrderService, zipService service.ZipcodeService) *OrderController {
	return &OrderController{
		orderService: orderService,
		zipService:   zipService,
	}
}

type PlaceOrderRequest struct {
	Zipcode string `json:"zipcode" binding:"omitempty,zipcode"` // falls back to the session zip code
	Address string `json:"address" binding:"required,max=256"`
	Phone   string `json:"phone" binding:"required,max=20"`
	Message string `json:"message" binding:"max=256"`
}

type CustomerEditRequest struct {
	Address *string `json:"address" binding:"omitempty,min=1,max=256"`
	Phone   *string `json:"phone" binding:"omitempty,min=1,max=20"`
	Message *string `json:"message" binding:"omitempty,max=256"`
	Status  string  `json:"status" binding:"omitempty,oneof=COMPLETED CANCELED completed canceled"`
}

type ChefStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Remark string `json:"remark" binding:"max=1024"`
}

// PlaceOrder
// POST /api/v1/meals/:id/orders
func (ctrl *OrderController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	mealID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithBindingError(c, err)
		return
	}

	zipcode := strings.TrimSpace(req.Zipcode)
	if zipcode == "" {
		id, _ := c.Cookie(session.CookieName)
		remembered, err := ctrl.zipService.Remembered(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err, "read session zip code")
			return
		}
		if remembered == "" {
			apperrors.BadRequest(c, apperrors.ZipcodeNotSelected, "Please choose your zip code first")
			return
		}
		zipcode = remembered
	}

	order, err := ctrl.orderService.PlaceOrder(c.Request.Context(), p.UserID, mealID, service.OrderInput{
		Zipcode: zipcode,
		Address: req.Address,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		respondServiceError(c, err, "place order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Your order has been placed",
		"order":   order,
	})
}

// ListForCustomer
// GET /api/v1/client/orders
func (ctrl *OrderController) ListForCustomer(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListForCustomer(p.UserID)
	if err != nil {
		respondServiceError(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// GetOrder is shared by the customer, the chef and admins
// GET /api/v1/client/orders/:id
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.ViewOrder(p, id)
	if err != nil {
		respondServiceError(c, err, "get order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order":       order,
		"next_status": nextStatuses(order.Status),
	})
}

// History
// GET /api/v1/client/orders/:id/history
func (ctrl *OrderController) History(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	history, err := ctrl.orderService.History(p, id)
	if err != nil {
		respondServiceError(c, err, "get order history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
	})
}

// CustomerEdit
// PUT /api/v1/client/orders/:id
func (ctrl *OrderController) CustomerEdit(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CustomerEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	input := service.CustomerEditInput{
		Address: req.Address,
		Phone:   req.Phone,
		Message: req.Message,
	}
	if req.Status != "" {
		status, _ := model.ParseOrderStatus(req.Status)
		input.Status = &status
	}

	order, err := ctrl.orderService.CustomerEdit(c.Request.Context(), p, id, input)
	if err != nil {
		respondServiceError(c, err, "update order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your order has been updated",
		"order":   order,
	})
}

// ListForChef
// GET /api/v1/chef/orders/:status
func (ctrl *OrderController) ListForChef(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	status, err := service.ParseOrderFilter(c.Param("status"))
	if err != nil {
		respondServiceError(c, err, "list chef orders")
		return
	}

	orders, err := ctrl.orderService.ListForChef(p.UserID, status)
	if err != nil {
		respondServiceError(c, err, "list chef orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// Dashboard returns order counts by status
// GET /api/v1/chef/dashboard
func (ctrl *OrderController) Dashboard(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	stats, err := ctrl.orderService.ChefOrderStats(p.UserID)
	if err != nil {
		respondServiceError(c, err, "get chef dashboard")
		return
	}

	var total int64
	for _, n := range stats {
		total += n
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"total": total,
	})
}

// ChefUpdateStatus
// PUT /api/v1/chef/orders/:id
func (ctrl *OrderController) ChefUpdateStatus(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ChefStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}
	status, valid := model.ParseOrderStatus(req.Status)
	if !valid {
		apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown order status")
		return
	}

	order, err := ctrl.orderService.ChefUpdateStatus(c.Request.Context(), p, id, status, req.Remark)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order updated",
		"order":   order,
	})
}

func nextStatuses(status model.OrderStatus) []model.OrderStatus {
	next := statemachine.ValidTransitionsFrom(status)
	if next == nil {
		return []model.OrderStatus{}
	}
	return next
}
