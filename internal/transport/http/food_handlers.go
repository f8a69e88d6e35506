package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/store"
)

// orderHistoryLimit caps the order history page size.
const orderHistoryLimit = 10

// FoodHandlers provides HTTP handlers for the food ordering flow.
type FoodHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewFoodHandlers creates a new food handlers instance.
func NewFoodHandlers(st store.Store, logger *zerolog.Logger) *FoodHandlers {
	return &FoodHandlers{
		store: st,
		log:   logger,
	}
}

// MenuItem represents a dish on the demo menu.
type MenuItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// The demo deployment serves a fixed menu.
var menu = []MenuItem{
	{ID: 1, Name: "Adana Kebap", Price: 180, Image: "🍖", Description: "Spicy, Adana style"},
	{ID: 2, Name: "İskender", Price: 200, Image: "🥙", Description: "With butter and yogurt"},
	{ID: 3, Name: "Döner", Price: 120, Image: "🌯", Description: "Chicken or beef"},
	{ID: 4, Name: "Lahmacun", Price: 45, Image: "🫓", Description: "Thin crust, rich topping"},
	{ID: 5, Name: "Pide", Price: 90, Image: "🥖", Description: "Cheese or minced meat"},
	{ID: 6, Name: "Baklava", Price: 80, Image: "🍯", Description: "Pistachio, syrup-soaked"},
}

// OrderItem is one line of an order request.
type OrderItem struct {
	ID       int64 `json:"id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest represents the order request body.
type CreateOrderRequest struct {
	Items          []OrderItem `json:"items" binding:"required,min=1"`
	TotalPrice     float64     `json:"total_price" binding:"required,gt=0"`
	RestaurantName string      `json:"restaurant_name"`
}

// CreateOrderResponse represents the order creation response body.
type CreateOrderResponse struct {
	Message    string `json:"message"`
	OrderRef   string `json:"order_ref"`
	NewBalance string `json:"new_balance"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID             int64   `json:"id"`
	Ref            string  `json:"ref"`
	RestaurantName string  `json:"restaurant_name"`
	TotalPrice     float64 `json:"total_price"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

// ListMenu returns the static menu.
// GET /food/list
func (h *FoodHandlers) ListMenu(c *gin.Context) {
	c.JSON(http.StatusOK, menu)
}

// CreateOrder places an order and charges the wallet.
// POST /food/order
func (h *FoodHandlers) CreateOrder(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	balance, err := h.store.Balance(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if balance < req.TotalPrice {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "insufficient balance"})
		return
	}

	restaurant := req.RestaurantName
	if restaurant == "" {
		restaurant = "SuperApp Restaurant"
	}

	order, err := h.store.CreateOrder(ctx, uid, restaurant, req.TotalPrice)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to create order")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	description := fmt.Sprintf("Food order %s", order.Ref)
	if _, err := h.store.AppendTransaction(ctx, uid, store.TransactionFoodPurchase, req.TotalPrice, description); err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Str("order_ref", order.Ref).Msg("failed to charge order")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, CreateOrderResponse{
		Message:    "order confirmed",
		OrderRef:   order.Ref,
		NewBalance: fmt.Sprintf("%.2f", balance-req.TotalPrice),
	})
}

// ListOrders returns the caller's newest orders.
// GET /food/orders
func (h *FoodHandlers) ListOrders(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	orders, err := h.store.ListOrders(c.Request.Context(), uid, orderHistoryLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch orders")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, OrderResponse{
			ID:             order.ID,
			Ref:            order.Ref,
			RestaurantName: order.RestaurantName,
			TotalPrice:     order.TotalPrice,
			Status:         string(order.Status),
			CreatedAt:      order.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
