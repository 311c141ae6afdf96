// Package handler is the HTTP surface of the order engine, built on echo.
package handler

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/middleware"
	"github.com/greenfields-vn/chomart/internal/service"
)

// Handler owns the API routes and their service dependencies.
type Handler struct {
	cart     service.CartService
	checkout service.CheckoutService
	orders   service.OrderService
	logger   *slog.Logger
}

func New(cart service.CartService, checkout service.CheckoutService, orders service.OrderService, logger *slog.Logger) *Handler {
	return &Handler{
		cart:     cart,
		checkout: checkout,
		orders:   orders,
		logger:   logger,
	}
}

// RegisterRoutes mounts the API under /api. Everything requires a
// valid token; role gates are applied per route group.
func (h *Handler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	api := e.Group("/api", middleware.Authenticate(jwtSecret))

	cart := api.Group("/cart", middleware.RequireRole(domain.RoleBuyer))
	cart.GET("", h.ViewCart)
	cart.PUT("/items", h.PutCartItem)
	cart.DELETE("/items/:productID", h.RemoveCartItem)
	cart.DELETE("", h.ClearCart)

	api.POST("/checkout", h.Checkout, middleware.RequireRole(domain.RoleBuyer))

	orders := api.Group("/orders")
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.GET("/code/:code", h.GetOrderByCode)
	orders.POST("/:id/status", h.TransitionOrder, middleware.RequireRole(domain.RoleVendor, domain.RoleAdmin))
	orders.POST("/:id/cancel", h.CancelOrder, middleware.RequireRole(domain.RoleBuyer, domain.RoleAdmin))
	orders.POST("/:id/return", h.ReturnOrder, middleware.RequireRole(domain.RoleAdmin))
}
