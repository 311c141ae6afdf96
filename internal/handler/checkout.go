package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/middleware"
	"github.com/greenfields-vn/chomart/internal/service"
)

type checkoutRequest struct {
	ShippingAddressID int64  `json:"shipping_address_id" validate:"required,gt=0"`
	PaymentMethod     string `json:"payment_method" validate:"required,oneof=COD GATEWAY"`
	Notes             string `json:"notes" validate:"max=500"`
}

type checkoutResponse struct {
	Orders []orderResponse `json:"orders"`
}

// Checkout handles POST /api/checkout.
func (h *Handler) Checkout(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	orders, err := h.checkout.Checkout(c.Request().Context(), actor, service.CheckoutParams{
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     domain.PaymentMethod(req.PaymentMethod),
		Notes:             req.Notes,
	})
	if err != nil {
		return err
	}

	resp := checkoutResponse{Orders: make([]orderResponse, 0, len(orders))}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order))
	}
	return c.JSON(http.StatusCreated, resp)
}
