package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/middleware"
)

type putCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gte=1"`
}

type cartLineResponse struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	VendorID     int64  `json:"vendor_id,omitempty"`
	Quantity     int32  `json:"quantity"`
	Unit         string `json:"unit,omitempty"`
	PricePerUnit int64  `json:"price_per_unit"`
	LineTotal    int64  `json:"line_total"`
	Available    bool   `json:"available"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Total int64              `json:"total"`
}

// ViewCart handles GET /api/cart.
func (h *Handler) ViewCart(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	views, err := h.cart.View(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	resp := cartResponse{Lines: make([]cartLineResponse, 0, len(views))}
	for _, v := range views {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ProductID:    v.Line.ProductID,
			ProductName:  v.ProductName,
			VendorID:     v.VendorID,
			Quantity:     v.Line.Quantity,
			Unit:         v.Unit,
			PricePerUnit: v.PricePerUnit,
			LineTotal:    v.LineTotal,
			Available:    v.Available,
		})
		resp.Total += v.LineTotal
	}

	return c.JSON(http.StatusOK, resp)
}

// PutCartItem handles PUT /api/cart/items. Sets the quantity for one
// product, creating the line when absent.
func (h *Handler) PutCartItem(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	var req putCartItemRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	line, err := h.cart.AddItem(c.Request().Context(), actor, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
	})
}

// RemoveCartItem handles DELETE /api/cart/items/:productID.
func (h *Handler) RemoveCartItem(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	productID, err := strconv.ParseInt(c.Param("productID"), 10, 64)
	if err != nil {
		return domain.Invalid("cart.remove", "Invalid product id")
	}

	if err := h.cart.RemoveItem(c.Request().Context(), actor, productID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	if err := h.cart.Clear(c.Request().Context(), actor); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
