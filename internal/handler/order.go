package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/middleware"
)

type orderItemResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Unit        string `json:"unit,omitempty"`
	Price       int64  `json:"price"`
	Quantity    int32  `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
}

type paymentResponse struct {
	Method         string    `json:"method"`
	Amount         int64     `json:"amount"`
	Status         string    `json:"status"`
	TransactionRef string    `json:"transaction_ref,omitempty"`
	Message        string    `json:"message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type shippingResponse struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine  string `json:"address_line"`
	WardCode     string `json:"ward_code,omitempty"`
	DistrictCode string `json:"district_code,omitempty"`
	ProvinceCode string `json:"province_code"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	Code          string              `json:"code"`
	BuyerID       int64               `json:"buyer_id"`
	VendorID      int64               `json:"vendor_id"`
	Category      string              `json:"category"`
	Status        string              `json:"status"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	Subtotal      int64               `json:"subtotal"`
	ShippingFee   int64               `json:"shipping_fee"`
	Discount      int64               `json:"discount"`
	Total         int64               `json:"total"`
	Shipping      shippingResponse    `json:"shipping"`
	Notes         string              `json:"notes,omitempty"`
	Items         []orderItemResponse `json:"items"`
	Payments      []paymentResponse   `json:"payments"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		Code:          order.Code,
		BuyerID:       order.BuyerID,
		VendorID:      order.VendorID,
		Category:      string(order.Category),
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		Subtotal:      order.Subtotal,
		ShippingFee:   order.ShippingFee,
		Discount:      order.Discount,
		Total:         order.Total,
		Shipping: shippingResponse{
			FullName:     order.Shipping.FullName,
			Phone:        order.Shipping.Phone,
			AddressLine:  order.Shipping.AddressLine,
			WardCode:     order.Shipping.WardCode,
			DistrictCode: order.Shipping.DistrictCode,
			ProvinceCode: order.Shipping.ProvinceCode,
		},
		Notes:     order.Notes,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Price:       item.Price,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		})
	}
	for _, pay := range order.Payments {
		resp.Payments = append(resp.Payments, paymentResponse{
			Method:         string(pay.Method),
			Amount:         pay.Amount,
			Status:         string(pay.Status),
			TransactionRef: pay.TransactionRef,
			Message:        pay.Message,
			CreatedAt:      pay.CreatedAt,
		})
	}
	return resp
}

func orderIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, domain.Invalid("order", "Invalid order id")
	}
	return id, nil
}

// ListOrders handles GET /api/orders.
func (h *Handler) ListOrders(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	orders, err := h.orders.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /api/orders/:id.
func (h *Handler) GetOrder(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// GetOrderByCode handles GET /api/orders/code/:code.
func (h *Handler) GetOrderByCode(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}

	order, err := h.orders.GetByCode(c.Request().Context(), actor, c.Param("code"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED PROCESSING SHIPPING DELIVERED"`
}

// TransitionOrder handles POST /api/orders/:id/status.
func (h *Handler) TransitionOrder(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.orders.Transition(c.Request().Context(), actor, id, domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// CancelOrder handles POST /api/orders/:id/cancel.
func (h *Handler) CancelOrder(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// ReturnOrder handles POST /api/orders/:id/return.
func (h *Handler) ReturnOrder(c echo.Context) error {
	actor, err := middleware.ActorFromContext(c)
	if err != nil {
		return err
	}
	id, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Return(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}
