package service

import (
	"context"
	"errors"
	"time"

	"github.com/greenfields-vn/chomart/internal/domain"
	"github.com/greenfields-vn/chomart/internal/inventory"
	"github.com/greenfields-vn/chomart/internal/pricing"
	"github.com/greenfields-vn/chomart/internal/promotion"
	"github.com/greenfields-vn/chomart/internal/repository"
	"github.com/greenfields-vn/chomart/internal/shipping"
)

// assembler builds one order per vendor group inside the checkout
// transaction.
type assembler struct {
	querier    repository.Querier
	ledger     inventory.Ledger
	shipping   shipping.Calculator
	promotions promotion.Engine
}

// assemble turns one vendor group into a persisted PENDING order with its
// item snapshots and initial payment record. Every product is validated and
// reserved here, so any error aborts the surrounding transaction with
// nothing left behind.
func (a *assembler) assemble(ctx context.Context, buyer domain.Actor, group vendorGroup, dest domain.ShippingSnapshot, method domain.PaymentMethod, notes string) (domain.Order, error) {
	const op = "checkout.assemble"

	items := make([]domain.OrderItem, 0, len(group.lines))
	var subtotal int64

	for _, line := range group.lines {
		if !line.product.Published {
			return domain.Order{}, domain.WrapError(domain.ErrProductUnavailable, domain.EUNPROCESSABLE, op,
				line.product.Name+" is no longer available")
		}

		if err := a.ledger.Reserve(ctx, line.product.ID, line.line.Quantity); err != nil {
			return domain.Order{}, err
		}

		quote := pricing.Resolve(line.product, line.line.Quantity, buyer.Category)
		item := domain.OrderItem{
			ProductID:   line.product.ID,
			ProductName: line.product.Name,
			Unit:        quote.Unit,
			Price:       quote.PricePerUnit,
			Quantity:    line.line.Quantity,
			LineTotal:   quote.PricePerUnit * int64(line.line.Quantity),
		}
		items = append(items, item)
		subtotal += item.LineTotal
	}

	shippingFee, err := a.shipping.Fee(ctx, dest)
	if err != nil {
		return domain.Order{}, err
	}

	discount, err := a.promotions.ComputeDiscount(ctx, buyer, items)
	if err != nil {
		return domain.Order{}, domain.WrapError(err, domain.EINTERNAL, op, "Failed to compute discount")
	}
	if discount < 0 {
		discount = 0
	}
	if ceiling := subtotal + shippingFee; discount > ceiling {
		discount = ceiling
	}

	order := domain.Order{
		BuyerID:       buyer.ID,
		VendorID:      group.vendorID,
		Category:      buyer.Category,
		Status:        domain.OrderStatusPending,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPending,
		Subtotal:      subtotal,
		ShippingFee:   shippingFee,
		Discount:      discount,
		Total:         subtotal + shippingFee - discount,
		Shipping:      dest,
		Notes:         notes,
		Items:         items,
		Payments: []domain.Payment{{
			Method: method,
			Amount: subtotal + shippingFee - discount,
			Status: domain.TxnStatusPending,
		}},
	}

	// Codes are random, so a collision with an existing order is possible
	// if absurdly unlikely. Regenerate instead of failing the checkout.
	for attempt := 0; ; attempt++ {
		code, err := newOrderCode(time.Now())
		if err != nil {
			return domain.Order{}, domain.WrapError(err, domain.EINTERNAL, op, "Failed to generate order code")
		}
		order.Code = code

		err = a.querier.CreateOrder(ctx, &order)
		if err == nil {
			return order, nil
		}
		if errors.Is(err, domain.ErrDuplicateCode) && attempt < 2 {
			continue
		}
		return domain.Order{}, domain.WrapError(err, domain.EINTERNAL, op, "Failed to persist order")
	}
}
