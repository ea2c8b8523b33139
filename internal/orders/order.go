// Package orders reads the flat order table produced by the upstream merge step
// (one row per order item or payment) and enforces its data contract.
package orders

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

// StatusCanceled is the order_status value counted by the cancel rate.
const StatusCanceled = "canceled"

// Upstream column names, in the order they are read.
const (
	ColOrderID             = "order_id"
	ColCustomerUniqueID    = "customer_unique_id"
	ColPurchaseTimestamp   = "order_purchase_timestamp"
	ColDeliveredDate       = "order_delivered_customer_date"
	ColOrderStatus         = "order_status"
	ColPrice               = "price"
	ColPaymentValue        = "payment_value"
	ColPaymentInstallments = "payment_installments"
	ColReviewScore         = "review_score"
	ColCancelled           = "pedido_cancelado"
)

// Columns lists every column the order table must provide.
var Columns = []string{
	ColOrderID,
	ColCustomerUniqueID,
	ColPurchaseTimestamp,
	ColDeliveredDate,
	ColOrderStatus,
	ColPrice,
	ColPaymentValue,
	ColPaymentInstallments,
	ColReviewScore,
	ColCancelled,
}

// Order is one row of the flat order table. Several rows may share an OrderID
// when an order has multiple items or payments.
// Price, PaymentValue, and PaymentInstallments are NaN when absent.
type Order struct {
	OrderID             string
	CustomerUniqueID    string
	PurchasedAt         time.Time
	DeliveredAt         *time.Time
	Status              string
	Price               float64
	PaymentValue        float64
	PaymentInstallments float64
	ReviewScore         *float64
	Cancelled           bool
}

// Source loads the full order table.
type Source interface {
	Load(ctx context.Context) ([]Order, error)
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05-07",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseRow converts one row of nullable cells, indexed like Columns, into an Order.
// row is the 1-based data row used in error messages.
func parseRow(row int, cells []*string) (Order, error) {
	value := func(col int) (string, bool) {
		if cells[col] == nil {
			return "", false
		}
		v := strings.TrimSpace(*cells[col])
		return v, v != ""
	}

	var o Order

	id, ok := value(0)
	if !ok {
		return o, contractError(row, ColOrderID, "null value")
	}
	o.OrderID = id

	customer, ok := value(1)
	if !ok {
		return o, contractError(row, ColCustomerUniqueID, "null value")
	}
	o.CustomerUniqueID = customer

	purchased, ok := value(2)
	if !ok {
		return o, contractError(row, ColPurchaseTimestamp, "null value")
	}
	t, err := parseTimestamp(purchased)
	if err != nil {
		return o, contractError(row, ColPurchaseTimestamp, "invalid timestamp "+strconv.Quote(purchased))
	}
	o.PurchasedAt = t

	if delivered, ok := value(3); ok {
		t, err := parseTimestamp(delivered)
		if err != nil {
			return o, contractError(row, ColDeliveredDate, "invalid timestamp "+strconv.Quote(delivered))
		}
		o.DeliveredAt = &t
	}

	o.Status, _ = value(4)

	numeric := []struct {
		col  int
		name string
		dst  *float64
	}{
		{5, ColPrice, &o.Price},
		{6, ColPaymentValue, &o.PaymentValue},
		{7, ColPaymentInstallments, &o.PaymentInstallments},
	}
	for _, n := range numeric {
		v, ok := value(n.col)
		if !ok {
			*n.dst = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, contractError(row, n.name, "invalid number "+strconv.Quote(v))
		}
		*n.dst = f
	}

	if v, ok := value(8); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return o, contractError(row, ColReviewScore, "invalid number "+strconv.Quote(v))
		}
		o.ReviewScore = &f
	}

	if v, ok := value(9); ok {
		cancelled, err := parseFlag(v)
		if err != nil {
			return o, contractError(row, ColCancelled, "invalid flag "+strconv.Quote(v))
		}
		o.Cancelled = cancelled
	}

	return o, nil
}

func parseFlag(s string) (bool, error) {
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false, err
	}
	return f != 0, nil
}
