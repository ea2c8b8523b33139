package orders

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		if err := d.(*sql.NullString).Scan(r[i]); err != nil {
			return err
		}
	}
	return nil
}

func TestScanOrder(t *testing.T) {
	row := fakeRow{"o1", "c1", "2018-03-01T12:00:00Z", nil, "delivered", 10.5, "12.25", int64(2), nil, int64(1)}

	o, err := scanOrder(1, row)
	if err != nil {
		t.Fatalf("scanOrder error: %v", err)
	}
	if o.OrderID != "o1" || o.PaymentValue != 12.25 || o.PaymentInstallments != 2 || o.Price != 10.5 {
		t.Errorf("order = %+v", o)
	}
	if o.DeliveredAt != nil || o.ReviewScore != nil {
		t.Error("null columns should stay nil")
	}
	if !o.Cancelled {
		t.Error("pedido_cancelado=1 should mark the order cancelled")
	}
}

func TestScanOrderNullCustomer(t *testing.T) {
	row := fakeRow{"o1", nil, "2018-03-01T12:00:00Z", nil, "delivered", 1.0, 1.0, 1.0, 5.0, 0.0}

	_, err := scanOrder(7, row)
	if !errors.Is(err, ErrDataContract) {
		t.Fatalf("error = %v, want ErrDataContract", err)
	}
	if !strings.Contains(err.Error(), "row 7") {
		t.Errorf("error %q should name row 7", err)
	}
}

func TestSelectQuery(t *testing.T) {
	q := selectQuery("sales.orders")
	if !strings.HasPrefix(q, "SELECT order_id, customer_unique_id, ") {
		t.Errorf("query = %q", q)
	}
	if !strings.Contains(q, "FROM sales.orders ORDER BY order_purchase_timestamp, order_id") {
		t.Errorf("query = %q", q)
	}
}
