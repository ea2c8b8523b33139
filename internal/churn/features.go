package churn

import (
	"math"
	"slices"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/JaimeStill/churn/internal/orders"
)

// Feature column names in canonical order. This order is persisted with the
// model and used to align prediction input.
const (
	FeatRecency         = "recency"
	FeatNumOrders       = "num_orders"
	FeatTotalSpent      = "total_spent"
	FeatAvgOrderValue   = "avg_order_value"
	FeatStdOrderValue   = "std_order_value"
	FeatAvgInstallments = "avg_installments"
	FeatCancelRate      = "cancel_rate"
	FeatAvgReview       = "avg_review"
)

// FeatureNames lists the feature columns in canonical order.
var FeatureNames = []string{
	FeatRecency,
	FeatNumOrders,
	FeatTotalSpent,
	FeatAvgOrderValue,
	FeatStdOrderValue,
	FeatAvgInstallments,
	FeatCancelRate,
	FeatAvgReview,
}

// DisplayNames maps feature columns to the labels shown in reports.
var DisplayNames = map[string]string{
	FeatRecency:         "Dias desde última compra",
	FeatNumOrders:       "Número de compras",
	FeatTotalSpent:      "Valor total gasto",
	FeatAvgOrderValue:   "Valor médio por pedido",
	FeatStdOrderValue:   "Variação nos valores dos pedidos",
	FeatAvgInstallments: "Média de parcelas",
	FeatCancelRate:      "Taxa de cancelamento",
	FeatAvgReview:       "Avaliação média",
}

// Features is the behavioral summary of one customer. NaN marks a missing value
// (AvgReview for a customer who never reviewed, AvgInstallments without payments).
type Features struct {
	CustomerUniqueID string
	Recency          float64
	NumOrders        float64
	TotalSpent       float64
	AvgOrderValue    float64
	StdOrderValue    float64
	AvgInstallments  float64
	CancelRate       float64
	AvgReview        float64
}

// Vector returns the feature values in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{
		f.Recency,
		f.NumOrders,
		f.TotalSpent,
		f.AvgOrderValue,
		f.StdOrderValue,
		f.AvgInstallments,
		f.CancelRate,
		f.AvgReview,
	}
}

// order is an upstream order after its item and payment rows are collapsed.
type order struct {
	purchasedAt  time.Time
	payment      float64
	installments float64
	review       float64
	canceled     bool
}

// BuildFeatures computes one Features row per customer from the orders placed at
// or before cutoff, sorted by customer id. Rows sharing an order id are first
// collapsed into one order: payments are summed, installments and review scores
// averaged, and the order counts as canceled when its status is canceled.
func BuildFeatures(rows []orders.Order, cutoff time.Time) []Features {
	byCustomer := make(map[string]map[string]*collapser)

	for _, r := range rows {
		if r.PurchasedAt.After(cutoff) {
			continue
		}
		customerOrders, ok := byCustomer[r.CustomerUniqueID]
		if !ok {
			customerOrders = make(map[string]*collapser)
			byCustomer[r.CustomerUniqueID] = customerOrders
		}
		c, ok := customerOrders[r.OrderID]
		if !ok {
			c = &collapser{purchasedAt: r.PurchasedAt}
			customerOrders[r.OrderID] = c
		}
		c.add(r)
	}

	result := make([]Features, 0, len(byCustomer))
	for customer, customerOrders := range byCustomer {
		collapsed := make([]order, 0, len(customerOrders))
		for _, c := range customerOrders {
			collapsed = append(collapsed, c.order())
		}
		result = append(result, summarize(customer, collapsed, cutoff))
	}

	slices.SortFunc(result, func(a, b Features) int {
		return strings.Compare(a.CustomerUniqueID, b.CustomerUniqueID)
	})
	return result
}

func summarize(customer string, collapsed []order, cutoff time.Time) Features {
	// map iteration order must not leak into floating point sums
	slices.SortFunc(collapsed, func(a, b order) int {
		if c := a.purchasedAt.Compare(b.purchasedAt); c != 0 {
			return c
		}
		switch {
		case a.payment < b.payment:
			return -1
		case a.payment > b.payment:
			return 1
		}
		return 0
	})

	n := float64(len(collapsed))
	last := collapsed[len(collapsed)-1].purchasedAt

	var payments, installments, reviews []float64
	canceled := 0
	for _, o := range collapsed {
		if !math.IsNaN(o.payment) {
			payments = append(payments, o.payment)
		}
		if !math.IsNaN(o.installments) {
			installments = append(installments, o.installments)
		}
		if !math.IsNaN(o.review) {
			reviews = append(reviews, o.review)
		}
		if o.canceled {
			canceled++
		}
	}

	total := floats.Sum(payments)

	std := 0.0
	if len(payments) > 1 {
		std = stat.StdDev(payments, nil)
	}

	return Features{
		CustomerUniqueID: customer,
		Recency:          math.Floor(cutoff.Sub(last).Hours() / 24),
		NumOrders:        n,
		TotalSpent:       total,
		AvgOrderValue:    total / n,
		StdOrderValue:    std,
		AvgInstallments:  meanOrNaN(installments),
		CancelRate:       float64(canceled) / n,
		AvgReview:        meanOrNaN(reviews),
	}
}

func meanOrNaN(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

type collapser struct {
	purchasedAt  time.Time
	payment      float64
	paid         bool
	installments []float64
	reviews      []float64
	canceled     bool
}

func (c *collapser) add(r orders.Order) {
	if r.PurchasedAt.Before(c.purchasedAt) {
		c.purchasedAt = r.PurchasedAt
	}
	if !math.IsNaN(r.PaymentValue) {
		c.payment += r.PaymentValue
		c.paid = true
	}
	if !math.IsNaN(r.PaymentInstallments) {
		c.installments = append(c.installments, r.PaymentInstallments)
	}
	if r.ReviewScore != nil {
		c.reviews = append(c.reviews, *r.ReviewScore)
	}
	if r.Status == orders.StatusCanceled {
		c.canceled = true
	}
}

func (c *collapser) order() order {
	payment := math.NaN()
	if c.paid {
		payment = c.payment
	}
	return order{
		purchasedAt:  c.purchasedAt,
		payment:      payment,
		installments: meanOrNaN(c.installments),
		review:       meanOrNaN(c.reviews),
		canceled:     c.canceled,
	}
}
