// Package churn turns the order table into a labeled, per-customer training set:
// churn labels at a cutoff date, behavioral features, and the joined dataset.
package churn

import (
	"time"

	"github.com/JaimeStill/churn/internal/orders"
)

// Label values.
const (
	Retained = 0
	Churned  = 1
)

// DefineLabels labels every customer with at least one order at or before cutoff.
// A customer is Churned when no order of theirs falls strictly after cutoff.
func DefineLabels(rows []orders.Order, cutoff time.Time) map[string]int {
	active := make(map[string]bool)
	returned := make(map[string]bool)

	for _, o := range rows {
		if o.PurchasedAt.After(cutoff) {
			returned[o.CustomerUniqueID] = true
		} else {
			active[o.CustomerUniqueID] = true
		}
	}

	labels := make(map[string]int, len(active))
	for customer := range active {
		if returned[customer] {
			labels[customer] = Retained
		} else {
			labels[customer] = Churned
		}
	}
	return labels
}
