// Package analytics aggregates orders into the dashboard summary.
package analytics

import (
	"time"

	"github.com/bitminerobotics/platform/internal/domain/order"
)

type MonthBucket struct {
	Month   string  `json:"month"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type Summary struct {
	TotalSales        float64       `json:"totalSales"`
	TotalOrders       int           `json:"totalOrders"`
	AverageOrderValue float64       `json:"averageOrderValue"`
	TotalCustomers    int           `json:"totalCustomers"`
	Monthly           []MonthBucket `json:"monthly"`
}

// Summarize makes one pass over orders. Months are taken from created_at in
// UTC, so orders from different years share a bucket.
func Summarize(orders []order.Order, customerCount int) Summary {
	s := Summary{
		TotalOrders:    len(orders),
		TotalCustomers: customerCount,
		Monthly:        make([]MonthBucket, 12),
	}

	for m := range s.Monthly {
		s.Monthly[m].Month = time.Month(m + 1).String()[:3]
	}

	for _, o := range orders {
		s.TotalSales += o.TotalAmount

		b := &s.Monthly[o.CreatedAt.UTC().Month()-1]
		b.Orders++
		b.Revenue += o.TotalAmount
	}

	if s.TotalOrders > 0 {
		s.AverageOrderValue = s.TotalSales / float64(s.TotalOrders)
	}
	return s
}
