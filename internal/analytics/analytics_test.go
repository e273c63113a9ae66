package analytics

import (
	"testing"
	"time"

	"github.com/bitminerobotics/platform/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_NoOrders(t *testing.T) {
	s := Summarize(nil, 3)

	assert.Equal(t, 0, s.TotalOrders)
	assert.Equal(t, 0.0, s.TotalSales)
	assert.Equal(t, 0.0, s.AverageOrderValue)
	assert.Equal(t, 3, s.TotalCustomers)
	require.Len(t, s.Monthly, 12)
	assert.Equal(t, "Jan", s.Monthly[0].Month)
	assert.Equal(t, "Dec", s.Monthly[11].Month)
}

func TestSummarize_GroupsByMonth(t *testing.T) {
	at := func(m time.Month, d int) time.Time {
		return time.Date(2025, m, d, 12, 0, 0, 0, time.UTC)
	}

	orders := []order.Order{
		{ID: 1, TotalAmount: 100, CreatedAt: at(time.January, 3)},
		{ID: 2, TotalAmount: 50, CreatedAt: at(time.January, 20)},
		{ID: 3, TotalAmount: 30, CreatedAt: at(time.July, 1)},
	}

	s := Summarize(orders, 2)

	assert.Equal(t, 3, s.TotalOrders)
	assert.InDelta(t, 180.0, s.TotalSales, 1e-9)
	assert.InDelta(t, 60.0, s.AverageOrderValue, 1e-9)

	assert.Equal(t, MonthBucket{Month: "Jan", Orders: 2, Revenue: 150}, s.Monthly[0])
	assert.Equal(t, MonthBucket{Month: "Jul", Orders: 1, Revenue: 30}, s.Monthly[6])
	assert.Equal(t, 0, s.Monthly[1].Orders)
}

func TestSummarize_UsesUTCMonth(t *testing.T) {
	// 23:30 on Jan 31 in UTC-5 is Feb 1 in UTC.
	loc := time.FixedZone("EST", -5*60*60)
	o := order.Order{TotalAmount: 10, CreatedAt: time.Date(2025, time.January, 31, 23, 30, 0, 0, loc)}

	s := Summarize([]order.Order{o}, 0)

	assert.Equal(t, 0, s.Monthly[0].Orders)
	assert.Equal(t, 1, s.Monthly[1].Orders)
}
