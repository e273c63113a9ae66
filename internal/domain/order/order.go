package order

import (
	"errors"
	"sort"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

var (
	ErrNotFound          = errors.New("order not found")
	ErrProductNotFound   = errors.New("product in order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Order struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"userId"`
	TotalAmount float64   `json:"totalAmount"`
	Status      Status    `json:"orderStatus"`
	Items       []Item    `json:"items,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Item struct {
	ID        int64   `json:"id"`
	ProductID *int64  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type ItemRequest struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,min=1,max=1000"`
}

type CreateOrderRequest struct {
	Items []ItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

type UpdateStatusRequest struct {
	Status Status `json:"orderStatus" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

// MergeItems folds repeated products into one line and sorts by product id so
// row locks are always taken in the same order.
func MergeItems(items []ItemRequest) []ItemRequest {
	qty := make(map[int64]int, len(items))
	for _, it := range items {
		qty[it.ProductID] += it.Quantity
	}

	out := make([]ItemRequest, 0, len(qty))
	for id, q := range qty {
		out = append(out, ItemRequest{ProductID: id, Quantity: q})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
