package engine

import (
	"errors"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderType string

const (
	TypeLimit  OrderType = "LIMIT"
	TypeMarket OrderType = "MARKET"
)

type OrderStatus string

const (
	StatusAccepted    OrderStatus = "ACCEPTED"     // rested with no fills
	StatusPartialFill OrderStatus = "PARTIAL_FILL" // partially filled, remainder resting
	StatusFilled      OrderStatus = "FILLED"
	StatusCancelled   OrderStatus = "CANCELLED" // unfilled market remainder discarded
)

// ErrInvalidOrder is returned by Submit before any state mutation when the
// order fails validation; the book is left untouched.
var ErrInvalidOrder = errors.New("invalid order")

// ErrConcurrentAccess is returned when Submit is entered while another
// Submit is still in flight. The book is a single-writer structure; callers
// needing concurrent ingestion must serialize access themselves.
var ErrConcurrentAccess = errors.New("concurrent order book access")

// edge case: price stored as int64 in cents to avoid floating-point precision errors
type Order struct {
	ID       string
	Side     Side
	Type     OrderType
	Price    int64  // price in cents; kept as submitted even for MARKET
	Quantity int64  // original submitted quantity, never changes
	Sequence uint64 // assigned by the book at submission, establishes time priority

	filled int64
}

func NewOrder(id string, side Side, orderType OrderType, price, quantity int64) *Order {
	return &Order{
		ID:       id,
		Side:     side,
		Type:     orderType,
		Price:    price,
		Quantity: quantity,
	}
}

func (o *Order) FilledQuantity() int64 {
	return o.filled
}

func (o *Order) Remaining() int64 {
	return o.Quantity - o.filled
}

func (o *Order) IsFilled() bool {
	return o.filled >= o.Quantity
}

func (o *Order) fill(quantity int64) {
	o.filled += quantity
}

type PriceLevel struct {
	Price  int64
	Orders []*Order // fifo ordering for time priority
}

func (pl *PriceLevel) TotalQuantity() int64 {
	var total int64
	for _, o := range pl.Orders {
		total += o.Remaining()
	}
	return total
}

// Fill describes one trade produced while matching a single submission.
// Price is always the resting (maker) order's price.
type Fill struct {
	TradeID      string
	Price        int64
	Quantity     int64
	MakerOrderID string
}

type SubmitResult struct {
	Status            OrderStatus
	FilledQuantity    int64
	RemainingQuantity int64
	Fills             []Fill
}
