package models

type SubmitOrderRequest struct {
	Side     string `json:"side"`
	Type     string `json:"type"`
	Price    int64  `json:"price"` // price in cents, required for LIMIT, ignored for MARKET
	Quantity int64  `json:"quantity"`
}

type SubmitOrderResponse struct {
	OrderID           string      `json:"order_id"`
	Status            string      `json:"status"`
	Message           string      `json:"message,omitempty"`
	FilledQuantity    int64       `json:"filled_quantity"`
	RemainingQuantity int64       `json:"remaining_quantity"`
	Fills             []FillInfo  `json:"fills,omitempty"`
}

type FillInfo struct {
	TradeID      string `json:"trade_id"`
	Price        int64  `json:"price"` // price in cents, always the resting order's price
	Quantity     int64  `json:"quantity"`
	MakerOrderID string `json:"maker_order_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderBookResponse struct {
	Timestamp int64            `json:"timestamp"` // unix timestamp in milliseconds
	Bids      []PriceLevelInfo `json:"bids"`      // sorted descending (highest first)
	Asks      []PriceLevelInfo `json:"asks"`      // sorted ascending (lowest first)
}

type PriceLevelInfo struct {
	Price    int64 `json:"price"`    // price in cents
	Quantity int64 `json:"quantity"` // aggregated quantity at this price
}

// StatsResponse exposes the book's monotonic counters.
type StatsResponse struct {
	Trades         uint64 `json:"trades"`
	FilledOrders   uint64 `json:"filled_orders"`
	FilledQuantity int64  `json:"filled_quantity"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	OrdersReceived int64  `json:"orders_received"`
}

type MetricsResponse struct {
	OrdersReceived         int64   `json:"orders_received"`
	OrdersRejected         int64   `json:"orders_rejected"`
	TradesExecuted         int64   `json:"trades_executed"`
	LatencyP50Ms           float64 `json:"latency_p50_ms"`
	LatencyP99Ms           float64 `json:"latency_p99_ms"`
	LatencyP999Ms          float64 `json:"latency_p999_ms"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}
