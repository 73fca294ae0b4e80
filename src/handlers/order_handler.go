package handlers

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"limit-book/src/engine"
	"limit-book/src/models"
)

// OrderHandler serves the single instrument's book over HTTP. The engine is
// a single-writer structure, so every Submit goes through submitMu; the
// handler is the external serialization point the engine requires.
type OrderHandler struct {
	Book      *engine.OrderBook
	StartTime time.Time

	submitMu sync.Mutex

	OrdersReceived int64
	OrdersRejected int64
	TradesExecuted int64

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewOrderHandler(book *engine.OrderBook) *OrderHandler {
	maxLatencies := 10000
	if envMax := os.Getenv("METRICS_MAX_LATENCIES"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxLatencies = parsed
		}
	}

	return &OrderHandler{
		Book:         book,
		StartTime:    time.Now(),
		latencies:    make([]time.Duration, 0, maxLatencies),
		maxLatencies: maxLatencies,
	}
}

func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("ip", c.IP()).
			Str("path", c.Path()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	orderID := uuid.New().String()
	order := engine.NewOrder(orderID, engine.Side(req.Side), engine.OrderType(req.Type), req.Price, req.Quantity)

	atomic.AddInt64(&h.OrdersReceived, 1)

	start := time.Now()
	h.submitMu.Lock()
	result, err := h.Book.Submit(order)
	h.submitMu.Unlock()
	h.recordLatency(time.Since(start))

	if err != nil {
		atomic.AddInt64(&h.OrdersRejected, 1)

		if errors.Is(err, engine.ErrInvalidOrder) {
			log.Warn().
				Err(err).
				Str("side", req.Side).
				Str("type", req.Type).
				Int64("price", req.Price).
				Int64("quantity", req.Quantity).
				Str("ip", c.IP()).
				Msg("Invalid order request")
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: err.Error(),
			})
		}
		// edge case: ErrConcurrentAccess cannot occur behind submitMu, but
		// map it anyway rather than reporting an internal error
		if errors.Is(err, engine.ErrConcurrentAccess) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Order book busy, retry",
			})
		}
		log.Error().
			Err(err).
			Str("order_id", orderID).
			Msg("Error submitting order")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Internal server error",
		})
	}

	fills := make([]models.FillInfo, 0, len(result.Fills))
	for _, f := range result.Fills {
		fills = append(fills, models.FillInfo{
			TradeID:      f.TradeID,
			Price:        f.Price,
			Quantity:     f.Quantity,
			MakerOrderID: f.MakerOrderID,
		})
	}
	atomic.AddInt64(&h.TradesExecuted, int64(len(fills)))

	response := models.SubmitOrderResponse{
		OrderID:           orderID,
		Status:            string(result.Status),
		FilledQuantity:    result.FilledQuantity,
		RemainingQuantity: result.RemainingQuantity,
		Fills:             fills,
	}

	log.Info().
		Str("order_id", orderID).
		Str("side", req.Side).
		Str("type", req.Type).
		Str("status", string(result.Status)).
		Int64("filled_quantity", result.FilledQuantity).
		Int64("remaining_quantity", result.RemainingQuantity).
		Int("fills", len(fills)).
		Msg("Order processed")

	switch result.Status {
	case engine.StatusAccepted:
		response.Message = "Order added to book"
		return c.Status(fiber.StatusCreated).JSON(response)
	case engine.StatusPartialFill:
		return c.Status(fiber.StatusAccepted).JSON(response)
	case engine.StatusCancelled:
		response.Message = "Unfilled market order quantity discarded"
		return c.Status(fiber.StatusOK).JSON(response)
	default:
		return c.Status(fiber.StatusOK).JSON(response)
	}
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	defaultDepth := 10
	if envDepth := os.Getenv("ORDERBOOK_DEFAULT_DEPTH"); envDepth != "" {
		if parsed, err := strconv.Atoi(envDepth); err == nil && parsed > 0 {
			defaultDepth = parsed
		}
	}

	maxDepth := 1000
	if envMaxDepth := os.Getenv("ORDERBOOK_MAX_DEPTH"); envMaxDepth != "" {
		if parsed, err := strconv.Atoi(envMaxDepth); err == nil && parsed > 0 {
			maxDepth = parsed
		}
	}

	depthStr := c.Query("depth", strconv.Itoa(defaultDepth))
	depth, err := strconv.Atoi(depthStr)
	if err != nil || depth <= 0 {
		depth = defaultDepth
	}

	// edge case: enforce maximum depth limit
	if depth > maxDepth {
		depth = maxDepth
	}

	bidLevels, askLevels := h.Book.Depth(depth)

	bids := make([]models.PriceLevelInfo, 0, len(bidLevels))
	for _, level := range bidLevels {
		bids = append(bids, models.PriceLevelInfo{Price: level.Price, Quantity: level.Quantity})
	}
	asks := make([]models.PriceLevelInfo, 0, len(askLevels))
	for _, level := range askLevels {
		asks = append(asks, models.PriceLevelInfo{Price: level.Price, Quantity: level.Quantity})
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderBookResponse{
		Timestamp: time.Now().UnixMilli(),
		Bids:      bids,
		Asks:      asks,
	})
}

func (h *OrderHandler) GetStats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.StatsResponse{
		Trades:         h.Book.Trades(),
		FilledOrders:   h.Book.FilledOrders(),
		FilledQuantity: h.Book.FilledQuantity(),
	})
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()

	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:         "healthy",
		UptimeSeconds:  int64(uptime),
		OrdersReceived: atomic.LoadInt64(&h.OrdersReceived),
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	p50, p99, p999 := h.calculateLatencyPercentiles()

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:         atomic.LoadInt64(&h.OrdersReceived),
		OrdersRejected:         atomic.LoadInt64(&h.OrdersRejected),
		TradesExecuted:         atomic.LoadInt64(&h.TradesExecuted),
		LatencyP50Ms:           p50,
		LatencyP99Ms:           p99,
		LatencyP999Ms:          p999,
		ThroughputOrdersPerSec: h.calculateThroughput(),
	})
}

func (h *OrderHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()

	h.latencies = append(h.latencies, latency)

	// edge case: maintain rolling window by removing oldest measurements
	if len(h.latencies) > h.maxLatencies {
		removeCount := len(h.latencies) - h.maxLatencies
		h.latencies = h.latencies[removeCount:]
	}
}

func (h *OrderHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	defer h.latenciesMu.RUnlock()

	if len(h.latencies) == 0 {
		return 0, 0, 0
	}

	sorted := make([]time.Duration, len(h.latencies))
	copy(sorted, h.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	at := func(pct float64) float64 {
		idx := int(float64(len(sorted)) * pct)
		if idx >= len(sorted) {
			idx = len(sorted) - 1
		}
		return float64(sorted[idx].Nanoseconds()) / 1e6
	}

	return at(0.50), at(0.99), at(0.999)
}

func (h *OrderHandler) calculateThroughput() float64 {
	uptime := time.Since(h.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&h.OrdersReceived)) / uptime
}
