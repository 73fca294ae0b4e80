// Package bench is a driver harness for the order book engine: it pumps a
// stream of seeded pseudo-random orders through Submit and reports
// throughput. It is a pure client of the engine and imposes no contract on
// it beyond the submission interface.
package bench

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"limit-book/src/engine"
)

type Config struct {
	Orders    int   // total orders to submit
	MarketPct int   // percentage of orders submitted as MARKET, 0-100
	Seed      int64 // rng seed, fixed seed gives a reproducible run
}

func DefaultConfig() Config {
	return Config{
		Orders:    3_000_000,
		MarketPct: 10,
		Seed:      42,
	}
}

type Report struct {
	Orders         int
	Elapsed        time.Duration
	OrdersPerSec   float64
	Trades         uint64
	FilledOrders   uint64
	FilledQuantity int64
}

// Run drives a fresh book with cfg.Orders random orders: uniform sides,
// prices drifting ±5000 around a base of 100000, quantities 1-3.
func Run(cfg Config) Report {
	ob := engine.NewOrderBook()
	rng := rand.New(rand.NewSource(cfg.Seed))

	start := time.Now()
	for i := 0; i < cfg.Orders; i++ {
		side := engine.SideBuy
		if rng.Intn(2) == 0 {
			side = engine.SideSell
		}
		typ := engine.TypeLimit
		if rng.Intn(100) < cfg.MarketPct {
			typ = engine.TypeMarket
		}
		price := int64(100_000) + rng.Int63n(10_001) - 5_000
		qty := int64(rng.Intn(3) + 1)

		if _, err := ob.Submit(engine.NewOrder(strconv.Itoa(i), side, typ, price, qty)); err != nil {
			// generated orders are always valid, anything here is a bug
			log.Panic().Err(err).Int("order", i).Msg("Benchmark submission rejected")
		}
	}
	elapsed := time.Since(start)

	report := Report{
		Orders:         cfg.Orders,
		Elapsed:        elapsed,
		OrdersPerSec:   float64(cfg.Orders) / elapsed.Seconds(),
		Trades:         ob.Trades(),
		FilledOrders:   ob.FilledOrders(),
		FilledQuantity: ob.FilledQuantity(),
	}

	log.Info().
		Int("orders", report.Orders).
		Dur("elapsed", report.Elapsed).
		Float64("orders_per_sec", report.OrdersPerSec).
		Uint64("trades", report.Trades).
		Uint64("filled_orders", report.FilledOrders).
		Int64("filled_quantity", report.FilledQuantity).
		Msg("Benchmark complete")

	return report
}
