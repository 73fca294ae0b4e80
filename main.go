package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"limit-book/src/bench"
	"limit-book/src/engine"
	"limit-book/src/handlers"
	"limit-book/src/logger"
	"limit-book/src/routes"
)

func main() {
	logger.InitLogger()
	defer logger.CloseLogger()

	root := &cobra.Command{
		Use:   "limit-book",
		Short: "Single-instrument limit order book with price-time priority",
		SilenceUsage: true,
	}
	root.AddCommand(serveCommand(), benchCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the order book over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func benchCommand() *cobra.Command {
	cfg := bench.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Pump random orders through the book and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Orders <= 0 {
				return errors.New("orders must be positive")
			}
			if cfg.MarketPct < 0 || cfg.MarketPct > 100 {
				return errors.New("market-pct must be between 0 and 100")
			}
			bench.Run(cfg)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.Orders, "orders", cfg.Orders, "number of orders to submit")
	cmd.Flags().IntVar(&cfg.MarketPct, "market-pct", cfg.MarketPct, "percentage of market orders")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "rng seed for a reproducible run")

	return cmd
}

func serve() error {
	log := logger.GetLogger()

	log.Info().Msg("Initializing order book")

	book := engine.NewOrderBook()
	orderHandler := handlers.NewOrderHandler(book)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, orderHandler)

	port := ":8080"
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = ":" + envPort
	}

	serverError := make(chan error, 1)

	go func() {
		if err := app.Listen(port); err != nil {
			// edge case: ignore shutdown errors, only report real errors
			if err.Error() != "server is shutting down" {
				serverError <- err
			}
		}
	}()

	select {
	case err := <-serverError:
		log.Error().
			Err(err).
			Str("port", port).
			Str("hint", "Port may be already in use. Try: PORT=3000 limit-book serve").
			Msg("Server failed to start")
		return err
	default:
		log.Info().
			Str("port", port).
			Strs("endpoints", []string{
				"POST /api/v1/orders",
				"GET  /api/v1/book",
				"GET  /api/v1/stats",
				"GET  /health",
				"GET  /metrics",
			}).
			Msg("Order book started")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info().Msg("Received shutdown signal, shutting down...")

	shutdownTimeout := 10 * time.Second
	if envTimeout := os.Getenv("SHUTDOWN_TIMEOUT"); envTimeout != "" {
		if parsed, err := time.ParseDuration(envTimeout); err == nil && parsed > 0 {
			shutdownTimeout = parsed
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		// edge case: timeout during shutdown is acceptable
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Dur("timeout", shutdownTimeout).
				Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().
				Err(err).
				Msg("Error during shutdown")
		}
	} else {
		log.Info().Msg("Shutdown complete")
	}

	return nil
}
