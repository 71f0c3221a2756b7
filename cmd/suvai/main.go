package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"suvai/internal/config"
	"suvai/internal/coupons"
	"suvai/internal/logsink"
	"suvai/internal/recipes"
	"suvai/internal/telemetry"
)

func main() {
	var (
		serve    bool
		addr     string
		list     bool
		generate string
		validate string
		subtotal string
		help     bool
	)

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", ":8080", "Address to bind in server mode")
	flag.BoolVar(&list, "recipes", false, "Print the recipe catalog")
	flag.StringVar(&generate, "generate", "", "Generate a recipe for a diet (veg, non-veg, both)")
	flag.StringVar(&validate, "validate", "", "Validate a coupon code against -subtotal")
	flag.StringVar(&subtotal, "subtotal", "0", "Cart subtotal in rupees for -validate")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()
	closeLogs, err := setupLogging(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer closeLogs()

	switch {
	case serve:
		if err := runServer(cfg, addr); err != nil {
			slog.Error("server error", "error", err)
			closeLogs()
			os.Exit(1)
		}
	case list:
		err = printCatalog(ctx, cfg)
	case generate != "":
		err = printGenerated(ctx, cfg, recipes.Diet(generate))
	case validate != "":
		err = printValidation(ctx, cfg, validate, subtotal)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		closeLogs()
		log.Fatalf("Error: %v", err)
	}
}

// setupLogging always logs text to stderr, adding the blob sink and OTLP
// bridge when they are configured.
func setupLogging(ctx context.Context, cfg *config.Config) (func(), error) {
	handlers := telemetry.Fanout{slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})}
	var closers []func()

	if cfg.LogSink.Enabled() {
		sink, err := logsink.New(ctx, cfg.LogSink, slog.LevelInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to create log sink: %w", err)
		}
		handlers = append(handlers, sink)
		closers = append(closers, func() { _ = sink.Close() })
	}

	if cfg.Telemetry.Enabled() {
		providers, err := telemetry.Setup(ctx, cfg.Telemetry)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, providers.LogHandler())
		closers = append(closers, func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(sctx); err != nil {
				fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
			}
		})
	}

	slog.SetDefault(slog.New(handlers))
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func printCatalog(ctx context.Context, cfg *config.Config) error {
	all, err := recipes.NewCatalog(cfg.Catalog, nil).All(ctx)
	if err != nil {
		return err
	}
	for _, r := range all {
		fmt.Printf("%-10s %-28s ingredients ₹%s  ready-made ₹%s\n", r.ID, r.Title, r.IngredientsPrice.StringFixed(2), r.ReadyMadePrice.StringFixed(2))
	}
	return nil
}

func printGenerated(ctx context.Context, cfg *config.Config, diet recipes.Diet) error {
	r, err := recipes.NewCatalog(cfg.Catalog, nil).Generate(ctx, recipes.GenerationInput{Diet: diet})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func printValidation(ctx context.Context, cfg *config.Config, code, subtotal string) error {
	amount, err := decimal.NewFromString(subtotal)
	if err != nil {
		return fmt.Errorf("invalid subtotal %q: %w", subtotal, err)
	}
	res, err := coupons.NewService(cfg.Coupons).Validate(ctx, code, amount)
	if err != nil {
		return err
	}
	fmt.Printf("valid=%t discount=₹%s %s\n", res.Valid, res.DiscountAmount.StringFixed(2), res.Message)
	return nil
}

func showHelp() {
	fmt.Println("Suvai Chaalai - South Indian recipes, cart and coupons")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  suvai -serve [-addr :8080]")
	fmt.Println("  suvai -recipes")
	fmt.Println("  suvai -generate veg")
	fmt.Println("  suvai -validate SPICE15 -subtotal 240")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -serve           Run the HTTP server")
	fmt.Println("  -addr            Address to bind in server mode")
	fmt.Println("  -recipes         Print the recipe catalog")
	fmt.Println("  -generate        Generate a recipe for a diet")
	fmt.Println("  -validate        Validate a coupon code")
	fmt.Println("  -subtotal        Subtotal used by -validate")
	fmt.Println("  -help, -h        Show this help message")
}
