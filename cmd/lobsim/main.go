package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	book "github.com/quantfill/limitbook"
)

type config struct {
	Symbol   string
	TickSize decimal.Decimal
	Orders   int
	Delay    time.Duration
	Depth    int
	Seed     int64
	PriceMax int64
	QtyMax   int64
}

func loadConfig() (config, error) {
	viper.SetDefault("symbol", "SIM")
	viper.SetDefault("tick_size", "1")
	viper.SetDefault("orders", 5000)
	viper.SetDefault("delay_ms", 5)
	viper.SetDefault("depth", 6)
	viper.SetDefault("seed", 0)
	viper.SetDefault("price_max", 1000)
	viper.SetDefault("qty_max", 1000)

	viper.SetConfigName("lobsim")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("LOBSIM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config{}, err
		}
	}

	tick, err := decimal.NewFromString(viper.GetString("tick_size"))
	if err != nil {
		return config{}, fmt.Errorf("tick_size: %w", err)
	}

	seed := viper.GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return config{
		Symbol:   viper.GetString("symbol"),
		TickSize: tick,
		Orders:   viper.GetInt("orders"),
		Delay:    time.Duration(viper.GetInt("delay_ms")) * time.Millisecond,
		Depth:    viper.GetInt("depth"),
		Seed:     seed,
		PriceMax: viper.GetInt64("price_max"),
		QtyMax:   viper.GetInt64("qty_max"),
	}, nil
}

// replayPublisher feeds the engine's event stream into an aggregated depth
// view. Replay runs synchronously, so the pooled logs are safe to recycle
// after Publish returns.
type replayPublisher struct {
	ab  *book.AggregatedBook
	log *slog.Logger
}

func (p *replayPublisher) Publish(logs ...*book.BookLog) {
	for _, l := range logs {
		if err := p.ab.Replay(l); err != nil {
			p.log.Error("replay failed", "seq_id", l.SequenceID, "error", err.Error())
		}
	}
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	book.SetLogger(log)

	cfg, err := loadConfig()
	if err != nil {
		log.Error("config", "error", err.Error())
		os.Exit(1)
	}

	aggregated := book.NewAggregatedBook()
	engine := book.NewEngine(book.Config{
		Symbol:   cfg.Symbol,
		TickSize: cfg.TickSize,
	}, &replayPublisher{ab: aggregated, log: log})

	go func() {
		_ = engine.Start()
	}()

	log.Info("simulation starting",
		"symbol", cfg.Symbol, "orders", cfg.Orders, "seed", cfg.Seed)

	rng := rand.New(rand.NewSource(cfg.Seed))
	ctx := context.Background()
	var resting []book.OrderID

	for i := 0; i < cfg.Orders; i++ {
		side := book.Buy
		if rng.Intn(2) == 1 {
			side = book.Sell
		}
		orderType := book.GoodTillCancel
		if rng.Intn(2) == 1 {
			orderType = book.FillAndKill
		}
		price := book.Price(rng.Int63n(cfg.PriceMax) + 1)
		quantity := book.Quantity(rng.Int63n(cfg.QtyMax) + 1)
		id := engine.NextOrderID()

		trades, err := engine.AddOrder(ctx, orderType, id, side, price, quantity)
		if err != nil {
			log.Error("add order", "order_id", uint64(id), "error", err.Error())
			continue
		}
		if orderType == book.GoodTillCancel {
			resting = append(resting, id)
		}

		for _, trade := range trades {
			log.Info("trade executed",
				"buy_id", uint64(trade.Bid.OrderID),
				"sell_id", uint64(trade.Ask.OrderID),
				"bid_price", int64(trade.Bid.Price),
				"ask_price", int64(trade.Ask.Price),
				"quantity", uint64(trade.Bid.Quantity))
		}

		// Occasionally cancel an earlier order to keep the book churning.
		if len(resting) > 0 && rng.Intn(10) == 0 {
			victim := resting[rng.Intn(len(resting))]
			if err := engine.CancelOrder(ctx, victim); err != nil {
				log.Error("cancel order", "order_id", uint64(victim), "error", err.Error())
			}
		}

		infos, err := engine.GetOrderInfos(ctx)
		if err != nil {
			log.Error("snapshot", "error", err.Error())
			continue
		}
		fmt.Print(renderBook(infos, cfg.Depth, cfg.TickSize))

		time.Sleep(cfg.Delay)
	}

	printFinalState(ctx, engine, aggregated, cfg, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err.Error())
	}
}

func printFinalState(ctx context.Context, engine *book.Engine, aggregated *book.AggregatedBook, cfg config, log *slog.Logger) {
	infos, err := engine.GetOrderInfos(ctx)
	if err != nil {
		log.Error("final snapshot", "error", err.Error())
		return
	}

	// The aggregated view is rebuilt purely from the event stream; it should
	// agree with the live book level for level.
	for _, level := range infos.Bids {
		if aggregated.Depth(book.Buy, level.Price) != level.Quantity {
			log.Warn("aggregated view diverged",
				"side", "buy", "price", int64(level.Price))
		}
	}
	for _, level := range infos.Asks {
		if aggregated.Depth(book.Sell, level.Price) != level.Quantity {
			log.Warn("aggregated view diverged",
				"side", "sell", "price", int64(level.Price))
		}
	}

	size, err := engine.Size(ctx)
	if err != nil {
		log.Error("size", "error", err.Error())
		return
	}

	var sb strings.Builder
	sb.WriteString("\nFinal book state (" + cfg.Symbol + "):\n")
	sb.WriteString(fmt.Sprintf("resting orders: %d\n", size))
	sb.WriteString("Bids:\n")
	for _, level := range infos.Bids {
		sb.WriteString(fmt.Sprintf("  price %s  quantity %d\n",
			formatPrice(level.Price, cfg.TickSize), level.Quantity))
	}
	sb.WriteString("Asks:\n")
	for _, level := range infos.Asks {
		sb.WriteString(fmt.Sprintf("  price %s  quantity %d\n",
			formatPrice(level.Price, cfg.TickSize), level.Quantity))
	}
	fmt.Print(sb.String())
}
