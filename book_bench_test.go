package book

import (
	"context"
	"testing"
	"time"
)

func BenchmarkBookAddCancel(b *testing.B) {
	bk := NewBook()
	gen := NewIDGenerator()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := gen.Next()
		_, _ = bk.AddOrder(NewOrder(GoodTillCancel, id, Buy, Price(1+i%500), 1))
		bk.CancelOrder(id)
	}
}

func BenchmarkBookMatch(b *testing.B) {
	bk := NewBook()
	gen := NewIDGenerator()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := Buy
		if i%2 == 1 {
			side = Sell
		}
		// Alternating buy/sell at one price so every pair crosses.
		_, _ = bk.AddOrder(NewOrder(GoodTillCancel, gen.Next(), side, 100, 1))
	}
}

func BenchmarkEngineAddOrder(b *testing.B) {
	engine := NewEngine(Config{Symbol: "BENCH"}, NewDiscardPublishLog())
	go func() {
		_ = engine.Start()
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = engine.Shutdown(ctx)
	}()

	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := engine.NextOrderID()
		_, _ = engine.AddOrder(ctx, GoodTillCancel, id, Buy, Price(1+i%500), 1)
	}
}
