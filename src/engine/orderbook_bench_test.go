package engine

import (
	"math/rand"
	"strconv"
	"testing"
)

func BenchmarkSubmitRestingOnly(b *testing.B) {
	ob := NewOrderBook()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// alternate non-crossing sides so nothing ever matches
		if i%2 == 0 {
			_, _ = ob.Submit(NewOrder(strconv.Itoa(i), SideBuy, TypeLimit, 99, 1))
		} else {
			_, _ = ob.Submit(NewOrder(strconv.Itoa(i), SideSell, TypeLimit, 101, 1))
		}
	}
}

func BenchmarkSubmitMixed(b *testing.B) {
	ob := NewOrderBook()
	rng := rand.New(rand.NewSource(42))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := SideBuy
		if rng.Intn(2) == 0 {
			side = SideSell
		}
		typ := TypeLimit
		if rng.Intn(100) < 10 {
			typ = TypeMarket
		}
		price := int64(100_000) + rng.Int63n(10_001) - 5_000
		qty := int64(rng.Intn(3) + 1)
		_, _ = ob.Submit(NewOrder(strconv.Itoa(i), side, typ, price, qty))
	}
}

func BenchmarkDepth(b *testing.B) {
	ob := NewOrderBook()
	for i := 0; i < 50_000; i++ {
		if i%2 == 0 {
			_, _ = ob.Submit(NewOrder(strconv.Itoa(i), SideBuy, TypeLimit, int64(90_000+i%1000), 10))
		} else {
			_, _ = ob.Submit(NewOrder(strconv.Itoa(i), SideSell, TypeLimit, int64(110_000+i%1000), 10))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bids, asks := ob.Depth(10)
		if len(bids) == 0 || len(asks) == 0 {
			b.Fatal("expected populated depth")
		}
	}
}
