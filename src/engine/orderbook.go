package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/google/uuid"
)

// bookSide is one half of the book: a price-priority index over the distinct
// prices present on that side plus a lookup from price to its level.
// Invariant: the key set of prices and the key set of levels are identical.
type bookSide struct {
	side   Side
	prices *btree.BTreeG[int64] // bids descending (highest first), asks ascending (lowest first)
	levels map[int64]*PriceLevel
}

func newBookSide(side Side) *bookSide {
	less := func(a, b int64) bool { return a < b }
	if side == SideBuy {
		less = func(a, b int64) bool { return a > b }
	}
	return &bookSide{
		side:   side,
		prices: btree.NewG(32, less),
		levels: make(map[int64]*PriceLevel),
	}
}

// bestPrice returns the most favorable price currently indexed on this side:
// the highest bid or the lowest ask.
func (s *bookSide) bestPrice() (int64, bool) {
	return s.prices.Min()
}

// crosses reports whether a limit order priced at limitPrice may trade
// against this side's best price.
func (s *bookSide) crosses(limitPrice, bestPrice int64) bool {
	if s.side == SideSell {
		// incoming buy against asks
		return bestPrice <= limitPrice
	}
	// incoming sell against bids
	return bestPrice >= limitPrice
}

func (s *bookSide) enqueue(o *Order) {
	level, exists := s.levels[o.Price]
	if !exists {
		level = &PriceLevel{Price: o.Price}
		s.levels[o.Price] = level
		s.prices.ReplaceOrInsert(o.Price)
	}
	level.Orders = append(level.Orders, o)
}

func (s *bookSide) removeLevel(price int64) {
	s.prices.Delete(price)
	delete(s.levels, price)
}

// OrderBook is a single-instrument limit order book with price-then-time
// priority. It is created empty and mutated only through Submit. It is not
// safe for concurrent use: overlapping Submit calls fail fast with
// ErrConcurrentAccess rather than corrupt state.
type OrderBook struct {
	bids *bookSide
	asks *bookSide

	seq  uint64
	busy atomic.Bool

	trades       uint64
	filledOrders uint64
	filledQty    int64
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: newBookSide(SideBuy),
		asks: newBookSide(SideSell),
	}
}

// Submit assigns the order its sequence number, matches it against the
// opposite side and, for a limit order with quantity left over, rests the
// remainder on its own side at its submitted price. The unmatched remainder
// of a market order is discarded: it never rests and is not an error.
func (ob *OrderBook) Submit(o *Order) (*SubmitResult, error) {
	if err := validate(o); err != nil {
		return nil, err
	}
	if !ob.busy.CompareAndSwap(false, true) {
		return nil, ErrConcurrentAccess
	}
	defer ob.busy.Store(false)

	ob.seq++
	o.Sequence = ob.seq

	opposite, own := ob.asks, ob.bids
	if o.Side == SideSell {
		opposite, own = ob.bids, ob.asks
	}

	result := &SubmitResult{}
	ob.match(opposite, o, result)

	switch {
	case o.Remaining() == 0:
		result.Status = StatusFilled
	case o.Type == TypeLimit:
		own.enqueue(o)
		if result.FilledQuantity > 0 {
			result.Status = StatusPartialFill
		} else {
			result.Status = StatusAccepted
		}
	default:
		// market remainder is silently cancelled, never queued
		result.Status = StatusCancelled
	}
	result.RemainingQuantity = o.Remaining()
	return result, nil
}

// match consumes resting liquidity from opp, best price level first, strict
// FIFO within a level. Execution price is always the resting order's price.
func (ob *OrderBook) match(opp *bookSide, o *Order, result *SubmitResult) {
	for o.Remaining() > 0 && opp.prices.Len() > 0 {
		bestPrice, ok := opp.bestPrice()
		if !ok {
			return
		}
		level := opp.levels[bestPrice]
		if level == nil || len(level.Orders) == 0 {
			// edge case: stale index entry with no resting orders behind it,
			// drop it and rescan for the next best price
			opp.removeLevel(bestPrice)
			continue
		}
		if o.Type == TypeLimit && !opp.crosses(o.Price, bestPrice) {
			// levels are visited best to worst, nothing further can cross
			return
		}

		for o.Remaining() > 0 && len(level.Orders) > 0 {
			maker := level.Orders[0]
			qty := o.Remaining()
			if r := maker.Remaining(); r < qty {
				qty = r
			}

			o.fill(qty)
			maker.fill(qty)
			ob.trades++
			ob.filledQty += qty

			result.FilledQuantity += qty
			result.Fills = append(result.Fills, Fill{
				TradeID:      uuid.New().String(),
				Price:        level.Price,
				Quantity:     qty,
				MakerOrderID: maker.ID,
			})

			if maker.Remaining() == 0 {
				ob.filledOrders++
				level.Orders = level.Orders[1:]
			}
			// a maker with quantity left means the incoming order is done;
			// the outer condition ends both loops
		}

		if len(level.Orders) == 0 {
			opp.removeLevel(bestPrice)
		}
	}
}

func validate(o *Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidOrder)
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", ErrInvalidOrder, o.Side)
	}
	if o.Type != TypeLimit && o.Type != TypeMarket {
		return fmt.Errorf("%w: type must be LIMIT or MARKET, got %q", ErrInvalidOrder, o.Type)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	}
	// edge case: a nonsensical limit price would produce nonsensical crossing
	if o.Type == TypeLimit && o.Price <= 0 {
		return fmt.Errorf("%w: price must be positive for LIMIT orders, got %d", ErrInvalidOrder, o.Price)
	}
	return nil
}

// Trades is the cumulative number of trades executed.
func (ob *OrderBook) Trades() uint64 { return ob.trades }

// FilledOrders is the cumulative number of resting orders filled completely.
func (ob *OrderBook) FilledOrders() uint64 { return ob.filledOrders }

// FilledQuantity is the cumulative quantity transferred across all trades.
func (ob *OrderBook) FilledQuantity() int64 { return ob.filledQty }

func (ob *OrderBook) BestBid() (price int64, quantity int64, ok bool) {
	return ob.best(ob.bids)
}

func (ob *OrderBook) BestAsk() (price int64, quantity int64, ok bool) {
	return ob.best(ob.asks)
}

func (ob *OrderBook) best(s *bookSide) (int64, int64, bool) {
	price, ok := s.bestPrice()
	if !ok {
		return 0, 0, false
	}
	level := s.levels[price]
	if level == nil || len(level.Orders) == 0 {
		return 0, 0, false
	}
	return price, level.TotalQuantity(), true
}

type LevelSnapshot struct {
	Price    int64
	Quantity int64
}

// Depth returns the top depth levels of each side, best first, with the
// resting quantity aggregated per price.
func (ob *OrderBook) Depth(depth int) (bids []LevelSnapshot, asks []LevelSnapshot) {
	bids = snapshotSide(ob.bids, depth)
	asks = snapshotSide(ob.asks, depth)
	return bids, asks
}

func snapshotSide(s *bookSide, depth int) []LevelSnapshot {
	out := make([]LevelSnapshot, 0, depth)
	s.prices.Ascend(func(price int64) bool {
		if len(out) >= depth {
			return false
		}
		level := s.levels[price]
		if level == nil {
			return true
		}
		out = append(out, LevelSnapshot{Price: price, Quantity: level.TotalQuantity()})
		return true
	})
	return out
}
