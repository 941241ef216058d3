package orderbookv1

import "sort"

// SideLadder is the price-ordered set of levels for one side of one symbol.
// Bids rank high-to-low and asks low-to-high, so index 0 is always the best
// price for that side. The prices present are exactly the prices with at
// least one resting order.
type SideLadder struct {
	side   Side
	levels map[int64]*PriceLevel
	prices []int64 // sorted best-first
}

// NewSideLadder creates an empty ladder for the given side.
func NewSideLadder(side Side) *SideLadder {
	return &SideLadder{
		side:   side,
		levels: make(map[int64]*PriceLevel),
	}
}

// Side returns the side this ladder holds.
func (s *SideLadder) Side() Side {
	return s.side
}

// better reports whether price a ranks ahead of price b on this side.
func (s *SideLadder) better(a, b int64) bool {
	if s.side == SideBid {
		return a > b
	}
	return a < b
}

// Level returns the level at the given price, if present.
func (s *SideLadder) Level(price int64) (*PriceLevel, bool) {
	level, ok := s.levels[price]
	return level, ok
}

// LevelOrNew returns the level at the given price, creating and ranking it
// if absent.
func (s *SideLadder) LevelOrNew(price int64) *PriceLevel {
	if level, ok := s.levels[price]; ok {
		return level
	}

	level := NewPriceLevel(price)
	s.levels[price] = level

	at := sort.Search(len(s.prices), func(i int) bool {
		return !s.better(s.prices[i], price)
	})
	s.prices = append(s.prices, 0)
	copy(s.prices[at+1:], s.prices[at:])
	s.prices[at] = price

	return level
}

// RemoveLevel drops the level at the given price from the ladder.
func (s *SideLadder) RemoveLevel(price int64) {
	if _, ok := s.levels[price]; !ok {
		return
	}
	delete(s.levels, price)

	for i, existing := range s.prices {
		if existing == price {
			s.prices = append(s.prices[:i], s.prices[i+1:]...)
			return
		}
	}
}

// Best returns the level at the best price on this side, if any.
func (s *SideLadder) Best() (*PriceLevel, bool) {
	if len(s.prices) == 0 {
		return nil, false
	}
	return s.levels[s.prices[0]], true
}

// Crosses reports whether a taker limit price crosses the given level price,
// i.e. whether a trade at that level is possible against this ladder's side.
func (s *SideLadder) Crosses(levelPrice, takerPrice int64) bool {
	if s.side == SideAsk {
		return levelPrice <= takerPrice
	}
	return levelPrice >= takerPrice
}

// Prices returns a copy of the level prices, best first.
func (s *SideLadder) Prices() []int64 {
	out := make([]int64, len(s.prices))
	copy(out, s.prices)
	return out
}

// Levels returns the levels best-first.
func (s *SideLadder) Levels() []*PriceLevel {
	out := make([]*PriceLevel, 0, len(s.prices))
	for _, price := range s.prices {
		out = append(out, s.levels[price])
	}
	return out
}

// Len returns the number of non-empty price levels.
func (s *SideLadder) Len() int {
	return len(s.prices)
}
