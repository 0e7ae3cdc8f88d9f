package engine

import "sync/atomic"

// Sequencer hands out strictly increasing order IDs. The same number is
// used as the order's arrival index for time priority.
type Sequencer struct {
	next atomic.Uint64
}

// NewSequencer creates a sequencer whose first Next() returns start+1.
func NewSequencer(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next sequence number.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued sequence number.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
