package domain

import (
	"sort"
	"sync"
)

// ContiguityPolicy controls when a selection's no-gap invariant is enforced.
type ContiguityPolicy string

const (
	// PartitionAtSubmit accepts any combination of available slots; the
	// submitter partitions the selection into contiguous blocks, one
	// reservation per block. This is the default: it does not block
	// legitimate multi-block bookings such as 9-10am plus 2-3pm.
	PartitionAtSubmit ContiguityPolicy = "partition"

	// RejectGaps refuses any toggle that would leave the selection
	// non-contiguous.
	RejectGaps ContiguityPolicy = "strict"
)

// Selection is the user's in-progress multi-slot choice for one court and
// date: a time-sorted set of slots plus their price entries. It is created
// empty when a court and date are chosen, reset when either changes, and
// cleared by the submitter on full success. Safe for concurrent use.
type Selection struct {
	mu     sync.Mutex
	policy ContiguityPolicy
	slots  []AvailableSlot // sorted by start time
	prices map[string]float64
}

func NewSelection(policy ContiguityPolicy) *Selection {
	if policy == "" {
		policy = PartitionAtSubmit
	}
	return &Selection{policy: policy, prices: make(map[string]float64)}
}

func (s *Selection) Policy() ContiguityPolicy { return s.policy }

// Toggle adds or removes a slot. Toggling an unavailable slot is a no-op.
// Under RejectGaps a toggle that would break contiguity returns
// ErrDiscontiguous and leaves the selection unchanged. The bool reports
// whether the selection changed.
func (s *Selection) Toggle(slot AvailableSlot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slot.Key()
	if idx := s.index(key); idx >= 0 {
		s.slots = append(s.slots[:idx], s.slots[idx+1:]...)
		delete(s.prices, key)
		return true, nil
	}
	if !slot.Available {
		return false, nil
	}

	s.slots = append(s.slots, slot)
	sort.Slice(s.slots, func(i, j int) bool { return s.slots[i].Start < s.slots[j].Start })

	if s.policy == RejectGaps && !s.contiguous() {
		idx := s.index(key)
		s.slots = append(s.slots[:idx], s.slots[idx+1:]...)
		return false, ErrDiscontiguous
	}
	s.prices[key] = slot.Price
	return true, nil
}

func (s *Selection) index(key string) int {
	for i, sl := range s.slots {
		if sl.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Selection) contiguous() bool {
	for i := 1; i < len(s.slots); i++ {
		if s.slots[i-1].End != s.slots[i].Start {
			return false
		}
	}
	return true
}

func (s *Selection) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index(key) >= 0
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Slots returns the selection in ascending start-time order.
func (s *Selection) Slots() []AvailableSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AvailableSlot, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *Selection) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, p := range s.prices {
		sum += p
	}
	return sum
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = nil
	s.prices = make(map[string]float64)
}

// Evict drops every selected slot whose key is absent from the given set of
// currently-available keys, returning the dropped slots in time order.
func (s *Selection) Evict(available map[string]struct{}) []AvailableSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []AvailableSlot
	var evicted []AvailableSlot
	for _, sl := range s.slots {
		if _, ok := available[sl.Key()]; ok {
			kept = append(kept, sl)
			continue
		}
		evicted = append(evicted, sl)
		delete(s.prices, sl.Key())
	}
	s.slots = kept
	return evicted
}

// Blocks partitions the selection into maximal contiguous runs. The union of
// the returned blocks' slots is exactly the current selection.
func (s *Selection) Blocks() []BookingBlock {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blocks []BookingBlock
	for _, sl := range s.slots {
		n := len(blocks)
		if n > 0 && blocks[n-1].End == sl.Start {
			blocks[n-1].End = sl.End
			blocks[n-1].Price += s.prices[sl.Key()]
			blocks[n-1].Slots = append(blocks[n-1].Slots, sl)
			continue
		}
		blocks = append(blocks, BookingBlock{
			Start: sl.Start,
			End:   sl.End,
			Price: s.prices[sl.Key()],
			Slots: []AvailableSlot{sl},
		})
	}
	return blocks
}
