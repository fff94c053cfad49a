package generator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/bft-labs/carcast/internal/domain"
)

// Source produces readings. Implementations must be safe for concurrent use
// when shared between connection handlers.
type Source interface {
	Next() domain.Reading
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() domain.Reading

// Next calls f.
func (f SourceFunc) Next() domain.Reading {
	return f()
}

// Random draws speed uniformly from [0, 100) and yaw rate from [-5, 5).
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a random source. A zero seed seeds from the clock.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a fresh reading.
func (g *Random) Next() domain.Reading {
	g.mu.Lock()
	speed := g.rng.Float64()
	yaw := g.rng.Float64()
	g.mu.Unlock()

	return domain.Reading{
		Speed:   domain.SpeedMin + speed*(domain.SpeedMax-domain.SpeedMin),
		YawRate: domain.YawRateMin + yaw*(domain.YawRateMax-domain.YawRateMin),
	}
}

// Sequence replays a fixed list of readings, wrapping around at the end.
type Sequence struct {
	mu       sync.Mutex
	readings []domain.Reading
	pos      int
}

// NewSequence creates a Sequence over readings. An empty list yields zero readings.
func NewSequence(readings ...domain.Reading) *Sequence {
	cp := make([]domain.Reading, len(readings))
	copy(cp, readings)
	return &Sequence{readings: cp}
}

// Next returns the next reading in the list.
func (s *Sequence) Next() domain.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.readings) == 0 {
		return domain.Reading{}
	}
	r := s.readings[s.pos]
	s.pos = (s.pos + 1) % len(s.readings)
	return r
}
