// Package rng provides the seeded, replayable random source used by the
// pipeline and by rule-sets.
//
// The state of a Source is a pure function of (seed, cursor), where cursor
// counts the 64-bit draws taken so far. Every public method takes a fixed
// number of draws, so two sources built from the same seed and advanced by
// the same sequence of calls always agree, and At can reproduce any position
// without the call history.
package rng

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
)

// Source is a deterministic random source.
//
// Thread-safety: a Source is not safe for concurrent use. Each match owns
// one; clients build their own from the synced seed.
type Source struct {
	seed   string
	pcg    *rand.PCG
	cursor uint64
}

// New returns a source positioned at the start of seed's stream.
func New(seed string) *Source {
	sum := sha256.Sum256([]byte(seed))
	return &Source{
		seed: seed,
		pcg:  rand.NewPCG(binary.LittleEndian.Uint64(sum[0:8]), binary.LittleEndian.Uint64(sum[8:16])),
	}
}

// At returns a source for seed advanced by cursor draws.
func At(seed string, cursor uint64) *Source {
	s := New(seed)
	s.AdvanceTo(cursor)
	return s
}

// AdvanceTo draws until s reaches cursor. A source already past cursor is
// left alone.
func (s *Source) AdvanceTo(cursor uint64) {
	for s.cursor < cursor {
		s.next()
	}
}

// NewSeed returns a fresh high-entropy seed string.
func NewSeed() (string, error) {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

func (s *Source) next() uint64 {
	s.cursor++
	return s.pcg.Uint64()
}

// Seed returns the seed the source was built from.
func (s *Source) Seed() string { return s.seed }

// Consumed returns the number of draws taken so far.
func (s *Source) Consumed() uint64 { return s.cursor }

// Random returns a float in [0, 1). Takes one draw.
func (s *Source) Random() float64 {
	return float64(s.next()>>11) / (1 << 53)
}

// Integer returns an int in [min, max], inclusive. Takes one draw.
// Arguments in the wrong order are swapped.
func (s *Source) Integer(min, max int) int {
	if max < min {
		min, max = max, min
	}
	span := uint64(max) - uint64(min) + 1
	if span == 0 {
		// [math.MinInt, math.MaxInt]: every draw is in range.
		return int(s.next())
	}
	return min + int(s.next()%span)
}

// Shuffle permutes n elements with Fisher-Yates. Takes n-1 draws for n > 1.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, s.Integer(0, i))
	}
}

// ShuffleSlice returns a shuffled copy of items; the input is not modified.
func ShuffleSlice[T any](s *Source, items []T) []T {
	out := append([]T(nil), items...)
	s.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Pick returns a uniformly chosen element. Takes one draw.
// It panics on an empty slice, like indexing would.
func Pick[T any](s *Source, items []T) T {
	return items[s.Integer(0, len(items)-1)]
}

// Clone returns an independent source at the same position.
func (s *Source) Clone() *Source {
	cp := *s.pcg
	return &Source{seed: s.seed, pcg: &cp, cursor: s.cursor}
}

// Set moves s to other's seed and position.
func (s *Source) Set(other *Source) {
	cp := *other.pcg
	s.seed = other.seed
	s.pcg = &cp
	s.cursor = other.cursor
}
