package shortener

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Alphabet is the set of characters generated codes are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

var ErrMaxRetriesExceeded = errors.New("maximum number of retries exceeded")

// MaxRetriesExceededError is returned by Candidates.Next once every
// allowed candidate has been handed out.
type MaxRetriesExceededError struct {
	Attempts int
}

func (e *MaxRetriesExceededError) Error() string {
	return fmt.Sprintf("maximum number of retries exceeded: %d", e.Attempts)
}

func (e *MaxRetriesExceededError) Is(target error) bool {
	return target == ErrMaxRetriesExceeded
}

// CandidateIterator yields candidate codes one at a time.
type CandidateIterator interface {
	Next() (Code, error)
}

// CandidateSource produces bounded candidate sequences.
type CandidateSource interface {
	Candidates(length, maxAttempts int) (CandidateIterator, error)
}

// Generator draws random codes whose characters are all distinct.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator seeded from the clock.
func NewGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())

	return NewSeededGenerator(rand.NewPCG(seed, seed>>1))
}

// NewSeededGenerator creates a generator with a fixed randomness source.
func NewSeededGenerator(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Candidates returns a sequence of at most maxAttempts codes of the given length.
func (g *Generator) Candidates(length, maxAttempts int) (CandidateIterator, error) {
	if length < 1 || length > len(Alphabet) {
		return nil, fmt.Errorf("code length must be between 1 and %d, got %d", len(Alphabet), length)
	}

	if maxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
	}

	return &Candidates{gen: g, length: length, maxAttempts: maxAttempts}, nil
}

// sample picks length characters from Alphabet without replacement.
func (g *Generator) sample(length int) Code {
	g.mu.Lock()
	defer g.mu.Unlock()

	pool := []byte(Alphabet)
	// partial Fisher-Yates: the first length slots end up as the sample
	for i := range length {
		j := i + g.rnd.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return Code(pool[:length])
}

// Candidates is a single-use, bounded candidate sequence.
type Candidates struct {
	gen         *Generator
	length      int
	maxAttempts int
	produced    int
}

// Next returns the next candidate, or a *MaxRetriesExceededError once
// maxAttempts candidates have been produced.
func (c *Candidates) Next() (Code, error) {
	if c.produced >= c.maxAttempts {
		return "", &MaxRetriesExceededError{Attempts: c.produced}
	}

	c.produced++

	return c.gen.sample(c.length), nil
}
