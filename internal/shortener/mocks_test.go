package shortener_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/serroba/shortlink-go/internal/shortener"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com"

// fakeRepository is an in-memory Repository that counts calls and can be
// configured to fail.
type fakeRepository struct {
	mu         sync.Mutex
	links      map[shortener.Code]shortener.ShortLink
	nextID     int64
	getCalls   int
	existCalls int
	getErr     error
	existsErr  error
	addErr     error
	updateErr  error
	deleteErr  error
	deleteMiss bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{links: make(map[shortener.Code]shortener.ShortLink)}
}

func (f *fakeRepository) seed(link shortener.ShortLink) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	link.ID = f.nextID
	f.links[link.Code] = link
}

func (f *fakeRepository) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++

	if f.getErr != nil {
		return nil, f.getErr
	}

	link, ok := f.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

func (f *fakeRepository) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.existCalls++

	if f.existsErr != nil {
		return false, f.existsErr
	}

	_, ok := f.links[code]

	return ok, nil
}

func (f *fakeRepository) Add(_ context.Context, link *shortener.ShortLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.addErr != nil {
		return f.addErr
	}

	if _, ok := f.links[link.Code]; ok {
		return shortener.ErrCodeAlreadyExists
	}

	f.nextID++
	link.ID = f.nextID
	f.links[link.Code] = *link

	return nil
}

func (f *fakeRepository) Update(_ context.Context, link *shortener.ShortLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}

	f.links[link.Code] = *link

	return nil
}

func (f *fakeRepository) Delete(_ context.Context, code shortener.Code) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return false, f.deleteErr
	}

	if f.deleteMiss {
		return false, nil
	}

	_, ok := f.links[code]
	delete(f.links, code)

	return ok, nil
}

func (f *fakeRepository) ListByOwner(
	_ context.Context, ownerID int64, page shortener.Page,
) ([]shortener.ShortLink, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var owned []shortener.ShortLink

	for _, l := range f.links {
		if l.OwnerID == ownerID {
			owned = append(owned, l)
		}
	}

	total := len(owned)
	start := min(page.Offset(), total)
	end := min(start+page.Size, total)

	return owned[start:end], total, nil
}

// passthroughTx runs fn directly and counts invocations.
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++

	return fn(ctx)
}

// fakeCache records operations and can be configured to fail.
type fakeCache struct {
	mu        sync.Mutex
	values    map[string]string
	ttls      map[string]time.Duration
	getErr    error
	setErr    error
	deleteErr error
	sets      int
	deletes   []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
	}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.getErr != nil {
		return "", false, c.getErr
	}

	v, ok := c.values[key]

	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++

	if c.setErr != nil {
		return c.setErr
	}

	c.values[key] = value
	c.ttls[key] = ttl

	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deletes = append(c.deletes, key)

	if c.deleteErr != nil {
		return c.deleteErr
	}

	delete(c.values, key)

	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.values[key]

	return ok
}

// scriptedSource hands out a fixed list of candidates.
type scriptedSource struct {
	codes []shortener.Code
	err   error
}

func (s *scriptedSource) Candidates(_, maxAttempts int) (shortener.CandidateIterator, error) {
	if s.err != nil {
		return nil, s.err
	}

	return &scriptedIterator{codes: s.codes, max: maxAttempts}, nil
}

type scriptedIterator struct {
	codes []shortener.Code
	max   int
	pos   int
}

func (it *scriptedIterator) Next() (shortener.Code, error) {
	if it.pos >= it.max || it.pos >= len(it.codes) {
		return "", &shortener.MaxRetriesExceededError{Attempts: it.pos}
	}

	code := it.codes[it.pos]
	it.pos++

	return code, nil
}
