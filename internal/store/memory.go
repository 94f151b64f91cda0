package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/serroba/shortlink-go/internal/qrcode"
	"github.com/serroba/shortlink-go/internal/shortener"
	"github.com/serroba/shortlink-go/internal/user"
)

type memoryTxKey struct{}

// Memory is an in-memory store for links, users and QR codes. Transactions
// are serialized and a failed transaction restores the state it started
// from, including writes made outside it meanwhile.
type Memory struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
}

type memoryData struct {
	links      map[shortener.Code]shortener.ShortLink
	users      map[int64]user.User
	qrcodes    map[int64]qrcode.QRCode
	nextLinkID int64
	nextUserID int64
	nextQRID   int64
}

func (d memoryData) clone() memoryData {
	d.links = maps.Clone(d.links)
	d.users = maps.Clone(d.users)
	d.qrcodes = maps.Clone(d.qrcodes)

	return d
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: memoryData{
			links:   make(map[shortener.Code]shortener.ShortLink),
			users:   make(map[int64]user.User),
			qrcodes: make(map[int64]qrcode.QRCode),
		},
	}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(memoryTxKey{}).(bool); ok {
		return fn(ctx)
	}

	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.data.clone()
	m.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			m.restore(snapshot)

			panic(r)
		}

		if err != nil {
			m.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

func (m *Memory) restore(snapshot memoryData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = snapshot
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Links() *MemoryLinks {
	return &MemoryLinks{m: m}
}

func (m *Memory) Users() *MemoryUsers {
	return &MemoryUsers{m: m}
}

func (m *Memory) QRCodes() *MemoryQRCodes {
	return &MemoryQRCodes{m: m}
}

// MemoryLinks is an in-memory implementation of shortener.Repository.
type MemoryLinks struct {
	m *Memory
}

func (s *MemoryLinks) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	link, ok := s.m.data.links[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &link, nil
}

func (s *MemoryLinks) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	_, ok := s.m.data.links[code]

	return ok, nil
}

func (s *MemoryLinks) Add(_ context.Context, link *shortener.ShortLink) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.data.links[link.Code]; ok {
		return shortener.ErrCodeAlreadyExists
	}

	s.m.data.nextLinkID++
	link.ID = s.m.data.nextLinkID
	s.m.data.links[link.Code] = *link

	return nil
}

func (s *MemoryLinks) Update(_ context.Context, link *shortener.ShortLink) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	existing, ok := s.m.data.links[link.Code]
	if !ok {
		return shortener.ErrNotFound
	}

	existing.LongURL = link.LongURL
	existing.FriendlyName = link.FriendlyName
	s.m.data.links[link.Code] = existing

	return nil
}

// Delete removes the link and the QR code bound to it.
func (s *MemoryLinks) Delete(_ context.Context, code shortener.Code) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	link, ok := s.m.data.links[code]
	if !ok {
		return false, nil
	}

	delete(s.m.data.links, code)

	maps.DeleteFunc(s.m.data.qrcodes, func(_ int64, qr qrcode.QRCode) bool {
		return qr.LinkID == link.ID
	})

	return true, nil
}

func (s *MemoryLinks) ListByOwner(
	_ context.Context, ownerID int64, page shortener.Page,
) ([]shortener.ShortLink, int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var owned []shortener.ShortLink

	for _, link := range s.m.data.links {
		if link.OwnerID == ownerID {
			owned = append(owned, link)
		}
	}

	slices.SortFunc(owned, func(a, b shortener.ShortLink) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})

	return paginate(owned, page), len(owned), nil
}

// MemoryUsers is an in-memory implementation of user.Repository.
type MemoryUsers struct {
	m *Memory
}

func (s *MemoryUsers) Add(_ context.Context, u *user.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, existing := range s.m.data.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}

	s.m.data.nextUserID++
	u.ID = s.m.data.nextUserID
	s.m.data.users[u.ID] = *u

	return nil
}

func (s *MemoryUsers) GetByID(_ context.Context, id int64) (*user.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	u, ok := s.m.data.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}

	return &u, nil
}

func (s *MemoryUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, u := range s.m.data.users {
		if u.Email == email {
			return &u, nil
		}
	}

	return nil, user.ErrNotFound
}

func (s *MemoryUsers) Update(_ context.Context, u *user.User) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.data.users[u.ID]; !ok {
		return user.ErrNotFound
	}

	for id, existing := range s.m.data.users {
		if id != u.ID && existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}

	s.m.data.users[u.ID] = *u

	return nil
}

// MemoryQRCodes is an in-memory implementation of qrcode.Repository.
type MemoryQRCodes struct {
	m *Memory
}

func (s *MemoryQRCodes) GetByID(_ context.Context, id int64) (*qrcode.QRCode, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	qr, ok := s.m.data.qrcodes[id]
	if !ok {
		return nil, qrcode.ErrNotFound
	}

	return s.withLinkCode(qr), nil
}

func (s *MemoryQRCodes) GetByLinkID(_ context.Context, linkID int64) (*qrcode.QRCode, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	for _, qr := range s.m.data.qrcodes {
		if qr.LinkID == linkID {
			return s.withLinkCode(qr), nil
		}
	}

	return nil, qrcode.ErrNotFound
}

func (s *MemoryQRCodes) Add(_ context.Context, qr *qrcode.QRCode) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	for _, existing := range s.m.data.qrcodes {
		if existing.LinkID == qr.LinkID {
			return qrcode.ErrAlreadyExists
		}
	}

	s.m.data.nextQRID++
	qr.ID = s.m.data.nextQRID
	s.m.data.qrcodes[qr.ID] = *qr

	return nil
}

func (s *MemoryQRCodes) Update(_ context.Context, qr *qrcode.QRCode) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	existing, ok := s.m.data.qrcodes[qr.ID]
	if !ok {
		return qrcode.ErrNotFound
	}

	existing.Title = qr.Title
	existing.Image = qr.Image
	existing.Customization = qr.Customization
	existing.UpdatedAt = qr.UpdatedAt
	s.m.data.qrcodes[qr.ID] = existing

	return nil
}

func (s *MemoryQRCodes) Delete(_ context.Context, id int64) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	if _, ok := s.m.data.qrcodes[id]; !ok {
		return false, nil
	}

	delete(s.m.data.qrcodes, id)

	return true, nil
}

func (s *MemoryQRCodes) ListByOwner(
	_ context.Context, ownerID int64, page shortener.Page,
) ([]qrcode.QRCode, int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var owned []qrcode.QRCode

	for _, qr := range s.m.data.qrcodes {
		if qr.OwnerID == ownerID {
			owned = append(owned, *s.withLinkCode(qr))
		}
	}

	slices.SortFunc(owned, func(a, b qrcode.QRCode) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})

	return paginate(owned, page), len(owned), nil
}

// withLinkCode must be called with the read lock held.
func (s *MemoryQRCodes) withLinkCode(qr qrcode.QRCode) *qrcode.QRCode {
	for code, link := range s.m.data.links {
		if link.ID == qr.LinkID {
			qr.LinkCode = code

			break
		}
	}

	return &qr
}

func paginate[T any](items []T, page shortener.Page) []T {
	start := min(page.Offset(), len(items))
	end := min(start+page.Size, len(items))

	return items[start:end]
}

var (
	_ shortener.Repository = (*MemoryLinks)(nil)
	_ user.Repository      = (*MemoryUsers)(nil)
	_ qrcode.Repository    = (*MemoryQRCodes)(nil)
	_ shortener.Transactor = (*Memory)(nil)
	_ shortener.Transactor = (*Postgres)(nil)
)
