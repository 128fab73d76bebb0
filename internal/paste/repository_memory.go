package paste

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps pastes in process memory. It is intended for tests
// and local development without a database.
type MemoryRepository struct {
	txMu   sync.Mutex
	mu     sync.RWMutex
	pastes map[string]*Paste
}

type memTxKey struct{}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{pastes: make(map[string]*Paste)}
}

func clonePaste(p *Paste) *Paste {
	c := *p
	c.Content = slices.Clone(p.Content)
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// InTx serializes fn against other InTx calls. Writes made by fn are not
// rolled back when it fails.
func (m *MemoryRepository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(context.WithValue(ctx, memTxKey{}, true))
}

func (m *MemoryRepository) Create(_ context.Context, p *Paste) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[p.ID]; ok {
		return ErrDuplicateID
	}
	m.pastes[p.ID] = clonePaste(p)
	return nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (*Paste, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pastes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePaste(p), nil
}

func (m *MemoryRepository) IncrementViews(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[id]
	if !ok {
		return 0, ErrNotFound
	}
	p.Views++
	return p.Views, nil
}

func (m *MemoryRepository) UpdateMetadata(_ context.Context, id string, md Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pastes[id]
	if !ok {
		return ErrNotFound
	}
	p.Title, p.Description, p.AIStatus = md.Title, md.Description, md.Status
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pastes[id]; !ok {
		return ErrNotFound
	}
	delete(m.pastes, id)
	return nil
}

func (m *MemoryRepository) DeleteExpired(_ context.Context, now time.Time) ([]string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		images  []string
		deleted int64
	)
	for id, p := range m.pastes {
		if !p.Expired(now) {
			continue
		}
		if p.ImageKey != "" {
			images = append(images, p.ImageKey)
		}
		delete(m.pastes, id)
		deleted++
	}
	return images, deleted, nil
}
