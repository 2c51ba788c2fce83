package portal

import (
	"context"
	"sync"
)

// Status values used by the portal and the in-memory backend.
const (
	StatusPending   = "Ausstehend"
	StatusConfirmed = "Erfasst"
)

// Credentials is one accepted username/password pair.
type Credentials struct {
	Username string
	Password string
}

// DefaultMemoryCredentials are accepted by a MemoryBackend unless
// overridden.
var DefaultMemoryCredentials = []Credentials{
	{Username: "admin", Password: "admin"},
	{Username: "user", Password: "password"},
}

// DefaultMemoryItems returns the fixed demo reports of a MemoryBackend.
func DefaultMemoryItems() []WorkItem {
	return []WorkItem{
		{ID: 1, Title: "Einsatz Brand", Date: "2024-01-15", Status: StatusPending, Description: "Kleinbrand im Keller"},
		{ID: 2, Title: "Technische Hilfe", Date: "2024-01-16", Status: StatusPending, Description: "Ölspur auf Fahrbahn"},
		{ID: 3, Title: "Einsatz Rettung", Date: "2024-01-17", Status: StatusPending, Description: "Person eingeklemmt"},
		{ID: 4, Title: "Fehlalarm", Date: "2024-01-18", Status: StatusPending, Description: "BMA ausgelöst"},
		{ID: 5, Title: "Einsatz Brand", Date: "2024-01-19", Status: StatusPending, Description: "Mülltonnenbrand"},
	}
}

// ConfirmFunc decides the outcome of ConfirmItem for one id in a
// MemoryBackend.
type ConfirmFunc func(id int) (bool, error)

// MemoryBackend is a deterministic Backend without any network access.
// Confirming a known item flips its status to StatusConfirmed.
type MemoryBackend struct {
	session     *Session
	credentials []Credentials
	confirm     ConfirmFunc

	mu    sync.Mutex
	items []WorkItem
	calls []int
}

// MemoryOption configures a MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithCredentials replaces the accepted credentials.
func WithCredentials(creds ...Credentials) MemoryOption {
	return func(m *MemoryBackend) {
		m.credentials = creds
	}
}

// WithItems replaces the listed items.
func WithItems(items []WorkItem) MemoryOption {
	return func(m *MemoryBackend) {
		m.items = append([]WorkItem(nil), items...)
	}
}

// WithConfirmFunc decides ConfirmItem outcomes. The item status is only
// updated when fn reports success.
func WithConfirmFunc(fn ConfirmFunc) MemoryOption {
	return func(m *MemoryBackend) {
		m.confirm = fn
	}
}

// NewMemoryBackend returns a logged out in-memory backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{
		session:     NewSession(),
		credentials: DefaultMemoryCredentials,
		items:       DefaultMemoryItems(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login implements Backend.
func (m *MemoryBackend) Login(ctx context.Context, username, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.session.Clear()
	for _, c := range m.credentials {
		if c.Username == username && c.Password == password {
			m.session.MarkAuthenticated(username)
			return true, nil
		}
	}
	return false, nil
}

// Logout implements Backend.
func (m *MemoryBackend) Logout(context.Context) {
	m.session.Clear()
}

// ListItems implements Backend.
func (m *MemoryBackend) ListItems(ctx context.Context) ([]WorkItem, error) {
	if !m.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]WorkItem(nil), m.items...), nil
}

// ConfirmItem implements Backend.
func (m *MemoryBackend) ConfirmItem(ctx context.Context, id int) (bool, error) {
	if !m.session.IsAuthenticated() {
		return false, ErrNotAuthenticated
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, id)
	m.mu.Unlock()

	ok := true
	if m.confirm != nil {
		var err error
		ok, err = m.confirm(id)
		if err != nil {
			return false, err
		}
	}
	if ok {
		m.setStatus(id, StatusConfirmed)
	}
	return ok, nil
}

func (m *MemoryBackend) setStatus(id int, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
		}
	}
}

// ConfirmCalls returns the ids passed to ConfirmItem, in call order.
func (m *MemoryBackend) ConfirmCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// IsAuthenticated implements Backend.
func (m *MemoryBackend) IsAuthenticated() bool {
	return m.session.IsAuthenticated()
}

// Username implements Backend.
func (m *MemoryBackend) Username() string {
	return m.session.Username()
}

var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*Client)(nil)
)
