package portal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendLogin(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"admin", "admin", "admin", true},
		{"user", "user", "password", true},
		{"wrong password", "admin", "nope", false},
		{"unknown user", "someone", "admin", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMemoryBackend()
			ok, err := m.Login(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, m.IsAuthenticated())
			if tt.want {
				assert.Equal(t, tt.username, m.Username())
			} else {
				assert.Empty(t, m.Username())
			}
		})
	}
}

func TestMemoryBackendFailedReloginLogsOut(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	ok, err := m.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Login(ctx, "admin", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, m.IsAuthenticated())
}

func TestMemoryBackendRequiresLogin(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	_, err := m.ListItems(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = m.ConfirmItem(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, m.ConfirmCalls())
}

func TestMemoryBackendListItems(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	_, err := m.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	items, err := m.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, it := range items {
		assert.Equal(t, i+1, it.ID)
		assert.Equal(t, StatusPending, it.Status)
	}

	// The returned slice is a snapshot
	items[0].Status = "changed"
	again, err := m.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again[0].Status)
}

func TestMemoryBackendConfirmItem(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	_, err := m.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	ok, err := m.ConfirmItem(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	items, err := m.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, items[2].Status)
	assert.Equal(t, StatusPending, items[0].Status)
	assert.Equal(t, []int{3}, m.ConfirmCalls())
}

func TestMemoryBackendConfirmFunc(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	m := NewMemoryBackend(WithConfirmFunc(func(id int) (bool, error) {
		switch id {
		case 2:
			return false, boom
		case 4:
			return false, nil
		}
		return true, nil
	}))
	_, err := m.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	ok, err := m.ConfirmItem(ctx, 2)
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)

	ok, err = m.ConfirmItem(ctx, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	items, err := m.ListItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, items[1].Status)
	assert.Equal(t, StatusPending, items[3].Status)
	assert.Equal(t, []int{2, 4}, m.ConfirmCalls())
}

func TestMemoryBackendOptions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend(
		WithCredentials(Credentials{Username: "einsatz", Password: "112"}),
		WithItems([]WorkItem{{ID: 42, Title: "Sturm", Status: StatusPending}}),
	)

	ok, err := m.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Login(ctx, "einsatz", "112")
	require.NoError(t, err)
	require.True(t, ok)

	items, err := m.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 42, items[0].ID)
}

func TestMemoryBackendLogout(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	_, err := m.Login(ctx, "admin", "admin")
	require.NoError(t, err)

	m.Logout(ctx)
	assert.False(t, m.IsAuthenticated())
	assert.Empty(t, m.Username())

	_, err = m.ListItems(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	// Logging out twice is harmless
	m.Logout(ctx)
	assert.False(t, m.IsAuthenticated())
}

func TestMemoryBackendCancelledContext(t *testing.T) {
	m := NewMemoryBackend()
	_, err := m.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = m.ConfirmItem(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = m.ListItems(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
