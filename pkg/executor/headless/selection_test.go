package headless

import (
	"testing"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing() []portal.WorkItem {
	items := portal.DefaultMemoryItems()
	items[1].Status = portal.StatusConfirmed
	return items
}

func TestSelector_AllPending(t *testing.T) {
	s, err := NewSelector(SelectionConfig{AllPending: true})
	require.NoError(t, err)

	sel := s.Select(listing())
	assert.Equal(t, []int{1, 3, 4, 5}, sel.IDs())
	assert.Empty(t, sel.Skipped)
}

func TestSelector_CustomPendingStatus(t *testing.T) {
	s, err := NewSelector(SelectionConfig{AllPending: true, PendingStatus: portal.StatusConfirmed})
	require.NoError(t, err)

	assert.Equal(t, []int{2}, s.Select(listing()).IDs())
}

func TestSelector_ExplicitIDs(t *testing.T) {
	s, err := NewSelector(SelectionConfig{IDs: []int{4, 99, 2, 4}, AllPending: true})
	require.NoError(t, err)

	sel := s.Select(listing())

	// Explicit ids keep their order, ignore the status and drop duplicates
	assert.Equal(t, []int{4, 2}, sel.IDs())
	require.Len(t, sel.Skipped, 1)
	assert.Equal(t, SkippedItem{ID: 99, Reason: "not listed by portal"}, sel.Skipped[0])
}

func TestSelector_TitlePatterns(t *testing.T) {
	tests := []struct {
		name        string
		include     []string
		exclude     []string
		want        []int
		wantSkipped map[int]string
	}{
		{
			name: "no patterns",
			want: []int{1, 3, 4, 5},
		},
		{
			name:        "include",
			include:     []string{"Einsatz *"},
			want:        []int{1, 3, 5},
			wantSkipped: map[int]string{4: "title not included"},
		},
		{
			name:        "exclude",
			exclude:     []string{"Fehlalarm"},
			want:        []int{1, 3, 5},
			wantSkipped: map[int]string{4: "title excluded"},
		},
		{
			name:        "exclude wins over include",
			include:     []string{"Einsatz *"},
			exclude:     []string{"*Brand"},
			want:        []int{3},
			wantSkipped: map[int]string{1: "title excluded", 4: "title not included", 5: "title excluded"},
		},
		{
			name:    "alternatives",
			include: []string{"{Fehlalarm,Einsatz Rettung}"},
			want:    []int{3, 4},
			wantSkipped: map[int]string{
				1: "title not included",
				5: "title not included",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSelector(SelectionConfig{AllPending: true, Include: tt.include, Exclude: tt.exclude})
			require.NoError(t, err)

			sel := s.Select(listing())
			assert.Equal(t, tt.want, sel.IDs())

			skipped := make(map[int]string)
			for _, sk := range sel.Skipped {
				skipped[sk.ID] = sk.Reason
			}
			if len(tt.wantSkipped) == 0 {
				assert.Empty(t, skipped)
			} else {
				assert.Equal(t, tt.wantSkipped, skipped)
			}
		})
	}
}

func TestSelector_InvalidPattern(t *testing.T) {
	_, err := NewSelector(SelectionConfig{AllPending: true, Include: []string{"[abc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")

	_, err = NewSelector(SelectionConfig{AllPending: true, Exclude: []string{"[abc"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}

func TestSelector_EmptyListing(t *testing.T) {
	s, err := NewSelector(SelectionConfig{AllPending: true})
	require.NoError(t, err)

	sel := s.Select(nil)
	assert.Empty(t, sel.Items)
	assert.Empty(t, sel.IDs())
}
