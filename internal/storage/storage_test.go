package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSupabase(t *testing.T) *Supabase {
	t.Helper()
	s, err := NewSupabase("https://proj.supabase.co/", "service-key", "documents")
	require.NoError(t, err)
	return s
}

func TestNewSupabase_RequiresSettings(t *testing.T) {
	_, err := NewSupabase("", "key", "bucket")
	assert.Error(t, err)
	_, err = NewSupabase("https://proj.supabase.co", "", "bucket")
	assert.Error(t, err)
	_, err = NewSupabase("https://proj.supabase.co", "key", "")
	assert.Error(t, err)
}

func TestSupabase_PublicURL(t *testing.T) {
	s := newTestSupabase(t)

	got, err := s.PublicURL("/guides/intro.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://proj.supabase.co/storage/v1/object/public/documents/guides/intro.pdf", got)

	_, err = s.PublicURL("  ")
	assert.Error(t, err)
}

func TestSupabase_ObjectPath(t *testing.T) {
	s := newTestSupabase(t)

	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"own bucket", "https://proj.supabase.co/storage/v1/object/public/documents/guides/intro.pdf", "guides/intro.pdf", true},
		{"query and escapes", "https://proj.supabase.co/storage/v1/object/public/documents/my%20file.pdf?t=1", "my file.pdf", true},
		{"other bucket", "https://proj.supabase.co/storage/v1/object/public/avatars/a.png", "", false},
		{"external", "https://example.com/file.pdf", "", false},
		{"bucket root", "https://proj.supabase.co/storage/v1/object/public/documents/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.ObjectPath(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupabase_RoundTrip(t *testing.T) {
	s := newTestSupabase(t)
	u, err := s.PublicURL("a/b.pdf")
	require.NoError(t, err)
	p, ok := s.ObjectPath(u)
	require.True(t, ok)
	assert.Equal(t, "a/b.pdf", p)
}

func TestSupabase_RemoveNothing(t *testing.T) {
	s := newTestSupabase(t)
	assert.NoError(t, s.Remove(context.Background()))
}

func TestSupabase_RemoveCancelled(t *testing.T) {
	s := newTestSupabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Remove(ctx, "a.pdf"), context.Canceled)
}

func TestNone(t *testing.T) {
	var s Storage = None{}
	_, err := s.PublicURL("a.pdf")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, ok := s.ObjectPath("https://example.com/a.pdf")
	assert.False(t, ok)
	assert.NoError(t, s.Remove(context.Background(), "a.pdf"))
}
