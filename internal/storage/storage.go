// Package storage adapts the managed backend's object storage.
//
// The API never uploads files itself: clients upload straight to the bucket
// and send us the object path. We only need to turn that path into a public
// URL and to remove the object when its document is deleted.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// ErrNotConfigured is returned by None for every operation that needs a bucket.
var ErrNotConfigured = errors.New("storage: object storage is not configured")

// Storage is the object-storage collaborator.
type Storage interface {
	// PublicURL returns the public URL of an object path inside the bucket.
	PublicURL(path string) (string, error)
	// ObjectPath is the inverse of PublicURL. ok is false for URLs that do not
	// point into the bucket (external links, other buckets).
	ObjectPath(publicURL string) (path string, ok bool)
	Remove(ctx context.Context, paths ...string) error
}

// Supabase talks to Supabase Storage through storage-go.
type Supabase struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

var _ Storage = (*Supabase)(nil)

// NewSupabase builds a client for projectURL (e.g. https://xyz.supabase.co)
// using a service key with delete rights on bucket.
func NewSupabase(projectURL, key, bucket string) (*Supabase, error) {
	projectURL = strings.TrimRight(strings.TrimSpace(projectURL), "/")
	if projectURL == "" || key == "" || bucket == "" {
		return nil, fmt.Errorf("storage: project url, key and bucket are required")
	}
	return &Supabase{
		client:  storage.NewClient(projectURL+"/storage/v1", key, nil),
		baseURL: projectURL,
		bucket:  bucket,
	}, nil
}

func (s *Supabase) publicPrefix() string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/", s.baseURL, s.bucket)
}

func (s *Supabase) PublicURL(path string) (string, error) {
	path = strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "" {
		return "", fmt.Errorf("storage: empty object path")
	}
	return s.publicPrefix() + path, nil
}

func (s *Supabase) ObjectPath(publicURL string) (string, bool) {
	rest, found := strings.CutPrefix(publicURL, s.publicPrefix())
	if !found || rest == "" {
		return "", false
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest = rest[:i]
	}
	if u, err := url.PathUnescape(rest); err == nil {
		rest = u
	}
	return rest, true
}

// Remove deletes the objects. storage-go has no context support, so ctx is
// only checked before the call.
func (s *Supabase) Remove(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("storage: removing %d object(s) from %s: %w", len(paths), s.bucket, err)
	}
	return nil
}

// None is used when no storage is configured. Documents must then carry a
// full file_url.
type None struct{}

var _ Storage = None{}

func (None) PublicURL(string) (string, error)        { return "", ErrNotConfigured }
func (None) ObjectPath(string) (string, bool)        { return "", false }
func (None) Remove(context.Context, ...string) error { return nil }
