// Package assets stores reference images for scaffold requests and hands
// back URLs the generation service can fetch.
//
// Objects are written through a lode.Store under uploads/<uuid>.<ext>.
// The filesystem backend returns file:// URLs; the S3 backend returns
// presigned GET URLs.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/rnagent/log"
)

const uploadDir = "uploads"

// ResolveFunc turns a stored key into a URL the service can fetch.
type ResolveFunc func(ctx context.Context, key, contentType string) (string, error)

// Store uploads and deletes assets.
type Store struct {
	factory lode.StoreFactory
	prefix  string
	resolve ResolveFunc
	logger  *log.Logger

	storeOnce sync.Once
	store     lode.Store
	storeErr  error
}

// New creates a store over a lode store factory. Keys are placed under
// prefix when it is non-empty. A nil logger disables logging.
func New(factory lode.StoreFactory, prefix string, resolve ResolveFunc, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		factory: factory,
		prefix:  strings.Trim(prefix, "/"),
		resolve: resolve,
		logger:  logger,
	}
}

// NewFS creates a filesystem-backed store rooted at root. URLs are file://
// URLs of the stored objects.
func NewFS(root string, logger *log.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage path is required for the fs backend")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path %q: %w", root, err)
	}
	resolve := func(_ context.Context, key, _ string) (string, error) {
		u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(abs, filepath.FromSlash(key)))}
		return u.String(), nil
	}
	return New(lode.NewFSFactory(abs), "", resolve, logger), nil
}

// NewMemory creates an in-memory store with memory:/// URLs.
func NewMemory() *Store {
	resolve := func(_ context.Context, key, _ string) (string, error) {
		return "memory:///" + key, nil
	}
	return New(lode.NewMemoryFactory(), "", resolve, nil)
}

// Upload stores data under a fresh key and returns its URL. The extension
// comes from name, falling back to contentType, then "bin".
func (s *Store) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("upload %q: empty file", name)
	}

	store, err := s.getOrCreateStore()
	if err != nil {
		return "", wrapError(err, "init", "")
	}

	key := s.objectKey(uuid.NewString() + "." + extension(name, contentType))
	if err := store.Put(ctx, key, bytes.NewReader(data)); err != nil {
		return "", wrapError(err, "upload", key)
	}

	u, err := s.resolve(ctx, key, contentType)
	if err != nil {
		return "", wrapError(err, "presign", key)
	}

	s.logger.Info("asset uploaded", map[string]any{
		"name":         name,
		"key":          key,
		"content_type": contentType,
		"size":         len(data),
	})
	return u, nil
}

// Delete removes the object a previous Upload returned rawURL for.
func (s *Store) Delete(ctx context.Context, rawURL string) error {
	file, err := KeyFromURL(rawURL)
	if err != nil {
		return err
	}

	store, err := s.getOrCreateStore()
	if err != nil {
		return wrapError(err, "init", "")
	}

	key := s.objectKey(path.Base(file))
	if err := store.Delete(ctx, key); err != nil {
		return wrapError(err, "delete", key)
	}
	s.logger.Info("asset deleted", map[string]any{"key": key})
	return nil
}

// KeyFromURL extracts "uploads/<file>" from a URL returned by Upload.
// Query strings (presign signatures) and any bucket or prefix segments
// before the uploads directory are ignored.
func KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	marker := "/" + uploadDir + "/"
	idx := strings.LastIndex(p, marker)
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	file := p[idx+len(marker):]
	if file == "" || strings.Contains(file, "/") || file == "." || file == ".." {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return uploadDir + "/" + file, nil
}

func (s *Store) objectKey(file string) string {
	if s.prefix == "" {
		return path.Join(uploadDir, file)
	}
	return path.Join(s.prefix, uploadDir, file)
}

// getOrCreateStore lazily initializes the Store from the factory.
func (s *Store) getOrCreateStore() (lode.Store, error) {
	s.storeOnce.Do(func() {
		s.store, s.storeErr = s.factory()
	})
	return s.store, s.storeErr
}

func extension(name, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if contentType != "" {
		if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}
	return "bin"
}
