package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ninaia/memoria/internal/pool"
	"github.com/ninaia/memoria/types"
)

// Document key prefixes. Keys look like user_42, channel_714, session_xyz.
const (
	UserDocPrefix    = "user_"
	ChannelDocPrefix = "channel_"
	SessionDocPrefix = "session_"
)

// UserDocKey returns the document key for a user id.
func UserDocKey(userID string) string { return UserDocPrefix + userID }

// ChannelDocKey returns the document key for a channel id.
func ChannelDocKey(channelID string) string { return ChannelDocPrefix + channelID }

// SessionDocKey returns the document key for a session id.
func SessionDocKey(sessionID string) string { return SessionDocPrefix + sessionID }

// DocumentStore persists the sidecar JSON documents of the memory system.
// Read reports NOT_FOUND for absent keys and MALFORMED_DOCUMENT for
// unparseable payloads; Delete of an absent key is a no-op.
type DocumentStore interface {
	Read(ctx context.Context, key string, dest interface{}) error
	Write(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// =============================================================================
// 📄 File-Backed Document Store
// =============================================================================

// FileDocumentStore keeps one pretty-printed JSON file per key under a
// directory. Writes go through a temp file and rename so readers never see
// a half-written document.
type FileDocumentStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileDocumentStore creates dir if needed and returns the store.
func NewFileDocumentStore(dir string, logger *zap.Logger) (*FileDocumentStore, error) {
	if dir == "" {
		return nil, types.NewError(types.ErrInvalidInput, "documents directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to create documents directory").WithCause(err)
	}

	return &FileDocumentStore{
		dir:    dir,
		logger: logger.With(zap.String("component", "document_store")),
	}, nil
}

// Dir returns the backing directory.
func (s *FileDocumentStore) Dir() string { return s.dir }

// sanitizeKey keeps keys filesystem-safe. Entity ids come from external
// systems and may carry path characters.
func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('~')
		}
	}
	return b.String()
}

func (s *FileDocumentStore) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Read loads and unmarshals the document for key into dest.
func (s *FileDocumentStore) Read(ctx context.Context, key string, dest interface{}) error {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewError(types.ErrNotFound, "document not found").WithEntity(key).WithOperation("read")
		}
		return types.NewError(types.ErrStorageFailure, "failed to read document").WithEntity(key).WithOperation("read").WithCause(err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return types.NewError(types.ErrMalformedDocument, "document is not valid JSON").WithEntity(key).WithOperation("read").WithCause(err)
	}

	return nil
}

// Write marshals value and atomically replaces the document for key.
func (s *FileDocumentStore) Write(ctx context.Context, key string, value interface{}) error {
	buf := pool.ByteBuffers.Get()
	defer pool.ByteBuffers.Put(buf)

	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return types.NewError(types.ErrInternalError, "failed to marshal document").WithEntity(key).WithOperation("write").WithCause(err)
	}
	data := buf.Bytes()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to create temp document").WithEntity(key).WithOperation("write").WithCause(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewError(types.ErrStorageFailure, "failed to write document").WithEntity(key).WithOperation("write").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewError(types.ErrStorageFailure, "failed to close temp document").WithEntity(key).WithOperation("write").WithCause(err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return types.NewError(types.ErrStorageFailure, "failed to replace document").WithEntity(key).WithOperation("write").WithCause(err)
	}

	return nil
}

// Delete removes the document for key. Absent keys are not an error.
func (s *FileDocumentStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return types.NewError(types.ErrStorageFailure, "failed to delete document").WithEntity(key).WithOperation("delete").WithCause(err)
	}
	return nil
}

// List returns every stored key with the given prefix. Keys come back in
// directory order; callers needing determinism sort them.
func (s *FileDocumentStore) List(ctx context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to list documents").WithOperation("list").WithCause(err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

// Close is a no-op for the file store.
func (s *FileDocumentStore) Close() error { return nil }

// copyWorkers bounds the concurrency of backup and restore document copies.
const copyWorkers = 8

// copyDocuments copies every document from src to dst through a bounded
// worker pool, used by backup and restore.
func copyDocuments(ctx context.Context, src, dst DocumentStore) (int, error) {
	keys, err := src.List(ctx, "")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	workers := pool.NewWorkerPool(pool.WorkerPoolConfig{
		MaxWorkers:  copyWorkers,
		QueueSize:   len(keys),
		IdleTimeout: time.Second,
	})

	var (
		mu       sync.Mutex
		copied   int
		firstErr error
	)
	for _, key := range keys {
		err := workers.Submit(ctx, func(ctx context.Context) error {
			var raw json.RawMessage
			if err := src.Read(ctx, key, &raw); err != nil {
				return recordCopyErr(&mu, &firstErr, fmt.Errorf("read %s: %w", key, err))
			}
			if err := dst.Write(ctx, key, raw); err != nil {
				return recordCopyErr(&mu, &firstErr, fmt.Errorf("write %s: %w", key, err))
			}
			mu.Lock()
			copied++
			mu.Unlock()
			return nil
		})
		if err != nil {
			recordCopyErr(&mu, &firstErr, fmt.Errorf("enqueue %s: %w", key, err))
			break
		}
	}
	workers.Close()

	mu.Lock()
	defer mu.Unlock()
	return copied, firstErr
}

func recordCopyErr(mu *sync.Mutex, firstErr *error, err error) error {
	mu.Lock()
	defer mu.Unlock()
	if *firstErr == nil {
		*firstErr = err
	}
	return err
}
