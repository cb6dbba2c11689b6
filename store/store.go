package store

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 🧠 Entity Store
// =============================================================================

// lockStripes is the number of entity mutex stripes. Same-entity operations
// hash to the same stripe and serialize; the rest proceed concurrently.
const lockStripes = 64

// Config selects and tunes the relational backend.
type Config struct {
	// Driver is sqlite, postgres or mysql.
	Driver string `yaml:"driver" json:"driver"`

	// Path is the sqlite database file. Ignored by server databases.
	Path string `yaml:"path" json:"path"`

	// DSN is the connection string for postgres/mysql.
	DSN string `yaml:"dsn" json:"dsn"`

	// Pool tunes the underlying sql.DB.
	Pool database.PoolConfig `yaml:"pool" json:"pool"`

	// SkipAutoMigrate leaves schema management to the migrate command.
	// Dev and test setups rely on AutoMigrate instead.
	SkipAutoMigrate bool `yaml:"skip_auto_migrate" json:"skip_auto_migrate"`
}

// DefaultConfig returns a local sqlite setup.
func DefaultConfig() Config {
	return Config{
		Driver: "sqlite",
		Path:   "data/memoria.db",
		Pool:   database.DefaultPoolConfig(),
	}
}

// EntityStore is the persistent memory of the engine: relational index plus
// sidecar documents.
type EntityStore struct {
	cfg    Config
	pool   *database.PoolManager
	db     *gorm.DB
	docs   DocumentStore
	logger *zap.Logger

	stripes [lockStripes]sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// Open connects to the configured database, applies the schema (unless
// SkipAutoMigrate) and returns a ready store. docs must outlive the store;
// Close closes it.
func Open(cfg Config, docs DocumentStore, logger *zap.Logger) (*EntityStore, error) {
	if docs == nil {
		return nil, types.NewError(types.ErrInvalidInput, "document store is required")
	}

	dialector, poolCfg, err := buildDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// The store logs through zap; gorm's own logger stays silent.
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to open database").WithCause(err)
	}

	pool, err := database.NewPoolManager(db, poolCfg, logger)
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to configure connection pool").WithCause(err)
	}

	if !cfg.SkipAutoMigrate {
		if err := db.AutoMigrate(allModels()...); err != nil {
			pool.Close()
			return nil, types.NewError(types.ErrStorageFailure, "failed to migrate schema").WithCause(err)
		}
	}

	s := &EntityStore{
		cfg:    cfg,
		pool:   pool,
		db:     db,
		docs:   docs,
		logger: logger.With(zap.String("component", "entity_store")),
	}

	s.logger.Info("entity store opened",
		zap.String("driver", cfg.Driver),
		zap.String("path", cfg.Path),
	)

	return s, nil
}

func buildDialector(cfg Config) (gorm.Dialector, database.PoolConfig, error) {
	poolCfg := cfg.Pool

	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite", "sqlite3":
		if cfg.Path == "" {
			return nil, poolCfg, types.NewError(types.ErrInvalidInput, "sqlite path is required")
		}
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, poolCfg, types.NewError(types.ErrStorageFailure, "failed to create database directory").WithCause(err)
			}
		}
		// Single writer: sqlite serializes writes anyway, a pool of one
		// avoids busy errors instead of retrying them.
		poolCfg.MaxOpenConns = 1
		poolCfg.MaxIdleConns = 1
		dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)", cfg.Path)
		return sqlite.Open(dsn), poolCfg, nil
	case "postgres", "postgresql":
		if cfg.DSN == "" {
			return nil, poolCfg, types.NewError(types.ErrInvalidInput, "postgres dsn is required")
		}
		return postgres.Open(cfg.DSN), poolCfg, nil
	case "mysql", "mariadb":
		if cfg.DSN == "" {
			return nil, poolCfg, types.NewError(types.ErrInvalidInput, "mysql dsn is required")
		}
		return mysql.Open(cfg.DSN), poolCfg, nil
	default:
		return nil, poolCfg, types.NewError(types.ErrUnsupported, "unsupported database driver: "+cfg.Driver)
	}
}

// Close shuts down the pool and the document store. Safe to call twice.
func (s *EntityStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.logger.Info("closing entity store")

	docErr := s.docs.Close()
	poolErr := s.pool.Close()

	if poolErr != nil {
		return types.NewError(types.ErrStorageFailure, "failed to close database").WithCause(poolErr)
	}
	if docErr != nil {
		return types.NewError(types.ErrStorageFailure, "failed to close document store").WithCause(docErr)
	}
	return nil
}

// Documents exposes the underlying document store, shared with the session
// manager and personality engine.
func (s *EntityStore) Documents() DocumentStore {
	return s.docs
}

func (s *EntityStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return types.NewError(types.ErrStoreClosed, "entity store is closed")
	}
	return nil
}

// =============================================================================
// 🔒 Entity Lock Stripes
// =============================================================================

func stripeIndex(kind, id string) int {
	h := fnv.New32a()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return int(h.Sum32() % lockStripes)
}

// lockEntity serializes operations on one entity. The returned func releases
// the stripe.
func (s *EntityStore) lockEntity(kind, id string) func() {
	idx := stripeIndex(kind, id)
	s.stripes[idx].Lock()
	return s.stripes[idx].Unlock
}

// lockPair acquires the stripes of two entities in index order, so
// concurrent operations touching both never deadlock.
func (s *EntityStore) lockPair(kindA, idA, kindB, idB string) func() {
	a := stripeIndex(kindA, idA)
	b := stripeIndex(kindB, idB)

	if a == b {
		s.stripes[a].Lock()
		return s.stripes[a].Unlock
	}
	if a > b {
		a, b = b, a
	}
	s.stripes[a].Lock()
	s.stripes[b].Lock()
	return func() {
		s.stripes[b].Unlock()
		s.stripes[a].Unlock()
	}
}
