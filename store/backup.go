package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ninaia/memoria/internal/database"
	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 💾 Backup & Restore
// =============================================================================

// backupDBFile is the database file name inside a backup directory.
const backupDBFile = "memoria.db"

// backupDocsDir holds the document copies inside a backup directory.
const backupDocsDir = "documents"

// Backup writes a consistent snapshot of the store into dir: the sqlite
// database via VACUUM INTO plus a copy of every document. Only the sqlite
// backend supports file-level backups.
func (s *EntityStore) Backup(ctx context.Context, dir string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.isSQLite() {
		return types.NewError(types.ErrUnsupported, "backup is only supported for sqlite databases").WithOperation("backup")
	}
	if dir == "" {
		return types.NewError(types.ErrInvalidInput, "backup directory is required").WithOperation("backup")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to create backup directory").WithOperation("backup").WithCause(err)
	}

	target := filepath.Join(dir, backupDBFile)
	// VACUUM INTO refuses to overwrite; a stale snapshot goes first.
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return types.NewError(types.ErrStorageFailure, "failed to clear previous backup").WithOperation("backup").WithCause(err)
	}

	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		return types.NewError(types.ErrStorageFailure, "database snapshot failed").WithOperation("backup").WithCause(err)
	}

	docDst, err := NewFileDocumentStore(filepath.Join(dir, backupDocsDir), s.logger)
	if err != nil {
		return err
	}
	defer docDst.Close()

	copied, err := copyDocuments(ctx, s.docs, docDst)
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "document backup failed").WithOperation("backup").WithCause(err)
	}

	s.logger.Info("backup completed",
		zap.String("dir", dir),
		zap.Int("documents", copied),
	)
	return nil
}

// Restore replaces the live store contents with a snapshot produced by
// Backup. The database connection is torn down, the file swapped, and the
// connection reopened; callers must not run other operations concurrently.
func (s *EntityStore) Restore(ctx context.Context, dir string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !s.isSQLite() {
		return types.NewError(types.ErrUnsupported, "restore is only supported for sqlite databases").WithOperation("restore")
	}

	source := filepath.Join(dir, backupDBFile)
	if _, err := os.Stat(source); err != nil {
		return types.NewError(types.ErrNotFound, "backup database not found").WithOperation("restore").WithCause(err)
	}

	docSrc, err := NewFileDocumentStore(filepath.Join(dir, backupDocsDir), s.logger)
	if err != nil {
		return err
	}
	defer docSrc.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pool.Close(); err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to close database for restore").WithOperation("restore").WithCause(err)
	}

	if err := copyFile(source, s.cfg.Path); err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to copy backup database").WithOperation("restore").WithCause(err)
	}

	if err := s.reopenLocked(); err != nil {
		return err
	}

	copied, err := copyDocuments(ctx, docSrc, s.docs)
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "document restore failed").WithOperation("restore").WithCause(err)
	}

	s.logger.Info("restore completed",
		zap.String("dir", dir),
		zap.Int("documents", copied),
	)
	return nil
}

// reopenLocked rebuilds the gorm handle and pool after a file swap. Caller
// holds s.mu.
func (s *EntityStore) reopenLocked() error {
	dialector, poolCfg, err := buildDialector(s.cfg)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to reopen database").WithOperation("restore").WithCause(err)
	}

	pool, err := database.NewPoolManager(db, poolCfg, s.logger)
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to reconfigure connection pool").WithOperation("restore").WithCause(err)
	}

	if !s.cfg.SkipAutoMigrate {
		if err := db.AutoMigrate(allModels()...); err != nil {
			pool.Close()
			return types.NewError(types.ErrStorageFailure, "failed to migrate restored schema").WithOperation("restore").WithCause(err)
		}
	}

	s.db = db
	s.pool = pool
	return nil
}

func (s *EntityStore) isSQLite() bool {
	switch strings.ToLower(s.cfg.Driver) {
	case "", "sqlite", "sqlite3":
		return true
	default:
		return false
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	out, err := os.CreateTemp(filepath.Dir(dst), ".restore-*")
	if err != nil {
		return err
	}
	tmp := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
