package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ninaia/memoria/types"
)

// =============================================================================
// 👤 Users
// =============================================================================

// UpsertUser registers a user or refreshes an existing one. Registration is
// idempotent: the first call creates the row and its sidecar document, later
// calls only update the username and last-seen timestamp.
func (s *EntityStore) UpsertUser(ctx context.Context, userID, username string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if userID == "" {
		return types.NewError(types.ErrInvalidInput, "user id is required").WithOperation("upsert_user")
	}
	if username == "" {
		username = userID
	}

	unlock := s.lockEntity("user", userID)
	defer unlock()

	now := time.Now().UTC()

	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		var row userRow
		err := tx.First(&row, "user_id = ?", userID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = userRow{
				UserID:    userID,
				Username:  username,
				FirstSeen: now,
				LastSeen:  now,
			}
			return tx.Create(&row).Error
		case err != nil:
			return err
		default:
			return tx.Model(&userRow{}).
				Where("user_id = ?", userID).
				Updates(map[string]interface{}{
					"username":  username,
					"last_seen": now,
				}).Error
		}
	})
	if err != nil {
		return types.NewError(types.ErrStorageFailure, "failed to upsert user").WithEntity(userID).WithOperation("upsert_user").WithCause(err)
	}

	return s.ensureUserDocument(ctx, userID, username, now)
}

// ensureUserDocument creates the sidecar document when absent. A row whose
// document disappeared is healed with a fresh default.
func (s *EntityStore) ensureUserDocument(ctx context.Context, userID, username string, now time.Time) error {
	var doc types.UserDocument
	err := s.docs.Read(ctx, UserDocKey(userID), &doc)
	if err == nil {
		return nil
	}
	if types.GetErrorCode(err) != types.ErrNotFound {
		return err
	}

	return s.docs.Write(ctx, UserDocKey(userID), types.NewUserDocument(userID, username, now))
}

// ensureUserTx creates the user row inside an ongoing transaction if it does
// not exist yet, for writes that auto-register their author.
func ensureUserTx(tx *gorm.DB, userID, fallbackName string, now time.Time) (bool, error) {
	var row userRow
	err := tx.First(&row, "user_id = ?", userID).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if fallbackName == "" {
		fallbackName = userID
	}
	row = userRow{
		UserID:    userID,
		Username:  fallbackName,
		FirstSeen: now,
		LastSeen:  now,
	}
	return true, tx.Create(&row).Error
}

// GetUserProfile returns the composite view of a user: relational row plus
// sidecar document.
func (s *EntityStore) GetUserProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, types.NewError(types.ErrInvalidInput, "user id is required").WithOperation("get_user_profile")
	}

	var row userRow
	err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewError(types.ErrNotFound, "user not found").WithEntity(userID).WithOperation("get_user_profile")
	}
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to load user").WithEntity(userID).WithOperation("get_user_profile").WithCause(err)
	}

	doc := &types.UserDocument{}
	if err := s.docs.Read(ctx, UserDocKey(userID), doc); err != nil {
		if types.GetErrorCode(err) != types.ErrNotFound {
			return nil, err
		}
		// Row without document violates the storage invariant; heal it.
		s.logger.Warn("user document missing, recreating", zap.String("user_id", userID))
		doc = types.NewUserDocument(userID, row.Username, time.Now().UTC())
		if err := s.docs.Write(ctx, UserDocKey(userID), doc); err != nil {
			return nil, err
		}
	}

	return &types.UserProfile{User: row.toUser(), Document: doc}, nil
}

// DeleteUser removes the user row, its interactions, stats, term-table rows
// and document in one pass. Returns false when the user was never known.
func (s *EntityStore) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if userID == "" {
		return false, types.NewError(types.ErrInvalidInput, "user id is required").WithOperation("delete_user")
	}

	unlock := s.lockEntity("user", userID)
	defer unlock()

	existed := false
	err := s.pool.WithTransactionRetry(ctx, 3, func(tx *gorm.DB) error {
		res := tx.Delete(&userRow{}, "user_id = ?", userID)
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		if !existed {
			return nil
		}

		// AutoMigrate schemas carry no FK cascade, so dependents go manually.
		for _, del := range []error{
			tx.Delete(&interactionRow{}, "user_id = ?", userID).Error,
			tx.Delete(&userChannelStatRow{}, "user_id = ?", userID).Error,
			tx.Delete(&userFrequentWordRow{}, "user_id = ?", userID).Error,
			tx.Delete(&userTopicRow{}, "user_id = ?", userID).Error,
		} {
			if del != nil {
				return del
			}
		}
		return nil
	})
	if err != nil {
		return false, types.NewError(types.ErrStorageFailure, "failed to delete user").WithEntity(userID).WithOperation("delete_user").WithCause(err)
	}

	if !existed {
		return false, nil
	}

	if err := s.docs.Delete(ctx, UserDocKey(userID)); err != nil {
		return true, err
	}

	s.logger.Info("user memory deleted", zap.String("user_id", userID))
	return true, nil
}

// ListUsers pages through known users, most recently seen first.
func (s *EntityStore) ListUsers(ctx context.Context, limit, offset int) ([]types.User, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	var rows []userRow
	err := s.db.WithContext(ctx).
		Order("last_seen DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, types.NewError(types.ErrStorageFailure, "failed to list users").WithOperation("list_users").WithCause(err)
	}

	users := make([]types.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}
