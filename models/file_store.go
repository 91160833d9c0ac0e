package models

import (
	"context"

	"gorm.io/gorm"
)

// FileStore issues the metadata queries for files. Every statement is scoped by user id.
type FileStore struct {
	db *gorm.DB
}

// NewFileStore wraps a gorm connection.
func NewFileStore(db *gorm.DB) *FileStore {
	return &FileStore{db: db}
}

// Create inserts a new record; FileID is filled in by the store.
func (s *FileStore) Create(ctx context.Context, f *File) error {
	return s.db.WithContext(ctx).Create(f).Error
}

// ListActive returns the user's records that are not soft-deleted, in store order.
func (s *FileStore) ListActive(ctx context.Context, userID uint) ([]File, error) {
	files := []File{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Find(&files).Error
	return files, err
}

// Rename sets file_name on the matching record and reports affected rows.
// Soft-deleted records are renamed too.
func (s *FileStore) Rename(ctx context.Context, fileID, userID uint, name string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&File{}).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		Update("file_name", name)
	return res.RowsAffected, res.Error
}

// SoftDelete flags the matching record as deleted and reports affected rows.
func (s *FileStore) SoftDelete(ctx context.Context, fileID, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&File{}).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		Update("is_deleted", true)
	return res.RowsAffected, res.Error
}

// FindActive loads one non-deleted record owned by the user. Returns gorm.ErrRecordNotFound when absent.
func (s *FileStore) FindActive(ctx context.Context, fileID, userID uint) (*File, error) {
	var f File
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND user_id = ? AND is_deleted = ?", fileID, userID, false).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}
