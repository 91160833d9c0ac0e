package models

import "time"

// File is the metadata row for one uploaded file. Rows are soft-deleted via IsDeleted and never removed.
type File struct {
	FileID    uint      `gorm:"column:file_id;primaryKey" json:"file_id"`
	UserID    uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	FileName  string    `gorm:"column:file_name;size:255;not null" json:"file_name"`
	FileSize  int64     `gorm:"column:file_size;not null" json:"file_size"`
	FileType  string    `gorm:"column:file_type;size:255" json:"file_type"`
	Path      string    `gorm:"column:path;size:1024;not null" json:"path"` // relative to the storage root
	IsDeleted bool      `gorm:"column:is_deleted;index;not null;default:false" json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name regardless of naming strategy.
func (File) TableName() string {
	return "files"
}
