package models

import (
	"path/filepath"
	"strings"
)

// DriveFolder is a virtual folder, nestable without limit.
type DriveFolder struct {
	Base
	Name string `gorm:"size:255;not null" json:"name"`

	ParentID *uint        `gorm:"index" json:"parent"`
	Parent   *DriveFolder `json:"-"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedByID *uint `json:"created_by"`
}

func (f *DriveFolder) EntityType() string   { return "drive_folder" }
func (f *DriveFolder) DisplayLabel() string { return f.Name }

// DriveFile is an uploaded file; the display name may differ from the
// physical name under StorageKey.
type DriveFile struct {
	Base
	FolderID *uint        `gorm:"index" json:"folder"`
	Folder   *DriveFolder `json:"-"`

	Name       string `gorm:"size:255;not null" json:"name"`
	StorageKey string `gorm:"size:512;not null" json:"-"`
	MimeType   string `gorm:"size:128" json:"mime_type"`
	Size       int64  `gorm:"default:0" json:"size"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedByID *uint `json:"created_by"`
}

func (f *DriveFile) EntityType() string   { return "drive_file" }
func (f *DriveFile) DisplayLabel() string { return f.Name }

// Extension returns the lowercase file extension, leading dot included.
func (f *DriveFile) Extension() string {
	return strings.ToLower(filepath.Ext(f.Name))
}
