package store

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidOwner    = errors.New("team or member identifier required")
	ErrInvalidCategory = errors.New("unknown script category")
	ErrEmptyPatch      = errors.New("no fields to update")
	ErrBackupExists    = errors.New("backup destination already exists")
)
