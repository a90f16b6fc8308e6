package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound      = errors.New("team not found")
	ErrInvalidRecord = errors.New("invalid team record")
	ErrEmptyDataset  = errors.New("dataset contains no teams")
)
