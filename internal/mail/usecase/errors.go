package usecase

import "errors"

var (
	// ErrNotFound is returned when an id-addressed mail does not exist
	ErrNotFound = errors.New("mail not found")
	// ErrValidation wraps bad client input
	ErrValidation = errors.New("validation failed")
	// ErrUnsupportedFile is returned for uploads that are not .xlsx or .csv
	ErrUnsupportedFile = errors.New("upload .xlsx or .csv only")
)
