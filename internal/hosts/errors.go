package hosts

import "errors"

// Sentinel errors for the hosts package
var (
	// ErrInvalidFormat indicates the table file is not valid YAML
	ErrInvalidFormat = errors.New("host table must be valid YAML")

	// ErrFileNotFound indicates the table file does not exist
	ErrFileNotFound = errors.New("host table file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yaml or .yml)")

	// ErrInvalidPattern indicates a rule pattern failed to compile
	ErrInvalidPattern = errors.New("invalid host pattern")
)
