package backup

import "errors"

var (
	// ErrFileTooLarge rejects import files above the size cap before any
	// parsing happens.
	ErrFileTooLarge = errors.New("import file exceeds the maximum allowed size")

	// ErrUnsupportedFormat rejects import files whose extension is not a
	// supported export format.
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// ErrInvalidShape rejects import payloads that parse but do not look
	// like a liftlog export.
	ErrInvalidShape = errors.New("import payload does not look like a liftlog export")
)
