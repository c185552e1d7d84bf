package workflow

import "errors"

var (
	// ErrUnsupportedFormat indicates a resource identifier without a recognized .sw.* suffix.
	ErrUnsupportedFormat = errors.New("unsupported workflow format")

	// ErrParseFailure indicates the source text is not a valid workflow definition.
	ErrParseFailure = errors.New("failed to parse workflow definition")
)

// IsUnsupportedFormat checks if an error indicates an unrecognized resource suffix.
func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

// IsParseFailure checks if an error indicates malformed definition text.
func IsParseFailure(err error) bool {
	return errors.Is(err, ErrParseFailure)
}
