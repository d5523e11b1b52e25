package codec

import "errors"

var (
	ErrInvalidPointer   = errors.New("destination must be a non-nil pointer")
	ErrDecodingBool     = errors.New("invalid boolean byte")
	ErrDecodingMarker   = errors.New("invalid option marker byte")
	ErrLengthTooLarge   = errors.New("length prefix exceeds limit")
	ErrTrailingBytes    = errors.New("trailing bytes after value")
	ErrCompactNonCanon  = errors.New("non-canonical compact natural")
	ErrUnexpectedEOF    = errors.New("unexpected end of input")
	ErrUnsupportedInput = errors.New("unsupported type")
)

const (
	errEncodingStructField = "encoding struct field '%s': %w"
	errDecodingStructField = "decoding struct field '%s': %w"
	errUnsupportedType     = "%w: %v"
)
