package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound  = errors.New("document not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrPayloadTooLarge is a kind of ErrInvalidInput.
	ErrPayloadTooLarge = fmt.Errorf("%w: payload too large", ErrInvalidInput)
)

// kinds is ordered from most to least specific.
var kinds = []error{
	ErrUnsupportedFormat,
	ErrPayloadTooLarge,
	ErrInvalidInput,
	ErrDocumentNotFound,
	ErrTemporary,
}

// WrapError tags err with a kind and the failing operation.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the most specific kind carried by err, or nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
