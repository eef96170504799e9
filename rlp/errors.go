package rlp

import "errors"

var (
	// ErrExpectedString is returned when a list appears where a string was expected.
	ErrExpectedString = errors.New("rlp: expected string")

	// ErrExpectedList is returned when a string appears where a list was expected.
	ErrExpectedList = errors.New("rlp: expected list")

	// ErrCanonSize is returned for non-canonical size prefixes.
	ErrCanonSize = errors.New("rlp: non-canonical size information")

	// ErrCanonInt is returned for integers encoded with leading zeros.
	ErrCanonInt = errors.New("rlp: non-canonical integer encoding")

	// ErrListTrailing is returned when a list scope is closed with unread items.
	ErrListTrailing = errors.New("rlp: unread items at end of list")

	// ErrUintOverflow is returned when a decoded integer exceeds 64 bits.
	ErrUintOverflow = errors.New("rlp: uint64 overflow")

	// ErrUnsupportedType is returned for values outside the supported type set.
	ErrUnsupportedType = errors.New("rlp: unsupported type")

	// ErrArraySize is returned when a decoded string does not fit the target array.
	ErrArraySize = errors.New("rlp: input length mismatch for array")

	// ErrNoPointer is returned when the decode target is not a non-nil pointer.
	ErrNoPointer = errors.New("rlp: decode target must be a non-nil pointer")
)
