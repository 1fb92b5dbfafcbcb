// Package errors provides structured error handling for the ladder data layer.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Lifecycle errors
	CodeNotConnected Code = "NOT_CONNECTED"
	CodeNotHydrated  Code = "NOT_HYDRATED"

	// Storage errors
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeStorageUnavailable Code = "STORAGE_UNAVAILABLE"

	// Validation errors
	CodeDisplayNameEmpty Code = "DISPLAY_NAME_EMPTY"
)
