// Package constants provides shared constants used across the codebase.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// File upload constants
const (
	// MaxUploadMemory is the amount of a multipart form kept in memory before spilling to disk (32MB)
	MaxUploadMemory = 32 << 20

	// MaxRequestBody caps a full candidate batch upload (250 files of 10MB plus overhead)
	MaxRequestBody = MaxCandidates*MaxFileSize + 10<<20
)
