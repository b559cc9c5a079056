// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Intake constants
const (
	// MaxCandidates is the maximum number of comparison images in one batch
	MaxCandidates = 250

	// MaxFileSize is the maximum size of a single image in bytes (10 MiB)
	MaxFileSize = 10 << 20

	// FileLoadConcurrency is the number of files read from disk in parallel
	FileLoadConcurrency = 16
)

// Preview constants
const (
	// DefaultPreviewSize is the maximum dimension (width or height) of a preview thumbnail
	DefaultPreviewSize = 256

	// PreviewJPEGQuality is the JPEG quality used for preview thumbnails
	PreviewJPEGQuality = 80

	// MaxPreviewPixels is the largest width*height decoded for a preview (50 megapixels)
	MaxPreviewPixels = 50_000_000

	// PreviewGridLimit is the number of previews shown before collapsing into "+N"
	PreviewGridLimit = 12
)

// Comparison service constants
const (
	// DefaultServiceURL is used when FACECOMPARE_SERVICE_URL is not set
	DefaultServiceURL = "http://localhost:8001"

	// CompareEndpoint is the path of the remote comparison operation
	CompareEndpoint = "api/compare-faces"

	// DefaultServiceTimeout bounds a whole comparison call including upload
	DefaultServiceTimeout = 300 * time.Second
)

// Similarity band thresholds (percent)
const (
	HighSimilarity   = 80.0
	MediumSimilarity = 60.0
	LowSimilarity    = 40.0
)
