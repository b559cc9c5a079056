package compare

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-compare/internal/constants"
	"github.com/kozaktomas/face-compare/internal/intake"
)

// Request is one comparison of a reference image against candidates.
// It is a snapshot: later changes to the caller's selection do not affect it.
type Request struct {
	ID         string
	Reference  *intake.ImageFile
	Candidates []*intake.ImageFile
}

// NewRequest snapshots the reference and candidates into a Request.
func NewRequest(reference *intake.ImageFile, candidates []*intake.ImageFile) (*Request, error) {
	if reference == nil {
		return nil, errors.New("reference image is required")
	}
	if len(candidates) == 0 {
		return nil, errors.New("at least one candidate is required")
	}
	if len(candidates) > constants.MaxCandidates {
		return nil, fmt.Errorf("too many candidates: %d > %d", len(candidates), constants.MaxCandidates)
	}
	return &Request{
		ID:         uuid.NewString(),
		Reference:  reference,
		Candidates: slices.Clone(candidates),
	}, nil
}

// Result is the outcome for one candidate.
type Result struct {
	ImageIndex           int     `json:"image_index"`
	HasFace              bool    `json:"has_face"`
	SimilarityPercentage float64 `json:"similarity_percentage"`
	ErrorMessage         string  `json:"error_message,omitempty"`
	ImageData            string  `json:"image_data,omitempty"`
}

// Scored reports whether SimilarityPercentage is meaningful.
func (r *Result) Scored() bool {
	return r.HasFace && r.ErrorMessage == ""
}

// Response is the service's answer to a Request.
type Response struct {
	TotalImages      int      `json:"total_images"`
	ProcessingTime   float64  `json:"processing_time"` // seconds
	BaseImageHasFace bool     `json:"base_image_has_face"`
	BaseImageData    string   `json:"base_image_data,omitempty"`
	Results          []Result `json:"results"`
}

// ErrInvalidResponse is returned when a response violates the result contract.
var ErrInvalidResponse = errors.New("invalid comparison response")

// Validate checks the response against the request it answers: one result
// per candidate, indices forming 0..N-1 exactly once, scores within [0,100].
func (r *Response) Validate(candidates int) error {
	if r.TotalImages != candidates {
		return fmt.Errorf("%w: total_images %d, submitted %d", ErrInvalidResponse, r.TotalImages, candidates)
	}
	if len(r.Results) != r.TotalImages {
		return fmt.Errorf("%w: %d results for %d images", ErrInvalidResponse, len(r.Results), r.TotalImages)
	}

	seen := make([]bool, len(r.Results))
	for _, res := range r.Results {
		if res.ImageIndex < 0 || res.ImageIndex >= len(r.Results) {
			return fmt.Errorf("%w: image_index %d out of range", ErrInvalidResponse, res.ImageIndex)
		}
		if seen[res.ImageIndex] {
			return fmt.Errorf("%w: duplicate image_index %d", ErrInvalidResponse, res.ImageIndex)
		}
		seen[res.ImageIndex] = true
		if res.SimilarityPercentage < 0 || res.SimilarityPercentage > 100 {
			return fmt.Errorf("%w: similarity %.2f out of range", ErrInvalidResponse, res.SimilarityPercentage)
		}
	}
	return nil
}

// SortBySubmission orders results by image index. The service may return
// them ranked by similarity.
func (r *Response) SortBySubmission() {
	slices.SortFunc(r.Results, func(a, b Result) int {
		return a.ImageIndex - b.ImageIndex
	})
}
