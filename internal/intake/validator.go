package intake

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/constants"
)

// Reason tags why a selection was rejected.
type Reason string

// Reason constants for ValidationError.
const (
	ReasonNotAnImage   Reason = "not_an_image"
	ReasonTooLarge     Reason = "too_large"
	ReasonTooManyFiles Reason = "too_many_files"
)

// ValidationError is a synchronous, user-correctable intake failure.
type ValidationError struct {
	Reason  Reason
	Message string // user-facing
	Index   int    // position of the offending file in the batch, -1 if not file specific
	Name    string // offending file name, empty if not file specific
}

func (e *ValidationError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s (%s: %s)", e.Message, e.Reason, e.Name)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
}

// ReasonOf extracts the validation reason from err, if it carries one.
func ReasonOf(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}

// Validator applies the intake rules: image type, size per file and
// candidate count per batch.
type Validator struct {
	maxFileSize int64
	maxFiles    int
	msgs        *config.Messages
}

// NewValidator creates a validator using the default limits.
func NewValidator(msgs *config.Messages) *Validator {
	return &Validator{
		maxFileSize: constants.MaxFileSize,
		maxFiles:    constants.MaxCandidates,
		msgs:        msgs,
	}
}

// MaxFiles returns the candidate count limit.
func (v *Validator) MaxFiles() int {
	return v.maxFiles
}

// ValidateCount checks the candidate count limit alone, so oversized
// selections can be refused before their payloads are read.
func (v *Validator) ValidateCount(n int) error {
	if n > v.maxFiles {
		return &ValidationError{Reason: ReasonTooManyFiles, Message: v.msgs.TooManyFiles, Index: -1}
	}
	return nil
}

// ValidateReference checks a single reference image.
func (v *Validator) ValidateReference(f *ImageFile) error {
	if f == nil || !f.IsImage() {
		return &ValidationError{Reason: ReasonNotAnImage, Message: v.msgs.ReferenceNotAnImage, Index: -1, Name: nameOf(f)}
	}
	if f.Size > v.maxFileSize {
		return &ValidationError{Reason: ReasonTooLarge, Message: v.msgs.ReferenceTooLarge, Index: -1, Name: f.Name}
	}
	return nil
}

// ValidateBatch checks a candidate batch as a whole. The batch is rejected
// on the count limit or on the first offending file in selection order.
func (v *Validator) ValidateBatch(files []*ImageFile) error {
	if err := v.ValidateCount(len(files)); err != nil {
		return err
	}

	for i, f := range files {
		if f == nil || !f.IsImage() {
			return &ValidationError{Reason: ReasonNotAnImage, Message: v.msgs.BatchNotAnImage, Index: i, Name: nameOf(f)}
		}
		if f.Size > v.maxFileSize {
			return &ValidationError{Reason: ReasonTooLarge, Message: v.msgs.BatchTooLarge, Index: i, Name: f.Name}
		}
	}
	return nil
}

func nameOf(f *ImageFile) string {
	if f == nil {
		return ""
	}
	return f.Name
}
