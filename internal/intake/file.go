// Package intake validates and loads the images an operator selects for
// comparison: one reference image and a batch of candidates.
package intake

import (
	"strings"
)

// ImageFile is an image selected by the operator. It is never mutated after
// it has been accepted into a batch.
type ImageFile struct {
	Name      string // display name, not unique
	MediaType string // declared media type, e.g. image/png
	Size      int64  // byte length as declared by the source
	Data      []byte // payload, nil when the file was too large to read
}

// IsImage reports whether the declared media type is an image kind.
func (f *ImageFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.MediaType), "image/")
}
