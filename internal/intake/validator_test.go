package intake

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/constants"
)

func testValidator() *Validator {
	msgs := config.LoadMessages("en")
	return NewValidator(&msgs)
}

func imageFile(name string, size int64) *ImageFile {
	return &ImageFile{Name: name, MediaType: "image/jpeg", Size: size}
}

func batch(n int) []*ImageFile {
	files := make([]*ImageFile, n)
	for i := range files {
		files[i] = imageFile(fmt.Sprintf("img%03d.jpg", i), 1024)
	}
	return files
}

func TestValidateReference(t *testing.T) {
	tests := []struct {
		name   string
		file   *ImageFile
		reason Reason
		ok     bool
	}{
		{"png accepted", &ImageFile{Name: "a.png", MediaType: "image/png", Size: 2 << 20}, "", true},
		{"uppercase type accepted", &ImageFile{Name: "a.jpg", MediaType: "IMAGE/JPEG", Size: 10}, "", true},
		{"exactly 10MiB accepted", imageFile("big.jpg", constants.MaxFileSize), "", true},
		{"one byte over", imageFile("big.jpg", constants.MaxFileSize+1), ReasonTooLarge, false},
		{"pdf rejected", &ImageFile{Name: "doc.pdf", MediaType: "application/pdf", Size: 10}, ReasonNotAnImage, false},
		{"empty type rejected", &ImageFile{Name: "x", Size: 10}, ReasonNotAnImage, false},
		{"nil rejected", nil, ReasonNotAnImage, false},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateReference(tt.file)
			if tt.ok {
				if err != nil {
					t.Fatalf("expected acceptance, got %v", err)
				}
				return
			}
			reason, ok := ReasonOf(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if reason != tt.reason {
				t.Errorf("expected reason %s, got %s", tt.reason, reason)
			}
		})
	}
}

func TestValidateReference_Messages(t *testing.T) {
	v := testValidator()

	err := v.ValidateReference(&ImageFile{Name: "a.txt", MediaType: "text/plain", Size: 1})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Message != "Please select an image file." {
		t.Errorf("unexpected message '%s'", ve.Message)
	}
	if ve.Index != -1 {
		t.Errorf("expected index -1 for reference, got %d", ve.Index)
	}
}

func TestValidateBatch_TooManyFiles(t *testing.T) {
	v := testValidator()

	if err := v.ValidateBatch(batch(constants.MaxCandidates)); err != nil {
		t.Fatalf("expected %d files to be accepted, got %v", constants.MaxCandidates, err)
	}

	err := v.ValidateBatch(batch(constants.MaxCandidates + 1))
	reason, ok := ReasonOf(err)
	if !ok || reason != ReasonTooManyFiles {
		t.Fatalf("expected too_many_files, got %v", err)
	}
}

func TestValidateCount(t *testing.T) {
	v := testValidator()

	if err := v.ValidateCount(constants.MaxCandidates); err != nil {
		t.Errorf("expected %d to be accepted, got %v", constants.MaxCandidates, err)
	}
	reason, ok := ReasonOf(v.ValidateCount(constants.MaxCandidates + 1))
	if !ok || reason != ReasonTooManyFiles {
		t.Errorf("expected too_many_files, got %s", reason)
	}
}

func TestValidateBatch_CountCheckedBeforeContent(t *testing.T) {
	v := testValidator()

	files := batch(constants.MaxCandidates + 1)
	files[0] = &ImageFile{Name: "doc.pdf", MediaType: "application/pdf", Size: 1}

	reason, _ := ReasonOf(v.ValidateBatch(files))
	if reason != ReasonTooManyFiles {
		t.Errorf("expected too_many_files to win over not_an_image, got %s", reason)
	}
}

func TestValidateBatch_FirstFailureWins(t *testing.T) {
	v := testValidator()

	files := batch(5)
	files[1] = imageFile("huge.jpg", constants.MaxFileSize+1)
	files[3] = &ImageFile{Name: "notes.txt", MediaType: "text/plain", Size: 3}

	err := v.ValidateBatch(files)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Reason != ReasonTooLarge {
		t.Errorf("expected too_large, got %s", ve.Reason)
	}
	if ve.Index != 1 || ve.Name != "huge.jpg" {
		t.Errorf("expected offending file #1 huge.jpg, got #%d %s", ve.Index, ve.Name)
	}
	if ve.Message != "Each image must be at most 10MB." {
		t.Errorf("unexpected message '%s'", ve.Message)
	}
}

func TestValidateBatch_NotAnImage(t *testing.T) {
	v := testValidator()

	files := batch(3)
	files[2] = &ImageFile{Name: "clip.mp4", MediaType: "video/mp4", Size: 3}

	err := v.ValidateBatch(files)
	reason, _ := ReasonOf(err)
	if reason != ReasonNotAnImage {
		t.Errorf("expected not_an_image, got %v", err)
	}
}

func TestValidateBatch_Empty(t *testing.T) {
	if err := testValidator().ValidateBatch(nil); err != nil {
		t.Errorf("expected empty batch to pass validation, got %v", err)
	}
}

func TestReasonOf_PlainError(t *testing.T) {
	if _, ok := ReasonOf(errors.New("boom")); ok {
		t.Error("expected plain error to carry no reason")
	}
	wrapped := fmt.Errorf("select: %w", &ValidationError{Reason: ReasonTooLarge})
	if reason, ok := ReasonOf(wrapped); !ok || reason != ReasonTooLarge {
		t.Errorf("expected wrapped reason too_large, got %s", reason)
	}
}
