package config

import (
	"testing"
	"time"

	"github.com/kozaktomas/face-compare/internal/constants"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FACECOMPARE_SERVICE_URL", "")
	t.Setenv("FACECOMPARE_TIMEOUT", "")
	t.Setenv("FACECOMPARE_PREVIEW_SIZE", "")
	t.Setenv("FACECOMPARE_LANG", "")
	t.Setenv("FACECOMPARE_SESSION_FILE", "")

	cfg := Load()

	if cfg.Service.URL != constants.DefaultServiceURL {
		t.Errorf("expected default service URL, got '%s'", cfg.Service.URL)
	}
	if cfg.Service.Timeout != constants.DefaultServiceTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Service.Timeout)
	}
	if cfg.Preview.MaxSize != constants.DefaultPreviewSize {
		t.Errorf("expected default preview size, got %d", cfg.Preview.MaxSize)
	}
	if cfg.Session.MarkerPath == "" {
		t.Error("expected a default marker path")
	}
	if cfg.Messages.MissingReference != "Please select a base image." {
		t.Errorf("expected English catalog by default, got '%s'", cfg.Messages.MissingReference)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("FACECOMPARE_SERVICE_URL", "http://faces.internal:9000")
	t.Setenv("FACECOMPARE_TIMEOUT", "42")
	t.Setenv("FACECOMPARE_PASSWORD", "secret")
	t.Setenv("FACECOMPARE_SESSION_FILE", "/tmp/marker")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/faces")

	cfg := Load()

	if cfg.Service.URL != "http://faces.internal:9000" {
		t.Errorf("unexpected service URL '%s'", cfg.Service.URL)
	}
	if cfg.Service.Timeout != 42*time.Second {
		t.Errorf("expected 42s timeout, got %v", cfg.Service.Timeout)
	}
	if cfg.Gate.GetPassword() != "secret" {
		t.Errorf("unexpected password '%s'", cfg.Gate.GetPassword())
	}
	if cfg.Session.MarkerPath != "/tmp/marker" {
		t.Errorf("unexpected marker path '%s'", cfg.Session.MarkerPath)
	}
	if cfg.Database.URL != "postgres://u:p@db/faces" {
		t.Errorf("unexpected database URL '%s'", cfg.Database.URL)
	}
}

func TestEnvInt_InvalidFallsBack(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"", 7},
		{"abc", 7},
		{"-3", 7},
		{"0", 7},
		{"12", 12},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("FACECOMPARE_TEST_INT", tt.value)
			if got := envInt("FACECOMPARE_TEST_INT", 7); got != tt.expected {
				t.Errorf("envInt(%q) = %d, want %d", tt.value, got, tt.expected)
			}
		})
	}
}

func TestLoadMessages_LanguageMatching(t *testing.T) {
	tests := []struct {
		lang     string
		expected string
	}{
		{"en", "Please select a base image."},
		{"pt-BR", "Por favor, selecione uma imagem base."},
		{"pt", "Por favor, selecione uma imagem base."},
		{"", "Please select a base image."},
		{"klingon", "Please select a base image."},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			msgs := LoadMessages(tt.lang)
			if msgs.MissingReference != tt.expected {
				t.Errorf("LoadMessages(%q).MissingReference = %q, want %q", tt.lang, msgs.MissingReference, tt.expected)
			}
		})
	}
}

func TestLoadMessages_CatalogComplete(t *testing.T) {
	for _, tag := range supportedLanguages {
		msgs := LoadMessages(tag.String())
		fields := map[string]string{
			"reference_not_an_image": msgs.ReferenceNotAnImage,
			"reference_too_large":    msgs.ReferenceTooLarge,
			"batch_not_an_image":     msgs.BatchNotAnImage,
			"batch_too_large":        msgs.BatchTooLarge,
			"too_many_files":         msgs.TooManyFiles,
			"missing_reference":      msgs.MissingReference,
			"missing_candidates":     msgs.MissingCandidates,
			"submission_failed":      msgs.SubmissionFailed,
			"submission_in_flight":   msgs.SubmissionInFlight,
			"invalid_response":       msgs.InvalidResponse,
			"login_failed":           msgs.LoginFailed,
			"no_face_detected":       msgs.NoFaceDetected,
			"band_high":              msgs.BandHigh,
			"band_medium":            msgs.BandMedium,
			"band_low":               msgs.BandLow,
			"band_very_low":          msgs.BandVeryLow,
		}
		for key, value := range fields {
			if value == "" {
				t.Errorf("%s: message %s is empty", tag, key)
			}
		}
	}
}
