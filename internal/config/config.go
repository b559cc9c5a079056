package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kozaktomas/face-compare/internal/constants"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

type Config struct {
	Service  ServiceConfig
	Gate     GateConfig
	Session  SessionConfig
	Preview  PreviewConfig
	Database DatabaseConfig
	Language string
	Messages Messages
}

type ServiceConfig struct {
	URL     string        // base URL of the comparison service
	Timeout time.Duration // bounds a whole comparison call
}

type GateConfig struct {
	Password string
}

// GetPassword returns the configured gate credential.
func (c *GateConfig) GetPassword() string {
	return c.Password
}

type SessionConfig struct {
	MarkerPath string // file holding the persisted session marker
}

type PreviewConfig struct {
	MaxSize int // maximum thumbnail dimension in pixels
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL, optional
	MaxOpenConns int    // Maximum open connections (default 5)
	MaxIdleConns int    // Maximum idle connections (default 2)
}

// Messages is the user-facing message catalog for one language.
type Messages struct {
	ReferenceNotAnImage string `yaml:"reference_not_an_image"`
	ReferenceTooLarge   string `yaml:"reference_too_large"`
	BatchNotAnImage     string `yaml:"batch_not_an_image"`
	BatchTooLarge       string `yaml:"batch_too_large"`
	TooManyFiles        string `yaml:"too_many_files"`
	MissingReference    string `yaml:"missing_reference"`
	MissingCandidates   string `yaml:"missing_candidates"`
	SubmissionFailed    string `yaml:"submission_failed"`
	SubmissionInFlight  string `yaml:"submission_in_flight"`
	InvalidResponse     string `yaml:"invalid_response"`
	LoginFailed         string `yaml:"login_failed"`
	NoFaceDetected      string `yaml:"no_face_detected"`
	BandHigh            string `yaml:"band_high"`
	BandMedium          string `yaml:"band_medium"`
	BandLow             string `yaml:"band_low"`
	BandVeryLow         string `yaml:"band_very_low"`
}

// supportedLanguages must list every top-level key of messages.yaml,
// first entry is the fallback.
var supportedLanguages = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString returns the env var value or the default when unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// defaultMarkerPath places the session marker under the user config directory.
func defaultMarkerPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "face-compare", "session")
}

// LoadMessages returns the catalog best matching lang. Unknown or empty
// languages fall back to English.
func LoadMessages(lang string) Messages {
	var catalog map[string]Messages
	if err := yaml.Unmarshal(messagesYAML, &catalog); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded messages.yaml: " + err.Error())
	}

	matcher := language.NewMatcher(supportedLanguages)
	_, idx, _ := matcher.Match(language.Make(lang))
	return catalog[supportedLanguages[idx].String()]
}

func Load() *Config {
	lang := envString("FACECOMPARE_LANG", "en")

	return &Config{
		Service: ServiceConfig{
			URL:     envString("FACECOMPARE_SERVICE_URL", constants.DefaultServiceURL),
			Timeout: time.Duration(envInt("FACECOMPARE_TIMEOUT", int(constants.DefaultServiceTimeout.Seconds()))) * time.Second,
		},
		Gate: GateConfig{
			Password: os.Getenv("FACECOMPARE_PASSWORD"),
		},
		Session: SessionConfig{
			MarkerPath: envString("FACECOMPARE_SESSION_FILE", defaultMarkerPath()),
		},
		Preview: PreviewConfig{
			MaxSize: envInt("FACECOMPARE_PREVIEW_SIZE", constants.DefaultPreviewSize),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 5),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 2),
		},
		Language: lang,
		Messages: LoadMessages(lang),
	}
}
