package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/kozaktomas/face-compare/internal/compare"
	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/intake"
	"github.com/kozaktomas/face-compare/internal/preview"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/kozaktomas/face-compare/internal/workflow"
)

var testMessages = config.LoadMessages("en")

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T {
	return &v
}

// newTestController creates a controller with an instant decoder. A nil
// comparer answers every candidate with a 50% match.
func newTestController(comparer workflow.Comparer) *workflow.Controller {
	if comparer == nil {
		comparer = workflow.ComparerFunc(func(_ context.Context, req *compare.Request, _ compare.ProgressFunc) (*compare.Response, error) {
			resp := &compare.Response{TotalImages: len(req.Candidates), BaseImageHasFace: true, ProcessingTime: 0.3}
			for i := range req.Candidates {
				resp.Results = append(resp.Results, compare.Result{ImageIndex: i, HasFace: true, SimilarityPercentage: 50})
			}
			return resp, nil
		})
	}
	decoder := preview.DecoderFunc(func(_ context.Context, f *intake.ImageFile) (string, error) {
		return "data:image/jpeg;base64," + f.Name, nil
	})
	return workflow.NewController(intake.NewValidator(&testMessages), comparer, decoder, &testMessages, discardLogger)
}

// newTestGate creates a gate with password "secret" resetting controller on logout.
func newTestGate(t *testing.T, controller *workflow.Controller) *session.Gate {
	t.Helper()
	gate, err := session.NewGate(context.Background(), session.NewMemoryStore(), "secret", controller, discardLogger)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return gate
}

// uploadFile is one part of a multipart test request.
type uploadFile struct {
	name        string
	contentType string
	data        []byte
}

func jpeg(name string) uploadFile {
	return uploadFile{name: name, contentType: "image/jpeg", data: []byte("jpeg-" + name)}
}

// multipartRequest builds a POST request uploading files under field.
func multipartRequest(t *testing.T, path, field string, files ...uploadFile) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
