package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"

	"github.com/kozaktomas/face-compare/internal/constants"
	"github.com/kozaktomas/face-compare/internal/intake"
)

// ProgressFunc receives upload progress. sent never decreases and reaches
// total once the whole body has been handed to the transport.
type ProgressFunc func(sent, total int64)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// writeFilePart adds one file to the multipart body, keeping its declared media type.
func writeFilePart(writer *multipart.Writer, field string, f *intake.ImageFile) error {
	if f.Data == nil {
		return fmt.Errorf("image %s has no content", f.Name)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, quoteEscaper.Replace(f.Name)))
	mediaType := f.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	header.Set("Content-Type", mediaType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("could not create form part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("could not write %s: %w", f.Name, err)
	}
	return nil
}

// buildBody encodes the reference as base_image and every candidate, in
// submission order, as comparison_images.
func buildBody(req *Request) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writeFilePart(writer, "base_image", req.Reference); err != nil {
		return nil, "", err
	}
	for _, c := range req.Candidates {
		if err := writeFilePart(writer, "comparison_images", c); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close multipart writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// progressReader reports bytes read from the body to a ProgressFunc.
type progressReader struct {
	r        io.Reader
	total    int64
	mu       sync.Mutex
	sent     int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.progress != nil {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		p.progress(sent, p.total)
	}
	return n, err
}

// Compare uploads the request and returns the validated response with
// results in submission order. A non-2xx answer yields a *ServiceError.
func (c *Client) Compare(ctx context.Context, req *Request, progress ProgressFunc) (*Response, error) {
	body, contentType, err := buildBody(req)
	if err != nil {
		return nil, err
	}

	total := int64(body.Len())
	reader := &progressReader{r: bytes.NewReader(body.Bytes()), total: total, progress: progress}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(constants.CompareEndpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.ContentLength = total
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if req.ID != "" {
		httpReq.Header.Set("X-Request-ID", req.ID)
	}

	if progress != nil {
		progress(0, total)
	}

	resp, err := c.httpClient.Do(httpReq) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseServiceError(resp.StatusCode, readErrorBody(resp.Body))
	}

	result, err := decodeJSON[Response](c, constants.CompareEndpoint, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := result.Validate(len(req.Candidates)); err != nil {
		return nil, err
	}
	result.SortBySubmission()
	return result, nil
}
