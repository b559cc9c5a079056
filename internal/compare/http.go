package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
// The endpoint should be the path after the base URL (e.g., "api/").
func doGetJSON[T any](ctx context.Context, c *Client, endpoint string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from validated parsedURL via resolveURL
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseServiceError(resp.StatusCode, readErrorBody(resp.Body))
	}

	return decodeJSON[T](c, endpoint, resp.Body)
}

func decodeJSON[T any](c *Client, endpoint string, r io.Reader) (*T, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	c.captureResponse(endpoint, body)

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

type pingResponse struct {
	Message string `json:"message"`
}

// Ping checks that the service answers and returns its greeting.
func (c *Client) Ping(ctx context.Context) (string, error) {
	resp, err := doGetJSON[pingResponse](ctx, c, "api/")
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
