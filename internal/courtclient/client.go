// Package courtclient is the HTTP client for the courts service. Every remote
// operation the client application performs goes through here.
package courtclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/courts/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("rejected by server")
)

// TransportError reports a request that never produced an HTTP response:
// dial failures, timeouts, or a body that could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response that does not map to a sentinel.
type StatusError struct {
	Code    int
	APICode string
	Message string
}

func (e *StatusError) Error() string {
	if e.APICode != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.Code, e.APICode, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Client is an HTTP client for the courts service.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// DefaultTimeout applies when New is given a non-positive timeout.
const DefaultTimeout = 30 * time.Second

// New creates a new courts client.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: "courts-cli",
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// HealthCheck hits /healthz to verify the server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.doJSON(ctx, "health check", http.MethodGet, "/healthz", nil, nil)
}

// ListAll fetches every court known to the server.
func (c *Client) ListAll(ctx context.Context) ([]models.Court, error) {
	var courts []models.Court
	if err := c.doJSON(ctx, "list courts", http.MethodGet, "/allbasketcourts", nil, &courts); err != nil {
		return nil, err
	}
	return courts, nil
}

// Get fetches one court by id.
func (c *Client) Get(ctx context.Context, id int) (*models.Court, error) {
	var court models.Court
	if err := c.doJSON(ctx, "get court", http.MethodGet, "/file/"+strconv.Itoa(id), nil, &court); err != nil {
		return nil, err
	}
	return &court, nil
}

// Create submits a court as JSON. Drafts get an id assigned by the server;
// courts that already carry an id replace the stored record.
func (c *Client) Create(ctx context.Context, court models.Court) error {
	return c.doJSON(ctx, "create court", http.MethodPost, "/newcourt", court, nil)
}

// CreateWithImage submits the court JSON and an image in one multipart request.
func (c *Client) CreateWithImage(ctx context.Context, court models.Court, image []byte, name string) error {
	data, err := json.Marshal(court)
	if err != nil {
		return fmt.Errorf("marshal court: %w", err)
	}
	body, contentType, err := buildMultipart(map[string]string{"court_data": string(data)}, image, name)
	if err != nil {
		return err
	}
	return c.do(ctx, "create court with image", http.MethodPost, "/newcourtwithimage", body, contentType, nil)
}

// UploadImage uploads a bare image that is not attached to a court.
func (c *Client) UploadImage(ctx context.Context, image []byte, name string) error {
	body, contentType, err := buildMultipart(nil, image, name)
	if err != nil {
		return err
	}
	return c.do(ctx, "upload image", http.MethodPost, "/image", body, contentType, nil)
}

// Delete removes a court by id. A court that is already gone yields ErrNotFound.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.doJSON(ctx, "delete court", http.MethodDelete, "/file/"+strconv.Itoa(id), nil, nil)
}

// --- HTTP helpers ---

// apiError is the error body written by courts-server.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func buildMultipart(fields map[string]string, image []byte, name string) (io.Reader, string, error) {
	if name == "" {
		name = "image.jpg"
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, result any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, bodyReader, contentType, result)
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %w", op, statusError(resp.StatusCode, respBody))
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%s: unmarshal response: %w", op, err)
		}
	}
	return nil
}

func statusError(code int, body []byte) error {
	var msg, apiCode string
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Code != "" {
		apiCode, msg = apiErr.Error.Code, apiErr.Error.Message
	} else {
		msg = strings.TrimSpace(string(body))
	}

	switch code {
	case http.StatusNotFound:
		if msg == "" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			return ErrBadRequest
		}
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	}
	return &StatusError{Code: code, APICode: apiCode, Message: msg}
}
