package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	RequestIDHeader = "X-Request-ID"
	contentTypePDF  = "application/pdf"
)

// Gateway is the single HTTP boundary to the study backend. It never retries;
// retry policy belongs to the callers.
type Gateway struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
	logger   zerolog.Logger
}

type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

// NewHTTPClient builds a client without an overall timeout; callers bound
// requests through their context.
func NewHTTPClient(maxIdleConns int, idleConnTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          maxIdleConns,
			IdleConnTimeout:       idleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

func NewGateway(baseURL string, client *http.Client, logger zerolog.Logger) *Gateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &Gateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

func (g *Gateway) BaseURL() string {
	return g.baseURL
}

func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.doJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, query url.Values, in, out any) error {
	return g.doJSON(ctx, http.MethodPost, path, query, in, out)
}

func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.doJSON(ctx, http.MethodDelete, path, nil, nil, out)
}

// PostMultipart sends an already encoded multipart body, reporting progress
// as the transport consumes it.
func (g *Gateway) PostMultipart(ctx context.Context, path string, body []byte, contentType string, onProgress ProgressFunc, out any) error {
	reader := newProgressReader(bytes.NewReader(body), int64(len(body)), onProgress)

	req, err := g.newRequest(ctx, http.MethodPost, path, nil, reader)
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)

	resp, err := g.send(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return g.decode(resp, path, out)
}

// Download fetches a binary PDF. Any other content type on a 2xx is a
// SchemaError.
func (g *Gateway) Download(ctx context.Context, path string) ([]byte, error) {
	req, err := g.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentTypePDF)

	resp, err := g.send(req, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readAPIError(resp)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != contentTypePDF {
		return nil, &SchemaError{Path: path, Err: fmt.Errorf("unexpected content type %q", mediaType)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "GET " + path, Err: err}
	}
	return data, nil
}

func (g *Gateway) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := g.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.send(req, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return g.decode(resp, path, out)
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := g.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (g *Gateway) send(req *http.Request, path string) (*http.Response, error) {
	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", path).
			Str("request_id", req.Header.Get(RequestIDHeader)).
			Msg("Backend request failed")
		return nil, &NetworkError{Op: req.Method + " " + path, Err: err}
	}

	g.logger.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Msg("Backend request completed")

	return resp, nil
}

func (g *Gateway) decode(resp *http.Response, path string, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: "read " + path, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &SchemaError{Path: path, Err: fmt.Errorf("invalid json: %w", err)}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &SchemaError{Path: path, Err: errors.New("missing data envelope")}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &SchemaError{Path: path, Err: err}
	}
	if err := g.check(out); err != nil {
		return &SchemaError{Path: path, Err: err}
	}
	return nil
}

// check runs struct-tag validation on decoded payloads, including every
// element of a decoded slice.
func (g *Gateway) check(out any) error {
	v := reflect.Indirect(reflect.ValueOf(out))
	switch v.Kind() {
	case reflect.Struct:
		return g.validate.Struct(v.Addr().Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elem := reflect.Indirect(v.Index(i))
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := g.validate.Struct(elem.Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("request failed with status %d", resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	if body.Message != "" {
		apiErr.Message = body.Message
	}

	var code string
	if err := json.Unmarshal(body.Error, &code); err == nil {
		apiErr.Code = code
	}
	return apiErr
}
