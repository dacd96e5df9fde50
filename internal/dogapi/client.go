package dogapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const statusSuccess = "success"

// Image is the body returned by the random image endpoints.
type Image struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type Client struct {
	baseURL         string
	rest            *resty.Client
	timeout         time.Duration
	maxResponseSize int64
	requestIDKey    any
	limiter         *rate.Limiter
}

func New(baseURL string, opts ...Option) *Client {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(cfg)
	}

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rest := resty.New()
	if cfg.httpClient != nil {
		rest = resty.NewWithClient(cfg.httpClient)
	}

	rest.SetTimeout(cfg.timeout).
		SetHeader(HeaderAccept, ContentTypeJSON).
		SetHeader("User-Agent", cfg.userAgent)

	return &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		rest:            rest,
		timeout:         cfg.timeout,
		maxResponseSize: cfg.maxResponseSize,
		requestIDKey:    cfg.requestIDKey,
		limiter:         cfg.limiter,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the random image endpoint for breed. An empty breed selects
// any breed; "hound/afghan" selects a sub-breed.
func (c *Client) URL(breed string) string {
	breed = strings.Trim(strings.TrimSpace(breed), "/")
	if breed == "" {
		return c.baseURL + "/breeds/image/random"
	}

	return c.baseURL + "/breed/" + breed + "/images/random"
}

func (c *Client) RandomImage(ctx context.Context, breed string) (Image, error) {
	return c.Fetch(ctx, c.URL(breed))
}

// Fetch issues a single GET to url and decodes the image body. It never
// retries. The client timeout covers the whole call, including any wait on
// the rate limiter.
func (c *Client) Fetch(ctx context.Context, url string) (Image, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := c.requestID(ctx)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Image{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader(HeaderXRequestID, requestID).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	body := resp.RawBody()
	defer body.Close()

	data, err := c.readBody(body)
	if err != nil {
		return Image{}, err
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return Image{}, newServiceError(resp.StatusCode(), data, requestID)
	}

	var image Image
	if err := json.Unmarshal(data, &image); err != nil {
		return Image{}, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	if image.Status != statusSuccess {
		return Image{}, fmt.Errorf("%w: %q", ErrUnexpectedStatus, image.Status)
	}

	return image, nil
}

func (c *Client) readBody(body io.Reader) ([]byte, error) {
	if c.maxResponseSize > 0 {
		body = io.LimitReader(body, c.maxResponseSize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	if c.maxResponseSize > 0 && int64(len(data)) > c.maxResponseSize {
		return nil, ErrResponseTooLarge
	}

	return data, nil
}

func (c *Client) requestID(ctx context.Context) string {
	if c.requestIDKey != nil {
		if id, ok := ctx.Value(c.requestIDKey).(string); ok && id != "" {
			return id
		}
	}

	return uuid.NewString()
}

func newServiceError(statusCode int, data []byte, requestID string) *ServiceError {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return &ServiceError{StatusCode: statusCode, Message: body.Message, RequestID: requestID}
	}

	return &ServiceError{StatusCode: statusCode, Message: strings.TrimSpace(string(data)), RequestID: requestID}
}
