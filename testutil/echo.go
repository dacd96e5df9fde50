package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/andyle182810/dogview/middleware"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

type Options struct {
	Method        string            // HTTP method (GET, POST, etc.)
	Path          string            // Request path
	Body          []byte            // Request body
	Headers       map[string]string // Custom headers
	QueryParams   map[string]string // Query parameters
	Cookies       []*http.Cookie    // Cookies sent with the request
	Accept        string            // Accept header (defaults to application/json)
	SkipRequestID bool              // Skip auto-generating X-Request-ID header
}

func SetupEchoContext(
	t *testing.T,
	opts *Options,
) (*echo.Context, *httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	iecho := echo.New()
	iecho.HTTPErrorHandler = middleware.ErrorHandler(iecho.HTTPErrorHandler)

	req := NewRequest(t, opts)
	rec := httptest.NewRecorder()

	return iecho.NewContext(req, rec), rec, req
}

// NewRequest builds the request described by opts, for use with a
// ServeHTTP call on a fully wired router.
func NewRequest(t *testing.T, opts *Options) *http.Request {
	t.Helper()

	requestPath := opts.Path

	if len(opts.QueryParams) > 0 {
		query := url.Values{}
		for key, value := range opts.QueryParams {
			query.Add(key, value)
		}

		requestPath = fmt.Sprintf("%s?%s", opts.Path, query.Encode())
	}

	req := httptest.NewRequest(opts.Method, requestPath, bytes.NewBuffer(opts.Body))

	if !opts.SkipRequestID {
		req.Header.Set(middleware.HeaderXRequestID, uuid.NewString())
	}

	accept := opts.Accept
	if accept == "" {
		accept = "application/json"
	}

	req.Header.Set("Accept", accept)

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	for _, cookie := range opts.Cookies {
		req.AddCookie(cookie)
	}

	return req
}

func FindCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}

	return nil
}
