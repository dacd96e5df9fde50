package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/andyle182810/dogview/internal/dogapi"
	"github.com/andyle182810/dogview/internal/fetch"
	"github.com/andyle182810/dogview/internal/session"
	"github.com/andyle182810/dogview/middleware"
	"github.com/andyle182810/dogview/validator"
	"github.com/labstack/echo/v5"
)

const SessionCookieName = "dogview_session"

var ErrInvalidDefaultBreed = errors.New("service: invalid default breed")

type sessionHook = fetch.Hook[dogapi.Image]

// URLBuilder maps a breed to the image API URL the page hook fetches.
type URLBuilder interface {
	URL(breed string) string
}

type Config struct {
	// DefaultBreed is used when the request names no breed. Empty means any
	// breed.
	DefaultBreed string
	// RenderWait bounds how long the page handler waits for a request to
	// settle before rendering the loading placeholder.
	RenderWait time.Duration
	// Refresh is how often a loading page reloads itself.
	Refresh      time.Duration
	CookieMaxAge time.Duration
	CookieSecure bool
}

type Service struct {
	urls      URLBuilder
	sessions  *session.Registry[dogapi.Image]
	validator *validator.Validator
	cfg       Config
}

// New fails when cfg.DefaultBreed would be rejected on every request.
func New(urls URLBuilder, sessions *session.Registry[dogapi.Image], cfg Config) (*Service, error) {
	v := validator.DefaultRestValidator()

	if err := v.Validate(PageRequest{Breed: cfg.DefaultBreed}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefaultBreed, err)
	}

	return &Service{
		urls:      urls,
		sessions:  sessions,
		validator: v,
		cfg:       cfg,
	}, nil
}

func (s *Service) RegisterRoutes(root *echo.Group) {
	root.GET("/", s.RenderPage)
	root.GET("/health", s.CheckHealth)

	api := root.Group("/api")
	api.GET("/dog", s.GetDog)
	api.DELETE("/session", s.EndSession)
}

// mount resolves the caller's session, mounting a new one when the cookie is
// missing or stale, and refreshes the cookie.
func (s *Service) mount(ctx *echo.Context) (string, *sessionHook) {
	var current string
	if cookie, err := ctx.Request().Cookie(SessionCookieName); err == nil {
		current = cookie.Value
	}

	id, hook := s.sessions.Acquire(current)
	ctx.Set(middleware.ContextKeySessionID, id)

	http.SetCookie(ctx.Response(), s.cookie(id, int(s.cfg.CookieMaxAge/time.Second)))

	return id, hook
}

func (s *Service) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{ //nolint:exhaustruct
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
