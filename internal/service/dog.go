package service

import (
	"errors"
	"net/http"

	"github.com/andyle182810/dogview/httpserver"
	"github.com/andyle182810/dogview/internal/dogapi"
	"github.com/andyle182810/dogview/internal/fetch"
	"github.com/andyle182810/dogview/middleware"
	"github.com/labstack/echo/v5"
)

var ErrSessionEnded = errors.New("service: session ended while loading")

type DogResponse = fetch.Snapshot[dogapi.Image]

// GetDog is the JSON view of the same hook the page uses. It waits for the
// pending request to settle, bounded by the request's context.
func (s *Service) GetDog(ctx *echo.Context) error {
	ctx.Set(middleware.ContextKeyHandler, "GetDog")

	breed, err := s.breed(ctx)
	if err != nil {
		return err
	}

	_, hook := s.mount(ctx)
	hook.UseContext(ctx.Request().Context(), s.urls.URL(breed))

	snapshot, err := hook.WaitSettled(ctx.Request().Context())
	if errors.Is(err, fetch.ErrUnmounted) {
		return httpserver.HTTPError(http.StatusConflict, ErrSessionEnded)
	}

	if err != nil {
		return httpserver.HTTPError(http.StatusServiceUnavailable, err)
	}

	return ctx.JSON(http.StatusOK, snapshot)
}

// EndSession unmounts the caller's hook, cancelling its pending request, and
// expires the cookie.
func (s *Service) EndSession(ctx *echo.Context) error {
	ctx.Set(middleware.ContextKeyHandler, "EndSession")

	cookie, err := ctx.Request().Cookie(SessionCookieName)
	if err != nil || !s.sessions.Release(cookie.Value) {
		return ctx.NoContent(http.StatusNotFound)
	}

	ctx.Set(middleware.ContextKeySessionID, cookie.Value)
	http.SetCookie(ctx.Response(), s.cookie("", -1))

	return ctx.NoContent(http.StatusNoContent)
}
