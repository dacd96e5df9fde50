package service

import (
	"context"
	"net/http"

	"github.com/andyle182810/dogview/httpserver"
	"github.com/andyle182810/dogview/internal/view"
	"github.com/andyle182810/dogview/middleware"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
)

type PageRequest struct {
	Breed string `query:"breed" validate:"omitempty,max=64,breed"`
}

// RenderPage mounts the caller's hook on the image URL for the requested
// breed and renders whatever state it is in, after waiting up to RenderWait
// for a pending request.
func (s *Service) RenderPage(ctx *echo.Context) error {
	ctx.Set(middleware.ContextKeyHandler, "RenderPage")

	breed, err := s.breed(ctx)
	if err != nil {
		return err
	}

	id, hook := s.mount(ctx)
	snapshot := hook.UseContext(ctx.Request().Context(), s.urls.URL(breed))

	if !snapshot.Settled() && s.cfg.RenderWait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx.Request().Context(), s.cfg.RenderWait)
		snapshot, _ = hook.Wait(waitCtx)

		cancel()
	}

	log.Debug().
		Str("session_id", id).
		Str("url", snapshot.URL).
		Stringer("state", snapshot.State).
		Msg("Rendering dog page")

	page, err := view.RenderString(view.Page{Snapshot: snapshot, Refresh: s.cfg.Refresh})
	if err != nil {
		return httpserver.HTTPError(http.StatusInternalServerError, err)
	}

	return ctx.HTML(http.StatusOK, page)
}

func (s *Service) breed(ctx *echo.Context) (string, error) {
	req := PageRequest{Breed: ctx.QueryParam("breed")}
	if req.Breed == "" {
		req.Breed = s.cfg.DefaultBreed
	}

	if err := s.validator.Validate(req); err != nil {
		return "", httpserver.HTTPError(http.StatusBadRequest, err)
	}

	return req.Breed, nil
}
