package service

import (
	"net/http"

	"github.com/andyle182810/dogview/middleware"
	"github.com/labstack/echo/v5"
)

type HealthCheckResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

func (s *Service) CheckHealth(ctx *echo.Context) error {
	ctx.Set(middleware.ContextKeyHandler, "CheckHealth")

	return ctx.JSON(http.StatusOK, HealthCheckResponse{
		Status:   "healthy",
		Sessions: s.sessions.Len(),
	})
}
