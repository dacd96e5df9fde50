package middleware

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

type ErrorHandlerConfig struct {
	Logger                *zerolog.Logger
	LogErrors             bool
	IncludeInternalErrors bool
}

var errorPage = template.Must(template.New("error").Parse( //nolint:gochecknoglobals
	`<!DOCTYPE html><html><head><meta charset="utf-8"><title>{{.Code}}</title></head>` +
		`<body><p class="http-error">{{.Message}}</p></body></html>`,
))

// ErrorHandler renders *echo.HTTPError values as JSON, or as a small HTML page
// when the client prefers HTML. Other errors are logged and passed to next.
func ErrorHandler(next echo.HTTPErrorHandler, config ...*ErrorHandlerConfig) echo.HTTPErrorHandler {
	cfg := getErrorHandlerConfig(config)

	return func(ectx *echo.Context, err error) {
		res, unwrapErr := echo.UnwrapResponse(ectx.Response())
		if unwrapErr == nil && res.Committed {
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			handleHTTPError(ectx, httpErr, cfg)

			return
		}

		if cfg.LogErrors && cfg.Logger != nil {
			logError(ectx, err, cfg.Logger)
		}

		if next != nil {
			next(ectx, err)
		}
	}
}

func getErrorHandlerConfig(config []*ErrorHandlerConfig) *ErrorHandlerConfig {
	if len(config) > 0 && config[0] != nil {
		return config[0]
	}

	return &ErrorHandlerConfig{} //nolint:exhaustruct
}

func handleHTTPError(ectx *echo.Context, httpErr *echo.HTTPError, cfg *ErrorHandlerConfig) {
	if cfg.LogErrors && cfg.Logger != nil {
		logHTTPError(ectx, httpErr, cfg.Logger)
	}

	if prefersHTML(ectx.Request()) {
		var page strings.Builder

		_ = errorPage.Execute(&page, map[string]any{"Code": httpErr.Code, "Message": httpErr.Message})
		_ = ectx.HTML(httpErr.Code, page.String())

		return
	}

	_ = ectx.JSON(httpErr.Code, buildErrorResponse(httpErr, cfg))
}

func prefersHTML(req *http.Request) bool {
	accept := req.Header.Get("Accept")

	return strings.Contains(accept, "text/html") && !strings.HasPrefix(accept, "application/json")
}

func buildErrorResponse(httpErr *echo.HTTPError, cfg *ErrorHandlerConfig) map[string]any {
	response := map[string]any{
		"message": httpErr.Message,
	}

	if cfg.IncludeInternalErrors {
		if internal := httpErr.Unwrap(); internal != nil {
			response["internal"] = internal.Error()
		}
	}

	return response
}

func requestFields(ectx *echo.Context) map[string]any {
	fields := map[string]any{
		"path":   ectx.Request().URL.Path,
		"method": ectx.Request().Method,
	}

	if id, ok := ectx.Get(ContextKeyRequestID).(string); ok && id != "" {
		fields["request_id"] = id
	}

	if id, ok := ectx.Get(ContextKeySessionID).(string); ok && id != "" {
		fields["session_id"] = id
	}

	if handler, ok := ectx.Get(ContextKeyHandler).(string); ok && handler != "" {
		fields["handler"] = handler
	}

	return fields
}

func logHTTPError(ectx *echo.Context, httpErr *echo.HTTPError, logger *zerolog.Logger) {
	fields := requestFields(ectx)
	fields["status_code"] = httpErr.Code
	fields["message"] = httpErr.Message

	loggerWithFields := logger.With().Fields(fields).Logger()

	if internal := httpErr.Unwrap(); internal != nil {
		loggerWithFields = loggerWithFields.With().Err(internal).Logger()
	}

	switch {
	case httpErr.Code >= http.StatusInternalServerError:
		loggerWithFields.Error().Msg("Request failed with server error")
	case httpErr.Code >= http.StatusBadRequest:
		loggerWithFields.Warn().Msg("Request failed with client error")
	default:
		loggerWithFields.Info().Msg("HTTP error")
	}
}

func logError(ectx *echo.Context, err error, logger *zerolog.Logger) {
	logger.Error().
		Err(err).
		Fields(requestFields(ectx)).
		Msg("Unhandled error")
}
