package middleware

import (
	"errors"
	"maps"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

type LogFieldExtractor func(*echo.Context) map[string]any

// RequestLogger logs one line per request once the handler has returned. A
// handler error is logged with the status it will be rendered with and is
// then passed on to the error handler.
func RequestLogger(log zerolog.Logger, extraLogFieldExtractor ...LogFieldExtractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			start := time.Now()

			err := next(ctx)

			status, res := responseStatus(ctx, err)

			fields := extractLogFields(ctx, start, status)
			if res != nil {
				fields["size"] = res.Size
			}

			maps.Copy(fields, requestFields(ctx))

			for _, extractor := range extraLogFieldExtractor {
				maps.Copy(fields, extractor(ctx))
			}

			logRequest(log, fields, err, status)

			return err
		}
	}
}

func responseStatus(ctx *echo.Context, err error) (int, *echo.Response) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, nil
	}

	if err != nil {
		return http.StatusInternalServerError, nil
	}

	res, unwrapErr := echo.UnwrapResponse(ctx.Response())
	if unwrapErr != nil || res == nil {
		return 0, nil
	}

	return res.Status, res
}

func extractLogFields(ctx *echo.Context, start time.Time, status int) map[string]any {
	req := ctx.Request()

	return map[string]any{
		"remote_ip":   ctx.RealIP(),
		"latency":     time.Since(start).String(),
		"host":        req.Host,
		"request":     req.Method + " " + req.URL.String(),
		"request_uri": req.RequestURI,
		"status":      status,
		"user_agent":  req.UserAgent(),
	}
}

func logRequest(log zerolog.Logger, fields map[string]any, err error, status int) {
	logger := log.With().Fields(fields).Logger()
	if err != nil {
		logger = logger.With().Err(err).Logger()
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error().
			Msg("The request has resulted in a server error")
	case status >= http.StatusBadRequest:
		logger.Warn().
			Msg("The request has resulted in a client error")
	case status >= http.StatusMultipleChoices:
		logger.Info().
			Msg("The request has resulted in a redirection")
	default:
		logger.Info().
			Msg("The request has completed successfully")
	}
}

// ResponseStatus is the status a request ended with, including the status
// a returned handler error will be rendered with.
func ResponseStatus(ctx *echo.Context, err error) int {
	status, _ := responseStatus(ctx, err)

	return status
}
