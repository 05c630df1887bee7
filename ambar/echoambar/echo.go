// Package echoambar exposes an ambar projection as an echo handler
package echoambar

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/aneshas/account-eventstore"
	"github.com/aneshas/account-eventstore/ambar"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var _ Projector = (*ambar.Ambar)(nil)

// Projector is an interface for projecting events
type Projector interface {
	Project(ctx context.Context, projection eventstore.Projection, data []byte) error
}

// Option configures the wrapped handler
type Option func(*handler)

// WithLogger sets the logger failed projections are reported to (discards logs by default)
func WithLogger(logger zerolog.Logger) Option {
	return func(h *handler) {
		h.logger = logger
	}
}

type handler struct {
	logger zerolog.Logger
}

// Wrap returns a func wrapper around Ambar projection handler which adapts it to echo.HandlerFunc.
// Ambar expects 200 OK in every case, the outcome is carried by the response body.
func Wrap(a Projector, opts ...Option) func(projection eventstore.Projection) echo.HandlerFunc {
	h := handler{
		logger: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return func(projection eventstore.Projection) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()

			req, err := io.ReadAll(r.Body)
			if err != nil {
				return err
			}

			err = a.Project(r.Context(), projection, req)
			if err != nil {
				if errors.Is(err, ambar.ErrKeepItGoing) {
					h.logger.Warn().Err(err).Msg("ambar projection skipped")

					return c.JSONBlob(http.StatusOK, []byte(ambar.KeepGoingResp))
				}

				h.logger.Warn().Err(err).Msg("ambar projection failed, asking for retry")

				return c.JSONBlob(http.StatusOK, []byte(ambar.RetryResp))
			}

			return c.JSONBlob(http.StatusOK, []byte(ambar.SuccessResp))
		}
	}
}
