package main

import (
	"net/http"

	"github.com/aneshas/account-eventstore/account"
	"github.com/labstack/echo/v4"
)

// AccountReader reads the accounts read model
type AccountReader interface {
	Get(accountID string) (account.Projection, bool)
	Failure(accountID string) error
}

type replayFailure struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewGetAccountHandlerFunc serves the latest projection of an account
func NewGetAccountHandlerFunc(accounts AccountReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")

		if err := accounts.Failure(id); err != nil {
			return c.JSON(http.StatusConflict, replayFailure{
				Code:    account.Code(err),
				Message: err.Error(),
			})
		}

		projection, ok := accounts.Get(id)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "account not found")
		}

		return c.JSON(http.StatusOK, projection)
	}
}

func healthz(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
