package api

import (
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"
)

func writeBadRequest(c *echo.Context, param, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param, "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// writeServiceError maps an error from the service onto a status code and
// returns the code it wrote.
func writeServiceError(c *echo.Context, err error) (int, error) {
	var invalid invalidRequestError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, writeBadRequest(c, invalid.param, invalid.msg)
	case errors.Is(err, ErrSearchFailed):
		return http.StatusInternalServerError,
			writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "search_invariant")
	default:
		return http.StatusInternalServerError,
			writeError(c, http.StatusInternalServerError, "server_error", err.Error(), "", "")
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, errors.Wrap(err, "decode request body")
	}
	return out, nil
}

func newResponseID() string {
	return "resp_" + uuid.NewString()
}
