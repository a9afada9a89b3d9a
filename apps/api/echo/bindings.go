package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/enrollment/core"
)

// pathID parses the ":id" path param; an invalid id cannot match any row.
func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// bindJSON binds the request body, reporting malformed payloads as validation errors.
func bindJSON(ctx echo.Context, dest interface{}, name string) error {
	if err := ctx.Bind(dest); err != nil {
		if _, ok := err.(*echo.HTTPError); ok {
			return core.NewValidationError(errors.Wrap(err, "binding to "+name), core.FieldError{
				Field: "body",
				Error: "malformed " + name + " payload",
			})
		}
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}
