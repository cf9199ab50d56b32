package errx

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// WrapPg maps pgx errors to the unified Error type. A missing row becomes a
// NotFound so handlers can answer "no record" without inspecting driver errors.
func WrapPg(err error) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return New(KindNotFound, err, http.StatusNotFound, "no matching record")
	}

	return DataAccess(err)
}
