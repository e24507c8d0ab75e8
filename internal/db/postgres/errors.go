package postgres

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pixelwerk.nl/backoffice/internal/common"
)

// PostgreSQL SQLSTATE codes we translate.
const (
	codeUndefinedTable      = "42P01"
	codeUndefinedColumn     = "42703"
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

// MapError turns a driver error into a *common.APIError carrying a Dutch
// message. pgx.ErrNoRows becomes common.ErrNotFound; errors without a
// known code are returned unchanged and end up as a logged 500.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUndefinedTable, codeUndefinedColumn:
		return &common.APIError{
			Status:  http.StatusInternalServerError,
			Message: "Databasetabel ontbreekt, voer de migraties uit (adminctl migrate)",
			Cause:   err,
		}
	case codeUniqueViolation:
		return &common.APIError{Status: http.StatusConflict, Message: "Bestaat al", Cause: errors.Join(common.ErrConflict, err)}
	case codeForeignKeyViolation:
		return &common.APIError{Status: http.StatusBadRequest, Message: "Gekoppeld record bestaat niet", Cause: err}
	case codeNotNullViolation, codeCheckViolation:
		return &common.APIError{Status: http.StatusBadRequest, Message: "Ongeldige invoer", Cause: err}
	case codeInvalidText:
		return &common.APIError{Status: http.StatusBadRequest, Message: "Ongeldige waarde", Cause: err}
	}
	return err
}
