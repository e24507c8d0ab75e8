package postgres

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelwerk.nl/backoffice/internal/common"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		status int
		msg    string
	}{
		{"missing table", "42P01", http.StatusInternalServerError, "Databasetabel ontbreekt, voer de migraties uit (adminctl migrate)"},
		{"unique", "23505", http.StatusConflict, "Bestaat al"},
		{"foreign key", "23503", http.StatusBadRequest, "Gekoppeld record bestaat niet"},
		{"check", "23514", http.StatusBadRequest, "Ongeldige invoer"},
		{"bad uuid", "22P02", http.StatusBadRequest, "Ongeldige waarde"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("insert lead: %w", &pgconn.PgError{Code: tt.code, Message: "x"})
			mapped := MapError(err)

			var apiErr *common.APIError
			require.True(t, errors.As(mapped, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.msg, apiErr.Message)
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	assert.Nil(t, MapError(nil))
	assert.ErrorIs(t, MapError(pgx.ErrNoRows), common.ErrNotFound)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, MapError(plain))

	unknown := &pgconn.PgError{Code: "53300"}
	assert.Equal(t, error(unknown), MapError(unknown))
}

func TestMapError_UniqueIsConflict(t *testing.T) {
	mapped := MapError(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, mapped, common.ErrConflict)
}
