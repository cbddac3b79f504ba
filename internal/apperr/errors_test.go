package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{Conflict("x"), http.StatusConflict},
		{InvalidReference("x"), http.StatusUnprocessableEntity},
		{InvalidRequest("x"), http.StatusBadRequest},
		{Internal(errors.New("boom"), "x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Status())
		})
	}
}

func TestAsWrapsUnclassified(t *testing.T) {
	e := As(errors.New("no such column: nope"))
	require.Equal(t, KindInternal, e.Kind)
	require.Equal(t, "no such column: nope", e.Message)
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("check in: %w", Conflict("must check out before checking in again"))
	require.True(t, Is(err, KindConflict))
	require.False(t, Is(err, KindNotFound))
	require.Equal(t, "must check out before checking in again", As(err).Message)
}

func TestBody(t *testing.T) {
	body := InvalidReference("project %d does not belong to this company", 3).Body()
	require.Equal(t, map[string]string{
		"error": "project 3 does not belong to this company",
		"code":  "invalid_reference",
	}, body)
}
