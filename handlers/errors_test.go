package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"quipcup/draft"
	"quipcup/phases"
	"quipcup/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.ErrInvalidPassword, http.StatusUnauthorized},
		{services.ErrLoginDisabled, http.StatusForbidden},
		{phases.ErrPhaseLocked, http.StatusForbidden},
		{fmt.Errorf("%w: 12", services.ErrTeamNotFound), http.StatusNotFound},
		{draft.ErrPoolFull, http.StatusConflict},
		{phases.ErrNoNextPhase, http.StatusConflict},
		{services.ErrInvalidOrder, http.StatusBadRequest},
		{draft.ErrEmptyWord, http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
