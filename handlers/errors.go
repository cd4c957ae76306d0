package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quipcup/draft"
	"quipcup/phases"
	"quipcup/services"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidPassword), errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrLoginDisabled), errors.Is(err, phases.ErrPhaseLocked):
		return http.StatusForbidden
	case errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, phases.ErrUnknownPhase),
		errors.Is(err, draft.ErrUnknownWord),
		errors.Is(err, draft.ErrUnknownTeam):
		return http.StatusNotFound
	case errors.Is(err, draft.ErrDuplicateWord),
		errors.Is(err, draft.ErrPoolFull),
		errors.Is(err, draft.ErrBanLimit),
		errors.Is(err, draft.ErrInheritedBan),
		errors.Is(err, draft.ErrWordBanned),
		errors.Is(err, draft.ErrAssignmentsDisabled),
		errors.Is(err, phases.ErrNoNextPhase),
		errors.Is(err, phases.ErrNoPrevPhase):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidGame),
		errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, services.ErrInvalidBanSystem),
		errors.Is(err, services.ErrInvalidDelta),
		errors.Is(err, draft.ErrEmptyWord),
		errors.Is(err, draft.ErrUnknownGame):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// intParam reads a numeric path parameter, answering 400 when it is not one.
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}
