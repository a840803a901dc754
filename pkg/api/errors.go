package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentalhub/pkg/logger"
	"rentalhub/pkg/xerrors"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var statusByError = []struct {
	err    error
	status int
	code   string
}{
	{xerrors.ErrValidation, http.StatusBadRequest, "validation"},
	{xerrors.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{xerrors.ErrEmailNotVerified, http.StatusForbidden, "email_not_verified"},
	{xerrors.ErrProfileNotVerified, http.StatusForbidden, "profile_not_verified"},
	{xerrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{xerrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{xerrors.ErrConflict, http.StatusConflict, "conflict"},
	{xerrors.ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
}

func (h *Handler) fail(c *gin.Context, err error) {
	if reason, ok := xerrors.OTPReasonOf(err); ok {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: string(reason)})
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			c.JSON(m.status, errorBody{Error: err.Error(), Code: m.code})
			return
		}
	}

	h.log.Error("request failed",
		logger.String("path", c.FullPath()),
		logger.Error(err),
	)
	c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Code: "validation"})
}
