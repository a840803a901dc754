package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentalhub/pkg/models"
)

type reviewRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func (h *Handler) getOwnProfile(c *gin.Context) {
	caller := callerFrom(c)
	view, err := h.services.Profile().Get(c.Request.Context(), caller, caller.IdentityID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) createProfile(c *gin.Context) {
	var req models.ProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	caller := callerFrom(c)
	view, err := h.services.Profile().Create(c.Request.Context(), caller, caller.IdentityID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req models.ProfilePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	caller := callerFrom(c)
	view, err := h.services.Profile().Update(c.Request.Context(), caller, caller.IdentityID, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) getProfile(c *gin.Context) {
	view, err := h.services.Profile().Get(c.Request.Context(), callerFrom(c), c.Param("identityId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) listPendingProfiles(c *gin.Context) {
	profiles, err := h.services.Profile().ListPending(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) reviewProfile(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	view, err := h.services.Profile().Review(c.Request.Context(), callerFrom(c), c.Param("identityId"), *req.Approve)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
