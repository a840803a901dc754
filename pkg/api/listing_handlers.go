package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rentalhub/pkg/models"
)

func (h *Handler) listPublicListings(c *gin.Context) {
	listings, err := h.services.Listing().ListPublic(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) listMyListings(c *gin.Context) {
	listings, err := h.services.Listing().ListMine(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) getListing(c *gin.Context) {
	listing, err := h.services.Listing().Get(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) createListing(c *gin.Context) {
	var req models.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	listing, err := h.services.Listing().Create(c.Request.Context(), callerFrom(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h *Handler) updateListing(c *gin.Context) {
	var req models.ListingPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	listing, err := h.services.Listing().Update(c.Request.Context(), callerFrom(c), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h *Handler) listPendingListings(c *gin.Context) {
	listings, err := h.services.Listing().ListPending(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) reviewListing(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	listing, err := h.services.Listing().Review(c.Request.Context(), callerFrom(c), c.Param("id"), *req.Approve)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
