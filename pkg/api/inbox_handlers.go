package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listFavorites(c *gin.Context) {
	favorites, err := h.services.Favorite().List(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

func (h *Handler) addFavorite(c *gin.Context) {
	fav, err := h.services.Favorite().Add(c.Request.Context(), callerFrom(c), c.Param("listingId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, fav)
}

func (h *Handler) removeFavorite(c *gin.Context) {
	removed, err := h.services.Favorite().Remove(c.Request.Context(), callerFrom(c), c.Param("listingId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *Handler) listNotifications(c *gin.Context) {
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.services.Notification().List(c.Request.Context(), callerFrom(c), unreadOnly, limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) unreadCount(c *gin.Context) {
	count, err := h.services.Notification().UnreadCount(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *Handler) markRead(c *gin.Context) {
	if err := h.services.Notification().MarkRead(c.Request.Context(), callerFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (h *Handler) markAllRead(c *gin.Context) {
	count, err := h.services.Notification().MarkAllRead(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": count})
}
