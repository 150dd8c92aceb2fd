package handlers

import (
	"errors"
	"net/http"
	"sort"

	"chefly/models"
	"chefly/services/notification"

	"github.com/gin-gonic/gin"
)

// PreferenceHandler serves channel preference endpoints.
type PreferenceHandler struct {
	Service notification.NotificationService
}

func NewPreferenceHandler(svc notification.NotificationService) *PreferenceHandler {
	return &PreferenceHandler{Service: svc}
}

// GetHandler returns the user's preferences. With ?type= it returns one
// entry; without, the full per-type map with defaults applied.
func (h *PreferenceHandler) GetHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if raw := c.Query("type"); raw != "" {
		prefs, err := h.Service.GetPreferences(c.Request.Context(), userID, models.NotificationType(raw))
		if errors.Is(err, notification.ErrInvalidEventType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"type": raw, "preferences": prefs})
		return
	}

	types := notification.Types()
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	all := make(map[models.NotificationType]*models.ChannelPreferences, len(types))
	for _, t := range types {
		prefs, err := h.Service.GetPreferences(c.Request.Context(), userID, t)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		all[t] = prefs
	}

	c.JSON(http.StatusOK, gin.H{"preferences": all})
}

type setPreferencesRequest struct {
	Type  models.NotificationType `json:"type" binding:"required"`
	Patch models.PreferencePatch  `json:"preferences"`
}

// SetHandler merge-patches the preferences for one type.
func (h *PreferenceHandler) SetHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req setPreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	prefs, err := h.Service.SetPreferences(c.Request.Context(), userID, req.Type, req.Patch)
	if errors.Is(err, notification.ErrInvalidEventType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": req.Type, "preferences": prefs})
}

// ResetHandler restores defaults for every notification type.
func (h *PreferenceHandler) ResetHandler(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	if err := h.Service.ResetPreferences(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences reset to defaults"})
}
