package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	vs "voltage_sweeper"
	"voltage_sweeper/internal/repository"
)

type saveProfileRequest struct {
	Name     string           `json:"name" binding:"required"`
	Settings vs.SweepSettings `json:"settings" binding:"required"`
}

// @Summary      Save a sweep profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        body  body   saveProfileRequest  true  "Profile payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/profiles [post]
// @Security     BearerAuth
func (h *Handler) saveProfile(c *gin.Context) {
	var req saveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}
	p, err := h.services.Profiles.Save(c.Request.Context(), req.Name, req.Settings)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to save profile", "profile_save_failed", err, "name", req.Name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// @Summary      List sweep profiles
// @Tags         profiles
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, profiles"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/profiles [get]
// @Security     BearerAuth
func (h *Handler) listProfiles(c *gin.Context) {
	profiles, err := h.services.Profiles.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load profiles", "profile_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(profiles), "profiles": profiles})
}

// @Summary      Get one sweep profile
// @Tags         profiles
// @Produce      json
// @Param        id  path  string  true  "Profile id"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/profiles/{id} [get]
// @Security     BearerAuth
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.services.Profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load profile", "profile_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// @Summary      Delete a sweep profile
// @Tags         profiles
// @Produce      json
// @Param        id  path  string  true  "Profile id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/profiles/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteProfile(c *gin.Context) {
	if err := h.services.Profiles.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to delete profile", "profile_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
