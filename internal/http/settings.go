package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/audit"
	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/settings"
)

type SettingsController struct {
	repo    *settings.Repository
	auditor *audit.Service
}

func NewSettingsController(repo *settings.Repository, auditor *audit.Service) *SettingsController {
	return &SettingsController{
		repo:    repo,
		auditor: auditor,
	}
}

// ListSettings returns all system settings ordered by key.
func (controller *SettingsController) ListSettings(c *gin.Context) {
	list, err := controller.repo.ListSettings()
	if err != nil {
		respondInternalError(c, err, "list settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list, "count": len(list)})
}

// GetSetting returns a single setting by key.
func (controller *SettingsController) GetSetting(c *gin.Context) {
	setting, err := controller.repo.GetSetting(c.Param("key"))
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			respondNotFound(c, "setting")
			return
		}
		respondInternalError(c, err, "get setting")
		return
	}
	c.JSON(http.StatusOK, setting)
}

type updateSettingRequest struct {
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
}

// UpdateSetting creates or updates a setting. Circulation reads settings
// straight from the database, so changes take effect immediately.
func (controller *SettingsController) UpdateSetting(c *gin.Context) {
	key := c.Param("key")

	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "value is required")
		return
	}

	old, _ := controller.repo.GetSetting(key)

	if err := controller.repo.SetSetting(key, req.Value, req.Description); err != nil {
		respondInternalError(c, err, "update setting")
		return
	}

	updated, err := controller.repo.GetSetting(key)
	if err != nil {
		respondInternalError(c, err, "update setting")
		return
	}

	controller.auditor.LogChange(auth.GetUserID(c), "update_setting", "system_settings", key, old, updated, c.ClientIP())
	c.JSON(http.StatusOK, updated)
}
