package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/dtos"
	"github.com/justsurfingit/Auto-Apply-Agent/internal/services"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// Dependency injection: the handler only holds the services it calls.
type AutoApplyHandler struct {
	Preferences *services.PreferenceService
	AutoApply   *services.AutoApplyService
	Batch       *services.BatchService
}

func NewAutoApplyHandler(prefs *services.PreferenceService, auto *services.AutoApplyService, batch *services.BatchService) *AutoApplyHandler {
	return &AutoApplyHandler{
		Preferences: prefs,
		AutoApply:   auto,
		Batch:       batch,
	}
}

// Register mounts every auto-apply route on rg.
func (h *AutoApplyHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/health", HealthCheck)

	users := rg.Group("/users/:id/auto-apply")
	users.GET("/preferences", h.GetPreferences)
	users.PUT("/preferences", h.UpdatePreferences)
	users.POST("/toggle", h.TogglePreferences)
	users.GET("/logs", h.ListLogs)
	users.POST("/run", h.RunForUser)

	rg.POST("/auto-apply/run", h.RunBatch)
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetPreferences is GET /users/:id/auto-apply/preferences
func (h *AutoApplyHandler) GetPreferences(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	pref, err := h.Preferences.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewPreferenceResponse(pref))
}

// UpdatePreferences is PUT /users/:id/auto-apply/preferences
func (h *AutoApplyHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	var req dtos.PreferenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	pref, err := h.Preferences.Upsert(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewPreferenceResponse(pref))
}

func (h *AutoApplyHandler) TogglePreferences(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	pref, err := h.Preferences.Toggle(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewPreferenceResponse(pref))
}

func (h *AutoApplyHandler) ListLogs(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLogLimit)
	}

	logs, err := h.AutoApply.ListLogs(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// RunForUser runs the auto-apply pipeline for one user right away.
func (h *AutoApplyHandler) RunForUser(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	user, err := h.AutoApply.LoadUser(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	applied, err := h.AutoApply.ProcessForUser(c.Request.Context(), user)
	if err != nil {
		writeError(c, err)
		return
	}
	if applied == nil {
		applied = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{"applied_job_ids": applied})
}

func (h *AutoApplyHandler) RunBatch(c *gin.Context) {
	report, err := h.Batch.Run(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func userIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrPreferenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidSalaryRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
