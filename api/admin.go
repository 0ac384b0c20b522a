package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/models"
)

// @Summary List users
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Param q query string false "Name filter"
// @Param email query string false "Email filter"
// @Success 200 {array} models.User
// @Router /users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers(c.Request.Context(), c.Query("q"), c.Query("email"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary Block or unblock a user
// @Description Blocking signs the user out everywhere.
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body models.UserStatusRequest true "Status"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/status [patch]
func (h *Handler) SetUserStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var input models.UserStatusRequest
	if !bindJSON(c, &input) {
		return
	}
	u, err := h.accounts.SetStatus(c.Request.Context(), currentSession(c), id, *input.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Dashboard totals
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /admin/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
