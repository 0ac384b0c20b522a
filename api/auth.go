package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/models"
)

// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Sign up
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.SignUpRequest true "New account"
// @Success 201 {object} models.User
// @Failure 422 {object} models.ErrorResponse
// @Router /users [post]
func (h *Handler) SignUp(c *gin.Context) {
	var input models.SignUpRequest
	if !bindJSON(c, &input) {
		return
	}
	u, err := h.accounts.SignUp(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// @Summary Sign in as a user
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.SignInRequest true "Credentials"
// @Success 200 {object} models.SignInResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /sessions [post]
func (h *Handler) SignIn(c *gin.Context) {
	h.signIn(c, models.RoleUser)
}

// @Summary Sign in as an administrator
// @Tags auth
// @Accept json
// @Produce json
// @Param input body models.SignInRequest true "Credentials"
// @Success 200 {object} models.SignInResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /admin/sessions [post]
func (h *Handler) AdminSignIn(c *gin.Context) {
	h.signIn(c, models.RoleAdmin)
}

func (h *Handler) signIn(c *gin.Context, role models.Role) {
	var input models.SignInRequest
	if !bindJSON(c, &input) {
		return
	}
	resp, err := h.accounts.SignIn(c.Request.Context(), input, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Current session
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /sessions/current [get]
func (h *Handler) CurrentSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c).Public())
}

// @Summary Sign out
// @Tags auth
// @Security ApiKeyAuth
// @Success 204
// @Router /sessions/current [delete]
func (h *Handler) SignOut(c *gin.Context) {
	h.accounts.SignOut(currentSession(c))
	c.Status(http.StatusNoContent)
}

// @Summary Own profile
// @Tags profile
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /me [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.accounts.Me(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Update own profile
// @Tags profile
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.UpdateProfileRequest true "Profile"
// @Success 200 {object} models.User
// @Failure 422 {object} models.ErrorResponse
// @Router /me [patch]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var input models.UpdateProfileRequest
	if !bindJSON(c, &input) {
		return
	}
	u, err := h.accounts.UpdateProfile(c.Request.Context(), currentSession(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// @Summary Change own password
// @Tags profile
// @Security ApiKeyAuth
// @Accept json
// @Param input body models.ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 422 {object} models.ErrorResponse
// @Router /me/password [patch]
func (h *Handler) ChangePassword(c *gin.Context) {
	var input models.ChangePasswordRequest
	if !bindJSON(c, &input) {
		return
	}
	if err := h.accounts.ChangePassword(c.Request.Context(), currentSession(c), input); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
