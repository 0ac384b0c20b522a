package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/models"
)

// @Summary List categories
// @Description Users see active categories only. Administrators see all of them and may filter by name.
// @Tags categories
// @Security ApiKeyAuth
// @Produce json
// @Param q query string false "Name filter (administrators)"
// @Success 200 {array} models.Category
// @Router /categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	sess := currentSession(c)
	query := ""
	activeOnly := sess.Role != models.RoleAdmin
	if !activeOnly {
		query = c.Query("q")
	}
	list, err := h.catalog.List(c.Request.Context(), query, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Create a category
// @Tags categories
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.CreateCategory true "Category"
// @Success 201 {object} models.Category
// @Failure 422 {object} models.ErrorResponse
// @Router /categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var input models.CreateCategory
	if !bindJSON(c, &input) {
		return
	}
	cat, err := h.catalog.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// @Summary Update a category
// @Tags categories
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param input body models.UpdateCategory true "Fields to change"
// @Success 200 {object} models.Category
// @Failure 404 {object} models.ErrorResponse
// @Router /categories/{id} [patch]
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var input models.UpdateCategory
	if !bindJSON(c, &input) {
		return
	}
	cat, err := h.catalog.Update(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// @Summary Delete a category
// @Description Categories referenced by a transaction or an allocation cannot be deleted; deactivate them instead.
// @Tags categories
// @Security ApiKeyAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /categories/{id} [delete]
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
