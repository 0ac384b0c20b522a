package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/ledger"
	"github.com/nemopss/budgetly/models"
)

// @Summary List a month of transactions
// @Tags transactions
// @Security ApiKeyAuth
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the session's selected month"
// @Param q query string false "Matches note or category name"
// @Param sort query string false "none, asc or desc by amount"
// @Param page query int false "1-based page, clamped to the last page"
// @Success 200 {object} models.TransactionPage
// @Failure 422 {object} models.ErrorResponse
// @Router /transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	sess := currentSession(c)

	order, err := ledger.ParseOrder(c.Query("sort"))
	if err != nil {
		respondError(c, common.NewValidationError("sort", err.Error()))
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			respondError(c, common.NewValidationError("page", "page must be a number"))
			return
		}
	}

	view, err := h.ledger.Open(c.Request.Context(), sess.User.ID, selectedMonth(c, sess))
	if err != nil {
		respondError(c, err)
		return
	}
	view.SetQuery(c.Query("q"))
	view.SetOrder(order)
	view.SetPage(page)
	c.JSON(http.StatusOK, view.Page())
}

// @Summary Record a transaction
// @Tags transactions
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body models.CreateTransaction true "Transaction"
// @Success 201 {object} models.Transaction
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /transactions [post]
func (h *Handler) CreateTransaction(c *gin.Context) {
	var input models.CreateTransaction
	if !bindJSON(c, &input) {
		return
	}
	tx, err := h.ledger.Record(c.Request.Context(), currentSession(c).User.ID, input)
	if errors.Is(err, common.ErrDuplicate) && tx != nil {
		c.JSON(http.StatusOK, tx)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// @Summary Delete a transaction
// @Tags transactions
// @Security ApiKeyAuth
// @Param id path int true "Transaction ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /transactions/{id} [delete]
func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.ledger.Delete(c.Request.Context(), currentSession(c).User.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
