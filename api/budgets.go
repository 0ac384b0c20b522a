package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
)

func (h *Handler) respondOverview(c *gin.Context, o *models.BudgetOverview) {
	if o.Record != nil {
		setVersion(c, o.Record.Version)
	}
	c.JSON(http.StatusOK, o)
}

func allocationID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("allocationId"))
	if err != nil {
		return uuid.Nil, common.NewValidationError("allocationId", "invalid allocationId")
	}
	return id, nil
}

// @Summary Month budget overview
// @Description The month defaults to the one last saved in this session, then to the current month.
// @Tags budgets
// @Security ApiKeyAuth
// @Produce json
// @Param month query string false "YYYY-MM"
// @Param balance query number false "Unsaved balance to compute against"
// @Success 200 {object} models.BudgetOverview
// @Failure 422 {object} models.ErrorResponse
// @Router /budgets [get]
func (h *Handler) GetBudget(c *gin.Context) {
	sess := currentSession(c)
	override, err := optionalDecimal(c, "balance")
	if err != nil {
		respondError(c, err)
		return
	}
	o, err := h.budget.Overview(c.Request.Context(), sess.User.ID, selectedMonth(c, sess), override)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOverview(c, o)
}

// @Summary Own monthly budget records
// @Tags budgets
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} models.MonthlyCategory
// @Router /monthlyCategories [get]
func (h *Handler) ListMonthlyCategories(c *gin.Context) {
	records, err := h.budget.Records(c.Request.Context(), currentSession(c).User.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// @Summary Save the month balance
// @Tags budgets
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param month path string true "YYYY-MM"
// @Param If-Match header string false "Record version the change is based on"
// @Param input body models.SaveBalanceRequest true "Balance"
// @Success 200 {object} models.BudgetOverview
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /budgets/{month}/balance [put]
func (h *Handler) SaveBalance(c *gin.Context) {
	version, err := ifMatch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var input models.SaveBalanceRequest
	if !bindJSON(c, &input) {
		return
	}
	o, err := h.budget.SaveBalance(c.Request.Context(), currentSession(c), c.Param("month"), *input.Balance, version)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOverview(c, o)
}

// @Summary Allocate budget to a category
// @Description Adds an allocation, or replaces the amount when the category already has one.
// @Tags budgets
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param month path string true "YYYY-MM"
// @Param If-Match header string false "Record version the change is based on"
// @Param input body models.AllocationRequest true "Allocation"
// @Success 200 {object} models.BudgetOverview
// @Failure 409 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /budgets/{month}/allocations [post]
func (h *Handler) UpsertAllocation(c *gin.Context) {
	version, err := ifMatch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var input models.AllocationRequest
	if !bindJSON(c, &input) {
		return
	}
	o, err := h.budget.UpsertAllocation(c.Request.Context(), currentSession(c).User.ID, c.Param("month"),
		input.CategoryID, input.Amount, version)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOverview(c, o)
}

// @Summary Change an allocation amount
// @Tags budgets
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param month path string true "YYYY-MM"
// @Param allocationId path string true "Allocation ID"
// @Param If-Match header string false "Record version the change is based on"
// @Param input body models.AllocationAmountRequest true "Amount"
// @Success 200 {object} models.BudgetOverview
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /budgets/{month}/allocations/{allocationId} [patch]
func (h *Handler) UpdateAllocation(c *gin.Context) {
	version, err := ifMatch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := allocationID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var input models.AllocationAmountRequest
	if !bindJSON(c, &input) {
		return
	}
	o, err := h.budget.UpdateAllocationAmount(c.Request.Context(), currentSession(c).User.ID, c.Param("month"),
		id, input.Amount, version)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOverview(c, o)
}

// @Summary Remove an allocation
// @Tags budgets
// @Security ApiKeyAuth
// @Produce json
// @Param month path string true "YYYY-MM"
// @Param allocationId path string true "Allocation ID"
// @Param If-Match header string false "Record version the change is based on"
// @Success 200 {object} models.BudgetOverview
// @Failure 404 {object} models.ErrorResponse
// @Router /budgets/{month}/allocations/{allocationId} [delete]
func (h *Handler) RemoveAllocation(c *gin.Context) {
	version, err := ifMatch(c)
	if err != nil {
		respondError(c, err)
		return
	}
	id, err := allocationID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	o, err := h.budget.RemoveAllocation(c.Request.Context(), currentSession(c).User.ID, c.Param("month"), id, version)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOverview(c, o)
}
