package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/nemopss/budgetly/docs"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func NewRouter(h *Handler, logger *logging.Logger) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(logger))

	r.GET("/healthz", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.POST("/users", h.SignUp)
	r.POST("/sessions", h.SignIn)
	r.POST("/admin/sessions", h.AdminSignIn)

	anyone := r.Group("/", h.Guard())
	{
		anyone.GET("/sessions/current", h.CurrentSession)
		anyone.DELETE("/sessions/current", h.SignOut)
	}

	browse := r.Group("/", h.Guard(models.RoleUser, models.RoleAdmin))
	browse.GET("/categories", h.ListCategories)

	user := r.Group("/", h.Guard(models.RoleUser))
	{
		user.GET("/me", h.Me)
		user.PATCH("/me", h.UpdateProfile)
		user.PATCH("/me/password", h.ChangePassword)

		user.GET("/budgets", h.GetBudget)
		user.GET("/monthlyCategories", h.ListMonthlyCategories)
		user.PUT("/budgets/:month/balance", h.SaveBalance)
		user.POST("/budgets/:month/allocations", h.UpsertAllocation)
		user.PATCH("/budgets/:month/allocations/:allocationId", h.UpdateAllocation)
		user.DELETE("/budgets/:month/allocations/:allocationId", h.RemoveAllocation)

		user.GET("/transactions", h.ListTransactions)
		user.POST("/transactions", h.CreateTransaction)
		user.DELETE("/transactions/:id", h.DeleteTransaction)
	}

	admin := r.Group("/", h.Guard(models.RoleAdmin))
	{
		admin.POST("/categories", h.CreateCategory)
		admin.PATCH("/categories/:id", h.UpdateCategory)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.GET("/users", h.ListUsers)
		admin.PATCH("/users/:id/status", h.SetUserStatus)
		admin.GET("/admin/dashboard", h.Dashboard)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "route not found"})
	})

	return r
}
