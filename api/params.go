package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
	"github.com/shopspring/decimal"
)

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError(name, "invalid "+name)
	}
	return id, nil
}

// ifMatch reads the record version a write is based on. A missing header disables the check.
func ifMatch(c *gin.Context) (int64, error) {
	raw := strings.Trim(strings.TrimPrefix(c.GetHeader("If-Match"), "W/"), `"`)
	if raw == "" || raw == "*" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, common.NewValidationError("If-Match", "invalid record version")
	}
	return v, nil
}

func setVersion(c *gin.Context, version int64) {
	if version > 0 {
		c.Header("ETag", `"`+strconv.FormatInt(version, 10)+`"`)
	}
}

// selectedMonth falls back to the month the session last saved, then the current month.
func selectedMonth(c *gin.Context, sess *session.Session) string {
	if m := c.Query("month"); m != "" {
		return m
	}
	if sess.LastSelectedMonth != "" {
		return sess.LastSelectedMonth
	}
	return models.MonthOf(time.Now())
}

func optionalDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, common.NewValidationError(name, name+" must be a number")
	}
	return &d, nil
}
