package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
	"github.com/nemopss/budgetly/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	handler  *Handler
	recorder *events.Recorder
}

func setupTestHandler(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := &events.Recorder{}
	h := NewHandler(Options{
		Store:     memory.New(),
		Sessions:  session.NewManager("test-secret", time.Hour, nil),
		Publisher: rec,
	})
	return &testServer{router: NewRouter(h, h.logger), handler: h, recorder: rec}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) signUpAndIn(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/users", "", models.SignUpRequest{
		FullName: "Test User", Email: email, Password: "secret1", ConfirmPassword: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/sessions", "", models.SignInRequest{Email: email, Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.SignInResponse](t, w).Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.handler.accounts.CreateAdmin(context.Background(), "Admin", "admin@example.com", "adminpw")
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/admin/sessions", "", models.SignInRequest{Email: "admin@example.com", Password: "adminpw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.SignInResponse](t, w).Token
}

func (s *testServer) createCategory(t *testing.T, adminToken, name string) models.Category {
	t.Helper()
	w := s.do(t, http.MethodPost, "/categories", adminToken, models.CreateCategory{Name: name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Category](t, w)
}

func TestHealth(t *testing.T) {
	s := setupTestHandler(t)

	w := s.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSignUp(t *testing.T) {
	s := setupTestHandler(t)
	s.signUpAndIn(t, "an@example.com")

	t.Run("duplicate email", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/users", "", models.SignUpRequest{
			FullName: "Other", Email: "AN@example.com", Password: "secret1", ConfirmPassword: "secret1",
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "Email already exists.", decode[models.ErrorResponse](t, w).Fields["email"])
	})

	t.Run("invalid input", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/users", "", models.SignUpRequest{
			FullName: "Other", Email: "not-an-email", Password: "123", ConfirmPassword: "321",
		})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		fields := decode[models.ErrorResponse](t, w).Fields
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/users", "", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSignIn(t *testing.T) {
	s := setupTestHandler(t)
	s.signUpAndIn(t, "an@example.com")

	tests := []struct {
		name string
		path string
		in   models.SignInRequest
	}{
		{"wrong password", "/sessions", models.SignInRequest{Email: "an@example.com", Password: "wrong1"}},
		{"unknown email", "/sessions", models.SignInRequest{Email: "nobody@example.com", Password: "secret1"}},
		{"user on admin route", "/admin/sessions", models.SignInRequest{Email: "an@example.com", Password: "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, tt.path, "", tt.in)
			require.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "incorrect email or password", decode[models.ErrorResponse](t, w).Error)
		})
	}
}

func TestGuard(t *testing.T) {
	s := setupTestHandler(t)
	userToken := s.signUpAndIn(t, "an@example.com")
	adminToken := s.adminToken(t)

	t.Run("anonymous user route", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/budgets", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/sign-in", decode[models.ErrorResponse](t, w).SignIn)
	})

	t.Run("anonymous admin route", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/admin/dashboard", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "/admin/sign-in", decode[models.ErrorResponse](t, w).SignIn)
	})

	t.Run("user on admin route", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/admin/dashboard", userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin on user route", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/budgets", adminToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("forged token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/me", "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("signed out token", func(t *testing.T) {
		token := s.signUpAndIn(t, "out@example.com")
		w := s.do(t, http.MethodGet, "/sessions/current", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.RoleUser, decode[models.Session](t, w).Role)

		w = s.do(t, http.MethodDelete, "/sessions/current", token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(t, http.MethodGet, "/sessions/current", token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProfile(t *testing.T) {
	s := setupTestHandler(t)
	token := s.signUpAndIn(t, "an@example.com")

	w := s.do(t, http.MethodPatch, "/me", token, models.UpdateProfileRequest{FullName: "An Nguyen", Phone: "0900000000"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "An Nguyen", decode[models.User](t, w).FullName)

	w = s.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0900000000", decode[models.User](t, w).Phone)

	w = s.do(t, http.MethodPatch, "/me/password", token, models.ChangePasswordRequest{
		OldPassword: "wrong1", NewPassword: "newpass", ConfirmPassword: "newpass",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPatch, "/me/password", token, models.ChangePasswordRequest{
		OldPassword: "secret1", NewPassword: "newpass", ConfirmPassword: "newpass",
	})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/sessions", "", models.SignInRequest{Email: "an@example.com", Password: "newpass"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategories(t *testing.T) {
	s := setupTestHandler(t)
	adminToken := s.adminToken(t)
	userToken := s.signUpAndIn(t, "an@example.com")

	food := s.createCategory(t, adminToken, "Food")
	old := s.createCategory(t, adminToken, "Old")

	off := false
	w := s.do(t, http.MethodPatch, fmt.Sprintf("/categories/%d", old.ID), adminToken, models.UpdateCategory{Status: &off})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/categories", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Category](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, food.ID, list[0].ID)

	w = s.do(t, http.MethodGet, "/categories?q=ol", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[[]models.Category](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, old.ID, list[0].ID)

	t.Run("user cannot create", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/categories", userToken, models.CreateCategory{Name: "Nope"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("in use", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/transactions", userToken, models.CreateTransaction{
			CategoryID: food.ID, Amount: decimal.NewFromInt(100), Month: "2025-09",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = s.do(t, http.MethodDelete, fmt.Sprintf("/categories/%d", food.ID), adminToken, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unused", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, fmt.Sprintf("/categories/%d", old.ID), adminToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(t, http.MethodDelete, fmt.Sprintf("/categories/%d", old.ID), adminToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBudgetFlow(t *testing.T) {
	s := setupTestHandler(t)
	adminToken := s.adminToken(t)
	token := s.signUpAndIn(t, "an@example.com")
	food := s.createCategory(t, adminToken, "Food")

	w := s.do(t, http.MethodPut, "/budgets/2025-09/balance", token, models.SaveBalanceRequest{Balance: ptr(decimal.NewFromInt(5000000))})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))
	ov := decode[models.BudgetOverview](t, w)
	assert.True(t, ov.Remaining.Equal(decimal.NewFromInt(5000000)))

	w = s.do(t, http.MethodPost, "/budgets/2025-09/allocations", token,
		models.AllocationRequest{CategoryID: food.ID, Amount: decimal.NewFromInt(3000000)}, "If-Match", `"1"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `"2"`, w.Header().Get("ETag"))
	ov = decode[models.BudgetOverview](t, w)
	assert.True(t, ov.TotalAllocated.Equal(decimal.NewFromInt(3000000)))
	assert.True(t, ov.Remaining.Equal(decimal.NewFromInt(2000000)))
	assert.Equal(t, "Food", ov.CategoryNames[food.ID])
	require.Len(t, ov.Record.Categories, 1)
	allocation := ov.Record.Categories[0].ID

	t.Run("stale version", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/budgets/2025-09/allocations", token,
			models.AllocationRequest{CategoryID: food.ID, Amount: decimal.NewFromInt(1)}, "If-Match", `"1"`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("month defaults to the saved one", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/budgets", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2025-09", decode[models.BudgetOverview](t, w).Month)
	})

	t.Run("balance override", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/budgets?month=2025-09&balance=2500000", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decode[models.BudgetOverview](t, w).Remaining.Equal(decimal.NewFromInt(0)))
	})

	t.Run("over allocation", func(t *testing.T) {
		w := s.do(t, http.MethodPatch, "/budgets/2025-09/allocations/"+allocation.String(), token,
			models.AllocationAmountRequest{Amount: decimal.NewFromInt(6000000)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		ov := decode[models.BudgetOverview](t, w)
		assert.True(t, ov.Overallocated)
		assert.True(t, ov.Remaining.IsZero())
		assert.Contains(t, s.recorder.Types(), events.Overallocated)
	})

	t.Run("remove", func(t *testing.T) {
		path := "/budgets/2025-09/allocations/" + allocation.String()
		w := s.do(t, http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, decode[models.BudgetOverview](t, w).Record.Categories)

		w = s.do(t, http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid input", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/budgets/2025-13/balance", token, models.SaveBalanceRequest{Balance: ptr(decimal.NewFromInt(1))})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = s.do(t, http.MethodPut, "/budgets/2025-09/balance", token, map[string]any{})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decode[models.ErrorResponse](t, w).Fields, "balance")

		w = s.do(t, http.MethodPatch, "/budgets/2025-09/allocations/nope", token, models.AllocationAmountRequest{Amount: decimal.NewFromInt(1)})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	w = s.do(t, http.MethodGet, "/monthlyCategories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.MonthlyCategory](t, w), 1)
}

func TestTransactions(t *testing.T) {
	s := setupTestHandler(t)
	adminToken := s.adminToken(t)
	token := s.signUpAndIn(t, "an@example.com")
	other := s.signUpAndIn(t, "other@example.com")
	food := s.createCategory(t, adminToken, "Food")

	var ids []int64
	for i := 1; i <= 10; i++ {
		w := s.do(t, http.MethodPost, "/transactions", token, models.CreateTransaction{
			CategoryID: food.ID, Amount: decimal.NewFromInt(int64(i * 1000)), Note: fmt.Sprintf("item %d", i), Month: "2025-09",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		ids = append(ids, decode[models.Transaction](t, w).ID)
	}

	w := s.do(t, http.MethodGet, "/transactions?month=2025-09&sort=desc&page=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[models.TransactionPage](t, w)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Transactions, 2)
	assert.True(t, page.Transactions[1].Amount.Equal(decimal.NewFromInt(1000)))

	w = s.do(t, http.MethodGet, "/transactions?month=2025-09&q=food&page=99", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.TransactionPage](t, w).Page)

	t.Run("invalid query", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/transactions?month=2025-09&sort=sideways", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("duplicate import", func(t *testing.T) {
		in := models.CreateTransaction{CategoryID: food.ID, Amount: decimal.NewFromInt(5), Month: "2025-08", ExternalID: "ofx:1"}
		w := s.do(t, http.MethodPost, "/transactions", token, in)
		require.Equal(t, http.StatusCreated, w.Code)
		first := decode[models.Transaction](t, w)

		w = s.do(t, http.MethodPost, "/transactions", token, in)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, first.ID, decode[models.Transaction](t, w).ID)
	})

	t.Run("missing category", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/transactions", token, map[string]any{"amount": 10})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, decode[models.ErrorResponse](t, w).Fields, "categoryId")
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/transactions/%d", ids[0])

		w := s.do(t, http.MethodDelete, path, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = s.do(t, http.MethodDelete, path, token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = s.do(t, http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdministration(t *testing.T) {
	s := setupTestHandler(t)
	adminToken := s.adminToken(t)
	userToken := s.signUpAndIn(t, "an@example.com")

	w := s.do(t, http.MethodGet, "/users?q=an@", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[[]models.User](t, w)
	require.Len(t, users, 1)
	userID := users[0].ID

	w = s.do(t, http.MethodGet, "/admin/dashboard", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.DashboardStats](t, w).UserCount)

	w = s.do(t, http.MethodPatch, fmt.Sprintf("/users/%d/status", userID), adminToken, map[string]any{"status": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[models.User](t, w).Status)

	w = s.do(t, http.MethodGet, "/me", userToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/sessions", "", models.SignInRequest{Email: "an@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPatch, "/users/999/status", adminToken, map[string]any{"status": true})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func ptr[T any](v T) *T {
	return &v
}
