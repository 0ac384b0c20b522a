package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
	"github.com/nemopss/budgetly/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService() (*Service, *memory.Store, *session.Manager, *events.Recorder) {
	st := memory.New()
	sessions := session.NewManager("secret", time.Hour, nil)
	rec := &events.Recorder{}
	svc := NewService(st, sessions, rec, nil)
	svc.cost = bcrypt.MinCost
	return svc, st, sessions, rec
}

func signUp(t *testing.T, svc *Service, email, password string) *models.User {
	t.Helper()
	u, err := svc.SignUp(context.Background(), models.SignUpRequest{
		FullName: "An", Email: email, Password: password, ConfirmPassword: password,
	})
	require.NoError(t, err)
	return u
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var v *common.ValidationError
	require.True(t, errors.As(err, &v), "expected validation error, got %v", err)
	return v.Fields
}

func TestSignUp(t *testing.T) {
	svc, st, _, rec := newTestService()

	u := signUp(t, svc, " An@Example.com ", "secret1")
	assert.Equal(t, "an@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.Status)
	assert.True(t, u.Gender)
	assert.Empty(t, u.Phone)
	assert.NotEqual(t, "secret1", u.Password)

	stored, err := st.FindUserByEmail(context.Background(), "an@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))
	assert.Equal(t, []string{events.UserSignedUp}, rec.Types())
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		in    models.SignUpRequest
		field string
		msg   string
	}{
		{"empty email", models.SignUpRequest{Password: "secret1", ConfirmPassword: "secret1"}, "email", "Please enter your email."},
		{"bad email", models.SignUpRequest{Email: "an@example", Password: "secret1", ConfirmPassword: "secret1"}, "email", "Email is not in correct format."},
		{"short password", models.SignUpRequest{Email: "an@example.com", Password: "12345", ConfirmPassword: "12345"}, "password", "Password must be at least 6 characters."},
		{"no confirmation", models.SignUpRequest{Email: "an@example.com", Password: "secret1"}, "confirmPassword", "Please confirm your password."},
		{"mismatch", models.SignUpRequest{Email: "an@example.com", Password: "secret1", ConfirmPassword: "secret2"}, "confirmPassword", "Passwords do not match."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.in)
			assert.Equal(t, tt.msg, fields(t, err)[tt.field])
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService()
	signUp(t, svc, "an@example.com", "secret1")

	_, err := svc.SignUp(context.Background(), models.SignUpRequest{
		Email: "AN@example.com", Password: "secret2", ConfirmPassword: "secret2",
	})
	assert.Equal(t, "Email already exists.", fields(t, err)["email"])
}

func TestSignIn(t *testing.T) {
	svc, _, sessions, _ := newTestService()
	u := signUp(t, svc, "an@example.com", "secret1")

	resp, err := svc.SignIn(context.Background(), models.SignInRequest{Email: "AN@example.com", Password: "secret1"}, models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.Session.User.ID)
	assert.Equal(t, models.RoleUser, resp.Session.Role)

	sess, err := sessions.Resolve(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, session.AuthenticatedUser, session.StateOf(sess))
}

// Every credential failure looks the same and opens no session.
func TestSignInIsGeneric(t *testing.T) {
	svc, st, sessions, _ := newTestService()
	ctx := context.Background()
	signUp(t, svc, "an@example.com", "secret1")
	blocked := signUp(t, svc, "blocked@example.com", "secret1")
	blocked.Status = false
	require.NoError(t, st.UpdateUser(ctx, blocked))
	_, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)

	cases := []struct {
		name string
		in   models.SignInRequest
		role models.Role
	}{
		{"wrong password", models.SignInRequest{Email: "an@example.com", Password: "wrong!"}, models.RoleUser},
		{"unknown email", models.SignInRequest{Email: "nobody@example.com", Password: "secret1"}, models.RoleUser},
		{"blocked", models.SignInRequest{Email: "blocked@example.com", Password: "secret1"}, models.RoleUser},
		{"user at admin door", models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleAdmin},
		{"admin at user door", models.SignInRequest{Email: "root@example.com", Password: "rootpass"}, models.RoleUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SignIn(ctx, tc.in, tc.role)
			assert.ErrorIs(t, err, common.ErrInvalidCredentials)
			assert.Equal(t, "incorrect email or password", err.Error())
		})
	}
	assert.Zero(t, sessions.Len())

	resp, err := svc.SignIn(ctx, models.SignInRequest{Email: "root@example.com", Password: "rootpass"}, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Session.Role)
}

func TestSignInAlwaysComparesPassword(t *testing.T) {
	svc, st, _, _ := newTestService()
	ctx := context.Background()
	signUp(t, svc, "an@example.com", "secret1")
	blocked := signUp(t, svc, "blocked@example.com", "secret1")
	blocked.Status = false
	require.NoError(t, st.UpdateUser(ctx, blocked))

	compared := 0
	svc.compare = func(hash, password []byte) error {
		compared++
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	cases := []struct {
		name string
		in   models.SignInRequest
		role models.Role
	}{
		{"unknown email", models.SignInRequest{Email: "nobody@example.com", Password: "secret1"}, models.RoleUser},
		{"wrong role", models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleAdmin},
		{"blocked", models.SignInRequest{Email: "blocked@example.com", Password: "secret1"}, models.RoleUser},
		{"wrong password", models.SignInRequest{Email: "an@example.com", Password: "wrong!"}, models.RoleUser},
		{"success", models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleUser},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compared = 0
			_, _ = svc.SignIn(ctx, tc.in, tc.role)
			assert.Equal(t, 1, compared, "one bcrypt comparison per attempt")
		})
	}
}

func TestSignInValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.SignIn(context.Background(), models.SignInRequest{}, models.RoleUser)
	f := fields(t, err)
	assert.Contains(t, f, "email")
	assert.Contains(t, f, "password")
}

func TestProfileAndPassword(t *testing.T) {
	svc, _, sessions, _ := newTestService()
	ctx := context.Background()
	signUp(t, svc, "an@example.com", "secret1")
	resp, err := svc.SignIn(ctx, models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleUser)
	require.NoError(t, err)
	sess, err := sessions.Resolve(resp.Token)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, sess, models.UpdateProfileRequest{FullName: " ", Phone: ""})
	f := fields(t, err)
	assert.Contains(t, f, "fullName")
	assert.Contains(t, f, "phone")

	u, err := svc.UpdateProfile(ctx, sess, models.UpdateProfileRequest{FullName: "An Nguyen", Phone: "0901234567", Gender: false})
	require.NoError(t, err)
	assert.Equal(t, "An Nguyen", u.FullName)
	assert.False(t, u.Gender)

	refreshed, err := sessions.Resolve(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "An Nguyen", refreshed.User.FullName)

	err = svc.ChangePassword(ctx, sess, models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "secret9", ConfirmPassword: "secret9"})
	assert.Equal(t, "Current password is incorrect.", fields(t, err)["oldPassword"])

	err = svc.ChangePassword(ctx, sess, models.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "123", ConfirmPassword: "124"})
	f = fields(t, err)
	assert.Contains(t, f, "newPassword")
	assert.Contains(t, f, "confirmPassword")

	require.NoError(t, svc.ChangePassword(ctx, sess, models.ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret9", ConfirmPassword: "secret9"}))
	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleUser)
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "an@example.com", Password: "secret9"}, models.RoleUser)
	assert.NoError(t, err)
}

func TestAdminUsers(t *testing.T) {
	svc, _, sessions, rec := newTestService()
	ctx := context.Background()
	an := signUp(t, svc, "an@example.com", "secret1")
	signUp(t, svc, "binh@example.com", "secret1")
	admin, err := svc.CreateAdmin(ctx, "Root", "root@example.com", "rootpass")
	require.NoError(t, err)

	users, err := svc.ListUsers(ctx, "BINH", "")
	require.NoError(t, err)
	require.Len(t, users, 1)

	users, err = svc.ListUsers(ctx, "", "AN@example.com")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, an.ID, users[0].ID)

	resp, err := svc.SignIn(ctx, models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleUser)
	require.NoError(t, err)
	adminResp, err := svc.SignIn(ctx, models.SignInRequest{Email: "root@example.com", Password: "rootpass"}, models.RoleAdmin)
	require.NoError(t, err)
	adminSess, err := sessions.Resolve(adminResp.Token)
	require.NoError(t, err)

	blocked, err := svc.SetStatus(ctx, adminSess, an.ID, false)
	require.NoError(t, err)
	assert.False(t, blocked.Status)

	_, err = sessions.Resolve(resp.Token)
	assert.ErrorIs(t, err, session.ErrNoSession, "blocking ends open sessions")

	_, err = svc.SetStatus(ctx, adminSess, admin.ID, false)
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = svc.SetStatus(ctx, adminSess, 9999, true)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.SetStatus(ctx, adminSess, an.ID, true)
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "an@example.com", Password: "secret1"}, models.RoleUser)
	assert.NoError(t, err)

	assert.Contains(t, rec.Types(), events.UserStatusChanged)
}
