// Package account covers sign-up, sign-in, self-service profile changes and the admin
// user list.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/events"
	"github.com/nemopss/budgetly/logging"
	"github.com/nemopss/budgetly/models"
	"github.com/nemopss/budgetly/session"
	"github.com/nemopss/budgetly/store"
	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	store     store.UserStore
	sessions  *session.Manager
	publisher events.Publisher
	logger    *logging.Logger
	cost      int

	// compare is bcrypt.CompareHashAndPassword; SignIn calls it exactly once per attempt.
	compare   func(hash, password []byte) error
	dummyOnce sync.Once
	dummy     []byte
}

func NewService(st store.UserStore, sessions *session.Manager, p events.Publisher, logger *logging.Logger) *Service {
	if p == nil {
		p = events.Noop{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		store:     st,
		sessions:  sessions,
		publisher: p,
		logger:    logger.WithComponent(logging.ComponentAccount),
		cost:      bcrypt.DefaultCost,
		compare:   bcrypt.CompareHashAndPassword,
	}
}

func (s *Service) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// SignUp registers an active end user.
func (s *Service) SignUp(ctx context.Context, in models.SignUpRequest) (*models.User, error) {
	if err := validateSignUp(in); err != nil {
		return nil, err
	}
	return s.create(ctx, strings.TrimSpace(in.FullName), in.Email, in.Password, models.RoleUser)
}

// CreateAdmin registers an administrator. There is no HTTP route for it.
func (s *Service) CreateAdmin(ctx context.Context, fullName, email, password string) (*models.User, error) {
	v := &common.ValidationError{}
	checkEmail(v, normalizeEmail(email))
	checkNewPassword(v, "password", password, password)
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return s.create(ctx, strings.TrimSpace(fullName), email, password, models.RoleAdmin)
}

func (s *Service) create(ctx context.Context, fullName, email, password string, role models.Role) (*models.User, error) {
	email = normalizeEmail(email)

	// The unique index catches a concurrent sign-up; this lookup gives the usual case a field error.
	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, common.NewValidationError("email", "Email already exists.")
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		FullName: fullName,
		Email:    email,
		Password: hash,
		Phone:    "",
		Gender:   true,
		Status:   true,
		Role:     role,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return nil, common.NewValidationError("email", "Email already exists.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User signed up", logging.FieldUserID, u.ID, "role", role)
	s.publish(ctx, events.New(events.UserSignedUp, u.ID, "", map[string]any{"role": role}))
	return u, nil
}

// dummyHash is compared against when there is no usable account, so failed sign-ins take as
// long as a wrong password.
func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("budgetly-no-such-account"), s.cost)
	})
	return s.dummy
}

// SignIn checks credentials for role and opens a session. Unknown email, wrong role, blocked
// account and wrong password all yield common.ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, in models.SignInRequest, role models.Role) (*models.SignInResponse, error) {
	if err := validateSignIn(in); err != nil {
		return nil, err
	}

	u, err := s.store.FindUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	usable := err == nil && u.Role == role && u.Active()
	hash := s.dummyHash()
	if usable {
		hash = []byte(u.Password)
	}
	if s.compare(hash, []byte(in.Password)) != nil || !usable {
		return nil, common.ErrInvalidCredentials
	}

	token, sess, err := s.sessions.Open(*u)
	if err != nil {
		return nil, err
	}
	return &models.SignInResponse{Token: token, Session: sess.Public()}, nil
}

func (s *Service) SignOut(sess *session.Session) {
	s.sessions.Close(sess.ID)
}

// Me reloads the signed-in user from the store.
func (s *Service) Me(ctx context.Context, sess *session.Session) (*models.User, error) {
	u, err := s.store.GetUser(ctx, sess.User.ID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, sess *session.Session, in models.UpdateProfileRequest) (*models.User, error) {
	if err := validateProfile(in); err != nil {
		return nil, err
	}
	u, err := s.Me(ctx, sess)
	if err != nil {
		return nil, err
	}
	u.FullName = strings.TrimSpace(in.FullName)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Gender = in.Gender
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.sessions.RefreshUser(*u)
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, sess *session.Session, in models.ChangePasswordRequest) error {
	v := &common.ValidationError{}
	if in.OldPassword == "" {
		v.Add("oldPassword", "Please enter your current password.")
	}
	checkNewPassword(v, "newPassword", in.NewPassword, in.ConfirmPassword)
	if err := v.OrNil(); err != nil {
		return err
	}

	u, err := s.Me(ctx, sess)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(in.OldPassword)) != nil {
		return common.NewValidationError("oldPassword", "Current password is incorrect.")
	}

	hash, err := s.hash(in.NewPassword)
	if err != nil {
		return err
	}
	u.Password = hash
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// ListUsers filters by name or email substring (query) and exact email, both optional.
func (s *Service) ListUsers(ctx context.Context, query, email string) ([]models.User, error) {
	all, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	email = normalizeEmail(email)

	out := make([]models.User, 0, len(all))
	for _, u := range all {
		if email != "" && !strings.EqualFold(u.Email, email) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(u.FullName), query) &&
			!strings.Contains(strings.ToLower(u.Email), query) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// SetStatus activates or blocks a user. Blocking ends the user's open sessions.
func (s *Service) SetStatus(ctx context.Context, actor *session.Session, id int64, active bool) (*models.User, error) {
	if actor != nil && actor.User.ID == id && !active {
		return nil, fmt.Errorf("block own account: %w", common.ErrForbidden)
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.Status = active
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}

	if !active {
		s.sessions.CloseUser(id)
	} else {
		s.sessions.RefreshUser(*u)
	}
	s.logger.InfoContext(ctx, "User status changed", logging.FieldUserID, id, "active", active)
	s.publish(ctx, events.New(events.UserStatusChanged, id, "", map[string]any{"status": active}))
	return u, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", logging.FieldEvent, e.Type, logging.FieldError, err)
	}
}
