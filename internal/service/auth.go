package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tourbase/tourbase/internal/apperr"
	"github.com/tourbase/tourbase/internal/auth"
	"github.com/tourbase/tourbase/internal/mailer"
	"github.com/tourbase/tourbase/internal/metrics"
	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/repository"
)

const minPasswordLength = 8

// loginFailedMessage is shared by every credential failure so a caller
// cannot tell a missing account from a wrong password.
const loginFailedMessage = "Invalid Email or Password"

// UserStore is the persistence surface the auth flows need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmailWithPassword(ctx context.Context, email string) (*model.User, error)
	GetUserByIDWithPassword(ctx context.Context, id string) (*model.User, error)
	GetUserByResetTicket(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error
	SetResetTicket(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ClearResetTicket(ctx context.Context, id string) error
}

// AuthService handles signup, login, and credential lifecycle.
type AuthService struct {
	store     UserStore
	mailer    mailer.Mailer
	issuer    *auth.TokenIssuer
	metrics   metrics.Recorder
	logger    *slog.Logger
	baseURL   string
	ticketTTL time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, m mailer.Mailer, issuer *auth.TokenIssuer, recorder metrics.Recorder, logger *slog.Logger, baseURL string, ticketTTL time.Duration) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		store:     store,
		mailer:    m,
		issuer:    issuer,
		metrics:   recorder,
		logger:    logger,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		ticketTTL: ticketTTL,
		now:       time.Now,
	}
}

// SignUpInput defines input for creating an account.
type SignUpInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

// SignUp creates a new account and returns the user with a fresh token.
// The role is always the default; privilege comes only from an admin
// edit after the fact.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*model.User, string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, "", apperr.Validation("Please tell us your name")
	}

	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, "", apperr.Validation("Please provide a valid email")
	}

	if err := validateNewPassword(input.Password, input.PasswordConfirm); err != nil {
		return nil, "", err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           newID(),
		Name:         name,
		Email:        email,
		Photo:        "default.jpg",
		Role:         model.RoleUser,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, "", apperr.Conflict("Email already in use")
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	// Welcome mail is best effort; the account exists either way.
	if err := s.mailer.SendWelcome(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "welcome mail failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	token, err := s.issuer.Issue(user.ID, now)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncSignup()
	user.PasswordHash = ""
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email, wrong password, and deactivated account all fail with
// the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	if email == "" || password == "" {
		return nil, "", apperr.BadRequest("Please provide email and password")
	}

	normalized, err := normalizeEmail(email)
	if err != nil {
		s.metrics.IncLoginFailure()
		return nil, "", apperr.Unauthorized(loginFailedMessage)
	}

	user, err := s.store.GetUserByEmailWithPassword(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLoginFailure()
			return nil, "", apperr.Unauthorized(loginFailedMessage)
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	if !user.Active {
		s.metrics.IncLoginFailure()
		return nil, "", apperr.Unauthorized(loginFailedMessage)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLoginFailure()
		return nil, "", apperr.Unauthorized(loginFailedMessage)
	}

	token, err := s.issuer.Issue(user.ID, s.now().UTC())
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLoginSuccess()
	user.PasswordHash = ""
	return user, token, nil
}

// ForgotPassword opens a reset ticket and mails the raw nonce. Only
// the SHA-256 hash of the nonce is stored. If the mail cannot be sent
// the ticket is revoked so the stored hash never outlives a nonce the
// user never received.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return apperr.Validation("Please provide a valid email")
	}

	user, err := s.store.GetUserByEmailWithPassword(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperr.NotFound("There is no user with that email address")
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	// A deactivated account looks exactly like a missing one.
	if !user.Active {
		return apperr.NotFound("There is no user with that email address")
	}

	nonce, err := auth.NewResetNonce()
	if err != nil {
		return fmt.Errorf("failed to generate reset nonce: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.ticketTTL)
	if err := s.store.SetResetTicket(ctx, user.ID, nonce.Hash, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset ticket: %w", err)
	}

	resetURL := mailer.ResetURL(s.baseURL, nonce.Raw)
	if err := s.mailer.SendPasswordReset(ctx, user, resetURL); err != nil {
		if clearErr := s.store.ClearResetTicket(ctx, user.ID); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to revoke reset ticket after mail failure",
				slog.String("user_id", user.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return apperr.Wrap(
			&apperr.Error{Status: 500, Code: "MAIL_ERROR", Message: "There was an error sending the email. Try again later"},
			err,
		)
	}

	return nil
}

// ResetPassword redeems a reset ticket. A successful reset rotates the
// password, clears the ticket, bumps the change watermark, and returns
// a fresh token; every token issued before this moment is dead.
func (s *AuthService) ResetPassword(ctx context.Context, rawNonce, newPassword, newPasswordConfirm string) (*model.User, string, error) {
	if err := validateNewPassword(newPassword, newPasswordConfirm); err != nil {
		return nil, "", err
	}

	now := s.now().UTC()
	user, err := s.store.GetUserByResetTicket(ctx, auth.HashResetNonce(rawNonce), now)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperr.BadRequest("Token is invalid or has expired")
		}
		return nil, "", fmt.Errorf("failed to load user by reset ticket: %w", err)
	}

	// A ticket opened before the account was deactivated must not
	// hand a dead account a live credential.
	if !user.Active {
		return nil, "", apperr.BadRequest("Token is invalid or has expired")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
		return nil, "", fmt.Errorf("failed to update password: %w", err)
	}

	// Issue after the watermark so the new token's iat is not behind it.
	token, err := s.issuer.Issue(user.ID, now.Add(time.Second))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncPasswordReset()
	user.PasswordHash = ""
	return user, token, nil
}

// UpdatePassword rotates the password of a logged-in user after
// re-verifying the current one.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword, newPasswordConfirm string) (*model.User, string, error) {
	if err := validateNewPassword(newPassword, newPasswordConfirm); err != nil {
		return nil, "", err
	}

	user, err := s.store.GetUserByIDWithPassword(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, "", apperr.Unauthorized("User no longer exists")
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := auth.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, "", apperr.Unauthorized("Your current password is wrong")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
		return nil, "", fmt.Errorf("failed to update password: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, now.Add(time.Second))
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	user.PasswordHash = ""
	return user, token, nil
}

// TokenTTL exposes the token lifetime for cookie expiry.
func (s *AuthService) TokenTTL() time.Duration {
	return s.issuer.TTL()
}

func validateNewPassword(password, confirm string) error {
	if len(password) < minPasswordLength {
		return apperr.Validation("Password must be at least 8 characters")
	}
	if password != confirm {
		return apperr.Validation("Passwords are not the same")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(strings.ToLower(email))
	if trimmed == "" {
		return "", errors.New("empty email")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", errors.New("invalid email")
	}
	return trimmed, nil
}

// newID generates a ULID for new entities.
func newID() string {
	return strings.ToLower(ulid.Make().String())
}
