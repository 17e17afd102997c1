package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"spendlog/internal/auth"
	"spendlog/internal/core"
	"spendlog/internal/storage"
)

// UserRepository is the persistence the account service needs.
type UserRepository interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	GetUserByID(ctx context.Context, id string) (core.User, error)
	UpdateUserProfile(ctx context.Context, id, name, email string) (core.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      core.User `json:"user"`
}

var errInvalidCredentials = core.Errorf(core.ErrAuthentication, "%s", auth.ErrInvalidCredentials.Error())

// AccountService registers users, issues and checks sessions, and manages
// profiles.
type AccountService struct {
	users       UserRepository
	tokens      *auth.JWTManager
	revocations auth.RevocationStore
}

func NewAccountService(users UserRepository, tokens *auth.JWTManager, revocations auth.RevocationStore) *AccountService {
	if revocations == nil {
		revocations = auth.NewMemoryRevocationStore()
	}
	return &AccountService{users: users, tokens: tokens, revocations: revocations}
}

// Register creates an account. The email must be unused.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (core.User, error) {
	name = core.SanitizeText(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return core.User{}, core.NewValidationError("", "Missing required fields")
	}
	if !validEmail(email) {
		return core.User{}, core.NewValidationError("email", "Invalid email")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return core.User{}, passwordError("password", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}

	u, err := s.users.CreateUser(ctx, core.User{Name: name, Email: email, PasswordHash: hash})
	if errors.Is(err, storage.ErrEmailTaken) {
		return core.User{}, core.NewValidationError("email", "User already exists")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	return u, nil
}

// Authenticate checks credentials and issues a session token. Unknown
// email and wrong password produce the same error.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		auth.BurnPasswordCheck(password)
		return Session{}, errInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("authenticate: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return Session{}, errInvalidCredentials
	}

	token, claims, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return Session{}, err
	}
	slog.InfoContext(ctx, "User signed in", "user_id", u.ID)
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}

// Authorize resolves a token to the identity it was issued for.
func (s *AccountService) Authorize(ctx context.Context, token string) (core.Identity, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return core.Identity{}, core.Errorf(core.ErrAuthentication, "Unauthorized")
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		slog.ErrorContext(ctx, "Revocation lookup failed", "error", err)
		return core.Identity{}, core.Errorf(core.ErrAuthentication, "Unauthorized")
	}
	if revoked {
		return core.Identity{}, core.Errorf(core.ErrAuthentication, "Unauthorized")
	}
	return core.Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the session's token until it would have expired.
func (s *AccountService) SignOut(ctx context.Context, id core.Identity) error {
	if err := s.revocations.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

func (s *AccountService) Profile(ctx context.Context, id core.Identity) (core.User, error) {
	u, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return core.User{}, translateNotFound(err, "User", "get profile")
	}
	return u, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id core.Identity, name, email string) (core.User, error) {
	name = core.SanitizeText(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return core.User{}, core.NewValidationError("", "Name and email are required")
	}
	if !validEmail(email) {
		return core.User{}, core.NewValidationError("email", "Invalid email")
	}

	u, err := s.users.UpdateUserProfile(ctx, id.UserID, name, email)
	if errors.Is(err, storage.ErrEmailTaken) {
		return core.User{}, core.Errorf(core.ErrConflict, "Email already in use")
	}
	if err != nil {
		return core.User{}, translateNotFound(err, "User", "update profile")
	}
	return u, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, id core.Identity, current, next string) error {
	if current == "" || next == "" {
		return core.NewValidationError("", "Missing required fields")
	}
	if err := auth.ValidatePassword(next); err != nil {
		return passwordError("newPassword", err)
	}

	u, err := s.users.GetUserByID(ctx, id.UserID)
	if err != nil {
		return translateNotFound(err, "User", "change password")
	}
	if err := auth.CheckPassword(u.PasswordHash, current); err != nil {
		return core.NewValidationError("currentPassword", "Current password is incorrect")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUserPassword(ctx, u.ID, hash); err != nil {
		return translateNotFound(err, "User", "change password")
	}
	slog.InfoContext(ctx, "Password changed", "user_id", u.ID)
	return nil
}

func passwordError(field string, err error) error {
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return core.NewValidationError(field, "Password must be at most 72 bytes")
	}
	return core.NewValidationError(field, "Password must be at least 8 characters")
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
