package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aleex825/budgetwise-backend/internal/logger"
	"github.com/aleex825/budgetwise-backend/internal/models"
	"github.com/aleex825/budgetwise-backend/internal/repositories"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=services

// Password length limits. The upper bound is the bcrypt input limit in bytes.
const (
	MinPasswordLength = 4
	MaxPasswordBytes  = 72
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByUsername(ctx context.Context, username string) (*models.UserDB, error)
	GetByID(ctx context.Context, userID string) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, user models.UserDB) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) (bool, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

// AuthService handles signup, login, password reset and account removal.
type AuthService struct {
	reader     UserReader
	writer     UserWriter
	bcryptCost int
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithBcryptCost overrides the bcrypt cost used for new hashes.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, opts ...AuthOption) *AuthService {
	svc := &AuthService{
		reader:     reader,
		writer:     writer,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizePassword trims a password. Casing is preserved.
func NormalizePassword(password string) string {
	return strings.TrimSpace(password)
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Signup creates a new user.
func (svc *AuthService) Signup(ctx context.Context, username, password string) (*models.UserDB, error) {
	username = NormalizeUsername(username)
	password = NormalizePassword(password)

	if username == "" {
		return nil, ErrEmptyUsername
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to check user exists", "err", err)
		return nil, err
	}
	if existing != nil {
		logger.FromContext(ctx).Warnw("user already exists", "username", username)
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), svc.bcryptCost)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user := models.UserDB{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := svc.writer.Save(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			logger.FromContext(ctx).Warnw("user created concurrently", "username", username)
			return nil, ErrUserAlreadyExists
		}
		logger.FromContext(ctx).Errorw("failed to save user", "err", err)
		return nil, err
	}

	return &user, nil
}

// Login checks the credentials and returns the matching user.
func (svc *AuthService) Login(ctx context.Context, username, password string) (*models.UserDB, error) {
	username = NormalizeUsername(username)
	password = NormalizePassword(password)

	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to get user", "err", err)
		return nil, err
	}
	if user == nil {
		logger.FromContext(ctx).Warnw("user does not exist", "username", username)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.FromContext(ctx).Warnw("invalid credentials", "username", username)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ResetPassword replaces the password of an existing user.
func (svc *AuthService) ResetPassword(ctx context.Context, username, newPassword string) error {
	username = NormalizeUsername(username)
	newPassword = NormalizePassword(newPassword)

	user, err := svc.reader.GetByUsername(ctx, username)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to get user", "err", err)
		return err
	}
	if user == nil {
		logger.FromContext(ctx).Warnw("user does not exist", "username", username)
		return ErrUserNotFound
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), svc.bcryptCost)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to hash password", "err", err)
		return err
	}

	updated, err := svc.writer.UpdatePassword(ctx, user.UserID, string(hash))
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to update password", "userID", user.UserID, "err", err)
		return err
	}
	if !updated {
		return ErrUserNotFound
	}

	return nil
}

// DeleteUser removes a user together with all of its transactions.
func (svc *AuthService) DeleteUser(ctx context.Context, userID string) error {
	deleted, err := svc.writer.Delete(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to delete user", "userID", userID, "err", err)
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}
