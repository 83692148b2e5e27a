package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"chemviz/internal"
	"chemviz/internal/errors"
	"chemviz/models"
	"chemviz/ports"
)

// tokenBytes is the entropy of an API token; keys are its hex encoding
const tokenBytes = 20

// RegisterRequest is the input to account registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the input to login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthService registers users, issues tokens and resolves Authorization headers
type AuthService struct {
	users    ports.UserRepository
	validate *validator.Validate
	logger   *internal.Logger
}

// NewAuthService creates an auth service backed by users
func NewAuthService(users ports.UserRepository, logger *internal.Logger) *AuthService {
	return &AuthService{
		users:    users,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register creates an account and its token
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, validationMessage(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{Username: req.Username, Email: req.Email, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("user", user.Username).Info("user registered")
	return &AuthResult{Token: token.Key, Username: user.Username, Email: user.Email}, nil
}

// Login verifies credentials and returns the user's token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, validationMessage(err))
	}

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("Invalid username or password.")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.Unauthorized("Invalid username or password.")
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token.Key, Username: user.Username, Email: user.Email}, nil
}

// Authenticate resolves an "Authorization: Token <key>" header to its user
func (s *AuthService) Authenticate(ctx context.Context, header string) (*models.User, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !strings.EqualFold(parts[0], "token") {
		return nil, errors.Unauthorized("Authentication credentials were not provided.")
	}
	if len(parts) == 1 {
		return nil, errors.Unauthorized("Invalid token header. No credentials provided.")
	}
	if len(parts) > 2 {
		return nil, errors.Unauthorized("Invalid token header. Token string should not contain spaces.")
	}

	return s.users.GetUserByToken(ctx, parts[1])
}

func (s *AuthService) issueToken(ctx context.Context, user *models.User) (*models.AuthToken, error) {
	key, err := NewTokenKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate token")
	}
	return s.users.GetOrCreateToken(ctx, user.ID, key)
}

// NewTokenKey returns 40 hex characters of crypto randomness
func NewTokenKey() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// validationMessage turns validator errors into a client-facing sentence
func validationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return errors.ValidationError(field + ": This field is required.")
	case "min":
		return errors.ValidationError(field + ": Ensure this field has at least " + fe.Param() + " characters.")
	case "max":
		return errors.ValidationError(field + ": Ensure this field has no more than " + fe.Param() + " characters.")
	case "email":
		return errors.ValidationError(field + ": Enter a valid email address.")
	default:
		return errors.ValidationError(field + ": Invalid value.")
	}
}
