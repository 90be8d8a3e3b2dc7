// Package service provides the development backend's business logic,
// delegating persistence to repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/GophMall/internal/models"
	"github.com/atinyakov/GophMall/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError reports unacceptable input; its text is safe to show.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
	UpdateNickname(ctx context.Context, id, nickname string) error
}

// Claims are carried by issued tokens.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service implements authentication and profile operations.
type Service struct {
	repo   UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService constructs a Service signing HS256 tokens with secret
// that live for ttl.
func NewAuthService(repo UserRepository, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Register creates an account and signs it in. Self-service accounts are
// customers or merchants.
func (s *Service) Register(ctx context.Context, username, password, role string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", invalid("username and password are required")
	}
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleMerchant {
		return nil, "", invalid("role %q cannot be self-registered", role)
	}

	u, err := s.CreateUser(ctx, username, password, role, "")
	if err != nil {
		return nil, "", err
	}
	token, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// CreateUser stores a new user with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, role, id string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if id == "" {
		id = uuid.NewString()
	}
	u := models.User{ID: id, Username: username, Role: role, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	u, err := s.repo.UserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issue(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ValidateToken verifies an HS256 token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Profile returns user id.
func (s *Service) Profile(ctx context.Context, id string) (*models.User, error) {
	return s.repo.UserByID(ctx, id)
}

// UpdateProfile changes the nickname of user id.
func (s *Service) UpdateProfile(ctx context.Context, id, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, invalid("nickname must not be empty")
	}
	if err := s.repo.UpdateNickname(ctx, id, nickname); err != nil {
		return nil, err
	}
	return s.repo.UserByID(ctx, id)
}

// SeedUser is a fixture account.
type SeedUser struct {
	ID       string
	Username string
	Password string
	Role     string
}

// DefaultSeedUsers are the accounts the development server starts with.
var DefaultSeedUsers = []SeedUser{
	{ID: "u-customer", Username: "customer", Password: "customer123", Role: models.RoleCustomer},
	{ID: "u-merchant", Username: "merchant", Password: "merchant123", Role: models.RoleMerchant},
	{ID: "u-mall", Username: "mall", Password: "mall123", Role: models.RoleMallAdmin},
}

// Seed creates the given users, skipping those that already exist.
func (s *Service) Seed(ctx context.Context, users []SeedUser) error {
	for _, su := range users {
		_, err := s.CreateUser(ctx, su.Username, su.Password, su.Role, su.ID)
		if err != nil && !errors.Is(err, repository.ErrUserExists) {
			return fmt.Errorf("seed %s: %w", su.Username, err)
		}
	}
	return nil
}

func (s *Service) issue(u *models.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
