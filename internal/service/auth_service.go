package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/folio-labs/folio/internal/apperrors"
	"github.com/folio-labs/folio/internal/model"
	"github.com/folio-labs/folio/internal/repository"
)

const bcryptCost = 10

// Claims carried inside the session token.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService authenticates the admin account and issues session tokens.
type AuthService interface {
	// Login verifies credentials and returns a signed session token. Any
	// mismatch returns apperrors.ErrInvalidCredentials without revealing
	// which part was wrong.
	Login(ctx context.Context, username, password string) (token string, user *model.User, err error)
	// Verify checks signature and expiry. All verification failures return
	// ok=false; err is reserved for infrastructure problems, which callers
	// must not treat as an invalid credential.
	Verify(ctx context.Context, token string) (*Claims, bool)
	// Signup creates the admin account, but only while none exists.
	Signup(ctx context.Context, username, email, password string) (string, *model.User, error)
	// EnsureAdmin idempotently creates the bootstrap admin from config
	// credentials, keyed on username.
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

type authService struct {
	users    repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users repository.UserRepository, secret string, tokenTTL time.Duration) AuthService {
	return &authService{users: users, secret: []byte(secret), tokenTTL: tokenTTL}
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	if username == "" || password == "" {
		return "", nil, apperrors.NewValidation("Username and password are required")
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, apperrors.NewTransient(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	token, err := s.sign(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *authService) Verify(_ context.Context, tokenString string) (*Claims, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (string, *model.User, error) {
	if username == "" || email == "" || password == "" {
		return "", nil, apperrors.NewValidation("Username, email and password are required")
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return "", nil, apperrors.NewTransient(err)
	}
	if count > 0 {
		return "", nil, apperrors.ErrAdminExists
	}
	user, err := s.createAdmin(ctx, username, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.sign(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     model.RoleAdmin,
	}
	if err := s.users.FirstOrCreate(ctx, user); err != nil {
		return apperrors.NewTransient(err)
	}
	return nil
}

func (s *authService) createAdmin(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     model.RoleAdmin,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAdminExists
		}
		return nil, apperrors.NewTransient(err)
	}
	return user, nil
}

func (s *authService) sign(user *model.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
