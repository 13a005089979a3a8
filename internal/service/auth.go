package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mihribandursun/sentiment-analysis/internal/models"
	"github.com/mihribandursun/sentiment-analysis/internal/repository"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	// Login returns a signed JWT and its expiration time.
	Login(ctx context.Context, email, password string) (string, time.Time, error)
	ParseToken(tokenString string) (models.Identity, error)
}

type authService struct {
	repo   repository.AuthRepository
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

func NewAuthService(repo repository.AuthRepository, jwtSecret string, ttl time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		repo:   repo,
		secret: []byte(jwtSecret),
		ttl:    ttl,
		logger: logger,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, ErrUsernameRequired
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	usernameTaken, emailTaken, err := s.repo.FindConflicts(ctx, username, email)
	if err != nil {
		s.logger.Error("Failed to check existing users", zap.Error(err))
		return nil, fmt.Errorf("failed to check existing users: %w", err)
	}
	if emailTaken {
		return nil, ErrEmailTaken
	}
	if usernameTaken {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		// A concurrent registration can slip past FindConflicts; the unique
		// constraint catches it.
		if u, e, checkErr := s.repo.FindConflicts(ctx, username, email); checkErr == nil && (u || e) {
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		s.logger.Error("Failed to get user by email", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to retrieve user: %w", err)
	}

	ok, err := verifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.Int64("user_id", user.ID), zap.Error(err))
		return "", time.Time{}, ErrInvalidCredentials
	}
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	expirationTime := now.Add(s.ttl)
	claims := &models.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to generate JWT token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return tokenString, expirationTime, nil
}

func (s *authService) ParseToken(tokenString string) (models.Identity, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, ErrTokenExpired
		}
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	identity := models.Identity{UserID: claims.UserID, Username: claims.Username}
	if !identity.Valid() {
		return models.Identity{}, ErrInvalidToken
	}
	return identity, nil
}
