package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid email or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

// AuthService resolves credentials to accounts and issues bearer tokens. The
// session engine itself never touches credentials; it trusts the actor id
// the middleware extracts from a token this service signed.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new account creation.
func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, errors.New("name, email, and password cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		// The unique email index closes the race between the existence check
		// and the insert.
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// Login handles authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, errors.New("email and password cannot be empty")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// generateJWT creates a signed token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "workout-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
