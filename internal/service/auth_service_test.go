package service

import (
	"context"
	"testing"

	"repflow/workout-app/internal/domain"
	"repflow/workout-app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	rows map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{rows: make(map[primitive.ObjectID]domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, row := range r.rows {
		if row.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = nextTime()
	r.rows[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, row := range r.rows {
		if row.Email == email {
			row := row
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret", 0)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alex", "Alex@Example.com ", "hunter2-long")
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", user.Email)
	assert.Empty(t, user.PasswordHash, "hash must never leave the service")

	token, logged, err := svc.Login(ctx, "alex@example.com", "hunter2-long")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Empty(t, logged.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "workout-app", claims.Issuer)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret", 0)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2-long")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "ALEX@example.com", "different-pass")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, "test-secret", 0)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alex", "alex@example.com", "hunter2-long")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alex@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter2-long")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
