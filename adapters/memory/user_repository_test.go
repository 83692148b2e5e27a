package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chemviz/internal/errors"
	"chemviz/models"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	user := &models.User{Username: "alice", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, user))
	assert.False(t, user.ID.String() == "")

	err := repo.CreateUser(ctx, &models.User{Username: "alice"})
	assert.Equal(t, apperrors.CodeConflict, apperrors.GetCode(err))

	found, err := repo.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	token, err := repo.GetOrCreateToken(ctx, user.ID, "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", token.Key)

	// the first token sticks
	token, err = repo.GetOrCreateToken(ctx, user.ID, "k2")
	require.NoError(t, err)
	assert.Equal(t, "k1", token.Key)

	owner, err := repo.GetUserByToken(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "alice", owner.Username)

	_, err = repo.GetUserByToken(ctx, "k2")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetCode(err))

	_, err = repo.GetUserByID(ctx, "nope")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.GetCode(err))
}
