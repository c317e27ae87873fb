package database

import (
	"context"
	"testing"

	"tripseat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrUpdateUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &models.User{Username: "rami", FullName: "Rami", Phone: "+963933333333"}
	require.NoError(t, db.CreateOrUpdateUser(ctx, u))
	require.NotZero(t, u.ID)
	firstID := u.ID

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "rami", got.Username)
	assert.False(t, got.IsManager)

	// same username updates in place
	again := &models.User{Username: "rami", FullName: "Rami K.", IsManager: true}
	require.NoError(t, db.CreateOrUpdateUser(ctx, again))
	assert.Equal(t, firstID, again.ID)

	got, err = db.GetUserByUsername(ctx, "rami")
	require.NoError(t, err)
	assert.Equal(t, "Rami K.", got.FullName)
	assert.True(t, got.IsManager)
}

func TestGetUserNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
