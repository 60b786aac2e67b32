package auth

import (
	"testing"
	"time"

	"freestate-servicedelivery/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testUser() *models.User {
	return &models.User{
		ID:           primitive.NewObjectID(),
		Name:         "Alice Johnson",
		Email:        "alice@email.com",
		Role:         models.RoleResident,
		Municipality: "Mangaung Metropolitan Municipality",
		Ward:         1,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	user := testUser()

	token, err := manager.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, models.RoleResident, claims.Role)
	assert.Equal(t, user.Municipality, claims.Municipality)
	assert.Equal(t, 1, claims.Ward)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-one", time.Hour).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTManager("secret-two", time.Hour).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := NewJWTManager("test-secret", -time.Minute).GenerateToken(testUser())
	require.NoError(t, err)

	_, err = NewJWTManager("test-secret", -time.Minute).ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateGarbageToken(t *testing.T) {
	_, err := NewJWTManager("test-secret", time.Hour).ValidateToken("not.a.token")
	assert.Error(t, err)
}
