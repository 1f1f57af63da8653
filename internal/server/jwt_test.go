package server

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsilveira/shopfloor/internal/config"
	"github.com/rsilveira/shopfloor/internal/db"
)

func testJWTService(secret string) *JWTService {
	return NewJWTService(&config.JWTConfig{Secret: secret, ExpirationHours: 1})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := testJWTService("test-secret")
	operatorID := uuid.New()

	token, err := svc.GenerateToken(operatorID, db.RoleOperator)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorID, claims.OperatorID)
	assert.Equal(t, db.RoleOperator, claims.Role)

	identity := claims.GetIdentity()
	assert.Equal(t, operatorID, identity.ID)
	assert.Equal(t, db.RoleOperator, identity.Role)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := testJWTService("secret-a").GenerateToken(uuid.New(), db.RoleAdmin)
	require.NoError(t, err)

	_, err = testJWTService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := testJWTService("test-secret")

	_, err := svc.ValidateToken("")
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestTokenValidatorAdapter(t *testing.T) {
	svc := testJWTService("test-secret")
	operatorID := uuid.New()

	token, err := svc.GenerateToken(operatorID, db.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorID, claims.GetIdentity().ID)
	assert.Equal(t, db.RoleAdmin, claims.GetIdentity().Role)
}
