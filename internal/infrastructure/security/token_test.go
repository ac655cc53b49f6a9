package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewTokenIssuer_RejectsWeakSecret(t *testing.T) {
	_, err := NewTokenIssuer("")
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenIssuer("short")
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret)
	require.NoError(t, err)

	acc := &domain.Account{ID: "acc-1", Email: "ada@x.com", Role: domain.RoleSeller}
	issued, err := issuer.Issue(acc)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.ID)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), issued.ExpiresAt, 5*time.Second)

	claims, err := issuer.Parse(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "ada@x.com", claims.Email)
	assert.Equal(t, domain.RoleSeller, claims.Role)
	assert.Equal(t, issued.ID, claims.ID)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret)
	require.NoError(t, err)
	issuer.now = func() time.Time { return time.Now().Add(-4 * time.Hour) }

	issued, err := issuer.Issue(&domain.Account{ID: "acc-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(issued.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenIssuer_RejectsOtherKeyAndAlgorithm(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret)
	require.NoError(t, err)

	other, err := NewTokenIssuer("ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	issued, err := other.Issue(&domain.Account{ID: "acc-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	_, err = issuer.Parse(issued.Token)
	assert.Error(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  "acc-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(unsigned)
	assert.Error(t, err)
}
