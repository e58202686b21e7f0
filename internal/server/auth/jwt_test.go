package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/useraccounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	ti, err := NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 240*time.Hour)
	require.NoError(t, err)
	return ti
}

func TestNewTokenIssuer_RejectsEmptySecrets(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("", "r", time.Hour, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer("a", "", time.Hour, time.Hour)
	assert.Error(t, err)
	_, err = NewTokenIssuer("a", "r", 0, time.Hour)
	assert.Error(t, err)
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()
	ti := newIssuer(t)

	access, err := ti.IssueAccessToken("user-123")
	require.NoError(t, err)

	claims, err := ti.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSecretsAreNotInterchangeable(t *testing.T) {
	t.Parallel()
	ti := newIssuer(t)

	refresh, err := ti.IssueRefreshToken("u1")
	require.NoError(t, err)

	_, err = ti.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	claims, err := ti.VerifyRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
}

func TestTokensMintedTogetherDiffer(t *testing.T) {
	t.Parallel()
	ti := newIssuer(t)
	fixed := time.Now()
	ti.now = func() time.Time { return fixed }

	a, err := ti.IssueRefreshToken("u1")
	require.NoError(t, err)
	b, err := ti.IssueRefreshToken("u1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("u1", secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = Verify(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u2", []byte("right-secret"), time.Hour, time.Now())
	require.NoError(t, err)

	_, err = Verify(tok, []byte("wrong-secret"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Verify("not-a-jwt", []byte("k"))
	assert.ErrorIs(t, err, common.ErrMalformedToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u1",
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = Verify(s, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestVerify_RequiresUserID(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("", secret, time.Hour, time.Now())
	require.NoError(t, err)

	_, err = Verify(tok, secret)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestClaims_UserIDJSONName(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("u1", []byte("s"), time.Hour, time.Now())
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"userId":"u1"`)
}
