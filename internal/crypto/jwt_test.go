package crypto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTRoundtrip(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour)
	require.NoError(t, err)

	token, err := m.CreateToken("user-1", "ana@example.com", "ana")
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "ana@example.com", claims.Email)
	require.Equal(t, "ana", claims.Name)
}

func TestJWTDeterministicKey(t *testing.T) {
	a, err := NewJWTManager("secret", 0)
	require.NoError(t, err)
	b, err := NewJWTManager("secret", 0)
	require.NoError(t, err)
	other, err := NewJWTManager("other", 0)
	require.NoError(t, err)

	token, err := a.CreateToken("u", "", "")
	require.NoError(t, err)

	// Restarting with the same secret keeps old tokens valid.
	_, err = b.VerifyToken(token)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	require.Error(t, err)
}

func TestJWTExpiry(t *testing.T) {
	m, err := NewJWTManager("secret", time.Minute)
	require.NoError(t, err)

	start := time.Now()
	m.now = func() time.Time { return start }
	token, err := m.CreateToken("u", "", "")
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = m.VerifyToken(token)
	require.Error(t, err)
}

func TestJWTRejectsGarbage(t *testing.T) {
	m, err := NewJWTManager("secret", 0)
	require.NoError(t, err)

	token, err := m.CreateToken("u", "", "")
	require.NoError(t, err)

	_, err = m.VerifyToken("not-a-token")
	require.Error(t, err)

	// Flip a byte in the signature.
	tampered := []byte(token)
	i := strings.LastIndexByte(token, '.') + 2
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}
	_, err = m.VerifyToken(string(tampered))
	require.Error(t, err)
}

func TestJWTRequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)
}
