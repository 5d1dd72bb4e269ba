package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewAccessTokenCarriesIdentityClaims(t *testing.T) {
    at, err := NewAccessToken("test-secret", 7, "admin", "sess-abc", 15)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 5*time.Second)

    tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte("test-secret"), nil
    })
    require.NoError(t, err)
    require.True(t, tok.Valid)

    claims := tok.Claims.(jwt.MapClaims)
    assert.Equal(t, float64(7), claims["sub"])
    assert.Equal(t, "admin", claims["role"])
    assert.Equal(t, "sess-abc", claims["sid"])
}

func TestAccessTokenRejectsWrongSecret(t *testing.T) {
    at, err := NewAccessToken("right-secret", 7, "staff", "sid", 15)
    require.NoError(t, err)

    _, err = jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
        return []byte("wrong-secret"), nil
    })
    assert.Error(t, err)
}

func TestRefreshTokensAreUniqueAndHashStable(t *testing.T) {
    a, err := NewRefreshToken(30)
    require.NoError(t, err)
    b, err := NewRefreshToken(30)
    require.NoError(t, err)

    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Len(t, a.Raw, 96)
    assert.Equal(t, HashTokenRaw(a.Raw), HashTokenRaw(a.Raw))
    assert.NotEqual(t, HashTokenRaw(a.Raw), HashTokenRaw(b.Raw))
}

func TestPasswordHashRoundTrip(t *testing.T) {
    hash, err := HashPassword("hunter2", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "hunter2"))
    assert.False(t, VerifyPassword(hash, "hunter3"))
}
