package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_PublicStripsSecrets(t *testing.T) {
	token := "refresh"
	u := &User{
		ID:           "u-1",
		Username:     "ada",
		Email:        "ada@x.com",
		Fullname:     "Ada L",
		AvatarURL:    "https://cdn/avatar.png",
		PasswordHash: "$2a$10$hash",
		RefreshToken: &token,
		CreatedAt:    time.Unix(100, 0).UTC(),
	}

	b, err := json.Marshal(u.Public())
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))

	assert.Equal(t, "ada", out["username"])
	assert.Equal(t, "https://cdn/avatar.png", out["avatar"])
	for _, k := range []string{"password", "passwordHash", "PasswordHash", "refreshToken", "RefreshToken"} {
		_, ok := out[k]
		assert.False(t, ok, "secret field %q leaked", k)
	}
	assert.NotContains(t, string(b), "$2a$10$hash")
	assert.NotContains(t, string(b), "refresh\"")
}

func TestUser_PublicNil(t *testing.T) {
	var u *User
	assert.Nil(t, u.Public())
}
