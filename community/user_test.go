package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordMatches(t *testing.T) {
	user := NewUser("boss", nil, RoleAdmin)
	require.NoError(t, user.SetPassword("correct horse"))

	ok, err := user.PasswordMatches("correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = user.PasswordMatches("wrong horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordMatchesWithoutHash(t *testing.T) {
	user := NewUser("discord-only", nil, RoleMember)
	ok, err := user.PasswordMatches("anything")
	require.NoError(t, err)
	assert.False(t, ok, "accounts without a password never match")
}

func TestAvatarURL(t *testing.T) {
	discordID := "123456"
	hash := "abcdef"

	user := NewUser("alice", &discordID, RoleMember)
	assert.Nil(t, user.AvatarURL(), "no avatar hash, no URL")

	user.Avatar = &hash
	url := user.AvatarURL()
	require.NotNil(t, url)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/123456/abcdef.png", *url)

	local := NewUser("boss", nil, RoleAdmin)
	local.Avatar = &hash
	assert.Nil(t, local.AvatarURL(), "local accounts have no Discord CDN avatar")
}
