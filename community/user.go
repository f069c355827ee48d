package community

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// User is an authenticated member of the community. Most accounts are
// provisioned ahead of time and claimed through Discord; admins may
// also carry a local password for bootstrap logins.
type User struct {
	ID        string    `json:"id"`
	DiscordID *string   `json:"discord_id"`
	Username  string    `json:"username"`
	Avatar    *string   `json:"avatar"`
	Role      string    `json:"role"`
	Hash      []byte    `json:"-"`
	IsActive  bool      `json:"is_active"`
	Created   time.Time `json:"created_at"`
	Updated   time.Time `json:"updated_at"`
}

func NewUser(username string, discordID *string, role string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		DiscordID: discordID,
		Username:  username,
		Role:      role,
		IsActive:  true,
		Created:   now,
		Updated:   now,
	}
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// AvatarURL resolves the stored Discord avatar hash to a CDN URL.
// Users without a Discord account or avatar get nil.
func (u *User) AvatarURL() *string {
	if u.DiscordID == nil || u.Avatar == nil || *u.Avatar == "" {
		return nil
	}
	url := "https://cdn.discordapp.com/avatars/" + *u.DiscordID + "/" + *u.Avatar + ".png"
	return &url
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		return err
	}
	u.Hash = hash
	return nil
}

func (u *User) PasswordMatches(input string) (bool, error) {
	if len(u.Hash) == 0 {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword(u.Hash, []byte(input))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			//invalid password
			return false, nil
		default:
			//unknown error
			return false, err
		}
	}

	return true, nil
}
