package core

import (
	"context"
	"fmt"
	"strings"
)

type User struct {
	ID       int
	Username string
	Email    string
}

type UserTx interface {
	GetUser(id int) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByName(username string) (*User, error)
	InsertUser(u *User) error // sets u.ID
}

// Identity is what OJS tells us about a user.
type Identity struct {
	Email    string
	Username string
}

// getOrCreateUser returns the user with the same email address, or creates one.
// Users are never matched by username because equal usernames may be a coincidence. OJS is trusted to have verified the email address.
func getOrCreateUser(tx Tx, id Identity) (*User, error) {
	id.Email = strings.TrimSpace(id.Email)
	if id.Email == "" {
		return nil, fmt.Errorf("%w: missing email", ErrInvalid)
	}
	u, err := tx.GetUserByEmail(id.Email)
	if err == nil {
		return u, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	var base = strings.TrimSpace(id.Username)
	if base == "" {
		base = strings.SplitN(id.Email, "@", 2)[0]
	}
	var username = base
	for counter := 0; ; counter++ {
		_, err := tx.GetUserByName(username)
		if err == ErrNotFound {
			break
		}
		if err != nil {
			return nil, err
		}
		username = fmt.Sprintf("%s%d", base, counter)
	}

	u = &User{Username: username, Email: id.Email}
	return u, tx.InsertUser(u)
}

// GetUserByEmail is used on journal registration.
func (c *CoreDB) GetUserByEmail(ctx context.Context, email string) (u *User, err error) {
	err = c.Update(ctx, func(tx Tx) error {
		u, err = tx.GetUserByEmail(strings.TrimSpace(email))
		return err
	})
	return
}
