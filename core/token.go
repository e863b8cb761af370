package core

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// loginClaims identify a local user. Tokens are signed with a key derived from the journal key, so they are only
// valid for revisions of that journal.
type loginClaims struct {
	JournalID int `json:"jid"`
	jwt.RegisteredClaims
}

func (c *CoreDB) tokenKey(journal *Journal) ([]byte, error) {
	var key = make([]byte, 32)
	var r = hkdf.New(sha256.New, []byte(journal.OJSKey), []byte(c.Secret), []byte("ojsbridge login token"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (c *CoreDB) issueToken(journal *Journal, user *User) (string, error) {
	key, err := c.tokenKey(journal)
	if err != nil {
		return "", err
	}
	var now = c.now()
	var claims = loginClaims{
		JournalID: journal.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// verifyToken returns the user id from a login token.
func (c *CoreDB) verifyToken(journal *Journal, token string) (int, error) {
	key, err := c.tokenKey(journal)
	if err != nil {
		return 0, err
	}
	var claims = &loginClaims{}
	_, err = jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (interface{}, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	if claims.JournalID != journal.ID {
		return 0, ErrAuthentication
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrAuthentication)
	}
	return userID, nil
}
