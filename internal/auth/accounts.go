package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is a sign-in identity with a bcrypt password hash.
type Account struct {
	Email        string
	PasswordHash string
	Role         Role
}

// Accounts is the fixed set of identities allowed to sign in.
type Accounts struct {
	byEmail map[string]Account
	order   []string
}

// NewAccounts builds the account set. The account whose email matches
// ownerEmail is the owner; every other account is staff.
func NewAccounts(ownerEmail string, creds []Account) (*Accounts, error) {
	a := &Accounts{byEmail: make(map[string]Account)}
	owner := normalize(ownerEmail)
	for _, c := range creds {
		email := normalize(c.Email)
		if email == "" || c.PasswordHash == "" {
			continue
		}
		if _, dup := a.byEmail[email]; dup {
			return nil, fmt.Errorf("duplicate account %s", email)
		}
		if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
			return nil, fmt.Errorf("account %s: password hash is not bcrypt: %w", email, err)
		}
		role := RoleStaff
		if email == owner {
			role = RoleOwner
		}
		a.byEmail[email] = Account{Email: email, PasswordHash: c.PasswordHash, Role: role}
		a.order = append(a.order, email)
	}
	return a, nil
}

// Lookup finds the account to check for a sign-in attempt. An empty email
// selects the first configured account of the requested role.
func (a *Accounts) Lookup(role Role, email string) (Account, bool) {
	if email = normalize(email); email != "" {
		acc, ok := a.byEmail[email]
		return acc, ok
	}
	for _, e := range a.order {
		if acc := a.byEmail[e]; acc.Role == role {
			return acc, true
		}
	}
	return Account{}, false
}

func (a *Accounts) Len() int { return len(a.order) }

// HashPassword returns a bcrypt hash suitable for the account env vars.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
