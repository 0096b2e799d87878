package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DemoUsers are the fixed accounts the Auth service accepts.
var DemoUsers = map[string]string{
	"user":    "pass",
	"alice":   "wonderland",
	"bob":     "builder",
	"charlie": "chocolate",
}

// Users checks credentials against bcrypt hashes held in memory.
type Users struct {
	hashes map[string][]byte
}

// NewUsers hashes every plaintext password in accounts with the given cost.
func NewUsers(accounts map[string]string, cost int) (*Users, error) {
	u := &Users{hashes: make(map[string][]byte, len(accounts))}
	for name, password := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", name, err)
		}
		u.hashes[name] = hash
	}
	return u, nil
}

// Check reports whether password belongs to username.
func (u *Users) Check(username, password string) bool {
	hash, ok := u.hashes[username]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
