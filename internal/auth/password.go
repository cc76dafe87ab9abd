// Package auth implements one-way password hashing for stored credentials.
package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for plaintexts bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// MaxPasswordBytes is the longest plaintext accepted by Hash.
const MaxPasswordBytes = 72

// Hasher turns plaintext passwords into salted records and verifies them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches record. A malformed record is a mismatch, and so
	// is a plaintext longer than MaxPasswordBytes.
	Verify(plaintext, record string) bool
	// DummyRecord returns a valid record that matches no real password, used to spend
	// comparable time when there is nothing to verify against.
	DummyRecord() string
}

// BcryptHasher hashes with bcrypt. Each record embeds its own random salt and cost.
type BcryptHasher struct {
	Cost int

	dummyOnce sync.Once
	dummy     string
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost())
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plaintext, record string) bool {
	if record == "" || len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(record), []byte(plaintext)) == nil
}

func (h *BcryptHasher) DummyRecord() string {
	h.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("cloudnotes:no-such-user"), h.cost())
		if err == nil {
			h.dummy = string(hash)
		}
	})
	return h.dummy
}

func (h *BcryptHasher) cost() int {
	if h.Cost < bcrypt.MinCost || h.Cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return h.Cost
}
