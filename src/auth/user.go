package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/argon2"
)

type PasswordHash struct {
	Hash    []byte `json:"hash"`
	Salt    []byte `json:"salt"`
	Method  string `json:"method"`  // "argon2id"
	Time    uint32 `json:"time"`    // time parameter for Argon2
	Memory  uint32 `json:"memory"`  // memory parameter in KiB
	Threads uint8  `json:"threads"` // threads parameter
	KeyLen  uint32 `json:"keylen"`  // length of the hash in bytes
}

type User struct {
	ID           string
	Username     string
	PasswordHash PasswordHash
	CreatedAt    time.Time
}

// Params are the Argon2id cost parameters used for new hashes.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// DefaultParams follow the OWASP recommendation for Argon2id.
var DefaultParams = Params{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32}

// HashPassword derives an Argon2id hash with a fresh random salt.
func HashPassword(password string, p Params) (PasswordHash, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return PasswordHash{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return PasswordHash{
		Hash:    hash,
		Salt:    salt,
		Method:  "argon2id",
		Time:    p.Time,
		Memory:  p.Memory,
		Threads: p.Threads,
		KeyLen:  p.KeyLen,
	}, nil
}

// Matches re-derives the hash for password with the stored parameters and
// compares in constant time.
func (h PasswordHash) Matches(password string) bool {
	hash := argon2.IDKey([]byte(password), h.Salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return subtle.ConstantTimeCompare(hash, h.Hash) == 1
}
