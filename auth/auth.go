package auth

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
)

const (
	hashLength = 32
	saltLength = 16
	passes     = 2
	memoryKiB  = 1 << 16 // 64 MiB
	threads    = 1
)

// Hash derives an Argon2id digest for password with a freshly generated
// random salt. It returns apperr.KDFError if the random source fails.
func Hash(password string) (hash, salt []byte, err error) {
	salt = make([]byte, saltLength)
	if _, readErr := rand.Read(salt); readErr != nil {
		return nil, nil, apperr.Wrap(apperr.KDFError, "generate salt", readErr)
	}
	hash = argon2.IDKey([]byte(password), salt, passes, memoryKiB, threads, hashLength)
	return hash, salt, nil
}

// Verify reports whether password, hashed with salt under the same Argon2id
// parameters, matches want. The comparison runs in constant time.
func Verify(password string, salt, want []byte) bool {
	got := argon2.IDKey([]byte(password), salt, passes, memoryKiB, threads, hashLength)
	return subtle.ConstantTimeCompare(got, want) == 1
}
