package security

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cwrk-planet/kcd-platform/internal/errs"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type BcryptConfig struct {
	Cost      int // по умолчанию bcrypt.DefaultCost
	MinLength int // по умолчанию 6
}

func HashPassword(plain string, cfg *BcryptConfig) (string, error) {
	minLen := 6
	cost := bcrypt.DefaultCost

	if cfg != nil {
		if cfg.MinLength > 0 {
			minLen = cfg.MinLength
		}
		if cfg.Cost > 0 {
			cost = cfg.Cost
		}
	}

	if len(plain) < minLen {
		return "", errs.ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// ComparePassword понимает bcrypt и старые хеши формата $argon2id$v=19$m=..,t=..,p=..$salt$hash
func ComparePassword(hash, plain string) error {
	if strings.HasPrefix(hash, "$argon2id$") {
		return compareArgon2id(hash, plain)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return errs.ErrInvalidCredentials
	}
	return nil
}

func compareArgon2id(encoded, plain string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return errs.ErrInvalidCredentials
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return errs.ErrInvalidCredentials
	}
	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return errs.ErrInvalidCredentials
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return errs.ErrInvalidCredentials
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return errs.ErrInvalidCredentials
	}

	got := argon2.IDKey([]byte(plain), salt, iterations, memory, threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return errs.ErrInvalidCredentials
	}
	return nil
}
