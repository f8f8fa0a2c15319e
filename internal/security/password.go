package security

import "golang.org/x/crypto/bcrypt"

// bcrypt only looks at the first 72 bytes of input. We truncate explicitly
// on both hash and verify so oversized passwords behave deterministically
// instead of erroring.
const maxPasswordBytes = 72

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// Fail closed: any error, including a malformed stored hash, reads as
// "does not match".
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(plain)) == nil
}
