package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor for password hashing. Raising it slows both
// registration and login; existing hashes keep the cost they were made with.
const BcryptCost = 10

// HashPassword returns a salted one-way hash of the password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether the password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
