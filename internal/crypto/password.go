package crypto

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a salted bcrypt hash of the password. A cost of 0 (or
// anything below bcrypt's minimum) selects the library default.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares the password against a stored hash in constant time.
// Malformed hashes report as a mismatch, not a distinct failure.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
