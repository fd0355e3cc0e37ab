package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash for storage. A cost outside the
// range bcrypt supports falls back to the library default rather than
// failing account creation.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a candidate password against the stored hash.
// A nil return means the password matches.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
