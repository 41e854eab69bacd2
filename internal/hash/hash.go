package hash

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor. The salt and cost are encoded in every hash,
// so changing it only affects hashes produced afterwards.
const Cost = 10

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

func HashPassword(password string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", err
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches the stored hash. A malformed
// hash is treated as a mismatch.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
