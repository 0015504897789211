package service

import "golang.org/x/crypto/bcrypt"

// HashPassword genera un hash bcrypt salado del plaintext.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compara plaintext contra un hash bcrypt. Devuelve false ante
// un hash malformado, nunca panic ni error.
func CheckPassword(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
