package password

import "golang.org/x/crypto/bcrypt"

// HashSecret hashea el secreto de un cliente con bcrypt.
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmpty
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret compara un secreto contra su hash bcrypt.
func VerifySecret(secret, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
