package utils

import (
	"crypto/subtle"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"

	"github.com/cate-nduta/Lash-Business-sub009/config"
)

func init() {
	config.LoadEnv()
}

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Println("WARNING: JWT_SECRET environment variable not set.")
		return []byte("default-insecure-secret-only-for-development")
	}
	return []byte(secret)
}

// HashAdminPIN derives an argon2id digest of the admin console PIN.
func HashAdminPIN(pin string) string {
	salt := []byte(os.Getenv("ADMIN_PIN_SALT"))
	if len(salt) == 0 {
		salt = []byte("lash-admin-pin-salt")
	}
	hashed := argon2.IDKey([]byte(pin), salt, 1, 64*1024, 4, 32)
	return fmt.Sprintf("%x", hashed)
}

// VerifyAdminPIN compares a presented PIN against the configured digest in
// constant time.
func VerifyAdminPIN(pin string) bool {
	expected := os.Getenv("ADMIN_PIN_HASH")
	if expected == "" {
		return false
	}
	actual := HashAdminPIN(pin)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}
