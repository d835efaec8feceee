package security

import "github.com/alexedwards/argon2id"

// HashSecret derives a salted argon2id digest from a plaintext secret.
// Equality is only ever checked digest-side via CheckSecret.
func HashSecret(secret string) (string, error) {
	return argon2id.CreateHash(secret, argon2id.DefaultParams)
}

func CheckSecret(digest, secret string) (bool, error) {
	return argon2id.ComparePasswordAndHash(secret, digest)
}
