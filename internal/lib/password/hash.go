// Package password хеширует и проверяет пароли пользователей с помощью bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength минимальная длина пароля.
const MinLength = 8

// GetHash возвращает bcrypt‑хэш пароля для хранения в базе.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// CompareHash возвращает nil, если пароль соответствует хэшу.
func CompareHash(hash, password string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
