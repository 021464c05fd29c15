package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSecretsDir стандартный путь Docker Secrets.
const DefaultSecretsDir = "/run/secrets"

// ErrSecretNotFound возвращается, если файл секрета отсутствует.
var ErrSecretNotFound = errors.New("secret not found")

// ReadSecretFrom читает секрет из файла <dir>/<secretName>.
func ReadSecretFrom(dir, secretName string) (string, error) {
	filePath := filepath.Join(dir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrSecretNotFound, filePath)
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// secretOrEnv читает секрет из файла, а при его отсутствии берет значение
// из переменной окружения envKey. Пустой результат не считается ошибкой.
func secretOrEnv(dir, secretName, envKey string) (string, error) {
	secret, err := ReadSecretFrom(dir, secretName)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, ErrSecretNotFound) {
		return "", err
	}
	return strings.TrimSpace(os.Getenv(envKey)), nil
}
