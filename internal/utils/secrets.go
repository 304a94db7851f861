package utils

import (
	"fmt"
	"os"
	"strings"
)

// ReadSecret читает секрет из файла в стандартном пути Docker Secrets.
// Если файла нет, используется переменная окружения fallbackEnv (удобно
// для локального запуска без docker-compose).
func ReadSecret(secretName, fallbackEnv string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	if fallbackEnv != "" {
		if value := strings.TrimSpace(os.Getenv(fallbackEnv)); value != "" {
			return value, nil
		}
	}

	return "", fmt.Errorf("failed to read secret %s (file %s or env %s): %w", secretName, filePath, fallbackEnv, err)
}
