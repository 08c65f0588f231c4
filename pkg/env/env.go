package env

import (
	"os"
	"strings"
)

// Prefix namespaces every variable the services read.
const Prefix = "STOREFRONT_"

// Get resolves key under Prefix first, then the bare name, then fallback.
func Get(key, fallback string) string {
	for _, name := range candidates(key) {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}

func candidates(key string) []string {
	if strings.HasPrefix(key, Prefix) {
		return []string{key, strings.TrimPrefix(key, Prefix)}
	}
	return []string{Prefix + key, key}
}
