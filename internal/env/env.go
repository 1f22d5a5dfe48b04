// Package env reads typed values from the environment with defaults.
package env

import (
	"net/url"
	"os"
	"strconv"
	"time"
)

func String(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}

	return val
}

func Int(key string, def int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return def
	}

	return val
}

func Duration(key string, def time.Duration) time.Duration {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return def
	}

	return val
}

// URL returns def when the variable is unset, empty or not a valid absolute URL.
func URL(key string, def *url.URL) *url.URL {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}

	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return def
	}

	return parsed
}
