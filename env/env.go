// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package env

//go:generate mockgen -copyright_file=../.github/license-header.txt -source=env.go -destination=mocks/mock_reader.go -package=mocks Reader

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Reader defines an interface for environment variable access
type Reader interface {
	Getenv(key string) string
}

// OSReader implements Reader using the standard os package
type OSReader struct{}

// Getenv returns the value of the environment variable named by the key
func (*OSReader) Getenv(key string) string {
	return os.Getenv(key)
}

// MapReader implements Reader over a fixed set of values.
type MapReader map[string]string

// Getenv returns the value stored under key, or "" when absent.
func (m MapReader) Getenv(key string) string {
	return m[key]
}

// Bool reads key as a boolean. Unset values return def; values that do not
// parse as a boolean are reported as an error.
func Bool(r Reader, key string, def bool) (bool, error) {
	raw := r.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("%s: invalid boolean %q: %w", key, raw, err)
	}
	return v, nil
}

// Duration reads key as a time.Duration ("15s", "1m"). Unset values return def.
func Duration(r Reader, key string, def time.Duration) (time.Duration, error) {
	raw := r.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if v < 0 {
		return def, fmt.Errorf("%s: duration must not be negative", key)
	}
	return v, nil
}
