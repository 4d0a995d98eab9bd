// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package appauth

import "time"

// Clock supplies the current time for expiry calculations.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// expiresAt converts a relative lifetime into an absolute time normalised to
// UTC millisecond precision, so persisted values compare equal after a round trip.
func expiresAt(clock Clock, lifetime time.Duration) *time.Time {
	t := clock.Now().Add(lifetime).UTC().Truncate(time.Millisecond)
	return &t
}

func normalizeTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	n := t.UTC().Truncate(time.Millisecond)
	return &n
}
