// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts reading the current time. Every production function
// that would call time.Now should accept a Clock (or be a method on a
// struct with a Clock field) instead.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// UnixMillis returns t as fractional milliseconds since the Unix epoch,
// the unit segment rows record their write time in.
func UnixMillis(t time.Time) float64 {
	subMillisecond := t.Nanosecond() % int(time.Millisecond)
	return float64(t.UnixMilli()) + float64(subMillisecond)/float64(time.Millisecond)
}
