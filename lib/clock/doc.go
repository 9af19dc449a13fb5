// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// The segment store stamps every row it writes with the write time.
// Production code passes Real(); tests pass Fake() so that recorded
// timestamps are deterministic and can be asserted exactly.
//
// # Wiring Pattern
//
// Add a Clock field to structs that read the time:
//
//	type Store struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := &Store{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &Store{clock: c}
//	c.Advance(5 * time.Second)
package clock
