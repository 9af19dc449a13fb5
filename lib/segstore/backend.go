// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package segstore

import (
	"context"
	"fmt"
)

// Row is one result row. Column indices follow the statement's SELECT
// list.
type Row interface {
	Text(column int) string
	Int64(column int) int64
	Float(column int) float64
}

// Backend executes parameterized statements against a transactional
// row store.
//
// Exec runs statement with args inside a transaction of its own and
// calls rowFunc once per result row (rowFunc may be nil for statements
// without results). It returns nil on commit or the failure that
// aborted the transaction; rowFunc errors abort the statement and are
// returned as is. Implementations must reject arguments other than
// string, int, int64 and float64 (see [CheckArgs]).
type Backend interface {
	Exec(ctx context.Context, statement string, args []any, rowFunc func(Row) error) error
}

// CheckArgs verifies that only text and number arguments cross the
// backend boundary.
func CheckArgs(args []any) error {
	for position, arg := range args {
		switch arg.(type) {
		case string, int, int64, float64:
		default:
			return fmt.Errorf("segstore: argument %d has type %T; only text and numbers reach the backend", position, arg)
		}
	}
	return nil
}
