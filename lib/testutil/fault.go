// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/mcdit/chunkstore/lib/segstore"
)

// Call is one statement forwarded to (or refused on behalf of) the
// wrapped backend.
type Call struct {
	Statement string
	Args      []any
	Failed    bool
}

// Verb returns the statement's leading keyword in upper case: SELECT,
// DELETE, INSERT.
func (c Call) Verb() string {
	fields := strings.Fields(c.Statement)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// FaultBackend wraps a segstore.Backend and fails selected statements
// without forwarding them. It is safe for concurrent use.
type FaultBackend struct {
	inner segstore.Backend

	mutex sync.Mutex
	calls []Call
	rules []faultRule
}

type faultRule struct {
	match     func(Call) bool
	err       error
	remaining int // <0 means unlimited
}

var _ segstore.Backend = (*FaultBackend)(nil)

// NewFaultBackend wraps inner. With no rules installed every statement
// is forwarded unchanged.
func NewFaultBackend(inner segstore.Backend) *FaultBackend {
	return &FaultBackend{inner: inner}
}

// FailWhen makes every future statement matching match fail with err.
func (f *FaultBackend) FailWhen(match func(Call) bool, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.rules = append(f.rules, faultRule{match: match, err: err, remaining: -1})
}

// FailOnce makes the next statement matching match fail with err.
func (f *FaultBackend) FailOnce(match func(Call) bool, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.rules = append(f.rules, faultRule{match: match, err: err, remaining: 1})
}

// Heal removes every installed rule.
func (f *FaultBackend) Heal() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.rules = nil
}

// Calls returns a copy of the statements seen so far, in order.
func (f *FaultBackend) Calls() []Call {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]Call(nil), f.calls...)
}

// ResetCalls forgets the recorded statements.
func (f *FaultBackend) ResetCalls() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = nil
}

// Exec implements segstore.Backend.
func (f *FaultBackend) Exec(ctx context.Context, statement string, args []any, rowFunc func(segstore.Row) error) error {
	call := Call{Statement: statement, Args: append([]any(nil), args...)}

	f.mutex.Lock()
	var failure error
	for i := range f.rules {
		rule := &f.rules[i]
		if rule.remaining == 0 || !rule.match(call) {
			continue
		}
		if rule.remaining > 0 {
			rule.remaining--
		}
		failure = rule.err
		break
	}
	call.Failed = failure != nil
	f.calls = append(f.calls, call)
	f.mutex.Unlock()

	if failure != nil {
		return failure
	}
	return f.inner.Exec(ctx, statement, args, rowFunc)
}

// InsertOfIndex matches the upsert of segment index.
func InsertOfIndex(index int) func(Call) bool {
	return func(call Call) bool {
		return call.Verb() == "INSERT" && len(call.Args) >= 3 && call.Args[2] == index
	}
}

// VerbIs matches statements starting with verb (case-insensitive).
func VerbIs(verb string) func(Call) bool {
	verb = strings.ToUpper(verb)
	return func(call Call) bool { return call.Verb() == verb }
}
