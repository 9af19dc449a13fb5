// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcdit/chunkstore/cmd/chunkstore/cli"
	"github.com/mcdit/chunkstore/lib/config"
)

// runResult captures one command invocation.
type runResult struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with args and stdin, against a fresh
// tree so flag values never leak between invocations.
func execute(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := Root(t.Context(), Streams{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	})
	err := root.Execute(args)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustExecute runs a command that is expected to succeed and returns
// its stdout.
func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	result := execute(t, "", args...)
	if result.err != nil {
		t.Fatalf("%v: %v\nstderr: %s", args, result.err, result.stderr)
	}
	return result.stdout
}

// newDatabase returns a --db flag pair for a fresh database and clears
// CHUNKSTORE_CONFIG so the host environment cannot redirect the test.
func newDatabase(t *testing.T) []string {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	return []string{"--db", filepath.Join(t.TempDir(), "values.db")}
}

func with(command string, db []string, args ...string) []string {
	return append(append([]string{command}, db...), args...)
}

func requireExitCode(t *testing.T, err error, want int) {
	t.Helper()
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *cli.ExitError", err)
	}
	if exitErr.Code != want {
		t.Fatalf("exit code = %d, want %d", exitErr.Code, want)
	}
}

func TestSetGetJSON(t *testing.T) {
	db := newDatabase(t)

	mustExecute(t, with("set", db, "settings", `{"theme": "dark", "sizes": [1, 2,],}`)...)
	got := mustExecute(t, with("get", db, "settings")...)

	var value map[string]any
	if err := json.Unmarshal([]byte(got), &value); err != nil {
		t.Fatalf("get output is not JSON: %v\n%s", err, got)
	}
	if value["theme"] != "dark" {
		t.Errorf("theme = %v, want dark", value["theme"])
	}
	if sizes, ok := value["sizes"].([]any); !ok || len(sizes) != 2 {
		t.Errorf("sizes = %v, want [1 2]", value["sizes"])
	}
}

func TestSetString(t *testing.T) {
	db := newDatabase(t)

	mustExecute(t, with("set", db, "--string", "greeting", "not json")...)
	if got := mustExecute(t, with("get", db, "greeting")...); got != "\"not json\"\n" {
		t.Errorf("get = %q, want %q", got, "\"not json\"\n")
	}

	result := execute(t, "", with("set", db, "bad", "not json")...)
	if result.err == nil || !strings.Contains(result.err.Error(), "--string") {
		t.Errorf("set of invalid JSON = %v, want a hint about --string", result.err)
	}
}

func TestSetGetBinary(t *testing.T) {
	db := newDatabase(t)

	mustExecute(t, with("set", db, "--kind", "ui08", "bytes", "AQID")...)

	if got := mustExecute(t, with("get", db, "bytes")...); got != "AQID\n" {
		t.Errorf("get = %q, want AQID", got)
	}
	if got := mustExecute(t, with("get", db, "--raw", "bytes")...); got != "\x01\x02\x03" {
		t.Errorf("get --raw = %q, want 01 02 03", got)
	}

	var result binaryGetResult
	if err := json.Unmarshal([]byte(mustExecute(t, with("get", db, "--json", "bytes")...)), &result); err != nil {
		t.Fatalf("get --json: %v", err)
	}
	if result.Key != "bytes" || result.Kind != "ui08" || result.Base64 != "AQID" {
		t.Errorf("get --json = %+v", result)
	}
}

func TestGetJSONNull(t *testing.T) {
	db := newDatabase(t)

	mustExecute(t, with("set", db, "empty", "null")...)
	if got := mustExecute(t, with("get", db, "empty")...); got != "null\n" {
		t.Errorf("get = %q, want null", got)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(mustExecute(t, with("get", db, "--json", "empty")...)), &result); err != nil {
		t.Fatalf("get --json: %v", err)
	}
	value, present := result["value"]
	if !present {
		t.Fatalf("get --json omitted the value field: %v", result)
	}
	if value != nil || result["kind"] != "json" {
		t.Errorf("get --json = %v, want kind json with a null value", result)
	}
}

func TestSetBinaryElementWidth(t *testing.T) {
	db := newDatabase(t)

	result := execute(t, "", with("set", db, "--kind", "si16", "odd", "AQID")...)
	if result.err == nil {
		t.Fatal("three bytes accepted as si16")
	}
	if got := execute(t, "", with("get", db, "odd")...); got.err == nil {
		t.Error("rejected value was stored")
	}
}

func TestSetBlobFromStdin(t *testing.T) {
	db := newDatabase(t)

	if result := execute(t, "streamed payload", with("set", db, "--kind", "blob", "--file", "-", "backup")...); result.err != nil {
		t.Fatalf("set: %v", result.err)
	}
	if got := mustExecute(t, with("get", db, "--raw", "backup")...); got != "streamed payload" {
		t.Errorf("get --raw = %q", got)
	}
}

func TestSetFromFile(t *testing.T) {
	db := newDatabase(t)
	path := filepath.Join(t.TempDir(), "value.jsonc")
	if err := os.WriteFile(path, []byte("// comment\n[true, null]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	mustExecute(t, with("set", db, "--file", path, "list")...)
	got := mustExecute(t, with("get", db, "list")...)
	if got != "[\n  true,\n  null\n]\n" {
		t.Errorf("get = %q", got)
	}
}

func TestSetArgumentErrors(t *testing.T) {
	db := newDatabase(t)
	for name, args := range map[string][]string{
		"no value":       with("set", db, "key"),
		"value and file": with("set", db, "--file", "x", "key", "1"),
		"unknown kind":   with("set", db, "--kind", "zz99", "key", "1"),
		"string binary":  with("set", db, "--string", "--kind", "ui08", "key", "AQID"),
	} {
		if result := execute(t, "", args...); result.err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestGetMissing(t *testing.T) {
	db := newDatabase(t)

	result := execute(t, "", with("get", db, "absent")...)
	requireExitCode(t, result.err, 1)
	if result.stdout != "" {
		t.Errorf("stdout = %q, want empty", result.stdout)
	}
	if !strings.Contains(result.stderr, "absent: not found") {
		t.Errorf("stderr = %q", result.stderr)
	}
}

func TestKeysLengthKey(t *testing.T) {
	db := newDatabase(t)
	for _, key := range []string{"a", "b", "c"} {
		mustExecute(t, with("set", db, key, "1")...)
	}

	if got := mustExecute(t, with("keys", db)...); got != "a\nb\nc\n" {
		t.Errorf("keys = %q", got)
	}
	if got := mustExecute(t, with("len", db)...); got != "3\n" {
		t.Errorf("len = %q", got)
	}
	if got := mustExecute(t, with("len", db, "--json")...); got != "3\n" {
		t.Errorf("len --json = %q", got)
	}
	if got := mustExecute(t, with("key", db, "1")...); got != "b\n" {
		t.Errorf("key 1 = %q", got)
	}
	requireExitCode(t, execute(t, "", with("key", db, "3")...).err, 1)
	if result := execute(t, "", with("key", db, "one")...); result.err == nil {
		t.Error("non-integer position accepted")
	}

	var keys []string
	if err := json.Unmarshal([]byte(mustExecute(t, with("keys", db, "--json")...)), &keys); err != nil {
		t.Fatalf("keys --json: %v", err)
	}
	if strings.Join(keys, ",") != "a,b,c" {
		t.Errorf("keys --json = %v", keys)
	}
}

func TestRemoveAndClear(t *testing.T) {
	db := newDatabase(t)
	for _, key := range []string{"a", "b", "c"} {
		mustExecute(t, with("set", db, key, `"v"`)...)
	}

	mustExecute(t, with("rm", db, "a", "b", "never-set")...)
	if got := mustExecute(t, with("keys", db)...); got != "c\n" {
		t.Errorf("keys after rm = %q", got)
	}

	if result := execute(t, "", with("clear", db)...); result.err == nil {
		t.Fatal("clear without --yes succeeded")
	}
	if got := mustExecute(t, with("len", db)...); got != "1\n" {
		t.Errorf("len after refused clear = %q", got)
	}

	mustExecute(t, with("clear", db, "--yes")...)
	if got := mustExecute(t, with("len", db)...); got != "0\n" {
		t.Errorf("len after clear = %q", got)
	}
	if got := mustExecute(t, with("keys", db, "--json")...); got != "[]\n" {
		t.Errorf("keys --json on an empty store = %q", got)
	}
}

func TestList(t *testing.T) {
	db := newDatabase(t)
	mustExecute(t, with("set", db, "--kind", "ui08", "bytes", "AQID")...)
	mustExecute(t, with("set", db, "doc", `{"a":1}`)...)

	var entries []listEntry
	if err := json.Unmarshal([]byte(mustExecute(t, with("ls", db, "--json")...)), &entries); err != nil {
		t.Fatalf("ls --json: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ls --json returned %d entries, want 2", len(entries))
	}
	bytesEntry := entries[0]
	if bytesEntry.Key != "bytes" || bytesEntry.Kind != "ui08" || bytesEntry.Size != 3 || bytesEntry.Rows != 1 {
		t.Errorf("bytes entry = %+v", bytesEntry)
	}
	if bytesEntry.EncodedSize != len("__lfsc__:ui08AQID") {
		t.Errorf("EncodedSize = %d", bytesEntry.EncodedSize)
	}
	if len(bytesEntry.Digest) != 64 {
		t.Errorf("Digest = %q, want 64 hex characters", bytesEntry.Digest)
	}
	if entries[1].Kind != "json" || entries[1].Size != len(`{"a":1}`) {
		t.Errorf("doc entry = %+v", entries[1])
	}

	table := mustExecute(t, with("ls", db)...)
	if !strings.HasPrefix(table, "KEY") || !strings.Contains(table, bytesEntry.Digest[:16]) {
		t.Errorf("ls table:\n%s", table)
	}
}

// writeConfig writes a chunkstore.yaml into a temp directory and
// returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	path := filepath.Join(t.TempDir(), "chunkstore.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigChunking(t *testing.T) {
	database := filepath.Join(t.TempDir(), "values.db")
	configPath := writeConfig(t, fmt.Sprintf("database:\n  path: %s\n  table: segments\nchunking:\n  max_bytes: 16\n", database))
	flags := []string{"--config", configPath}

	value := strings.Repeat("abcdefgh", 10)
	mustExecute(t, with("set", flags, "--string", "long", value)...)

	var entries []listEntry
	if err := json.Unmarshal([]byte(mustExecute(t, with("ls", flags, "--json")...)), &entries); err != nil {
		t.Fatalf("ls --json: %v", err)
	}
	// 80 characters plus two quotes, 16 per row.
	if len(entries) != 1 || entries[0].Rows != 6 {
		t.Fatalf("entries = %+v, want one key in 6 rows", entries)
	}
	if got := mustExecute(t, with("get", flags, "long")...); got != fmt.Sprintf("%q\n", value) {
		t.Errorf("get = %q", got)
	}

	// The same database through the default table holds nothing.
	if got := mustExecute(t, "len", "--db", database); got != "0\n" {
		t.Errorf("len of the default table = %q", got)
	}
}

func TestSealedEnvelopeRoundTrip(t *testing.T) {
	directory := t.TempDir()
	identityPath := filepath.Join(directory, "identity.txt")
	t.Setenv(config.EnvironmentVariable, "")

	result := execute(t, "", "keygen", "--output", identityPath)
	if result.err != nil {
		t.Fatalf("keygen: %v", result.err)
	}
	recipient := strings.TrimSpace(strings.TrimPrefix(result.stderr, "Public key:"))
	if !strings.HasPrefix(recipient, "age1") {
		t.Fatalf("keygen stderr = %q", result.stderr)
	}
	info, err := os.Stat(identityPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("identity file mode = %v, want 0600", info.Mode().Perm())
	}

	configPath := writeConfig(t, fmt.Sprintf(`database:
  path: %s
codec:
  format: envelope
  compression: zstd
  recipients: [%s]
  identity_file: %s
`, filepath.Join(directory, "values.db"), recipient, identityPath))
	flags := []string{"--config", configPath}

	mustExecute(t, with("set", flags, "secret", `{"token": "hunter2"}`)...)
	got := mustExecute(t, with("get", flags, "secret")...)
	if !strings.Contains(got, "hunter2") {
		t.Errorf("get = %q", got)
	}

	var entries []listEntry
	if err := json.Unmarshal([]byte(mustExecute(t, with("ls", flags, "--json")...)), &entries); err != nil {
		t.Fatalf("ls --json: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "json" {
		t.Errorf("entries = %+v", entries)
	}

	// Without the identity file the sealed value cannot be opened.
	noIdentity := writeConfig(t, fmt.Sprintf("database:\n  path: %s\n", filepath.Join(directory, "values.db")))
	if result := execute(t, "", "get", "--config", noIdentity, "secret"); result.err == nil {
		t.Error("sealed value decoded without an identity")
	}
}

func TestKeygenStdout(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(mustExecute(t, "keygen")), "\n")
	if len(lines) != 2 {
		t.Fatalf("keygen printed %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "# public key: age1") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "AGE-SECRET-KEY-1") {
		t.Errorf("second line does not hold a secret key")
	}
}

func TestNoDatabase(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	result := execute(t, "", "len")
	if !errors.Is(result.err, errNoDatabase) {
		t.Errorf("error = %v, want errNoDatabase", result.err)
	}
}

func TestInvalidTableFlag(t *testing.T) {
	db := newDatabase(t)
	if result := execute(t, "", with("len", db, "--table", "bad name")...); result.err == nil {
		t.Error("invalid table name accepted")
	}
}

func TestVersion(t *testing.T) {
	if got := mustExecute(t, "version"); !strings.HasPrefix(got, "chunkstore ") {
		t.Errorf("version = %q", got)
	}
}
