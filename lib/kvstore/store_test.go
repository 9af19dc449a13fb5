// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/mcdit/chunkstore/lib/chunk"
	"github.com/mcdit/chunkstore/lib/clock"
	"github.com/mcdit/chunkstore/lib/kvstore"
	"github.com/mcdit/chunkstore/lib/segstore"
	"github.com/mcdit/chunkstore/lib/sqlitebackend"
	"github.com/mcdit/chunkstore/lib/testutil"
	"github.com/mcdit/chunkstore/lib/valuecodec"
)

type row struct {
	index   int
	payload string
}

type harness struct {
	store   *kvstore.Store
	backend *sqlitebackend.Backend
	fault   *testutil.FaultBackend
}

type option func(*kvstore.Config)

func withChunkSize(size int) option {
	return func(cfg *kvstore.Config) { cfg.ChunkSize = size }
}

func withCodec(codec *valuecodec.Codec) option {
	return func(cfg *kvstore.Config) { cfg.Codec = codec }
}

func newHarness(t *testing.T, options ...option) *harness {
	t.Helper()
	backend, err := sqlitebackend.Open(sqlitebackend.Config{Path: testutil.DatabasePath(t)})
	if err != nil {
		t.Fatalf("sqlitebackend.Open: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	fault := testutil.NewFaultBackend(backend)
	cfg := kvstore.Config{
		Backend: fault,
		Clock:   clock.Fake(time.UnixMilli(1_700_000_000_000)),
	}
	for _, apply := range options {
		apply(&cfg)
	}
	store, err := kvstore.New(cfg)
	if err != nil {
		t.Fatalf("kvstore.New: %v", err)
	}
	return &harness{store: store, backend: backend, fault: fault}
}

// rows returns the physical rows of key straight from the table.
func (h *harness) rows(t *testing.T, key string) []row {
	t.Helper()
	var rows []row
	err := h.backend.Exec(context.Background(),
		`SELECT part_index, payload FROM keyvaluepairs WHERE "key" = ? ORDER BY part_index`,
		[]any{key},
		func(r segstore.Row) error {
			rows = append(rows, row{index: int(r.Int64(0)), payload: r.Text(1)})
			return nil
		})
	if err != nil {
		t.Fatalf("reading rows of %q: %v", key, err)
	}
	return rows
}

func (h *harness) totalRows(t *testing.T) int {
	t.Helper()
	var count int
	err := h.backend.Exec(context.Background(), `SELECT COUNT(*) FROM keyvaluepairs`, nil,
		func(r segstore.Row) error {
			count = int(r.Int64(0))
			return nil
		})
	if err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return count
}

func (h *harness) set(t *testing.T, key string, value any) {
	t.Helper()
	if err := h.store.Set(context.Background(), key, value); err != nil {
		t.Fatalf("Set(%q): %v", key, err)
	}
}

func (h *harness) get(t *testing.T, key string) any {
	t.Helper()
	value, err := h.store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	return value
}

func TestUint8ArrayStoredAsSingleTaggedRow(t *testing.T) {
	h := newHarness(t)
	h.set(t, "bytes", valuecodec.Uint8Array{1, 2, 3})

	rows := h.rows(t, "bytes")
	want := []row{{index: -1, payload: "__lfsc__:ui08AQID"}}
	if !slices.Equal(rows, want) {
		t.Fatalf("rows = %+v, want %+v", rows, want)
	}

	got := h.get(t, "bytes")
	if !reflect.DeepEqual(got, valuecodec.Uint8Array{1, 2, 3}) {
		t.Fatalf("Get = %#v, want Uint8Array{1, 2, 3}", got)
	}
}

func TestOneMebibyteSplitsIntoFourRows(t *testing.T) {
	h := newHarness(t)
	// The JSON quotes bring the encoded text to exactly 1 MiB.
	value := strings.Repeat("m", 1<<20-2)
	h.set(t, "large", value)

	rows := h.rows(t, "large")
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	for i, r := range rows {
		if r.index != i {
			t.Errorf("rows[%d].index = %d", i, r.index)
		}
		if len(r.payload) != chunk.DefaultMaxBytes {
			t.Errorf("rows[%d] payload is %d bytes, want %d", i, len(r.payload), chunk.DefaultMaxBytes)
		}
	}
	if got := h.get(t, "large"); got != value {
		t.Fatal("Get returned a different string than was stored")
	}
}

func TestChunkBoundary(t *testing.T) {
	const chunkSize = 64
	tests := []struct {
		name     string
		encoded  int
		wantRows []int
	}{
		{"one under", chunkSize - 1, []int{-1}},
		{"exact", chunkSize, []int{-1}},
		{"one over", chunkSize + 1, []int{0, 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newHarness(t, withChunkSize(chunkSize))
			value := strings.Repeat("b", test.encoded-2)
			h.set(t, "k", value)

			var indexes []int
			for _, r := range h.rows(t, "k") {
				indexes = append(indexes, r.index)
			}
			if !slices.Equal(indexes, test.wantRows) {
				t.Fatalf("indexes = %v, want %v", indexes, test.wantRows)
			}
			if got := h.get(t, "k"); got != value {
				t.Fatalf("Get = %q, want %q", got, value)
			}
		})
	}
}

func TestLengthCountsLogicalKeys(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "chunked", strings.Repeat("c", 60)) // 62 encoded bytes, 4 rows
	h.set(t, "plain", 7)

	if rows := h.totalRows(t); rows != 5 {
		t.Fatalf("physical rows = %d, want 5", rows)
	}
	length, err := h.store.Length(context.Background())
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if length != 2 {
		t.Fatalf("Length = %d, want 2", length)
	}
}

func TestOverwriteReplacesGeneration(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "k", strings.Repeat("o", 100))
	h.set(t, "k", "short")

	rows := h.rows(t, "k")
	want := []row{{index: -1, payload: `"short"`}}
	if !slices.Equal(rows, want) {
		t.Fatalf("rows after overwrite = %+v, want %+v", rows, want)
	}
	if got := h.get(t, "k"); got != "short" {
		t.Fatalf("Get = %v, want short", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	h := newHarness(t)
	_, err := h.store.Get(context.Background(), "absent")
	if !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("Get(absent) = %v, want ErrNotFound", err)
	}
	var target map[string]any
	if err := h.store.GetInto(context.Background(), "absent", &target); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("GetInto(absent) = %v, want ErrNotFound", err)
	}
}

func TestNilIsNotMissing(t *testing.T) {
	h := newHarness(t)
	h.set(t, "nothing", nil)

	value, err := h.store.Get(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != nil {
		t.Fatalf("Get = %#v, want nil", value)
	}
	if rows := h.rows(t, "nothing"); len(rows) != 1 || rows[0].payload != "null" {
		t.Fatalf("rows = %+v, want one null row", rows)
	}
}

func TestValueShapesRoundTrip(t *testing.T) {
	blob := valuecodec.BlobOf([]byte("blob body"))
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "hello", "hello"},
		{"number", 42, float64(42)},
		{"bool", true, true},
		{"object", map[string]any{"a": []any{1, "two"}}, map[string]any{"a": []any{float64(1), "two"}}},
		{"array buffer", []byte{0, 1, 254, 255}, []byte{0, 1, 254, 255}},
		{"int8", []int8{-128, 0, 127}, []int8{-128, 0, 127}},
		{"clamped", valuecodec.Uint8ClampedArray{0, 255}, valuecodec.Uint8ClampedArray{0, 255}},
		{"int16", []int16{-1, 1000}, []int16{-1, 1000}},
		{"uint16", []uint16{65535}, []uint16{65535}},
		{"int32", []int32{-70000}, []int32{-70000}},
		{"uint32", []uint32{4000000000}, []uint32{4000000000}},
		{"float32", []float32{1.5, -2.25}, []float32{1.5, -2.25}},
		{"float64", []float64{3.141592653589793}, []float64{3.141592653589793}},
		{"marker lookalike", "__lfsc__:", "__lfsc__:"},
	}
	envelope, err := valuecodec.New(valuecodec.Options{
		Format:           valuecodec.FormatEnvelope,
		Compression:      valuecodec.CompressionLZ4,
		CompressMinBytes: 8,
	})
	if err != nil {
		t.Fatalf("valuecodec.New: %v", err)
	}

	for _, codec := range []*valuecodec.Codec{valuecodec.Default(), envelope} {
		t.Run(string(codec.Format()), func(t *testing.T) {
			h := newHarness(t, withCodec(codec), withChunkSize(8))
			for _, test := range tests {
				h.set(t, test.name, test.value)
				if got := h.get(t, test.name); !reflect.DeepEqual(got, test.want) {
					t.Errorf("%s: Get = %#v, want %#v", test.name, got, test.want)
				}
			}

			h.set(t, "blob", blob)
			got, ok := h.get(t, "blob").(*valuecodec.Blob)
			if !ok {
				t.Fatalf("blob: Get returned %T", h.get(t, "blob"))
			}
			data, err := got.Bytes(context.Background())
			if err != nil {
				t.Fatalf("Blob.Bytes: %v", err)
			}
			if string(data) != "blob body" {
				t.Errorf("blob: Bytes = %q", data)
			}
		})
	}
}

func TestGetInto(t *testing.T) {
	h := newHarness(t)
	type settings struct {
		Theme string `json:"theme"`
		Size  int    `json:"size"`
	}
	h.set(t, "settings", settings{Theme: "dark", Size: 12})
	h.set(t, "samples", []int16{1, -2, 3})

	var decoded settings
	if err := h.store.GetInto(context.Background(), "settings", &decoded); err != nil {
		t.Fatalf("GetInto(settings): %v", err)
	}
	if decoded != (settings{Theme: "dark", Size: 12}) {
		t.Errorf("settings = %+v", decoded)
	}

	var samples []int16
	if err := h.store.GetInto(context.Background(), "samples", &samples); err != nil {
		t.Fatalf("GetInto(samples): %v", err)
	}
	if !slices.Equal(samples, []int16{1, -2, 3}) {
		t.Errorf("samples = %v", samples)
	}

	var wrong []float32
	if err := h.store.GetInto(context.Background(), "samples", &wrong); err == nil {
		t.Error("GetInto into a mismatched slice type succeeded")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "k", strings.Repeat("r", 50))

	for i := range 2 {
		if err := h.store.Remove(context.Background(), "k"); err != nil {
			t.Fatalf("Remove #%d: %v", i+1, err)
		}
		if rows := h.rows(t, "k"); len(rows) != 0 {
			t.Fatalf("rows after Remove #%d = %+v", i+1, rows)
		}
	}
	if _, err := h.store.Get(context.Background(), "k"); !errors.Is(err, kvstore.ErrNotFound) {
		t.Fatalf("Get after Remove = %v, want ErrNotFound", err)
	}
}

func TestClear(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "a", 1)
	h.set(t, "b", strings.Repeat("b", 50))

	if err := h.store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if rows := h.totalRows(t); rows != 0 {
		t.Fatalf("rows after Clear = %d", rows)
	}
	length, err := h.store.Length(context.Background())
	if err != nil || length != 0 {
		t.Fatalf("Length after Clear = %d, %v", length, err)
	}
}

func TestKeysAndKey(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "alpha", 1)
	h.set(t, "beta", strings.Repeat("b", 40))
	h.set(t, "gamma", 3)

	keys, err := h.store.Keys(context.Background())
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if !slices.Equal(keys, want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}

	for n, wantKey := range want {
		key, ok, err := h.store.Key(context.Background(), n)
		if err != nil || !ok || key != wantKey {
			t.Errorf("Key(%d) = %q, %v, %v; want %q", n, key, ok, err, wantKey)
		}
	}
	if key, ok, err := h.store.Key(context.Background(), 3); err != nil || ok || key != "" {
		t.Errorf("Key(3) = %q, %v, %v; want out of range", key, ok, err)
	}
}

func TestIterate(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "one", 1)
	h.set(t, "two", strings.Repeat("2", 40))
	h.set(t, "three", valuecodec.Uint8Array{3})

	var visited []string
	result, err := h.store.Iterate(context.Background(), func(value any, key string) (any, bool) {
		visited = append(visited, key)
		return nil, false
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if result != nil {
		t.Errorf("exhausted Iterate result = %v, want nil", result)
	}
	if !slices.Equal(visited, []string{"one", "two", "three"}) {
		t.Errorf("visited = %v", visited)
	}

	// The chunked value is delivered reassembled.
	result, err = h.store.Iterate(context.Background(), func(value any, key string) (any, bool) {
		if key == "two" {
			return value, true
		}
		return nil, false
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if result != strings.Repeat("2", 40) {
		t.Errorf("Iterate result = %v, want the reassembled value", result)
	}
}

func TestIterateStopsAtFirstDone(t *testing.T) {
	h := newHarness(t)
	for _, key := range []string{"a", "b", "c"} {
		h.set(t, key, key)
	}

	calls := 0
	result, err := h.store.Iterate(context.Background(), func(value any, key string) (any, bool) {
		calls++
		return "stopped at " + key, key == "b"
	})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if result != "stopped at b" || calls != 2 {
		t.Errorf("Iterate = %v after %d calls, want stopped at b after 2", result, calls)
	}
}

func TestIterateEmptyStore(t *testing.T) {
	h := newHarness(t)
	result, err := h.store.Iterate(context.Background(), func(any, string) (any, bool) {
		t.Error("callback invoked on an empty store")
		return nil, true
	})
	if err != nil || result != nil {
		t.Fatalf("Iterate = %v, %v; want nil, nil", result, err)
	}
}

func TestEntries(t *testing.T) {
	h := newHarness(t, withChunkSize(16))
	h.set(t, "json", strings.Repeat("j", 30))
	h.set(t, "bytes", valuecodec.Uint8Array{1, 2, 3})

	entries, err := h.store.Entries(context.Background())
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	jsonEntry := entries[0]
	if jsonEntry.Key != "json" || jsonEntry.Kind != valuecodec.KindJSON || jsonEntry.Size != 32 ||
		jsonEntry.EncodedSize != 32 || jsonEntry.Rows != 2 {
		t.Errorf("json entry = %+v", jsonEntry)
	}

	bytesEntry := entries[1]
	if bytesEntry.Key != "bytes" || bytesEntry.Kind != valuecodec.KindUint8 || bytesEntry.Size != 3 ||
		bytesEntry.EncodedSize != len("__lfsc__:ui08AQID") || bytesEntry.Rows != 1 {
		t.Errorf("bytes entry = %+v", bytesEntry)
	}
	if bytesEntry.Digest != valuecodec.Digest("__lfsc__:ui08AQID") {
		t.Errorf("bytes digest = %s", bytesEntry.Digest)
	}
}

func TestMidGenerationFailureSurfaces(t *testing.T) {
	h := newHarness(t, withChunkSize(10))
	h.set(t, "k", "old")

	injected := errors.New("write failed")
	h.fault.FailOnce(testutil.InsertOfIndex(2), injected)

	err := h.store.Set(context.Background(), "k", strings.Repeat("n", 40))
	var backendErr *segstore.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Set error = %v, want a *segstore.BackendError", err)
	}
	if !backendErr.Incomplete || backendErr.Index != 2 {
		t.Errorf("BackendError = %+v, want incomplete at index 2", backendErr)
	}

	// The prefix that was written reassembles to truncated JSON.
	if _, err := h.store.Get(context.Background(), "k"); err == nil {
		t.Fatal("Get of a partially written value succeeded")
	}

	// A corrective Set repairs the key.
	h.set(t, "k", "repaired")
	if got := h.get(t, "k"); got != "repaired" {
		t.Fatalf("Get after repair = %v", got)
	}
}

func TestBackendErrorsWrapped(t *testing.T) {
	h := newHarness(t)
	injected := errors.New("backend down")
	h.fault.FailWhen(func(testutil.Call) bool { return true }, injected)
	ctx := context.Background()

	_, getErr := h.store.Get(ctx, "k")
	_, lengthErr := h.store.Length(ctx)
	_, keysErr := h.store.Keys(ctx)
	_, _, keyErr := h.store.Key(ctx, 0)
	_, iterateErr := h.store.Iterate(ctx, func(any, string) (any, bool) { return nil, false })
	_, entriesErr := h.store.Entries(ctx)

	for name, err := range map[string]error{
		"Get":     getErr,
		"Set":     h.store.Set(ctx, "k", 1),
		"Remove":  h.store.Remove(ctx, "k"),
		"Clear":   h.store.Clear(ctx),
		"Length":  lengthErr,
		"Keys":    keysErr,
		"Key":     keyErr,
		"Iterate": iterateErr,
		"Entries": entriesErr,
	} {
		if !errors.Is(err, injected) {
			t.Errorf("%s error = %v, want it to wrap the backend failure", name, err)
		}
		if !strings.HasPrefix(err.Error(), "kvstore: ") {
			t.Errorf("%s error %q lacks the package prefix", name, err)
		}
	}
}

func TestEncodeErrorLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t)
	h.set(t, "k", "kept")

	err := h.store.Set(context.Background(), "k", make(chan int))
	var encodeErr *valuecodec.EncodeError
	if !errors.As(err, &encodeErr) {
		t.Fatalf("Set(chan) = %v, want *valuecodec.EncodeError", err)
	}
	if got := h.get(t, "k"); got != "kept" {
		t.Fatalf("value after failed Set = %v", got)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := kvstore.New(kvstore.Config{}); err == nil {
		t.Error("New without Backend succeeded")
	}
	backend := testutil.NewFaultBackend(nil)
	if _, err := kvstore.New(kvstore.Config{Backend: backend, ChunkSize: -1}); !errors.Is(err, chunk.ErrInvalidChunkSize) {
		t.Errorf("New with negative chunk size = %v", err)
	}
	store, err := kvstore.New(kvstore.Config{Backend: backend})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.ChunkSize() != chunk.DefaultMaxBytes {
		t.Errorf("ChunkSize() = %d, want %d", store.ChunkSize(), chunk.DefaultMaxBytes)
	}
}
