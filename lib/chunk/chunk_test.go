// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"errors"
	"strings"
	"testing"
)

func TestSplitSentinel(t *testing.T) {
	segments, err := Split("hello", 16)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if segments[0].Index != SentinelIndex {
		t.Errorf("Index = %d, want %d", segments[0].Index, SentinelIndex)
	}
	if segments[0].Payload != "hello" {
		t.Errorf("Payload = %q, want %q", segments[0].Payload, "hello")
	}
}

func TestSplitEmptyText(t *testing.T) {
	segments, err := Split("", 4)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segments) != 1 || segments[0].Index != SentinelIndex || segments[0].Payload != "" {
		t.Errorf("Split(\"\") = %+v, want one empty sentinel", segments)
	}
}

func TestSplitBoundary(t *testing.T) {
	const size = 8
	tests := []struct {
		name         string
		length       int
		wantCount    int
		wantSentinel bool
	}{
		{"one below", size - 1, 1, true},
		{"exactly", size, 1, true},
		{"one above", size + 1, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("x", tt.length)
			segments, err := Split(text, size)
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(segments) != tt.wantCount {
				t.Fatalf("got %d segments, want %d", len(segments), tt.wantCount)
			}
			if isSentinel := segments[0].Index == SentinelIndex; isSentinel != tt.wantSentinel {
				t.Errorf("first segment sentinel = %v, want %v", isSentinel, tt.wantSentinel)
			}
			if tt.length == size+1 {
				if len(segments[0].Payload) != size || len(segments[1].Payload) != 1 {
					t.Errorf("segment lengths = %d, %d, want %d, 1",
						len(segments[0].Payload), len(segments[1].Payload), size)
				}
			}
		})
	}
}

func TestSplitIndicesAndSizes(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10) // 100 bytes
	segments, err := Split(text, 30)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segments) != 4 {
		t.Fatalf("got %d segments, want 4", len(segments))
	}
	for i, segment := range segments {
		if segment.Index != i {
			t.Errorf("segment %d: Index = %d", i, segment.Index)
		}
		wantLength := 30
		if i == 3 {
			wantLength = 10
		}
		if len(segment.Payload) != wantLength {
			t.Errorf("segment %d: length = %d, want %d", i, len(segment.Payload), wantLength)
		}
	}
}

func TestSplitInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := Split("abc", size)
		if !errors.Is(err, ErrInvalidChunkSize) {
			t.Errorf("Split(size=%d) error = %v, want ErrInvalidChunkSize", size, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	texts := []string{
		"",
		"a",
		"short",
		strings.Repeat("0123456789", 37),
		"multi-byte: héllo wörld ☃ 日本語 🚀 " + strings.Repeat("é", 50),
	}
	for _, text := range texts {
		for size := 1; size <= 41; size++ {
			segments, err := Split(text, size)
			if err != nil {
				t.Fatalf("Split(len=%d, size=%d): %v", len(text), size, err)
			}
			if want := Count(len(text), size); len(segments) != want {
				t.Errorf("Split(len=%d, size=%d) produced %d segments, Count says %d",
					len(text), size, len(segments), want)
			}
			joined, err := Join(segments)
			if err != nil {
				t.Fatalf("Join(len=%d, size=%d): %v", len(text), size, err)
			}
			if joined != text {
				t.Fatalf("round trip mismatch for len=%d size=%d", len(text), size)
			}
		}
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		length, size, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{20, 10, 2},
		{21, 10, 3},
		{1 << 20, 256 * 1024, 4},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Count(tt.length, tt.size); got != tt.want {
			t.Errorf("Count(%d, %d) = %d, want %d", tt.length, tt.size, got, tt.want)
		}
	}
}

func TestJoinRejectsIncomplete(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
	}{
		{"empty", nil},
		{"gap", []Segment{{Index: 0, Payload: "a"}, {Index: 2, Payload: "c"}}},
		{"missing head", []Segment{{Index: 1, Payload: "b"}, {Index: 2, Payload: "c"}}},
		{"duplicate", []Segment{{Index: 0, Payload: "a"}, {Index: 0, Payload: "a"}}},
		{"sentinel mixed", []Segment{{Index: SentinelIndex, Payload: "x"}, {Index: 0, Payload: "a"}}},
		{"two sentinels", []Segment{{Index: SentinelIndex, Payload: "x"}, {Index: SentinelIndex, Payload: "y"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Join(tt.segments)
			if !errors.Is(err, ErrIncompleteGeneration) {
				t.Errorf("Join error = %v, want ErrIncompleteGeneration", err)
			}
		})
	}
}

func TestJoinOneMebibyte(t *testing.T) {
	text := strings.Repeat("m", 1<<20)
	segments, err := Split(text, DefaultMaxBytes)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(segments) != 4 {
		t.Fatalf("got %d segments, want 4", len(segments))
	}
	for i, segment := range segments {
		if segment.Index != i {
			t.Errorf("segment %d has index %d", i, segment.Index)
		}
	}
	joined, err := Join(segments)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined != text {
		t.Error("1 MiB round trip mismatch")
	}
}
