package db

import (
	"math"
	"testing"
	"time"
)

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"valid", "worst tacos ever", "worst tacos ever"},
		{"unicode", "café ☕", "café ☕"},
		{"invalid byte", "bad\xffbyte", "badbyte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeUTF8(tt.in); got != tt.want {
				t.Errorf("SanitizeUTF8(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	const id = "6f1c2a3e-8a4b-4c1d-9e2f-0a1b2c3d4e5f"

	if got := fromUUID(toUUID(id)); got != id {
		t.Fatalf("fromUUID(toUUID()) = %q, want %q", got, id)
	}

	if toUUID("not-a-uuid").Valid {
		t.Fatal("toUUID(invalid).Valid = true, want false")
	}

	if got := fromUUID(toUUID("")); got != "" {
		t.Fatalf("fromUUID(toUUID(\"\")) = %q, want empty", got)
	}
}

func TestTextConversion(t *testing.T) {
	if toText("").Valid {
		t.Fatal("toText(\"\").Valid = true, want false")
	}

	if got := fromText(toText("owner reply")); got != "owner reply" {
		t.Fatalf("fromText(toText()) = %q", got)
	}
}

func TestTimestamptzConversion(t *testing.T) {
	if toTimestamptz(time.Time{}).Valid {
		t.Fatal("zero time should be NULL")
	}

	if fromTimestamptzPtr(toTimestamptzPtr(nil)) != nil {
		t.Fatal("nil time should round-trip to nil")
	}

	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	got := fromTimestamptzPtr(toTimestamptzPtr(&now))
	if got == nil || !got.Equal(now) {
		t.Fatalf("fromTimestamptzPtr() = %v, want %v", got, now)
	}

	if !fromTimestamptz(toTimestamptz(now)).Equal(now) {
		t.Fatal("time should round-trip")
	}
}

func TestFloat8PtrConversion(t *testing.T) {
	if fromFloat8Ptr(toFloat8Ptr(nil)) != nil {
		t.Fatal("nil float should round-trip to nil")
	}

	v := 72.5
	if got := fromFloat8Ptr(toFloat8Ptr(&v)); got == nil || *got != v {
		t.Fatalf("fromFloat8Ptr() = %v, want %v", got, v)
	}
}

func TestSafeIntToInt32(t *testing.T) {
	tests := []struct {
		in   int
		want int32
	}{
		{0, 0},
		{42, 42},
		{-7, -7},
		{math.MaxInt32 + 1, math.MaxInt32},
		{math.MinInt32 - 1, math.MinInt32},
	}

	for _, tt := range tests {
		if got := safeIntToInt32(tt.in); got != tt.want {
			t.Errorf("safeIntToInt32(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNonNilTags(t *testing.T) {
	if got := nonNilTags(nil); got == nil || len(got) != 0 {
		t.Fatalf("nonNilTags(nil) = %#v, want empty slice", got)
	}

	tags := []string{"absurd"}
	if got := nonNilTags(tags); len(got) != 1 || got[0] != "absurd" {
		t.Fatalf("nonNilTags() = %#v", got)
	}
}

func TestToCoordinate(t *testing.T) {
	if toCoordinate(0).Valid {
		t.Fatal("zero coordinate should be NULL")
	}

	if c := toCoordinate(40.4); !c.Valid || c.Float64 != 40.4 {
		t.Fatalf("toCoordinate(40.4) = %+v", c)
	}
}
