package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

// This file canonicalizes the two slot coordinates that arrive from legacy or
// malformed sources: time-of-day strings and sub-slot numbers. Every read
// boundary applies these so the rest of the package can assume canonical
// HH:mm / 1..5 values.

// NormalizeTime canonicalizes a loosely formatted time-of-day string into
// strict HH:mm. It tolerates seconds ("08:00:00"), missing zero padding
// ("8:0"), and raw digit runs ("0930"). Hours clamp to 0..23 and minutes to
// 0..59; unparseable parts become zero. It never fails.
func NormalizeTime(raw string) string {
	s := strings.TrimSpace(raw)

	var hour, minute int
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		hour = digitsToInt(parts[0])
		if len(parts) > 1 {
			minute = digitsToInt(parts[1])
		}
		// parts beyond minutes (seconds etc.) are dropped
	} else {
		digits := keepDigits(s)
		switch {
		case len(digits) <= 2:
			hour = digitsToInt(digits)
		case len(digits) == 3:
			hour = digitsToInt(digits[:1])
			minute = digitsToInt(digits[1:])
		default:
			hour = digitsToInt(digits[:2])
			minute = digitsToInt(digits[2:4])
		}
	}

	hour = clamp(hour, 0, 23)
	minute = clamp(minute, 0, 59)

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// NormalizeSubSlot canonicalizes a sub-slot value into 1..5. Values already in
// range pass through; zero and anything out of range or non-integer fall back
// to 1. Zero-based values stored by the legacy desktop app go through
// normalizeLegacySubSlot instead.
func NormalizeSubSlot(raw any) int {
	v, ok := asInt(raw)
	if !ok {
		return 1
	}
	if v >= 1 && v <= 5 {
		return v
	}
	return 1
}

// normalizeLegacySubSlot maps the legacy 0-based sub-slot domain 0..4 onto the
// canonical 1..5. Anything outside the legacy domain falls back to 1. Kept for
// a future one-shot migration of the legacy desktop database; nothing in the
// running service stores 0-based values.
func normalizeLegacySubSlot(raw any) int {
	v, ok := asInt(raw)
	if !ok || v < 0 || v > 4 {
		return 1
	}
	return v + 1
}

func asInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func digitsToInt(s string) int {
	n, err := strconv.Atoi(keepDigits(s))
	if err != nil {
		return 0
	}
	return n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
