package stepup

import (
	"strings"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestFormatAttemptsPlural(t *testing.T) {
	m := FormatAttempts(intPtr(2))
	if !strings.Contains(m.Message, "2 attempts") {
		t.Fatalf("want plural phrasing with count, got %q", m.Message)
	}
	if m.RemainingAttempts == nil || *m.RemainingAttempts != 2 {
		t.Fatalf("remaining_attempts = %v", m.RemainingAttempts)
	}
}

func TestFormatAttemptsSingular(t *testing.T) {
	m := FormatAttempts(intPtr(1))
	if !strings.Contains(m.Message, "1 attempt ") {
		t.Fatalf("want singular phrasing, got %q", m.Message)
	}
	if strings.Contains(m.Message, "attempts") {
		t.Fatalf("singular message must not pluralize: %q", m.Message)
	}
}

func TestFormatAttemptsGeneric(t *testing.T) {
	for _, r := range []*int{nil, intPtr(0)} {
		m := FormatAttempts(r)
		if !strings.Contains(m.Message, "invalid or has expired") {
			t.Fatalf("want generic message, got %q", m.Message)
		}
		if strings.Contains(m.Message, "remaining") {
			t.Fatalf("generic message must not mention attempts: %q", m.Message)
		}
		if m.RemainingAttempts != nil {
			t.Fatalf("remaining_attempts should be omitted, got %v", *m.RemainingAttempts)
		}
	}
}
