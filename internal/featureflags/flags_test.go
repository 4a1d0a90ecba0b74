package featureflags

import "testing"

func TestEnabled(t *testing.T) {
	cases := map[string]bool{
		"":      false,
		"true":  true,
		"TRUE":  true,
		"1":     true,
		"yes":   true,
		"on":    true,
		"0":     false,
		"false": false,
		"nope":  false,
	}
	for value, want := range cases {
		t.Setenv("FLAG_ENFORCE_ACTIVE_SESSIONS", value)
		if got := Enabled(EnforceActiveSessions); got != want {
			t.Errorf("FLAG_ENFORCE_ACTIVE_SESSIONS=%q: got %v, want %v", value, got, want)
		}
	}
}
