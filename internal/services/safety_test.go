package services

import "testing"

func TestIsSafeResponse(t *testing.T) {
	tests := []struct {
		response string
		safe     bool
	}{
		{"Sounds great, see you tomorrow!", true},
		{"", true},
		{"That's a SCAM, don't click it", false},
		{"no hate speech here... oh wait", false},
		{"threatening weather today", false},
		{"Violence is never the answer", false},
		{"is it illegal to park here?", false},
		{"hate and speech apart are fine", true},
	}

	for _, tc := range tests {
		if got := IsSafeResponse(tc.response); got != tc.safe {
			t.Errorf("IsSafeResponse(%q) = %v, want %v", tc.response, got, tc.safe)
		}
	}
}
