package services

import "strings"

// RefusalMessage replaces any reply that trips the blocklist.
const RefusalMessage = "I'm sorry, but I can't respond to that."

var blockedWords = []string{"violence", "hate speech", "illegal", "scam", "threat"}

// IsSafeResponse is a case-insensitive substring check, so "threatening"
// and "scammer" are blocked too.
func IsSafeResponse(response string) bool {
	lower := strings.ToLower(response)
	for _, w := range blockedWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}
