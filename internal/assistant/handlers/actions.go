package handlers

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	amountPattern  = regexp.MustCompile(`(?i)(?:₹|rs\.?\s*|inr\s*)?([0-9][0-9,]*(?:\.[0-9]+)?)`)
	txnIDPattern   = regexp.MustCompile(`(?i)\b(TXN[0-9A-Z]+)\b`)
	emailPattern   = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern   = regexp.MustCompile(`\+?[0-9][0-9\-\s]{7,14}[0-9]`)
	tenurePattern  = regexp.MustCompile(`(?i)([0-9]{1,2})\s*(?:months?|emis?)`)
	addressPattern = regexp.MustCompile(`(?i)address\s+to\s+(.+?)\s*[.?!]?$`)
)

// containsAny reports whether the lowercased text contains any of the words.
func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// parseAmount extracts the first monetary amount from free text. ok is false
// when no usable number appears.
func parseAmount(text string) (float64, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// parseTransactionID extracts a TXN-prefixed transaction id from free text.
func parseTransactionID(text string) (string, bool) {
	m := txnIDPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// parseEmail extracts the first email address from free text.
func parseEmail(text string) (string, bool) {
	m := emailPattern.FindString(text)
	return m, m != ""
}

// parsePhone extracts the first phone-like number from free text.
func parsePhone(text string) (string, bool) {
	m := phonePattern.FindString(text)
	return strings.TrimSpace(m), m != ""
}

// parseAddress extracts the destination address from text like
// "change my delivery address to 42 Park Street".
func parseAddress(text string) (string, bool) {
	m := addressPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	addr := strings.TrimSpace(m[1])
	return addr, addr != ""
}

// parseTenure extracts an EMI tenure in months, defaulting when absent.
func parseTenure(text string, fallback int) int {
	m := tenurePattern.FindStringSubmatch(text)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
