// Package common provides shared utilities across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Ticker is a normalized stock symbol (uppercase, trimmed).
// It is the partition key for every artifact on disk.
type Ticker string

// tickerForbidden lists characters that would escape an artifact root
// or change the meaning of a scan pattern.
const tickerForbidden = `/\*?[]`

// ErrEmptyTicker is returned when a ticker normalizes to the empty string.
var ErrEmptyTicker = errors.New("ticker symbol is required")

// NormalizeTicker uppercases and trims a raw ticker string.
// Normalization is idempotent: NormalizeTicker(NormalizeTicker(x)) == NormalizeTicker(x).
func NormalizeTicker(raw string) Ticker {
	return Ticker(strings.ToUpper(strings.TrimSpace(raw)))
}

// ParseTicker normalizes raw and checks that the result can be used as an artifact key.
func ParseTicker(raw string) (Ticker, error) {
	ticker := NormalizeTicker(raw)
	if ticker == "" {
		return "", ErrEmptyTicker
	}
	if strings.ContainsAny(string(ticker), tickerForbidden) {
		return "", fmt.Errorf("ticker %q contains invalid characters", string(ticker))
	}
	return ticker, nil
}

// String returns the ticker symbol.
func (t Ticker) String() string {
	return string(t)
}
