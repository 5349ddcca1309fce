package models

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Transcript is one cached earnings-call transcript. Year and Quarter are
// extracted from the artifact; Data is the artifact itself.
type Transcript struct {
	Year    int
	Quarter int
	Data    map[string]interface{}
}

// MarshalJSON emits the artifact unchanged.
func (t Transcript) MarshalJSON() ([]byte, error) {
	if t.Data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(t.Data)
}

// MarshalYAML emits the artifact unchanged.
func (t Transcript) MarshalYAML() (interface{}, error) {
	if t.Data == nil {
		return map[string]interface{}{}, nil
	}
	return t.Data, nil
}

// NewTranscript builds a Transcript from a decoded artifact.
// Year and quarter may be numbers or numeric strings. It returns false when
// either is missing or not a whole number.
func NewTranscript(data map[string]interface{}) (Transcript, bool) {
	if data == nil {
		return Transcript{}, false
	}
	year, ok := wholeNumber(data["year"])
	if !ok {
		return Transcript{}, false
	}
	quarter, ok := wholeNumber(data["quarter"])
	if !ok {
		return Transcript{}, false
	}
	return Transcript{Year: year, Quarter: quarter, Data: data}, true
}

// SortTranscripts orders transcripts newest first by (year, quarter).
func SortTranscripts(transcripts []Transcript) {
	sort.SliceStable(transcripts, func(i, j int) bool {
		if transcripts[i].Year != transcripts[j].Year {
			return transcripts[i].Year > transcripts[j].Year
		}
		return transcripts[i].Quarter > transcripts[j].Quarter
	})
}

func wholeNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
