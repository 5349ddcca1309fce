package models

import (
	"fmt"
)

// SummaryRequest identifies one earnings-call transcript by fiscal year and quarter.
type SummaryRequest struct {
	Year    int `json:"year" validate:"min=1900,max=9999"`
	Quarter int `json:"quarter" validate:"min=1,max=4"`
}

// ParseSummaryRequest parses year and quarter from their raw string form.
func ParseSummaryRequest(year, quarter string) (*SummaryRequest, error) {
	y, err := parseIntField("year", year)
	if err != nil {
		return nil, err
	}
	q, err := parseIntField("quarter", quarter)
	if err != nil {
		return nil, err
	}

	req := &SummaryRequest{Year: y, Quarter: q}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid year or quarter: %w", err)
	}
	return req, nil
}
