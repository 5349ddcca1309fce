// Package results shapes loaded artifacts into response payloads.
package results

import (
	"github.com/ternarybob/stockanalyzer/internal/common"
	"github.com/ternarybob/stockanalyzer/internal/models"
)

// Input is everything an orchestration run gathered. Any field may be empty.
type Input struct {
	RunID       string
	Ticker      common.Ticker
	Metrics     map[string]interface{}
	DCFParams   *models.DCFParams
	DCFResults  map[string]interface{}
	Transcripts []models.Transcript
	Summary     *models.SummaryRequest
	SummaryData map[string]interface{}
	Warnings    []string
}

// Assemble builds a structurally complete payload. Missing maps and slices
// become empty values; the DCF and summary sections are present only when
// their inputs were supplied. Status is degraded when there are warnings.
func Assemble(in Input) *models.Payload {
	payload := &models.Payload{
		RunID:       in.RunID,
		Ticker:      in.Ticker.String(),
		Status:      models.PayloadStatusOK,
		Metrics:     emptyIfNil(in.Metrics),
		Transcripts: in.Transcripts,
		Warnings:    append([]string{}, in.Warnings...),
	}

	if payload.Transcripts == nil {
		payload.Transcripts = []models.Transcript{}
	}

	if in.DCFParams != nil {
		payload.DCF = &models.DCFSection{
			Params:  *in.DCFParams,
			Results: emptyIfNil(in.DCFResults),
		}
	}

	if in.Summary != nil {
		payload.Summary = &models.SummarySection{
			Year:    in.Summary.Year,
			Quarter: in.Summary.Quarter,
			Data:    emptyIfNil(in.SummaryData),
		}
	}

	if len(payload.Warnings) > 0 {
		payload.Status = models.PayloadStatusDegraded
	}

	return payload
}

func emptyIfNil(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
