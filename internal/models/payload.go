package models

// PayloadStatus reports whether every requested piece was produced.
type PayloadStatus string

const (
	PayloadStatusOK       PayloadStatus = "ok"
	PayloadStatusDegraded PayloadStatus = "degraded" // Mandatory data present, optional data missing
)

// Payload is the response of one orchestration run. It is always structurally
// complete: Metrics and Transcripts are never nil, optional sections are nil when absent.
type Payload struct {
	RunID       string                 `json:"run_id" yaml:"run_id"`
	Ticker      string                 `json:"ticker" yaml:"ticker"`
	Status      PayloadStatus          `json:"status" yaml:"status"`
	Metrics     map[string]interface{} `json:"metrics" yaml:"metrics"`
	DCF         *DCFSection            `json:"dcf" yaml:"dcf"`
	Transcripts []Transcript           `json:"transcripts" yaml:"transcripts"`
	Summary     *SummarySection        `json:"summary" yaml:"summary"`
	Warnings    []string               `json:"warnings" yaml:"warnings"`
}

// DCFSection pairs the inputs of record with the computed outputs.
type DCFSection struct {
	Params  DCFParams              `json:"params" yaml:"params"`
	Results map[string]interface{} `json:"results" yaml:"results"`
}

// SummarySection is a generated transcript summary for one quarter.
type SummarySection struct {
	Year    int                    `json:"year" yaml:"year"`
	Quarter int                    `json:"quarter" yaml:"quarter"`
	Data    map[string]interface{} `json:"data" yaml:"data"`
}
