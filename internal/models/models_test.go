package models

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDCFForm() DCFForm {
	return DCFForm{
		FCFPerShare:      "6.5",
		GrowthRate:       "0.08",
		TerminalMultiple: "15",
		Years:            "10",
		Cash:             "60000000000",
		Debt:             "110000000000",
		Shares:           "15500000000",
	}
}

func TestDCFForm_Parse(t *testing.T) {
	params, err := validDCFForm().Parse()
	require.NoError(t, err)

	assert.Equal(t, 6.5, params.FCFPerShare)
	assert.Equal(t, 0.08, params.GrowthRate)
	assert.Equal(t, 15.0, params.TerminalMultiple)
	assert.Equal(t, 10, params.Years)
	assert.Equal(t, 15.5e9, params.Shares)
}

func TestDCFForm_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *DCFForm)
		wantMsg string
	}{
		{"non-numeric growth rate", func(f *DCFForm) { f.GrowthRate = "fast" }, "growth_rate"},
		{"missing cash", func(f *DCFForm) { f.Cash = "" }, "cash is required"},
		{"fractional years", func(f *DCFForm) { f.Years = "7.5" }, "years"},
		{"nan shares", func(f *DCFForm) { f.Shares = "NaN" }, "shares"},
		{"zero shares", func(f *DCFForm) { f.Shares = "0" }, "Shares"},
		{"zero years", func(f *DCFForm) { f.Years = "0" }, "Years"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validDCFForm()
			tt.mutate(&form)
			params, err := form.Parse()
			assert.Nil(t, params)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDCFParams_ToMap(t *testing.T) {
	params, err := validDCFForm().Parse()
	require.NoError(t, err)

	m := params.ToMap()
	assert.Len(t, m, 7)
	assert.Equal(t, 10, m["years"])
	assert.Equal(t, 0.08, m["growth_rate"])
}

func TestValidation_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := validDCFForm().Parse()
			assert.NoError(t, err)

			bad := validDCFForm()
			bad.Shares = "0"
			_, err = bad.Parse()
			assert.Error(t, err)

			_, err = ParseSummaryRequest("2024", "5")
			assert.Error(t, err)
		}()
	}
	wg.Wait()
}

func TestParseSummaryRequest(t *testing.T) {
	req, err := ParseSummaryRequest("2023", " 4 ")
	require.NoError(t, err)
	assert.Equal(t, SummaryRequest{Year: 2023, Quarter: 4}, *req)

	for _, tc := range [][2]string{{"", "1"}, {"2023", "Q1"}, {"2023", "5"}, {"99", "1"}} {
		_, err := ParseSummaryRequest(tc[0], tc[1])
		assert.Error(t, err, "year=%q quarter=%q", tc[0], tc[1])
	}
}

func TestNewTranscript(t *testing.T) {
	tr, ok := NewTranscript(map[string]interface{}{"year": 2023.0, "quarter": 4.0, "content": "..."})
	require.True(t, ok)
	assert.Equal(t, 2023, tr.Year)
	assert.Equal(t, 4, tr.Quarter)

	tr, ok = NewTranscript(map[string]interface{}{"year": "2024", "quarter": " 4 "})
	require.True(t, ok, "numeric strings are accepted")
	assert.Equal(t, 2024, tr.Year)
	assert.Equal(t, 4, tr.Quarter)

	for _, data := range []map[string]interface{}{
		nil,
		{"year": 2023.0},
		{"quarter": 1.0},
		{"year": "FY2023", "quarter": 1.0},
		{"year": 2023.5, "quarter": 1.0},
	} {
		_, ok := NewTranscript(data)
		assert.False(t, ok, "expected %v to be malformed", data)
	}
}

func TestSortTranscripts(t *testing.T) {
	transcripts := []Transcript{
		{Year: 2022, Quarter: 4},
		{Year: 2023, Quarter: 1},
		{Year: 2023, Quarter: 4},
	}
	SortTranscripts(transcripts)

	got := make([][2]int, 0, len(transcripts))
	for _, tr := range transcripts {
		got = append(got, [2]int{tr.Year, tr.Quarter})
	}
	assert.Equal(t, [][2]int{{2023, 4}, {2023, 1}, {2022, 4}}, got)
}

func TestTranscript_MarshalJSON(t *testing.T) {
	tr := Transcript{Year: 2024, Quarter: 2, Data: map[string]interface{}{"year": 2024, "quarter": 2, "speaker": "CEO"}}
	data, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2024,"quarter":2,"speaker":"CEO"}`, string(data))

	data, err = json.Marshal(Transcript{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestJobRequest_Validate(t *testing.T) {
	req := NewJobRequest(JobKindAnalysis, "AAPL", nil)
	require.NoError(t, req.Validate())
	assert.NotEmpty(t, req.ID)
	assert.NotNil(t, req.Params)

	assert.Error(t, NewJobRequest("backtest", "AAPL", nil).Validate())
	assert.Error(t, NewJobRequest(JobKindDCF, "", nil).Validate())

	var nilReq *JobRequest
	assert.Error(t, nilReq.Validate())
}
