package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared by every model; it caches struct metadata across calls.
var validate = validator.New()

// DCFForm holds the raw DCF inputs exactly as submitted.
type DCFForm struct {
	FCFPerShare      string `json:"fcf_ps"`
	GrowthRate       string `json:"growth_rate"`
	TerminalMultiple string `json:"terminal_multiple"`
	Years            string `json:"years"`
	Cash             string `json:"cash"`
	Debt             string `json:"debt"`
	Shares           string `json:"shares"`
}

// DCFParams are the validated inputs of record for a DCF computation.
type DCFParams struct {
	FCFPerShare      float64 `json:"fcf_ps" yaml:"fcf_ps"`
	GrowthRate       float64 `json:"growth_rate" yaml:"growth_rate"`
	TerminalMultiple float64 `json:"terminal_multiple" yaml:"terminal_multiple"`
	Years            int     `json:"years" yaml:"years" validate:"min=1,max=100"`
	Cash             float64 `json:"cash" yaml:"cash"`
	Debt             float64 `json:"debt" yaml:"debt"`
	Shares           float64 `json:"shares" yaml:"shares" validate:"gt=0"`
}

// Parse converts every field of the form. It fails on the first field that
// does not parse so a job is never dispatched with partial parameters.
func (f DCFForm) Parse() (*DCFParams, error) {
	var (
		params DCFParams
		err    error
	)

	floats := []struct {
		name  string
		raw   string
		value *float64
	}{
		{"fcf_ps", f.FCFPerShare, &params.FCFPerShare},
		{"growth_rate", f.GrowthRate, &params.GrowthRate},
		{"terminal_multiple", f.TerminalMultiple, &params.TerminalMultiple},
	}
	for _, field := range floats {
		if *field.value, err = parseFloatField(field.name, field.raw); err != nil {
			return nil, err
		}
	}

	if params.Years, err = parseIntField("years", f.Years); err != nil {
		return nil, err
	}

	floats = []struct {
		name  string
		raw   string
		value *float64
	}{
		{"cash", f.Cash, &params.Cash},
		{"debt", f.Debt, &params.Debt},
		{"shares", f.Shares, &params.Shares},
	}
	for _, field := range floats {
		if *field.value, err = parseFloatField(field.name, field.raw); err != nil {
			return nil, err
		}
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &params, nil
}

// Validate checks the parameter ranges.
func (p *DCFParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid DCF parameters: %w", err)
	}
	return nil
}

// ToMap returns the parameter mapping passed to the DCF computation.
func (p *DCFParams) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"fcf_ps":            p.FCFPerShare,
		"growth_rate":       p.GrowthRate,
		"terminal_multiple": p.TerminalMultiple,
		"years":             p.Years,
		"cash":              p.Cash,
		"debt":              p.Debt,
		"shares":            p.Shares,
	}
}

func parseFloatField(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return v, nil
}

func parseIntField(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return v, nil
}
