package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/stockanalyzer/internal/models"
)

// renderer writes a payload in one output format.
type renderer interface {
	render(w io.Writer, payload *models.Payload) error
}

func newRenderer(format string) (renderer, error) {
	switch format {
	case "", "json":
		return jsonRenderer{}, nil
	case "yaml", "yml":
		return yamlRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

type jsonRenderer struct{}

func (jsonRenderer) render(w io.Writer, payload *models.Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

type yamlRenderer struct{}

func (yamlRenderer) render(w io.Writer, payload *models.Payload) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return enc.Close()
}
