package grid

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/grid.schema.json
var schemaFS embed.FS

// Description is the on-disk grid description: substations, lines, loads,
// generators and storage units with their physical constants. It is the only
// file format the engine itself parses; real solver backends keep their own
// native formats behind LoadGrid.
type Description struct {
	Name        string           `json:"name"`
	Substations []SubstationDesc `json:"substations"`
	Lines       []LineDesc       `json:"lines"`
	Loads       []LoadDesc       `json:"loads"`
	Generators  []GeneratorDesc  `json:"generators"`
	Storages    []StorageDesc    `json:"storages,omitempty"`
}

type SubstationDesc struct {
	Name string `json:"name"`
}

type LineDesc struct {
	Name         string  `json:"name"`
	From         int     `json:"from"`
	To           int     `json:"to"`
	X            float64 `json:"x,omitempty"`
	ThermalLimit float64 `json:"thermal_limit,omitempty"`
}

type LoadDesc struct {
	Name string `json:"name"`
	Sub  int    `json:"sub"`
}

type GeneratorDesc struct {
	Name        string  `json:"name"`
	Sub         int     `json:"sub"`
	PMin        float64 `json:"pmin"`
	PMax        float64 `json:"pmax"`
	MaxRampUp   float64 `json:"max_ramp_up"`
	MaxRampDown float64 `json:"max_ramp_down"`
	Renewable   bool    `json:"renewable,omitempty"`
	CostPerMW   float64 `json:"cost_per_mw,omitempty"`
}

type StorageDesc struct {
	Name      string  `json:"name"`
	Sub       int     `json:"sub"`
	EMax      float64 `json:"emax"`
	EMin      float64 `json:"emin"`
	MaxAbsorb float64 `json:"max_absorb"`
	MaxProd   float64 `json:"max_prod"`
	LossMW    float64 `json:"loss_mw,omitempty"`
}

// LoadDescription reads and validates a grid description file. Validation runs
// against the embedded JSON schema before any field is trusted, so a malformed
// file fails here and not deep inside schema construction.
func LoadDescription(path string) (*Description, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDescription(raw)
}

// ParseDescription validates and decodes a grid description document.
func ParseDescription(raw []byte) (*Description, error) {
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("grid description: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("grid description: %w", err)
	}
	var d Description
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("grid description: %w", err)
	}
	return &d, nil
}

func compiledSchema() (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/grid.schema.json")
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("grid.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile("grid.schema.json")
}
