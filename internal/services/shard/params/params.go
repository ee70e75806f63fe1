// Package params loads the game parameter document read once at shard startup.
package params

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	apperrors "github.com/wasmColonies/core/internal/platform/errors"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
)

//go:embed params.schema.json
var schemaJSON string

const schemaURL = "params.schema.json"

var (
	compileOnce sync.Once
	schema      *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			compileErr = err
			return
		}
		schema, compileErr = compiler.Compile(schemaURL)
	})
	return schema, compileErr
}

// Parameters tune the simulation.
type Parameters struct {
	// ConstructionTimes is the number of ticks each unit type takes to build.
	ConstructionTimes map[protocol.UnitType]uint64 `json:"construction_times"`
}

// ConstructionTime reports the build duration of unit, if configured.
func (p Parameters) ConstructionTime(unit protocol.UnitType) (uint64, bool) {
	ticks, ok := p.ConstructionTimes[unit]
	return ticks, ok
}

// Format is the encoding of a parameter document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension; anything but .yaml or
// .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and validates the parameter file at path. Every failure carries
// CodeConfigInvalid.
func Load(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, apperrors.WrapWithMetadata(apperrors.CodeConfigInvalid,
			"read params file", map[string]string{"path": path}, err)
	}
	p, err := Parse(data, FormatFor(path))
	if err != nil {
		return Parameters{}, apperrors.WrapWithMetadata(apperrors.CodeConfigInvalid,
			"load params "+path, map[string]string{"path": path}, err)
	}
	return p, nil
}

// Parse decodes and validates a parameter document.
func Parse(data []byte, format Format) (Parameters, error) {
	jsonData := data
	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Parameters{}, apperrors.Wrap(apperrors.CodeConfigInvalid, "parse yaml", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return Parameters{}, apperrors.Wrap(apperrors.CodeConfigInvalid, "convert yaml", err)
		}
		jsonData = converted
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return Parameters{}, apperrors.Wrap(apperrors.CodeConfigInvalid, "parse json", err)
	}
	s, err := compiledSchema()
	if err != nil {
		return Parameters{}, fmt.Errorf("compile params schema: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return Parameters{}, apperrors.Wrap(apperrors.CodeConfigInvalid, "validate params", err)
	}

	var p Parameters
	if err := json.Unmarshal(jsonData, &p); err != nil {
		return Parameters{}, apperrors.Wrap(apperrors.CodeConfigInvalid, "decode params", err)
	}
	if p.ConstructionTimes == nil {
		p.ConstructionTimes = map[protocol.UnitType]uint64{}
	}
	return p, nil
}
