// Package rules loads, validates, and hot-reloads threshold rule files.
package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/chatwatch/pkg/types"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Format is a rule file encoding.
type Format string

// Supported rule file formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks a format from a file extension, defaulting to YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

type ruleFile struct {
	Rules []domain.Rule `json:"rules" yaml:"rules"`
}

// Load reads and validates the rule file at path.
func Load(path string) (*domain.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	set, err := Parse(data, FormatFor(path))
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = path
		}
		return nil, err
	}
	set.Source = path
	return set, nil
}

// Parse decodes and validates a rule document. Structural problems found by
// the JSON Schema and semantic problems (duplicate IDs, statistics that do
// not apply to a kind) are reported together in one ConfigurationError.
func Parse(data []byte, format Format) (*domain.RuleSet, error) {
	doc, err := decodeGeneric(data, format)
	if err != nil {
		return nil, &domain.ConfigurationError{Problems: []string{err.Error()}}
	}

	problems, err := validateSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("validating rule schema: %w", err)
	}
	if len(problems) > 0 {
		return nil, &domain.ConfigurationError{Problems: problems}
	}

	var file ruleFile
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, &domain.ConfigurationError{Problems: []string{fmt.Sprintf("decoding rules: %v", err)}}
	}

	rules, problems := normalize(file.Rules)
	if len(problems) > 0 {
		return nil, &domain.ConfigurationError{Problems: problems}
	}

	return &domain.RuleSet{Rules: rules, LoadedAt: time.Now().UTC()}, nil
}

func decodeGeneric(data []byte, format Format) (any, error) {
	var doc any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	return doc, nil
}

func validateSchema(doc any) ([]string, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return problems, nil
}

// normalize applies defaults and checks the rules a schema cannot express.
func normalize(in []domain.Rule) ([]domain.Rule, []string) {
	var problems []string
	seen := make(map[string]int, len(in))
	out := make([]domain.Rule, 0, len(in))

	for i, r := range in {
		prefix := fmt.Sprintf("rules[%d] (%s)", i, r.ID)

		if first, dup := seen[r.ID]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate id, first defined at rules[%d]", prefix, first))
		} else {
			seen[r.ID] = i
		}

		if !r.MetricKind.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown metric_kind %q", prefix, r.MetricKind))
		}
		if !r.Comparator.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown comparator %q", prefix, r.Comparator))
		}
		if r.Window.Std() <= 0 {
			problems = append(problems, prefix+": window must be positive")
		}
		if r.MinSampleCount < 0 {
			problems = append(problems, prefix+": min_sample_count must not be negative")
		}
		if r.Debounce.Std() < 0 {
			problems = append(problems, prefix+": debounce must not be negative")
		}

		r.Statistic = r.EffectiveStatistic()
		if !r.Statistic.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown statistic %q", prefix, r.Statistic))
		} else if r.MetricKind.Valid() && !r.MetricKind.Binary() && binaryOnly(r.Statistic) {
			problems = append(problems, fmt.Sprintf("%s: statistic %s requires a success/failure kind, not %s",
				prefix, r.Statistic, r.MetricKind))
		}

		if r.Severity == "" {
			r.Severity = domain.SeverityWarning
		}
		if r.Sinks != nil {
			r.Sinks = append([]string(nil), r.Sinks...)
		}
		out = append(out, r)
	}

	return out, problems
}

func binaryOnly(s domain.Statistic) bool {
	switch s {
	case domain.StatErrorRatio, domain.StatErrorCount, domain.StatConsecutiveFailures, domain.StatLastFailed:
		return true
	default:
		return false
	}
}

// CheckSinks reports rules that route to a sink name not in known. An
// unknown name would leave the rule's alerts undelivered.
func CheckSinks(set *domain.RuleSet, known []string) error {
	have := make(map[string]struct{}, len(known))
	for _, name := range known {
		have[name] = struct{}{}
	}

	var problems []string
	for i, r := range set.Rules {
		for _, name := range r.Sinks {
			if _, ok := have[name]; !ok {
				problems = append(problems, fmt.Sprintf("rules[%d] (%s): unknown sink %q (configured: %s)",
					i, r.ID, name, strings.Join(known, ", ")))
			}
		}
	}
	if len(problems) > 0 {
		return &domain.ConfigurationError{Source: set.Source, Problems: problems}
	}
	return nil
}
