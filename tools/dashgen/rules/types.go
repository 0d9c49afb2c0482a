// Package rules generates Prometheus recording and alert rules that watch
// chatwatch itself, as Prometheus Operator resources or plain rule files.
package rules

const (
	apiVersion   = "monitoring.coreos.com/v1"
	resourceKind = "PrometheusRule"
)

// selectorLabels is matched by the ruleSelector of the Prometheus that
// scrapes chatwatch.
var selectorLabels = map[string]string{
	"prometheus":             "system-rules-prometheus",
	"app.kubernetes.io/name": "chatwatch",
}

// PrometheusRule is a Prometheus Operator custom resource.
type PrometheusRule struct {
	APIVersion string   `yaml:"apiVersion"`
	Kind       string   `yaml:"kind"`
	Metadata   Metadata `yaml:"metadata"`
	Spec       Spec     `yaml:"spec"`
}

// Metadata is the subset of object metadata dashgen sets.
type Metadata struct {
	Name   string            `yaml:"name"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Spec holds the rule groups.
type Spec struct {
	Groups []RuleGroup `yaml:"groups"`
}

// RuleGroup is a named set of rules evaluated together.
type RuleGroup struct {
	Name     string `yaml:"name"`
	Interval string `yaml:"interval,omitempty"`
	Rules    []Rule `yaml:"rules"`
}

// Rule is a recording rule when Record is set, an alerting rule when Alert is.
type Rule struct {
	Record      string            `yaml:"record,omitempty"`
	Alert       string            `yaml:"alert,omitempty"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty"`
}

// RuleFile is the plain rule_files format loaded by a standalone Prometheus.
type RuleFile struct {
	Groups []RuleGroup `yaml:"groups"`
}

func newResource(name string, groups ...RuleGroup) PrometheusRule {
	labels := make(map[string]string, len(selectorLabels))
	for k, v := range selectorLabels {
		labels[k] = v
	}
	return PrometheusRule{
		APIVersion: apiVersion,
		Kind:       resourceKind,
		Metadata:   Metadata{Name: name, Labels: labels},
		Spec:       Spec{Groups: groups},
	}
}

// Plain strips the resource envelope.
func (cr PrometheusRule) Plain() RuleFile {
	return RuleFile{Groups: cr.Spec.Groups}
}

// Len counts rules across all groups.
func (cr PrometheusRule) Len() int {
	n := 0
	for _, g := range cr.Spec.Groups {
		n += len(g.Rules)
	}
	return n
}
