package rules

import (
	"strings"

	"classhub/internal/models"
)

// Rule maps violation types to a severity by marker-substring match.
// Rules are supplied through configuration so the vocabulary can change
// without touching code.
type Rule struct {
	Markers    []string        `mapstructure:"markers" json:"markers"`
	Level      models.Severity `mapstructure:"level" json:"level"`
	DailyDedup bool            `mapstructure:"daily_dedup" json:"daily_dedup"`
}

// Classifier resolves a violation type string to its severity and
// whether the type is de-duplicated per subject per day.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from ordered rules. The first rule
// with a matching marker wins. An empty rule set falls back to Defaults.
func NewClassifier(ruleset []Rule) *Classifier {
	if len(ruleset) == 0 {
		ruleset = Defaults()
	}
	return &Classifier{rules: ruleset}
}

// Classify returns the severity for a violation type and whether the
// once-per-subject-per-day rule applies. Matching is case and diacritic
// sensitive, as the upstream pipeline emits fixed display strings.
func (c *Classifier) Classify(violationType string) (models.Severity, bool) {
	for _, rule := range c.rules {
		for _, marker := range rule.Markers {
			if strings.Contains(violationType, marker) {
				return rule.Level, rule.DailyDedup
			}
		}
	}
	return models.SeverityInfo, false
}

// Defaults is the vocabulary the AI pipeline ships with: sleeping and
// turning-around types are red alerts, uniform compliance is green and
// reported at most once per subject per day.
func Defaults() []Rule {
	return []Rule{
		{Markers: []string{"Ngu", "Quay"}, Level: models.SeverityRed},
		{Markers: []string{"dong phuc", "Đồng phục"}, Level: models.SeverityGreen, DailyDedup: true},
	}
}
