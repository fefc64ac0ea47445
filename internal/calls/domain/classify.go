package domain

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Class is the lifecycle role of an outcome label.
type Class int

const (
	// ClassIntermediate is a signal before termination (ringing, answered, ...).
	ClassIntermediate Class = iota
	// ClassTerminal is a signal that ends the call (ended, missed, rejected).
	ClassTerminal
)

var terminalOutcomes = map[string]bool{
	OutcomeEnded:    true,
	OutcomeMissed:   true,
	OutcomeRejected: true,
}

// Classifier maps raw outcome labels onto lifecycle classes, case-insensitive.
// Vendor-specific labels can be mapped onto the canonical set through an
// alias table. Unknown labels classify as intermediate: a future native label
// must not silently end a session.
type Classifier struct {
	aliases map[string]string
}

// NewClassifier creates a Classifier with no aliases.
func NewClassifier() *Classifier {
	return &Classifier{aliases: map[string]string{}}
}

// NewClassifierFromFile creates a Classifier with aliases loaded from a YAML
// file of the form `alias: canonical`. An empty path yields a plain classifier.
func NewClassifierFromFile(path string) (*Classifier, error) {
	c := NewClassifier()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outcome alias file: %w", err)
	}

	var aliases map[string]string
	if err := yaml.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("parse outcome alias file: %w", err)
	}

	for alias, canonical := range aliases {
		c.aliases[strings.ToLower(strings.TrimSpace(alias))] = strings.ToLower(strings.TrimSpace(canonical))
	}
	return c, nil
}

// Canonical lowercases the label and resolves any configured alias.
func (c *Classifier) Canonical(outcome string) string {
	normalized := strings.ToLower(strings.TrimSpace(outcome))
	if canonical, ok := c.aliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Classify returns the lifecycle class for an outcome label.
func (c *Classifier) Classify(outcome string) Class {
	if terminalOutcomes[c.Canonical(outcome)] {
		return ClassTerminal
	}
	return ClassIntermediate
}

// IsRingingOrAnswered reports whether the outcome is one that should pull up
// the call screen.
func (c *Classifier) IsRingingOrAnswered(outcome string) bool {
	canonical := c.Canonical(outcome)
	return canonical == OutcomeRinging || canonical == OutcomeAnswered
}
