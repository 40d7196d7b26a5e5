// Package validation checks the symptom tables at startup and screens user input.
package validation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/giygas/medbot/interfaces"
	"github.com/giygas/medbot/symptoms"
	"github.com/google/uuid"
)

// MaxInputs caps the number of free-text fragments in one diagnose request
const MaxInputs = 10

// Markers of script, SQL and template injection. Plain punctuation such as
// ";" or "--" is allowed since people type "fever; cough" in a chat.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
	"onclick=", "onmouseover=", "eval(", "expression(", "@import",
	"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
	"xp_cmdshell", "exec(", "execute(",
	"$(", "${", "{{",
	"../", "..\\", "%2e%2e", "file://",
	"{$ne:", "{$gt:", "{$where:", "{$regex:",
}

// DataValidatorImpl implements interfaces.Validator
type DataValidatorImpl struct {
	maxLength int
}

// NewDataValidator creates a validator accepting messages up to maxLength characters
func NewDataValidator(maxLength int) interfaces.Validator {
	return &DataValidatorImpl{maxLength: maxLength}
}

// ValidateCatalog fails on any defect that would make lookups unsafe: a rule
// referencing a symptom missing from the catalog, duplicate or non-normalized
// keys, empty rule sets or duplicate labels.
func (v *DataValidatorImpl) ValidateCatalog(catalog []symptoms.Symptom, rules []symptoms.Rule) error {
	if len(catalog) == 0 {
		return fmt.Errorf("symptom catalog is empty")
	}
	if len(rules) == 0 {
		return fmt.Errorf("disease rule table is empty")
	}

	keys := make(map[string]bool, len(catalog))
	for i, s := range catalog {
		if s.Key == "" {
			return fmt.Errorf("catalog entry %d has an empty key", i)
		}
		if s.Key != strings.ToLower(strings.TrimSpace(s.Key)) {
			return fmt.Errorf("catalog key %q must be lowercase and trimmed", s.Key)
		}
		if keys[s.Key] {
			return fmt.Errorf("duplicate catalog key: %q", s.Key)
		}
		keys[s.Key] = true

		if strings.TrimSpace(s.Description) == "" {
			return fmt.Errorf("empty description for symptom %q", s.Key)
		}
		if len(s.Medicines) == 0 {
			return fmt.Errorf("symptom %q has no medicines", s.Key)
		}
		for _, m := range s.Medicines {
			if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.Dosage) == "" {
				return fmt.Errorf("symptom %q has a medicine without name or dosage", s.Key)
			}
		}
	}

	labels := make(map[string]bool, len(rules))
	for i, r := range rules {
		if len(r.Requires) == 0 {
			return fmt.Errorf("rule %d (%q) requires no symptoms", i, r.Diagnosis)
		}
		if strings.TrimSpace(r.Diagnosis) == "" {
			return fmt.Errorf("rule %d has an empty diagnosis", i)
		}
		if labels[r.Diagnosis] {
			return fmt.Errorf("duplicate diagnosis label: %q", r.Diagnosis)
		}
		labels[r.Diagnosis] = true

		for _, req := range r.Requires {
			if !keys[req] {
				return fmt.Errorf("rule %q requires %q which is not in the catalog", r.Diagnosis, req)
			}
		}
	}

	return nil
}

// ReportCatalogQuality lists shadowed rules, unreferenced symptoms and
// medicines without warnings.
func (v *DataValidatorImpl) ReportCatalogQuality(catalog []symptoms.Symptom, rules []symptoms.Rule) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{
		MaskedRules:           []string{},
		UnreferencedSymptoms:  []string{},
		MedicinesWithoutWarns: []string{},
	}

	// A later rule is dead when an earlier rule's set is a subset of it
	for j := 1; j < len(rules); j++ {
		for i := 0; i < j; i++ {
			if isSubset(rules[i].Requires, rules[j].Requires) {
				report.MaskedRules = append(report.MaskedRules, rules[j].Diagnosis)
				break
			}
		}
	}

	referenced := make(map[string]bool)
	for _, r := range rules {
		for _, req := range r.Requires {
			referenced[req] = true
		}
	}
	for _, s := range catalog {
		if !referenced[s.Key] {
			report.UnreferencedSymptoms = append(report.UnreferencedSymptoms, s.Key)
		}
		for _, m := range s.Medicines {
			if strings.TrimSpace(m.Warning) == "" {
				report.MedicinesWithoutWarns = append(report.MedicinesWithoutWarns, s.Key+"/"+m.Name)
			}
		}
	}

	return report
}

func isSubset(sub, set []string) bool {
	for _, s := range sub {
		if !slices.Contains(set, s) {
			return false
		}
	}
	return true
}

// ValidateInput screens one diagnose fragment or symptom name: the basic
// text checks plus injection markers and long character runs
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if err := v.checkText(input); err != nil {
		return err
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateMessage screens a chat message. Any non-empty text within the
// length cap is accepted; unknown or odd text simply matches nothing and
// gets the default chat reply.
func (v *DataValidatorImpl) ValidateMessage(input string) error {
	return v.checkText(input)
}

// checkText rejects empty, non-UTF-8, oversized or control-character input
func (v *DataValidatorImpl) checkText(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("input must be valid UTF-8")
	}

	if n := utf8.RuneCountInString(input); v.maxLength > 0 && n > v.maxLength {
		return fmt.Errorf("input too long: maximum %d characters, got %d", v.maxLength, n)
	}

	for _, r := range input {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return fmt.Errorf("input contains control characters")
		}
	}
	return nil
}

// ValidateInputs screens a list of fragments; at least one must be non-empty
func (v *DataValidatorImpl) ValidateInputs(inputs []string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("at least one input is required")
	}
	if len(inputs) > MaxInputs {
		return fmt.Errorf("too many inputs: maximum %d", MaxInputs)
	}

	nonEmpty := 0
	for i, in := range inputs {
		if strings.TrimSpace(in) == "" {
			continue
		}
		nonEmpty++
		if err := v.ValidateInput(in); err != nil {
			return fmt.Errorf("input %d: %w", i+1, err)
		}
	}
	if nonEmpty == 0 {
		return fmt.Errorf("input cannot be empty")
	}
	return nil
}

// ValidateSessionID parses a chat session ID
func (v *DataValidatorImpl) ValidateSessionID(input string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return uuid.Nil, fmt.Errorf("session ID cannot be empty")
	}
	if len(trimmed) != len(input) {
		return uuid.Nil, fmt.Errorf("session ID contains invalid characters")
	}

	id, err := uuid.Parse(trimmed)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session ID: %w", err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid session ID: nil UUID")
	}
	return id, nil
}

// hasExcessiveRepetition reports a character repeated more than 20 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 0
	var prev rune = -1
	for _, r := range input {
		if r == prev {
			run++
			if run > 20 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
