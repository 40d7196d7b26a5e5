package symptoms

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Advice is the result of a single lookup
type Advice struct {
	Symptoms  []string `json:"symptoms"`
	Diagnosis string   `json:"diagnosis"`
	Report    string   `json:"report"`
}

// Advisor matches free text against a catalog and composes reports.
// It is immutable after construction and safe for concurrent use.
type Advisor struct {
	catalog []Symptom
	index   map[string]int
	rules   []Rule
}

var defaultAdvisor = NewAdvisor(defaultCatalog, defaultRules)

// Default returns the advisor built on the built-in tables
func Default() *Advisor {
	return defaultAdvisor
}

// NewAdvisor copies the given tables into a new advisor
func NewAdvisor(catalog []Symptom, rules []Rule) *Advisor {
	a := &Advisor{
		catalog: cloneCatalog(catalog),
		index:   make(map[string]int, len(catalog)),
		rules:   cloneRules(rules),
	}
	for i, s := range a.catalog {
		if _, exists := a.index[s.Key]; !exists {
			a.index[s.Key] = i
		}
	}
	return a
}

// Symptoms returns the catalog in declaration order
func (a *Advisor) Symptoms() []Symptom {
	return cloneCatalog(a.catalog)
}

// Rules returns the rule table in evaluation order
func (a *Advisor) Rules() []Rule {
	return cloneRules(a.rules)
}

// Lookup finds a catalog entry by key (case-insensitive)
func (a *Advisor) Lookup(key string) (Symptom, bool) {
	i, ok := a.index[lower(strings.TrimSpace(key))]
	if !ok {
		return Symptom{}, false
	}
	return cloneCatalog(a.catalog[i : i+1])[0], true
}

// Identify returns the catalog keys found as substrings of the inputs.
// Results follow catalog order and hold each key at most once.
func (a *Advisor) Identify(inputs []string) []string {
	lowered := make([]string, len(inputs))
	for i, in := range inputs {
		lowered[i] = lower(in)
	}

	var found []string
	seen := make(map[string]bool)
	for _, s := range a.catalog {
		for _, in := range lowered {
			if strings.Contains(in, s.Key) {
				if !seen[s.Key] {
					seen[s.Key] = true
					found = append(found, s.Key)
				}
				break
			}
		}
	}
	return found
}

// Diagnose returns the label of the first rule whose required symptoms are
// all present, or FallbackDiagnosis.
func (a *Advisor) Diagnose(matched []string) string {
	present := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		present[m] = struct{}{}
	}

	for _, rule := range a.rules {
		if rule.satisfiedBy(present) {
			return rule.Diagnosis
		}
	}
	return FallbackDiagnosis
}

func (r Rule) satisfiedBy(present map[string]struct{}) bool {
	for _, req := range r.Requires {
		if _, ok := present[req]; !ok {
			return false
		}
	}
	return true
}

// Format renders the console report for the matched symptoms
func (a *Advisor) Format(matched []string) string {
	if len(matched) == 0 {
		return NoSymptomsMessage
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on your symptoms (%s), the possible condition is: ", strings.Join(matched, ", "))
	fmt.Fprintf(&b, "**%s**\n\n", a.Diagnose(matched))

	for _, key := range matched {
		i, ok := a.index[key]
		if !ok {
			continue
		}
		s := a.catalog[i]
		fmt.Fprintf(&b, "%s:\n%s\nRecommended medicines:\n", upper(s.Key), s.Description)
		for _, med := range s.Medicines {
			fmt.Fprintf(&b, "- %s, Dosage: %s, Warning: %s\n", med.Name, med.Dosage, med.Warning)
		}
		b.WriteString("\n")
	}

	b.WriteString(Disclaimer)
	return b.String()
}

// FormatChat renders the chat reply for the matched symptoms
func (a *Advisor) FormatChat(matched []string) string {
	if len(matched) == 0 {
		return DefaultChatResponse + "\n\n" + ChatDisclaimer
	}

	var b strings.Builder
	b.WriteString("Based on your symptoms, here are suggestions:\n")
	fmt.Fprintf(&b, "Possible condition: %s\n\n", a.Diagnose(matched))

	for _, key := range matched {
		i, ok := a.index[key]
		if !ok {
			continue
		}
		s := a.catalog[i]
		fmt.Fprintf(&b, "%s:\n%s\n\n", upper(s.Key), s.Description)
		for _, med := range s.Medicines {
			fmt.Fprintf(&b, "- %s (Dosage: %s)\n  ⚠️ %s\n\n", med.Name, med.Dosage, med.Warning)
		}
		b.WriteString(strings.Repeat("-", 40) + "\n")
	}

	b.WriteString(Disclaimer)
	return b.String()
}

// Advise runs Identify, Diagnose and Format in one go
func (a *Advisor) Advise(inputs []string) Advice {
	matched := a.Identify(inputs)
	return Advice{
		Symptoms:  matched,
		Diagnosis: a.Diagnose(matched),
		Report:    a.Format(matched),
	}
}

// Package-level shortcuts over the default advisor

func Identify(inputs []string) []string { return defaultAdvisor.Identify(inputs) }

func Diagnose(matched []string) string { return defaultAdvisor.Diagnose(matched) }

func Format(matched []string) string { return defaultAdvisor.Format(matched) }

func FormatChat(matched []string) string { return defaultAdvisor.FormatChat(matched) }

// lower only lowercases; full-width forms and no-break spaces stay distinct.
// A Caser holds state, so each call builds its own.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}
