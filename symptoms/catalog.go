// Package symptoms holds the static symptom catalog, the ordered disease rules
// and the matching, diagnosis and report functions built on top of them.
package symptoms

// Medicine is one recommendation attached to a symptom
type Medicine struct {
	Name    string `json:"medicine"`
	Dosage  string `json:"dosage"`
	Warning string `json:"warnings"`
}

// Symptom is a catalog entry keyed by its lowercase name
type Symptom struct {
	Key         string     `json:"symptom"`
	Description string     `json:"description"`
	Medicines   []Medicine `json:"medicines"`
}

// Rule maps a required set of symptom keys to a diagnosis label
type Rule struct {
	Requires  []string `json:"requires"`
	Diagnosis string   `json:"diagnosis"`
}

const (
	// FallbackDiagnosis is returned when no rule matches the symptoms
	FallbackDiagnosis = "Could not determine a specific illness. It may be a general infection."

	// Disclaimer is appended once at the end of every non-empty report
	Disclaimer = "\n⚠️ The above suggestions are for informational purposes only.\n" +
		"Always consult a healthcare professional before taking any medication."

	// NoSymptomsMessage is the console reply when nothing was recognized
	NoSymptomsMessage = "❗ No known symptoms identified.\nPlease enter valid common symptoms."

	// DefaultChatResponse is the chat reply when nothing was recognized
	DefaultChatResponse = "🤔 I couldn't recognize any symptoms in your message.\n" +
		"Try describing them with common words like headache, fever, cold, cough or sore throat."

	// ChatDisclaimer closes the default chat response
	ChatDisclaimer = "⚠️ Not a substitute for professional medical advice."
)

// Declaration order matters: Identify returns keys in this order.
var defaultCatalog = []Symptom{
	{
		Key:         "headache",
		Description: "A headache is pain in any region of the head.",
		Medicines: []Medicine{
			{Name: "Paracetamol", Dosage: "500mg every 4-6 hours", Warning: "Do not exceed 4g per day"},
			{Name: "Ibuprofen", Dosage: "400mg every 6-8 hours", Warning: "Take after food, avoid in ulcers"},
		},
	},
	{
		Key:         "fever",
		Description: "A fever is a temporary increase in your body temperature.",
		Medicines: []Medicine{
			{Name: "Paracetamol", Dosage: "500mg every 4-6 hours", Warning: "Safe when taken in recommended doses"},
			{Name: "Ibuprofen", Dosage: "400mg every 6-8 hours", Warning: "May cause stomach upset"},
		},
	},
	{
		Key:         "cold",
		Description: "A common cold is a viral infection of your nose and throat.",
		Medicines: []Medicine{
			{Name: "Cetirizine", Dosage: "10mg once a day", Warning: "May cause drowsiness"},
			{Name: "Paracetamol", Dosage: "500mg every 4-6 hours", Warning: "Monitor for liver function"},
		},
	},
	{
		Key:         "cough",
		Description: "A cough is a reflex action to clear your airways.",
		Medicines: []Medicine{
			{Name: "Dextromethorphan", Dosage: "10-20mg every 4 hours", Warning: "Do not mix with alcohol"},
			{Name: "Guaifenesin", Dosage: "200-400mg every 4 hours", Warning: "Drink water to help loosen mucus"},
		},
	},
	{
		Key:         "sore throat",
		Description: "Sore throat is pain or irritation in the throat.",
		Medicines: []Medicine{
			{Name: "Lozenges", Dosage: "As needed", Warning: "Do not exceed recommended amount"},
			{Name: "Warm saline gargles", Dosage: "3 times a day", Warning: "Use warm water"},
		},
	},
}

// First subset match wins, so a broad rule declared early masks narrower ones below it.
var defaultRules = []Rule{
	{Requires: []string{"fever", "cough", "cold"}, Diagnosis: "Common Cold or Flu"},
	{Requires: []string{"headache", "fever"}, Diagnosis: "Viral Fever"},
	{Requires: []string{"sore throat", "cough"}, Diagnosis: "Throat Infection"},
	{Requires: []string{"cold", "sore throat", "fever"}, Diagnosis: "Upper Respiratory Infection"},
	{Requires: []string{"headache"}, Diagnosis: "Tension Headache"},
	{Requires: []string{"fever"}, Diagnosis: "Mild Infection"},
}

// DefaultCatalog returns a copy of the built-in catalog
func DefaultCatalog() []Symptom {
	return cloneCatalog(defaultCatalog)
}

// DefaultRules returns a copy of the built-in rule table
func DefaultRules() []Rule {
	return cloneRules(defaultRules)
}

func cloneCatalog(catalog []Symptom) []Symptom {
	out := make([]Symptom, len(catalog))
	for i, s := range catalog {
		out[i] = Symptom{
			Key:         s.Key,
			Description: s.Description,
			Medicines:   append([]Medicine(nil), s.Medicines...),
		}
	}
	return out
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{
			Requires:  append([]string(nil), r.Requires...),
			Diagnosis: r.Diagnosis,
		}
	}
	return out
}
