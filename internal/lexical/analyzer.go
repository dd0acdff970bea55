// Package lexical derives structured descriptors and keyword sets from free-text questions.
package lexical

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hyperjump/mentorlink/pkg/utils"
)

// Intent is the career goal a question is about.
type Intent string

const (
	IntentInternship Intent = "internship"
	IntentPlacement  Intent = "placement"
	IntentGeneral    Intent = "general"
)

// CompanyLookup resolves a normalized token or bigram to a canonical company key.
type CompanyLookup interface {
	Lookup(normalized string) (string, bool)
}

// Descriptor is the structured reading of a question.
type Descriptor struct {
	Intent             Intent   `json:"intent"`
	Confidence         float64  `json:"confidence"`
	MentionedCompanies []string `json:"mentioned_companies"`
	RelatedCompanies   []string `json:"related_companies"`
	Tags               []string `json:"tags"`
	TechSkills         []string `json:"tech_skills"`
	IsUrgent           bool     `json:"is_urgent"`
	IsDetailOriented   bool     `json:"is_detail_oriented"`
	HasSpecifics       bool     `json:"has_specifics"`
}

// Analyzer builds descriptors. It is safe for concurrent use when the lookup is.
type Analyzer struct {
	companies CompanyLookup
}

// NewAnalyzer returns an analyzer that resolves companies through lookup.
// A nil lookup disables company detection.
func NewAnalyzer(lookup CompanyLookup) *Analyzer {
	return &Analyzer{companies: lookup}
}

// Analyze reads text into a Descriptor. Empty or very short text yields a general descriptor.
func (a *Analyzer) Analyze(text string) *Descriptor {
	lower := strings.ToLower(text)
	norm := NormalizeText(text)
	tokens := strings.Fields(norm)
	padded := " " + norm + " "

	d := &Descriptor{
		MentionedCompanies: []string{},
		RelatedCompanies:   []string{},
	}
	d.Intent, d.Confidence = detectIntent(padded)
	d.MentionedCompanies, d.RelatedCompanies = a.detectCompanies(tokens)
	d.Tags = detectTags(padded)
	d.TechSkills = detectTech(tokens, lower)

	for _, tok := range tokens {
		if _, ok := urgentWords[tok]; ok {
			d.IsUrgent = true
			break
		}
	}
	d.IsDetailOriented = len(text) > detailLength || containsAnyPhrase(padded, detailPhrases)
	d.HasSpecifics = strings.IndexFunc(norm, unicode.IsDigit) >= 0 ||
		len(d.MentionedCompanies) > 0 || len(d.RelatedCompanies) > 0 || len(d.TechSkills) > 0
	return d
}

// Companies returns mentioned and related companies together, mentioned first.
func (d *Descriptor) Companies() []string {
	out := make([]string, 0, len(d.MentionedCompanies)+len(d.RelatedCompanies))
	out = append(out, d.MentionedCompanies...)
	return append(out, d.RelatedCompanies...)
}

func detectIntent(padded string) (Intent, float64) {
	internHits := countPhrases(padded, internshipPhrases)
	placementHits := countPhrases(padded, placementPhrases)
	switch {
	case internHits > placementHits:
		return IntentInternship, confidence(internHits, len(internshipPhrases))
	case placementHits > internHits:
		return IntentPlacement, confidence(placementHits, len(placementPhrases))
	default:
		return IntentGeneral, generalConfidence
	}
}

func confidence(hits, size int) float64 {
	c := float64(hits) / float64(size)
	if c > 1 {
		return 1
	}
	return c
}

// detectCompanies looks up single tokens and adjacent bigrams. Single-token hits
// are mentioned companies; companies found only through a bigram are related.
func (a *Analyzer) detectCompanies(tokens []string) (mentioned, related []string) {
	mentioned, related = []string{}, []string{}
	if a.companies == nil {
		return mentioned, related
	}
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if key, ok := a.companies.Lookup(tok); ok {
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				mentioned = append(mentioned, key)
			}
		}
	}
	for i := 0; i+1 < len(tokens); i++ {
		key, ok := a.companies.Lookup(tokens[i] + " " + tokens[i+1])
		if !ok {
			continue
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			related = append(related, key)
		}
	}
	return mentioned, related
}

func detectTags(padded string) []string {
	tags := []string{}
	for tag, phrases := range tagVocabulary {
		if containsAnyPhrase(padded, phrases) {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

func detectTech(tokens []string, lower string) []string {
	seen := make(map[string]struct{})
	tech := []string{}
	for _, tok := range tokens {
		if _, ok := techWords[tok]; ok {
			if _, dup := seen[tok]; !dup {
				seen[tok] = struct{}{}
				tech = append(tech, tok)
			}
		}
	}
	for _, phrase := range techPhrases {
		if strings.Contains(lower, phrase) {
			if _, dup := seen[phrase]; !dup {
				seen[phrase] = struct{}{}
				tech = append(tech, phrase)
			}
		}
	}
	return tech
}

func countPhrases(padded string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			n++
		}
	}
	return n
}

func containsAnyPhrase(padded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// NormalizeText is the shared normalization for question text and company names.
func NormalizeText(s string) string {
	return utils.NormalizeText(s)
}

// NormalizeLabel maps a free-text tag or skill to its comparison form.
func NormalizeLabel(s string) string {
	return strings.ReplaceAll(NormalizeText(s), " ", "-")
}

// ExtractKeywords returns up to MaxKeywords distinct content words from text,
// in order of first appearance.
func ExtractKeywords(text string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, tok := range strings.Fields(NormalizeText(text)) {
		if len(tok) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}
