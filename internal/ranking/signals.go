package ranking

import (
	"strings"
	"time"

	"github.com/hyperjump/mentorlink/internal/lexical"
	"github.com/hyperjump/mentorlink/internal/models"
)

// ComputeSignals measures how q overlaps with mentor. Canon may be nil, in which
// case declared companies are compared by normalized text only.
func ComputeSignals(q *Query, mentor *models.MentorProfile, canon Canonicalizer, now time.Time) Signals {
	d := q.Descriptor
	if d == nil {
		d = &lexical.Descriptor{Intent: lexical.IntentGeneral}
	}
	s := Signals{
		IntentConfidence:  d.Confidence,
		Rating:            mentor.Rating,
		ResponseRate:      mentor.ResponseRate,
		SuccessfulMatches: mentor.SuccessfulMatches,
		SinceActive:       -1,
	}
	if !mentor.LastActive.IsZero() {
		s.SinceActive = now.Sub(mentor.LastActive)
	}

	companies := mentorCompanies(mentor, canon)
	s.ExactCompanies = countIn(d.MentionedCompanies, companies)
	if s.ExactCompanies == 0 {
		s.RelatedCompanies = countIn(d.RelatedCompanies, companies)
	}

	s.DomainFactor = domainFactor(d.Intent, mentor.Domain)

	mentorTags := labelSet(mentor.SpecialTags)
	s.Tags = countIn(d.Tags, mentorTags)

	keywords := make(map[string]struct{}, len(q.Keywords))
	for _, k := range q.Keywords {
		keywords[k] = struct{}{}
	}
	questionTags := toSet(d.Tags)
	for _, m := range mentor.Milestones {
		if _, isTag := questionTags[lexical.NormalizeLabel(m)]; isTag || sharesKeyword(m, keywords) {
			s.Milestones++
		}
	}

	s.TechExact, s.TechPartial = techOverlap(d.TechSkills, mentor.Expertise)

	for _, w := range lexical.ExtractKeywords(mentor.Bio) {
		if _, ok := keywords[w]; ok {
			s.BioShared++
		}
	}

	askerTier, askerField := "", ""
	if q.Asker != nil {
		askerTier = lexical.NormalizeLabel(q.Asker.Education.CollegeTier)
		askerField = lexical.NormalizeLabel(q.Asker.Education.Field)
	}
	if askerTier == "" {
		askerTier = tierFromTags(d.Tags)
	}
	mentorTier := lexical.NormalizeLabel(mentor.Education.CollegeTier)
	s.SameTier = askerTier != "" && askerTier == mentorTier
	s.SameField = askerField != "" && askerField == lexical.NormalizeLabel(mentor.Education.Field)
	return s
}

func mentorCompanies(mentor *models.MentorProfile, canon Canonicalizer) map[string]struct{} {
	out := make(map[string]struct{}, len(mentor.Companies))
	for _, c := range mentor.Companies {
		if canon != nil {
			key, _ := canon.Canonical(c)
			if key != "" {
				out[key] = struct{}{}
			}
			continue
		}
		if n := lexical.NormalizeText(c); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

func domainFactor(intent lexical.Intent, domain models.Domain) float64 {
	if intent == lexical.IntentGeneral {
		return 0
	}
	switch {
	case string(domain) == string(intent):
		return 1
	case domain == models.DomainBoth:
		return 0.5
	default:
		return 0
	}
}

// techOverlap counts question skills equal to a mentor skill (exact) and those
// only contained in or containing one (partial).
func techOverlap(skills, expertise []string) (exact, partial int) {
	mentor := make([]string, 0, len(expertise))
	for _, e := range expertise {
		if l := lexical.NormalizeLabel(e); l != "" {
			mentor = append(mentor, l)
		}
	}
	for _, skill := range skills {
		q := lexical.NormalizeLabel(skill)
		if q == "" {
			continue
		}
		matched := false
		for _, m := range mentor {
			if m == q {
				exact++
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, m := range mentor {
			if strings.Contains(m, q) || strings.Contains(q, m) {
				partial++
				break
			}
		}
	}
	return exact, partial
}

func tierFromTags(tags []string) string {
	for _, t := range tags {
		if strings.HasPrefix(t, "tier-") {
			return t
		}
	}
	return ""
}

func sharesKeyword(label string, keywords map[string]struct{}) bool {
	for _, w := range lexical.ExtractKeywords(label) {
		if _, ok := keywords[w]; ok {
			return true
		}
	}
	return false
}

func labelSet(labels []string) map[string]struct{} {
	out := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if n := lexical.NormalizeLabel(l); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, i := range items {
		out[i] = struct{}{}
	}
	return out
}

func countIn(items []string, set map[string]struct{}) int {
	n := 0
	for _, i := range items {
		if _, ok := set[i]; ok {
			n++
		}
	}
	return n
}

func capCount(n, limit int) float64 {
	if n > limit {
		return float64(limit)
	}
	return float64(n)
}
