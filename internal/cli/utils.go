// Package cli provides output formatting and an HTTP client for the mentorlink CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/mentorlink/internal/engine"
	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/internal/storage"
	"github.com/hyperjump/mentorlink/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// StatusConfig is the configuration summary in a status report.
type StatusConfig struct {
	EmbeddingModel      string `json:"embedding_model,omitempty"`
	EmbeddingDimensions int    `json:"embedding_dimensions,omitempty"`
	DatabasePath        string `json:"database_path,omitempty"`
	VectorIndexPath     string `json:"vector_index_path,omitempty"`
	MaxAssignAttempts   int    `json:"max_assign_attempts,omitempty"`
}

// StatusReport is the shape of GET /api/v1/status.
type StatusReport struct {
	Engine    *engine.Status     `json:"engine"`
	Config    *StatusConfig      `json:"config,omitempty"`
	DiskUsage *storage.DiskUsage `json:"disk_usage,omitempty"`
}

// WriteOutcome writes a question outcome to w in the given format.
func WriteOutcome(w io.Writer, out *models.Outcome, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "status:       %s\n", out.Status)
	if out.QuestionID != "" {
		fmt.Fprintf(w, "question_id:  %s\n", out.QuestionID)
	}
	if out.MatchMethod != "" {
		fmt.Fprintf(w, "method:       %s\n", out.MatchMethod)
	}
	if out.MentorID != "" {
		mentor := out.MentorID
		if out.MentorName != "" {
			mentor = out.MentorName + " (" + out.MentorID + ")"
		}
		fmt.Fprintf(w, "mentor:       %s\n", mentor)
	}
	if out.MatchScore > 0 {
		fmt.Fprintf(w, "score:        %.4f\n", out.MatchScore)
	}
	if len(out.Keywords) > 0 {
		fmt.Fprintf(w, "keywords:     %s\n", strings.Join(out.Keywords, ", "))
	}
	fmt.Fprintf(w, "attempts:     %d\n", out.Attempts)
	if out.Message != "" {
		fmt.Fprintf(w, "\n%s\n", out.Message)
	}
	if out.Card != nil {
		writeCard(w, out.Card)
	}
	return nil
}

func writeCard(w io.Writer, card *models.AnswerCard) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Card %s by %s\n\n", card.ID, card.MentorID)
	fmt.Fprintf(w, "%s\n", utils.Truncate(card.Content.MainAnswer, 400))
	if len(card.Content.KeyMistakes) > 0 {
		fmt.Fprintln(w, "\nMistakes to avoid:")
		for _, m := range card.Content.KeyMistakes {
			fmt.Fprintf(w, "  - %s\n", m)
		}
	}
	if len(card.Content.ActionableSteps) > 0 {
		fmt.Fprintln(w, "\nSteps:")
		for i, s := range card.Content.ActionableSteps {
			fmt.Fprintf(w, "  %d. %s\n", i+1, s)
		}
	}
	if card.Content.Timeline != "" {
		fmt.Fprintf(w, "\nTimeline: %s\n", card.Content.Timeline)
	}
	fmt.Fprintln(w)
}

// WriteStatus writes a status report to w in the given format.
func WriteStatus(w io.Writer, st *StatusReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	if st.Engine != nil {
		if st.Engine.Stats != nil {
			fmt.Fprintf(w, "mentors:            %d\n", st.Engine.Mentors)
			fmt.Fprintf(w, "students:           %d\n", st.Engine.Students)
			fmt.Fprintf(w, "questions:          %d\n", st.Engine.Questions)
			statuses := make([]string, 0, len(st.Engine.QuestionsByState))
			for s := range st.Engine.QuestionsByState {
				statuses = append(statuses, string(s))
			}
			sort.Strings(statuses)
			for _, s := range statuses {
				fmt.Fprintf(w, "  %-22s %d\n", s+":", st.Engine.QuestionsByState[models.QuestionStatus(s)])
			}
			fmt.Fprintf(w, "cards:              %d\n", st.Engine.Cards)
			fmt.Fprintf(w, "vectorized_cards:   %d\n", st.Engine.VectorizedCards)
		}
		fmt.Fprintf(w, "indexed_cards:      %d   # vectors in the semantic index\n", st.Engine.IndexedCards)
		fmt.Fprintf(w, "company_aliases:    %d\n", st.Engine.CompanyAliases)
		fmt.Fprintf(w, "cached_matches:     %d\n", st.Engine.CachedMatches)
	}
	if d := st.DiskUsage; d != nil {
		fmt.Fprintf(w, "database_bytes:     %d\n", d.DatabaseBytes)
		fmt.Fprintf(w, "wal_bytes:          %d   # -wal and -shm sidecars\n", d.WALBytes)
		fmt.Fprintf(w, "vector_index_bytes: %d\n", d.VectorIndexBytes)
		fmt.Fprintf(w, "disk_total_bytes:   %d\n", d.TotalBytes)
	}
	if c := st.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# configuration")
		if c.EmbeddingModel != "" {
			fmt.Fprintf(w, "embedding_model:    %s\n", c.EmbeddingModel)
		}
		if c.EmbeddingDimensions > 0 {
			fmt.Fprintf(w, "embedding_dims:     %d\n", c.EmbeddingDimensions)
		}
		if c.MaxAssignAttempts > 0 {
			fmt.Fprintf(w, "max_assign_attempts: %d\n", c.MaxAssignAttempts)
		}
		if c.DatabasePath != "" {
			fmt.Fprintf(w, "database_path:      %s\n", c.DatabasePath)
		}
		if c.VectorIndexPath != "" {
			fmt.Fprintf(w, "vector_index_path:  %s\n", c.VectorIndexPath)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
