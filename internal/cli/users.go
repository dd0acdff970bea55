package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/mentorlink/internal/models"
)

// LoadUsersFile reads a YAML or JSON list of user profiles. Keys follow the JSON field names
// of models.MentorProfile (e.g. max_load, special_tags).
func LoadUsersFile(path string) ([]*models.MentorProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var raw []map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}
	// Re-encode through JSON so the model's json tags drive field names.
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to convert users: %w", err)
	}
	var users []*models.MentorProfile
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	for i, u := range users {
		u.ID = strings.TrimSpace(u.ID)
		if u.ID == "" {
			return nil, fmt.Errorf("user %d: id is required", i)
		}
		switch u.Role {
		case models.RoleMentor, models.RoleStudent:
		case "":
			u.Role = models.RoleStudent
		default:
			return nil, fmt.Errorf("user %s: unknown role %q", u.ID, u.Role)
		}
		if u.Role == models.RoleMentor && u.MaxLoad <= 0 {
			u.MaxLoad = 5
		}
	}
	return users, nil
}
