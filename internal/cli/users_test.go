package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mentorlink/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadUsersFile_YAML(t *testing.T) {
	path := writeFile(t, "users.yaml", `
- id: m1
  name: Asha
  role: mentor
  companies: [Google]
  domain: internship
  special_tags: [referral]
  education:
    college_tier: tier2
    field: cse
  rating: 4.8
  max_load: 3
- id: s1
  name: Ravi
`)
	users, err := LoadUsersFile(path)
	if err != nil {
		t.Fatalf("LoadUsersFile: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len = %d, want 2", len(users))
	}
	m := users[0]
	if m.Role != models.RoleMentor || m.MaxLoad != 3 || m.Domain != models.DomainInternship {
		t.Errorf("mentor = %+v", m)
	}
	if len(m.Companies) != 1 || m.Companies[0] != "Google" || m.Education.CollegeTier != "tier2" || m.Rating != 4.8 {
		t.Errorf("mentor fields = %+v", m)
	}
	if users[1].Role != models.RoleStudent {
		t.Errorf("default role = %q, want student", users[1].Role)
	}
}

func TestLoadUsersFile_JSONAndDefaults(t *testing.T) {
	path := writeFile(t, "users.json", `[{"id":"m2","role":"mentor","last_active":"2026-10-01T00:00:00Z"}]`)
	users, err := LoadUsersFile(path)
	if err != nil {
		t.Fatalf("LoadUsersFile: %v", err)
	}
	if users[0].MaxLoad != 5 {
		t.Errorf("MaxLoad = %d, want default 5", users[0].MaxLoad)
	}
	if users[0].LastActive.IsZero() {
		t.Error("last_active not parsed")
	}
}

func TestLoadUsersFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing id", "- name: nobody\n"},
		{"bad role", "- id: x\n  role: admin\n"},
		{"not a list", "id: x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadUsersFile(writeFile(t, "u.yaml", tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := LoadUsersFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
