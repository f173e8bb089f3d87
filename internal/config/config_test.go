package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault("demo")))
	if err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Project.ID != "demo" {
		t.Fatalf("project id = %q", cfg.Project.ID)
	}
	if len(cfg.Seed.Users) == 0 || len(cfg.Seed.Groups) == 0 {
		t.Fatal("default config should ship seed users and groups")
	}
	if cfg.TokenTTLMinutes() != 720 {
		t.Fatalf("token ttl = %d", cfg.TokenTTLMinutes())
	}
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	yaml := `project:
  id: demo
seed:
  users:
    - id: u1
      name: User One
      email: one@example.com
      role: supervisor
`
	_, err := FromYAML([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsDuplicateEmail(t *testing.T) {
	yaml := `project:
  id: demo
seed:
  users:
    - id: u1
      name: User One
      email: same@example.com
      role: annotator
    - id: u2
      name: User Two
      email: SAME@example.com
      role: reviewer
`
	_, err := FromYAML([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "used twice") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRejectsUnknownGroup(t *testing.T) {
	yaml := `project:
  id: demo
seed:
  users:
    - id: u1
      name: User One
      email: one@example.com
      role: annotator
      group: grp-missing
`
	_, err := FromYAML([]byte(yaml))
	if err == nil || !strings.Contains(err.Error(), "unknown group") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRequiresProjectID(t *testing.T) {
	_, err := FromYAML([]byte("server:\n  addr: :9999\n"))
	if err == nil || !strings.Contains(err.Error(), "project.id") {
		t.Fatalf("err = %v", err)
	}
}
