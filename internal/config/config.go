package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"scriptorium/internal/domain"
)

// Config models scriptorium.yml.
type Config struct {
	Project struct {
		ID string `yaml:"id"`
	} `yaml:"project"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Auth struct {
		Secret                 string `yaml:"secret"`
		TokenTTLMinutes        int    `yaml:"token_ttl_minutes"`
		AllowLegacyActorHeader bool   `yaml:"allow_legacy_actor_header"`
	} `yaml:"auth"`
	Seed struct {
		Groups []SeedGroup `yaml:"groups"`
		Users  []SeedUser  `yaml:"users"`
	} `yaml:"seed"`
	Webhooks []Webhook `yaml:"webhooks"`
}

type SeedGroup struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
	Group string `yaml:"group"`
}

type Webhook struct {
	URL     string   `yaml:"url"`
	Actions []string `yaml:"actions"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with scr init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Auth.TokenTTLMinutes < 0 {
		return fmt.Errorf("config.auth.token_ttl_minutes must not be negative")
	}
	groups := map[string]bool{}
	for _, g := range c.Seed.Groups {
		if g.ID == "" || g.Name == "" {
			return fmt.Errorf("seed group needs both id and name")
		}
		if groups[g.ID] {
			return fmt.Errorf("seed group %s defined twice", g.ID)
		}
		groups[g.ID] = true
	}
	emails := map[string]bool{}
	for _, u := range c.Seed.Users {
		if u.ID == "" || u.Name == "" || u.Email == "" {
			return fmt.Errorf("seed user needs id, name and email")
		}
		if !domain.Role(u.Role).Valid() {
			return fmt.Errorf("seed user %s has unknown role %q", u.ID, u.Role)
		}
		email := strings.ToLower(u.Email)
		if emails[email] {
			return fmt.Errorf("seed email %s used twice", u.Email)
		}
		emails[email] = true
		if u.Group != "" && !groups[u.Group] {
			return fmt.Errorf("seed user %s references unknown group %s", u.ID, u.Group)
		}
	}
	for _, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("webhook url is required")
		}
		for _, a := range w.Actions {
			if a == "" {
				return fmt.Errorf("webhook %s has empty action filter", w.URL)
			}
		}
	}
	return nil
}

// TokenTTLMinutes returns the configured token lifetime, defaulting to 12 hours.
func (c *Config) TokenTTLMinutes() int {
	if c.Auth.TokenTTLMinutes == 0 {
		return 12 * 60
	}
	return c.Auth.TokenTTLMinutes
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "scriptorium.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s

server:
  addr: :8787

auth:
  secret: ""
  token_ttl_minutes: 720
  allow_legacy_actor_header: false

seed:
  groups:
    - id: grp-annotation
      name: Annotation
    - id: grp-review
      name: Review
  users:
    - id: usr-admin
      name: Ada Moreno
      email: ada@example.com
      role: admin
    - id: usr-annotator-1
      name: Bram Holt
      email: bram@example.com
      role: annotator
      group: grp-annotation
    - id: usr-annotator-2
      name: Chiara Voss
      email: chiara@example.com
      role: annotator
      group: grp-annotation
    - id: usr-reviewer-1
      name: Daniel Okafor
      email: daniel@example.com
      role: reviewer
      group: grp-review
    - id: usr-final-1
      name: Greta Lindqvist
      email: greta@example.com
      role: final_reviewer
      group: grp-review

webhooks: []
`
