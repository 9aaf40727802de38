// Package content holds the static copy shown on the portfolio pages.
package content

import (
	_ "embed"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultYAML []byte

type Link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

type Project struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	Caption     string `yaml:"caption"`
	Links       []Link `yaml:"links"`
}

// Skill is one bar in the skills chart. Level is a percentage.
type Skill struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Level int    `yaml:"level"`
}

// DisplayName is the slider label, falling back to Name.
func (s Skill) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

type Milestone struct {
	Period    string `yaml:"period"`
	Milestone string `yaml:"milestone"`
}

type Catalog struct {
	Title  string `yaml:"title"`
	Footer string `yaml:"footer"`
	Study  struct {
		Field      string `yaml:"field"`
		University string `yaml:"university"`
	} `yaml:"study"`
	Projects       []Project   `yaml:"projects"`
	Skills         []Skill     `yaml:"skills"`
	Certifications []string    `yaml:"certifications"`
	Timeline       []Milestone `yaml:"timeline"`
	Contact        struct {
		Email string `yaml:"email"`
		Links []Link `yaml:"links"`
	} `yaml:"contact"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	for _, s := range c.Skills {
		if s.Level < 0 || s.Level > 100 {
			return nil, fmt.Errorf("skill %q: level %d outside 0..100", s.Name, s.Level)
		}
	}
	return &c, nil
}

// SkillLevels returns the skills with levels overridden from lookup, keyed by
// skill name. Unparseable overrides are ignored and values are clamped to
// 0..100.
func (c *Catalog) SkillLevels(lookup func(name string) (string, bool)) []Skill {
	out := make([]Skill, len(c.Skills))
	copy(out, c.Skills)
	for i := range out {
		raw, ok := lookup(out[i].Name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		out[i].Level = min(max(n, 0), 100)
	}
	return out
}
