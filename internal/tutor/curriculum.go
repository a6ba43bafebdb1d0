package tutor

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/set-night/tutorme/internal/domain"
)

//go:embed curriculum.yaml
var curriculumYAML []byte

type Subject struct {
	Name       string `yaml:"name"`
	Intro      string `yaml:"intro"`
	Focus      string `yaml:"focus"`
	Guardrails string `yaml:"guardrails"`
}

type Level struct {
	ID       domain.EducationLevel `yaml:"id"`
	Subjects []Subject             `yaml:"subjects"`
}

// Curriculum is the catalogue of levels and subjects the tutor supports.
type Curriculum struct {
	Guardrails string  `yaml:"guardrails"`
	Formatting string  `yaml:"formatting"`
	Levels     []Level `yaml:"levels"`
}

var (
	loadOnce   sync.Once
	curriculum *Curriculum
	loadErr    error
)

// ParseCurriculum decodes a curriculum document.
func ParseCurriculum(data []byte) (*Curriculum, error) {
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	if len(c.Levels) == 0 {
		return nil, fmt.Errorf("parse curriculum: no levels defined")
	}
	return &c, nil
}

// Default returns the embedded curriculum. It panics if the embedded file is
// broken, which the package tests rule out.
func Default() *Curriculum {
	loadOnce.Do(func() {
		curriculum, loadErr = ParseCurriculum(curriculumYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return curriculum
}

func (c *Curriculum) level(level domain.EducationLevel) (*Level, bool) {
	for i := range c.Levels {
		if c.Levels[i].ID == level {
			return &c.Levels[i], true
		}
	}
	return nil, false
}

func (c *Curriculum) Subject(level domain.EducationLevel, name string) (*Subject, error) {
	if level == "" || name == "" {
		return nil, domain.ErrMissingContext
	}
	l, ok := c.level(level)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidLevel, level)
	}
	for i := range l.Subjects {
		if l.Subjects[i].Name == name {
			return &l.Subjects[i], nil
		}
	}
	return nil, fmt.Errorf("%w for %s: %s", domain.ErrInvalidSubject, level, name)
}

// SystemPrompt composes the full system prompt for a level and subject.
func (c *Curriculum) SystemPrompt(level domain.EducationLevel, subject string) (string, error) {
	s, err := c.Subject(level, subject)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(s.Intro))
	b.WriteString("\n\nCore Focus Areas:\n")
	b.WriteString(strings.TrimSpace(s.Focus))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(c.Guardrails))
	b.WriteString("\n\nAdditional Subject Guardrails:\n")
	b.WriteString(strings.TrimSpace(s.Guardrails))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(c.Formatting))
	return b.String(), nil
}

// ValidOptions lists subject names per level, as reported to clients that
// send an unknown level or subject.
func (c *Curriculum) ValidOptions() map[string][]string {
	out := make(map[string][]string, len(c.Levels))
	for _, l := range c.Levels {
		names := make([]string, 0, len(l.Subjects))
		for _, s := range l.Subjects {
			names = append(names, s.Name)
		}
		out[string(l.ID)] = names
	}
	return out
}

// Subjects lists the subject names of a level in catalogue order.
func (c *Curriculum) Subjects(level domain.EducationLevel) []string {
	return c.ValidOptions()[string(level)]
}

// ParseChoice reads "<level> [subject]". The level may be written as
// "O-Level" or "o level"; the subject is matched case-insensitively. An empty
// subject means only the level was given.
func (c *Curriculum) ParseChoice(args string) (domain.EducationLevel, string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", "", domain.ErrMissingContext
	}
	var level domain.EducationLevel
	rest := ""
	var err error
	for n := min(2, len(fields)); n >= 1; n-- {
		level, err = domain.ParseEducationLevel(strings.Join(fields[:n], " "))
		if err == nil {
			rest = strings.Join(fields[n:], " ")
			break
		}
	}
	if err != nil {
		return "", "", err
	}
	if rest == "" {
		return level, "", nil
	}
	for _, s := range c.Subjects(level) {
		if strings.EqualFold(s, rest) {
			return level, s, nil
		}
	}
	return "", "", fmt.Errorf("%w for %s: %s (available: %s)",
		domain.ErrInvalidSubject, level.Label(), rest, strings.Join(c.Subjects(level), ", "))
}
