package tutor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/tutorme/internal/domain"
)

func TestDefaultCurriculum(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"Mathematics", "Science", "English", "Mother Tongue"}, c.Subjects(domain.LevelPSLE))
	assert.Equal(t, []string{
		"English Language",
		"Elementary Mathematics",
		"Additional Mathematics",
		"Combined Science (Physics/Chemistry)",
		"Pure Physics",
		"Combined Humanities",
	}, c.Subjects(domain.LevelOLevel))

	for _, l := range c.Levels {
		for _, s := range l.Subjects {
			assert.NotEmpty(t, s.Intro, "%s/%s intro", l.ID, s.Name)
			assert.NotEmpty(t, s.Focus, "%s/%s focus", l.ID, s.Name)
			assert.NotEmpty(t, s.Guardrails, "%s/%s guardrails", l.ID, s.Name)
		}
	}
}

func TestSystemPrompt(t *testing.T) {
	prompt, err := Default().SystemPrompt(domain.LevelPSLE, "Mathematics")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(prompt, "You are an experienced Singapore PSLE Mathematics tutor"))
	assert.Contains(t, prompt, "Core Focus Areas:\n1. Numbers and Operations")
	assert.Contains(t, prompt, "Use Singapore dollars (SGD) in examples")
	assert.Contains(t, prompt, "Additional Subject Guardrails:\n1. Mathematical Accuracy")
	assert.Contains(t, prompt, "Apply Singapore Math model method")
	assert.True(t, strings.HasSuffix(prompt, `- Use <div class="verification"> for checking`))

	// guardrails come before the subject guardrails, formatting last
	assert.Less(t, strings.Index(prompt, "Integrity and Ethics"), strings.Index(prompt, "Additional Subject Guardrails"))
	assert.Less(t, strings.Index(prompt, "Additional Subject Guardrails"), strings.Index(prompt, "Response Formatting:"))
}

func TestSystemPrompt_Errors(t *testing.T) {
	c := Default()

	_, err := c.SystemPrompt("", "Mathematics")
	assert.ErrorIs(t, err, domain.ErrMissingContext)

	_, err = c.SystemPrompt("JC", "Mathematics")
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)

	_, err = c.SystemPrompt(domain.LevelPSLE, "Pure Physics")
	assert.ErrorIs(t, err, domain.ErrInvalidSubject)
	assert.Contains(t, err.Error(), "PSLE")
}

func TestValidOptions(t *testing.T) {
	opts := Default().ValidOptions()
	require.Len(t, opts, 2)
	assert.Len(t, opts["PSLE"], 4)
	assert.Len(t, opts["OLEVEL"], 6)
}

func TestParseCurriculum_Invalid(t *testing.T) {
	_, err := ParseCurriculum([]byte("levels: [}"))
	assert.Error(t, err)

	_, err = ParseCurriculum([]byte("guardrails: x\n"))
	assert.Error(t, err)
}

func TestParseChoice(t *testing.T) {
	c := Default()

	tests := []struct {
		in      string
		level   domain.EducationLevel
		subject string
		err     error
	}{
		{"PSLE Mathematics", domain.LevelPSLE, "Mathematics", nil},
		{"psle science", domain.LevelPSLE, "Science", nil},
		{"O Level Pure Physics", domain.LevelOLevel, "Pure Physics", nil},
		{"o-level", domain.LevelOLevel, "", nil},
		{"PSLE", domain.LevelPSLE, "", nil},
		{"", "", "", domain.ErrMissingContext},
		{"JC Mathematics", "", "", domain.ErrInvalidLevel},
		{"PSLE Pure Physics", "", "", domain.ErrInvalidSubject},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, subject, err := c.ParseChoice(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.subject, subject)
		})
	}
}
