package domain

import (
	"fmt"
	"strings"
)

type EducationLevel string

const (
	LevelPSLE   EducationLevel = "PSLE"
	LevelOLevel EducationLevel = "OLEVEL"
)

// Levels lists the supported education levels in display order.
var Levels = []EducationLevel{LevelPSLE, LevelOLevel}

func (l EducationLevel) Valid() bool {
	return l == LevelPSLE || l == LevelOLevel
}

// Label is the human-facing name of the level.
func (l EducationLevel) Label() string {
	switch l {
	case LevelOLevel:
		return "O-Level"
	default:
		return string(l)
	}
}

// ParseEducationLevel accepts the canonical names plus the spellings students
// tend to type ("o-level", "O Level", "psle").
func ParseEducationLevel(s string) (EducationLevel, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", " ", "", "_", "").Replace(norm)
	switch norm {
	case "PSLE":
		return LevelPSLE, nil
	case "OLEVEL", "OLEVELS":
		return LevelOLevel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}
