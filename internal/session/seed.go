package session

import (
	"fmt"

	"github.com/set-night/tutorme/internal/domain"
)

// SeedMessages returns the hidden system primer and the visible greeting every
// new tab starts with.
func SeedMessages(tabID string, level domain.EducationLevel, subject string) []domain.Message {
	return []domain.Message{
		{
			Role: domain.RoleSystem,
			Content: fmt.Sprintf("You are an expert, approachable, and supportive AI assistant designed to help students "+
				"in the Singapore %s education system, specifically with %s.", level, subject),
			TabID: tabID,
		},
		{
			Role: domain.RoleModel,
			Content: fmt.Sprintf("Hi there! I'm ready to help you with your %s %s. What topic or question are you working on today? "+
				"Don't hesitate to ask even if it seems simple; it's important to have a strong foundation. "+
				"Let me know how I can support you!", level, subject),
			TabID: tabID,
		},
	}
}
