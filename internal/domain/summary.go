package domain

import "time"

// ChatSummary is a dashboard entry describing a chat the student can open
// as a tab. It is stored separately from the tab list.
type ChatSummary struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Messages        []Message      `json:"messages"`
	Model           string         `json:"model"`
	LastUpdated     time.Time      `json:"lastUpdated"`
	EducationLevel  EducationLevel `json:"educationLevel"`
	Subject         string         `json:"subject"`
	UploadedContent string         `json:"uploadedContent,omitempty"`
}
