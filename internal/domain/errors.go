package domain

import "errors"

var (
	ErrTabNotFound          = errors.New("tab not found")
	ErrInvalidLevel         = errors.New("invalid education level")
	ErrInvalidSubject       = errors.New("invalid subject")
	ErrMissingContext       = errors.New("education level and subject must be provided")
	ErrEmptyHistory         = errors.New("messages array is required and must not be empty")
	ErrEmptyMessage         = errors.New("last message must contain either content, image, or PDF")
	ErrModelNotFound        = errors.New("model not found")
	ErrMaxChats             = errors.New("maximum number of chats reached")
	ErrSummaryNotFound      = errors.New("chat summary not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNoDatabase           = errors.New("conversation storage is not configured")
)
