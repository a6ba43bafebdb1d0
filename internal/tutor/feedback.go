package tutor

import (
	"context"
	"fmt"

	"github.com/set-night/tutorme/internal/completion"
	"github.com/set-night/tutorme/internal/provider"
)

const feedbackTemplate = `Analyze the following feedback received for a response generated by the model:

Feedback Type: %s
Comment: %s

Based on this feedback, please provide suggestions on how the model can improve its responses in the future. Consider the following aspects:
- Accuracy of the content
- Clarity of the explanation
- Adherence to the specified format
- Usefulness of the example and solution sections
- Overall helpfulness of the tips and verification sections

Please provide specific and actionable recommendations for improvement.`

func (s *Service) feedback(ctx context.Context, model string, req completion.Request) (*completion.Response, error) {
	gen, err := s.provider.Generate(ctx, provider.Request{
		Model:  model,
		Prompt: fmt.Sprintf(feedbackTemplate, req.Feedback.Type, req.Feedback.Comment),
	})
	if err != nil {
		return nil, fmt.Errorf("process feedback: %w", err)
	}
	return &completion.Response{
		FeedbackResponse: gen.Text,
		TabID:            req.TabID,
		Usage: &completion.Usage{
			PromptTokens:     gen.Usage.PromptTokens,
			CompletionTokens: gen.Usage.CompletionTokens,
			Cost:             gen.Usage.Cost,
		},
	}, nil
}
