package domain

type AIModel struct {
	ID              string
	Name            string
	Description     string
	PromptPrice     float64 // per 1M tokens
	CompletionPrice float64 // per 1M tokens
	ContextLength   int
	Capabilities    ModelCapabilities
}

type ModelCapabilities struct {
	Vision bool
	Files  bool
}

func (m *AIModel) IsFree() bool {
	return m.PromptPrice == 0 && m.CompletionPrice == 0
}

// Models are the model variants a tab can target.
var Models = []AIModel{
	{ID: "gemini-2.0-flash-exp", Name: "Gemini 2.0 Flash", Capabilities: ModelCapabilities{Vision: true, Files: true}},
	{ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Capabilities: ModelCapabilities{Vision: true, Files: true}},
}

// FindModel looks up a selectable model by id.
func FindModel(id string) (AIModel, bool) {
	for _, m := range Models {
		if m.ID == id {
			return m, true
		}
	}
	return AIModel{}, false
}
