// internal/bedrock/models.go
package bedrock

// titanRequest is the Titan text model invocation body.
type titanRequest struct {
	InputText            string                `json:"inputText"`
	TextGenerationConfig titanGenerationConfig `json:"textGenerationConfig"`
}

type titanGenerationConfig struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"topP"`
	MaxTokenCount int     `json:"maxTokenCount"`
}

// titanResponse is the expected result envelope. OutputText is a pointer so
// a present-but-empty completion can be told apart from a missing field.
type titanResponse struct {
	Results []titanResult `json:"results"`
}

type titanResult struct {
	OutputText *string `json:"outputText"`
}
