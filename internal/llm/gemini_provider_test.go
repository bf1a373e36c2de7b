package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildGeminiContentsWrapsPromptAsUserContent(t *testing.T) {
	p := &GeminiProvider{}

	contents := p.buildGeminiContents("System: be nice\nUser: hello")

	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 1)
	assert.Equal(t, "System: be nice\nUser: hello", contents[0].Parts[0].Text)
}

func TestBuildGenerateConfig(t *testing.T) {
	p := &GeminiProvider{}

	config := p.buildGenerateConfig(&TextRequest{Prompt: "hi"})
	assert.Nil(t, config.SystemInstruction)
	assert.Empty(t, config.ResponseMIMEType)

	config = p.buildGenerateConfig(&TextRequest{
		Prompt:       "hi",
		SystemPrompt: "be nice",
		JSONOutput:   true,
	})
	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "be nice", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
}

func TestExtractGeminiText(t *testing.T) {
	result := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: "hello world"}},
				},
			},
		},
	}

	text, err := extractGeminiText(result)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractGeminiTextErrors(t *testing.T) {
	tests := []struct {
		name   string
		result *genai.GenerateContentResponse
	}{
		{"no candidates", &genai.GenerateContentResponse{}},
		{"no content", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{}},
		}},
		{"no parts", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
		}},
		{"empty text", &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{
				Parts: []*genai.Part{{Text: ""}},
			}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractGeminiText(tt.result)
			assert.Error(t, err)
		})
	}
}

func TestConvertGeminiUsage(t *testing.T) {
	assert.Nil(t, convertGeminiUsage(nil))

	usage := convertGeminiUsage(&genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     12,
		CandidatesTokenCount: 34,
		TotalTokenCount:      46,
	})
	require.NotNil(t, usage)
	assert.Equal(t, 12, usage.InputTokens)
	assert.Equal(t, 34, usage.OutputTokens)
	assert.Equal(t, 46, usage.TotalTokens)
}
