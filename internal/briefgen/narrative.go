package briefgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// NarrativeGenerator writes the short plain-language paragraph that
// accompanies a monthly brief. It is optional; without an API key the
// brief ships without a narrative.
type NarrativeGenerator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewNarrativeGenerator creates a narrative generator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewNarrativeGenerator() (*NarrativeGenerator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &NarrativeGenerator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

const narrativeSystem = "You are a hydrologist writing a short situation brief " +
	"on groundwater stress in Senegal for a non-technical audience. " +
	"Write one paragraph, under 120 words, plain language, no headings."

// Generate produces the narrative paragraph for the given month summary.
func (g *NarrativeGenerator) Generate(ctx context.Context, s Summary) (string, error) {
	log.Printf("briefgen: generating narrative for %s", s.Month[:7])

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(narrativeSystem),
			openai.UserMessage(buildNarrativePrompt(s)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion returned")
	}
	return text, nil
}

func buildNarrativePrompt(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Month: %s\n", s.Month[:7])
	fmt.Fprintf(&b, "Basins in alert: %d, watch: %d, normal: %d, without data: %d\n",
		s.Counts.Alert, s.Counts.Watch, s.Counts.Normal, s.Counts.NoData)
	if len(s.Top) > 0 {
		b.WriteString("Most stressed basins (index, lower is worse):\n")
		for i, t := range s.Top {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %.3f (%s)\n", t.Name, t.ASI, t.Class)
		}
	}
	b.WriteString("Summarize the groundwater situation and what changed matters most.")
	return b.String()
}
