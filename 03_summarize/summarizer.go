package summarize

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const cvSystemPrompt = `You are an expert at summarizing resumes/CVs.

Extract and organize ALL information from the CV into a clean, well-structured outline.

Include:
- Name and contact information
- Education (degrees, institutions, dates)
- Work experience (company, role, dates, key achievements)
- Skills and technologies
- Projects or notable accomplishments
- Any certifications or awards

Format it as a readable outline with clear sections and bullet points.
Be comprehensive - don't leave out any experience or achievement.`

const companySystemPrompt = `You are an expert at analyzing and summarizing company websites.

Read through all the content provided and create a comprehensive summary that captures:
- The main purpose and focus of the company
- All key information presented on the website
- Any notable details about what they do, how they operate, and what they value

Be thorough and include everything important. Format as a clear, readable summary.`

// Summarizer turns raw CV and website text into prose summaries.
type Summarizer struct {
	model       string
	temperature float64
}

// New creates a new Summarizer.
func New(model string, temperature float64) *Summarizer {
	return &Summarizer{model: model, temperature: temperature}
}

// SummarizeCV summarizes raw CV text into a structured outline.
func (s *Summarizer) SummarizeCV(ctx context.Context, rawCVText string) (string, error) {
	log.Println("[summarize] Summarizing CV...")
	return s.summarize(ctx, cvSystemPrompt, rawCVText)
}

// SummarizeCompany summarizes scraped website text into a company profile.
func (s *Summarizer) SummarizeCompany(ctx context.Context, websiteText string) (string, error) {
	log.Println("[summarize] Summarizing company website...")
	return s.summarize(ctx, companySystemPrompt, websiteText)
}

func (s *Summarizer) summarize(ctx context.Context, systemPrompt, input string) (string, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(input),
		},
		Model:       openai.ChatModel(s.model),
		Temperature: openai.Float(s.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	summary := resp.Choices[0].Message.Content
	if summary == "" {
		return "", fmt.Errorf("openai returned an empty summary")
	}

	log.Printf("[summarize] ✅ Generated summary (%d characters)", len(summary))
	return summary, nil
}
