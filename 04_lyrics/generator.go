package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"hiresong/types"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = `You are a creative and funny songwriter who creates catchy, memorable 30-second "hire me" pitch songs.

Your job is to create a complete song structure with:
- A catchy title
- Genre, BPM, mood, vocal style, and instrumentation
- 6 scenes of exactly 5 seconds each (0-5s, 5-10s, 10-15s, 15-20s, 20-25s, 25-30s)

CRITICAL LYRICS CONSTRAINTS:
- **THINK ABOUT THE GENRE YOU CHOOSE** - Different genres have different pacing!
- Adjust word count per scene based on the genre:
  * **Rap/Hip-Hop**: 15-20 words per scene (fast delivery)
  * **Pop/Rock**: 8-12 words per scene (moderate pace)
  * **Ballad/Slow**: 5-8 words per scene (slower, drawn-out)
  * **Electronic/Dance**: 6-10 words per scene (repetitive, punchy)
  * **Country/Folk**: 10-14 words per scene (storytelling pace)
- Match your lyrics to the natural rhythm and speed of your chosen genre
- Make lyrics rhyme when possible
- Be creative, funny, and memorable
- Weave in the candidate's best achievements and the company's keywords naturally

IMPORTANT: Try making it as ridiculous and funny as possible!`

// generateSchema builds a strict JSON schema for structured outputs.
func generateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var songSchema = generateSchema[types.SongStructure]()

// Generator produces a SongStructure from the two summaries.
type Generator struct {
	model string
}

// New creates a new Generator.
func New(model string) *Generator {
	return &Generator{model: model}
}

// Generate creates the full 6-scene song. preferredGenre is an optional hint;
// empty means the model picks the genre.
func (g *Generator) Generate(ctx context.Context, cvSummary, companySummary, preferredGenre string) (*types.SongStructure, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	userPrompt := buildUserPrompt(cvSummary, companySummary, preferredGenre)

	log.Println("[lyrics] Generating song lyrics with structured outputs...")

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "song_structure",
		Description: openai.String("A complete 30-second song in 6 five-second scenes"),
		Schema:      songSchema,
		Strict:      openai.Bool(true),
	}

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Model: openai.ChatModel(g.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	raw := completion.Choices[0].Message.Content
	var song types.SongStructure
	if err := json.Unmarshal([]byte(raw), &song); err != nil {
		return nil, fmt.Errorf("parse song JSON: %w\nraw content: %s", err, truncate(raw, 200))
	}

	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("song failed validation: %w", err)
	}

	log.Printf("[lyrics] ✅ Generated song: %q (%s, %d BPM)", song.SongTitle, song.Genre, song.BPM)
	return &song, nil
}

func buildUserPrompt(cvSummary, companySummary, preferredGenre string) string {
	var sb strings.Builder
	sb.WriteString("Create a catchy 30-second \"hire me\" song for this candidate applying to this company.\n\n")
	sb.WriteString("CANDIDATE SUMMARY:\n")
	sb.WriteString(cvSummary)
	sb.WriteString("\n\nCOMPANY SUMMARY:\n")
	sb.WriteString(companySummary)
	sb.WriteString("\n\n")
	if preferredGenre != "" {
		sb.WriteString(fmt.Sprintf("PREFERRED GENRE: %s (use this genre)\n\n", preferredGenre))
	}
	sb.WriteString("Remember: Choose a genre first, then adjust the word count per scene to match that genre's natural pacing!")
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
