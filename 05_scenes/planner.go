package scenes

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

const systemPrompt = `You are a creative director for funny, viral TikTok-style pitch videos.

Your job is to create 6 hilarious, over-the-top visual scenes that match song lyrics for a "hire me" video.

IMPORTANT CONTEXT:
- A selfie of the candidate will be provided as a reference image to the image editor
- The image editor will TRANSFORM the person in the selfie based on your image prompt
- The video model will then ANIMATE the edited image (not the original selfie)

For each 5-second scene, create:

1. **Scene Description**: What's happening visually (keep it funny and absurd!)

2. **Image Prompt** (for the image editor):
   - This transforms the reference selfie into a completely new scene
   - **CRITICAL**: The person's FACE must stay the same, but EVERYTHING ELSE should change dramatically
   - **ALWAYS modify**: Background/setting, clothing/outfit, props, lighting, environment
   - Each scene should look completely different from the others
   - Be specific about the new setting, outfit, and props
   - DO NOT use specific names - just say "the person" or "the candidate"

3. **Video Prompt** (for the video model):
   - This animates the edited image
   - Describe what movements/actions should happen
   - Keep it simple but funny
   - Should logically animate from the generated image
   - DO NOT use specific names - just say "the person" or "the candidate"

CRITICAL GUIDELINES:
- **MOST IMPORTANT**: Each scene MUST follow the song lyrics and be funny and ridiculous!
- **PRESERVE THE FACE**: The image editor must keep the person's facial features identical
- **CHANGE EVERYTHING ELSE**: Every scene needs a different background, outfit, and setup
- NEVER use names or company names - always refer to "the person", "the candidate", "they"
- Both prompts must be COHERENT (video continues from the image)
- Each scene should be VISUALLY DISTINCT with unique settings and outfits`

func generateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var planSchema = generateSchema[types.ScenePlan]()

// Planner produces per-scene image and video prompts from the summaries and
// the generated song.
type Planner struct {
	model       string
	temperature float64
}

// New creates a new Planner.
func New(model string, temperature float64) *Planner {
	return &Planner{model: model, temperature: temperature}
}

// Plan generates the 6-scene visual plan matching the song's scenes.
func (p *Planner) Plan(ctx context.Context, cvSummary, companySummary string, song *types.SongStructure) (*types.ScenePlan, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	log.Println("[scenes] Planning 6 visual scenes...")

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "scene_plan",
		Description: openai.String("Visual plans for 6 five-second video scenes"),
		Schema:      planSchema,
		Strict:      openai.Bool(true),
	}

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(cvSummary, companySummary, song)),
		},
		Model:       openai.ChatModel(p.model),
		Temperature: openai.Float(p.temperature),
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
	var plan types.ScenePlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, fmt.Errorf("parse scene plan JSON: %w", err)
	}

	if err := plan.Validate(song); err != nil {
		return nil, fmt.Errorf("scene plan failed validation: %w", err)
	}

	log.Printf("[scenes] ✅ Generated %d visual scenes", len(plan.Scenes))
	return &plan, nil
}

func buildUserPrompt(cvSummary, companySummary string, song *types.SongStructure) string {
	var sb strings.Builder
	sb.WriteString("Create 6 hilarious visual scenes for this candidate's \"hire me\" video.\n\n")
	sb.WriteString("CANDIDATE SUMMARY:\n")
	sb.WriteString(cvSummary)
	sb.WriteString("\n\nCOMPANY SUMMARY:\n")
	sb.WriteString(companySummary)
	sb.WriteString("\n\nSONG LYRICS BY SCENE:\n")
	for _, sc := range song.Scenes {
		sb.WriteString(fmt.Sprintf("Scene %d (%s): %q\n", sc.SceneNum, sc.TimeRange, sc.Lyrics))
	}
	sb.WriteString("\nMake each scene visually funny and memorable while showcasing the candidate's fit for the role!")
	return sb.String()
}
