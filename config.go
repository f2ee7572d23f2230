package recipeadapter

import "time"

type ModelConfig struct {
	ModelID     string  `env:"MODEL_ID,default=gemini-2.5-flash"`
	MaxTokens   int32   `env:"MAX_TOKENS,default=2048"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AdapterConfig struct {
	ArtifactsConversionsPath string        `env:"ARTIFACTS_CONVERSIONS_PATH,default=artifacts/conversions.json"`
	ArtifactsRecipePath      string        `env:"ARTIFACTS_RECIPE_PATH,default=artifacts/recipe.json"`
	LLMCallTimeout           time.Duration `env:"LLM_CALL_TIMEOUT,default=60s"`
	SlackWebhookURL          string        `env:"SLACK_WEBHOOK_URL,default="`
	SlackChannel             string        `env:"SLACK_CHANNEL,default=#recipes"`
}

type GeminiConfig struct {
	APIKey string `env:"GEMINI_API_KEY,required"`
}
