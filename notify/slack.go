package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"recipeadapter"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SlackClient posts adapted recipes to a Slack incoming webhook.
type SlackClient struct {
	webhookURL string
	httpClient doer
}

func NewSlackClient(webhookURL string, httpClient doer) *SlackClient {
	return &SlackClient{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// PostAdaptedRecipe posts the final recipe text to the given channel,
// prefixed with the target style so readers can tell adaptations apart.
func (c *SlackClient) PostAdaptedRecipe(ctx context.Context, channel string, recipe recipeadapter.AdaptedRecipe) error {
	var text strings.Builder
	fmt.Fprintf(&text, "*Adapted recipe (%s)*\n", recipe.TargetStyle)
	text.WriteString(recipe.Text)

	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    text.String(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post adapted recipe: %s", resp.Status)
	}

	return nil
}
