// Package notifier provides a webhook client for announcing badge
// unlocks to an external chat or notification surface.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hackboard/badge-engine/internal/config"
	"github.com/hackboard/badge-engine/internal/models"
	"github.com/hackboard/badge-engine/internal/service/achievements"
	"github.com/hackboard/badge-engine/pkg/logger"
)

// Client posts unlock announcements to a configured webhook.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	log        *logger.Logger
}

// NewClient creates a new webhook notifier.
func NewClient(cfg *config.NotifierConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		log:        log,
	}
}

// Message represents a webhook message payload.
type Message struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

// SendMessage sends a message to the webhook.
func (c *Client) SendMessage(msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Notifier is disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent webhook message")

	return nil
}

// AnnounceUnlocks posts an announcement for a non-empty unlock delta.
// Best effort: failures are logged, never returned to the trigger path.
func (c *Client) AnnounceUnlocks(username string, delta *achievements.UnlockDelta) {
	if !c.enabled || delta == nil || delta.Empty() {
		return
	}

	text := fmt.Sprintf("🏆 **@%s** unlocked %d new badge", username, len(delta.Badges))
	if len(delta.Badges) > 1 {
		text += "s"
	}
	text += ":\n\n"

	for _, badge := range delta.Badges {
		icon := badge.Icon
		if icon == "" {
			icon = "🎖️"
		}
		text += fmt.Sprintf("%s **%s** (%s) — %s\n", icon, badge.Name, rarityLabel(badge.Rarity), badge.Description)
	}

	if err := c.SendMessage(&Message{Username: "Badge Engine", Text: text}); err != nil {
		c.log.Warn().Err(err).Str("username", username).Msg("Failed to announce badge unlocks")
	}
}

func rarityLabel(rarity string) string {
	switch rarity {
	case models.RarityLegendary:
		return "Legendary"
	case models.RarityEpic:
		return "Epic"
	case models.RarityRare:
		return "Rare"
	case models.RarityUncommon:
		return "Uncommon"
	default:
		return "Common"
	}
}
