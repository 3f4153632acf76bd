// Package discord delivers notifications as Discord direct messages.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/weathervane/weathervane/internal/notify"
)

const (
	defaultAPIURL  = "https://discord.com/api/v10"
	defaultTimeout = 10 * time.Second
	defaultRate    = 5.0
)

// Config holds Discord channel configuration.
type Config struct {
	Token             string
	APIURL            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Channel implements notify.Channel by opening DM channels and posting
// embeds through the Discord REST API.
type Channel struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter

	mu         sync.Mutex
	dmChannels map[int64]string // user id -> DM channel id
}

// NewChannel creates a Discord delivery channel.
// Returns an error when no bot token is configured.
func NewChannel(config Config) (*Channel, error) {
	if config.Token == "" {
		return nil, errors.New("discord channel: bot token is required")
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = defaultRate
	}

	slog.Info("discord channel configured",
		"token", maskToken(config.Token),
		"rate_limit", config.RequestsPerSecond,
	)

	return &Channel{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		dmChannels: make(map[int64]string),
	}, nil
}

func (c *Channel) Name() string {
	return "discord"
}

// Ready verifies the bot token by loading the bot's own user.
func (c *Channel) Ready(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/users/@me", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	_, err = c.handleResponse(resp)
	return err
}

// Send delivers a message as an embed in the user's DM channel.
func (c *Channel) Send(ctx context.Context, userID int64, msg notify.Message) error {
	emb, err := buildEmbed(msg)
	if err != nil {
		return err
	}

	channelID, err := c.dmChannelID(ctx, userID)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/messages", messagePayload{
		Embeds: []embed{emb},
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if _, err := c.handleResponse(resp); err != nil {
		return err
	}

	slog.Debug("discord message sent", "user_id", userID, "kind", msg.Kind())
	return nil
}

// dmChannelID opens (or returns the cached) DM channel for a user.
func (c *Channel) dmChannelID(ctx context.Context, userID int64) (string, error) {
	c.mu.Lock()
	id, ok := c.dmChannels[userID]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	resp, err := c.do(ctx, http.MethodPost, "/users/@me/channels", dmChannelRequest{
		RecipientID: strconv.FormatInt(userID, 10),
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := c.handleResponse(resp)
	if err != nil {
		return "", err
	}

	var ch dmChannelResponse
	if err := json.Unmarshal(body, &ch); err != nil {
		return "", fmt.Errorf("decode dm channel: %w", err)
	}
	if ch.ID == "" {
		return "", &PermanentError{Message: "dm channel response missing id"}
	}

	c.mu.Lock()
	c.dmChannels[userID] = ch.ID
	c.mu.Unlock()
	return ch.ID, nil
}

func (c *Channel) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.config.APIURL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.config.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RetryableError{Message: fmt.Sprintf("send request: %v", err)}
	}
	return resp, nil
}

func (c *Channel) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return body, nil

	case resp.StatusCode == http.StatusBadRequest:
		return nil, &PermanentError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("bad request: %s", string(body)),
		}

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &PermanentError{
			Code:    resp.StatusCode,
			Message: "invalid bot token",
		}

	case resp.StatusCode == http.StatusForbidden:
		return nil, &PermanentError{
			Code:    resp.StatusCode,
			Message: "cannot send messages to this user",
		}

	case resp.StatusCode == http.StatusNotFound:
		return nil, &PermanentError{
			Code:    resp.StatusCode,
			Message: "unknown user or channel",
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RetryableError{
			Code:    resp.StatusCode,
			Message: "rate limited",
		}

	case resp.StatusCode >= 500:
		return nil, &RetryableError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("server error: %s", string(body)),
		}

	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// buildEmbed converts a message into a Discord embed.
func buildEmbed(msg notify.Message) (embed, error) {
	switch m := msg.(type) {
	case notify.ForecastMessage:
		e := embed{
			Title:  m.Title(),
			Color:  notify.ForecastColor(m),
			Footer: &embedFooter{Text: m.Footer()},
		}
		daily := m.Kind() == notify.KindForecastDaily
		for _, day := range m.Days {
			value := notify.DayLine(day, m.Units)
			if daily {
				if extras := notify.DayExtras(day); extras != "" {
					value += "\n" + extras
				}
			}
			e.Fields = append(e.Fields, embedField{Name: day.Date, Value: value})
		}
		return e, nil

	case notify.AlertsMessage:
		e := embed{
			Title: m.Title(),
			Color: notify.ColorAlert,
		}
		for _, a := range m.Alerts {
			e.Fields = append(e.Fields, embedField{
				Name:  notify.AlertTitle(a),
				Value: notify.AlertBody(a),
			})
		}
		return e, nil

	default:
		return embed{}, fmt.Errorf("unsupported message kind: %s", msg.Kind())
	}
}

// maskToken hides most of the bot token for logging.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// Discord REST payload types.

type dmChannelRequest struct {
	RecipientID string `json:"recipient_id"`
}

type dmChannelResponse struct {
	ID string `json:"id"`
}

type messagePayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title  string       `json:"title,omitempty"`
	Color  int          `json:"color,omitempty"`
	Fields []embedField `json:"fields,omitempty"`
	Footer *embedFooter `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// PermanentError indicates a delivery failure that will not succeed on
// retry.
type PermanentError struct {
	Code    int
	Message string
}

func (e *PermanentError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("discord error: %s", e.Message)
}

// IsRetryable returns false as permanent errors should not be retried.
func (e *PermanentError) IsRetryable() bool { return false }

// RetryableError indicates a temporary delivery failure.
type RetryableError struct {
	Code    int
	Message string
}

func (e *RetryableError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("discord error: %s", e.Message)
}

// IsRetryable returns true as these errors are temporary.
func (e *RetryableError) IsRetryable() bool { return true }
