// Package discordapi contains minimal helpers to manage guild voice channels over the
// Discord REST API: create a private channel scoped to a member set, move members in and
// out, and delete the channel on teardown. It deliberately avoids the gateway; everything
// the service needs is reachable over plain REST with a bot token.
package discordapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Discord channel type for guild voice channels.
const channelTypeGuildVoice = 2

// Permission bits used in channel overwrites.
const (
	permViewChannel = 1 << 10
	permConnect     = 1 << 20
	permSpeak       = 1 << 21
)

// ErrMemberNotConnected indicates a member move failed because the member is not in a
// voice channel. Callers treat this as a skip, not a failure.
var ErrMemberNotConnected = errors.New("discord: member not connected to voice")

// Client provides the minimal Discord REST surface for voice channel management.
type Client struct {
	BaseURL    string
	BotToken   string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) base() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://discord.com/api/v10"
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base()+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+c.BotToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http().Do(req)
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}

type permissionOverwrite struct {
	ID    string `json:"id"`
	Type  int    `json:"type"` // 0=role, 1=member
	Allow string `json:"allow"`
	Deny  string `json:"deny"`
}

// CreateVoiceChannel creates a private voice channel in the guild, visible and joinable
// only by the given members. The @everyone role (whose id equals the guild id) is denied
// view and connect, so access is default-deny. Returns the new channel id.
func (c *Client) CreateVoiceChannel(ctx context.Context, guildID, name, categoryID string, memberIDs []string) (string, error) {
	if guildID == "" || name == "" {
		return "", errors.New("missing guildID or name")
	}
	overwrites := []permissionOverwrite{
		{ID: guildID, Type: 0, Deny: fmt.Sprintf("%d", permViewChannel|permConnect)},
	}
	for _, id := range memberIDs {
		overwrites = append(overwrites, permissionOverwrite{
			ID:    id,
			Type:  1,
			Allow: fmt.Sprintf("%d", permViewChannel|permConnect|permSpeak),
		})
	}
	payload := map[string]any{
		"name":                  name,
		"type":                  channelTypeGuildVoice,
		"permission_overwrites": overwrites,
	}
	if categoryID != "" {
		payload["parent_id"] = categoryID
	}
	resp, err := c.do(ctx, http.MethodPost, "/guilds/"+guildID+"/channels", payload)
	if err != nil {
		return "", err
	}
	defer closeBody(resp)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("discord create channel failed: %s: %s", resp.Status, string(b))
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.ID == "" {
		return "", errors.New("discord create channel: empty channel id in response")
	}
	return body.ID, nil
}

// MoveMember moves a guild member into the given voice channel. Discord rejects the
// request when the member is not currently connected to voice; that case is surfaced as
// ErrMemberNotConnected so callers can skip it.
func (c *Client) MoveMember(ctx context.Context, guildID, userID, channelID string) error {
	return c.patchMemberChannel(ctx, guildID, userID, &channelID)
}

// DisconnectMember removes a guild member from voice entirely (channel_id null).
func (c *Client) DisconnectMember(ctx context.Context, guildID, userID string) error {
	return c.patchMemberChannel(ctx, guildID, userID, nil)
}

func (c *Client) patchMemberChannel(ctx context.Context, guildID, userID string, channelID *string) error {
	if guildID == "" || userID == "" {
		return errors.New("missing guildID or userID")
	}
	payload := map[string]any{"channel_id": channelID}
	resp, err := c.do(ctx, http.MethodPatch, "/guilds/"+guildID+"/members/"+userID, payload)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusBadRequest:
		// Discord returns 400 when the target is not connected to a voice channel.
		return ErrMemberNotConnected
	default:
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord move member failed: %s: %s", resp.Status, string(b))
	}
}

// DeleteChannel deletes a channel. A 404 is treated as success so teardown stays
// idempotent when the channel was removed out of band.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	if channelID == "" {
		return errors.New("missing channelID")
	}
	resp, err := c.do(ctx, http.MethodDelete, "/channels/"+channelID, nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("discord delete channel failed: %s: %s", resp.Status, string(b))
	}
	return nil
}
