package slack

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	slacklib "github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/tjansson60/slackrandomcoffee/internal/coffee"
)

// ErrChannelNotFound is returned when the configured channel name does not
// resolve to any conversation visible to the bot.
var ErrChannelNotFound = errors.New("slack: channel not found")

// SlackAPI abstracts the subset of the Slack client used by Client.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	GetConversationsContext(ctx context.Context, params *slacklib.GetConversationsParameters) ([]slacklib.Channel, string, error)
	GetUsersInConversationContext(ctx context.Context, params *slacklib.GetUsersInConversationParameters) ([]string, string, error)
	GetUsersContext(ctx context.Context, options ...slacklib.GetUsersOption) ([]slacklib.User, error)
	GetConversationHistoryContext(ctx context.Context, params *slacklib.GetConversationHistoryParameters) (*slacklib.GetConversationHistoryResponse, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Client implements coffee.ChannelClient on top of the Slack Web API.
// Channels are addressed by name ("#randomcoffees"); the name is resolved to
// a conversation ID where the API requires one. Every call passes through a
// shared rate limiter to stay inside Slack's Web API tiers.
type Client struct {
	api     SlackAPI
	limiter *rate.Limiter
	mention bool // render the notifying "<@ID>" form instead of the silent "@name" form
}

// Compile-time interface check.
var _ coffee.ChannelClient = (*Client)(nil) //nolint:gochecknoglobals // compile-time check

// NewClient creates a Client. With mention true, ListMembers renders members
// in the mention form that pings them when the announcement is posted; with
// mention false it renders the inactive "@name" form (testing mode).
func NewClient(api SlackAPI, limiter *rate.Limiter, mention bool) *Client {
	return &Client{api: api, limiter: limiter, mention: mention}
}

const pageLimit = 200

// ListMembers returns the channel's human members, bot accounts excluded,
// rendered per the client's mention setting.
func (c *Client) ListMembers(ctx context.Context, channel string) ([]string, error) {
	channelID, err := c.channelID(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("slack.Client.ListMembers: %w", err)
	}

	memberIDs, err := c.memberIDs(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("slack.Client.ListMembers: %w", err)
	}

	if waitErr := c.limiter.Wait(ctx); waitErr != nil {
		return nil, fmt.Errorf("slack.Client.ListMembers: %w", waitErr)
	}
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack.Client.ListMembers: list users: %w", err)
	}

	inChannel := lo.SliceToMap(memberIDs, func(id string) (string, struct{}) { return id, struct{}{} })

	var members []string
	for _, u := range users {
		if u.IsBot {
			continue
		}
		if _, ok := inChannel[u.ID]; !ok {
			continue
		}
		if c.mention {
			members = append(members, "<@"+u.ID+">")
		} else {
			members = append(members, "@"+u.Name)
		}
	}
	return members, nil
}

// ListRecentMessages returns the channel's messages within [since, until],
// newest first as the API delivers them, flattened across pages.
func (c *Client) ListRecentMessages(ctx context.Context, channel string, since, until time.Time) ([]coffee.ChannelMessage, error) {
	channelID, err := c.channelID(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("slack.Client.ListRecentMessages: %w", err)
	}

	params := &slacklib.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     pageLimit,
		Oldest:    slackTimestamp(since),
		Latest:    slackTimestamp(until),
		Inclusive: true,
	}

	var messages []coffee.ChannelMessage
	for {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return nil, fmt.Errorf("slack.Client.ListRecentMessages: %w", waitErr)
		}
		resp, histErr := c.api.GetConversationHistoryContext(ctx, params)
		if histErr != nil {
			return nil, fmt.Errorf("slack.Client.ListRecentMessages: history: %w", histErr)
		}

		for _, m := range resp.Messages {
			messages = append(messages, coffee.ChannelMessage{Text: m.Text})
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			return messages, nil
		}
		params.Cursor = resp.ResponseMetaData.NextCursor
	}
}

// PostMessage posts text to the channel. Slack accepts channel names directly
// for chat.postMessage, so no ID resolution is needed.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if waitErr := c.limiter.Wait(ctx); waitErr != nil {
		return fmt.Errorf("slack.Client.PostMessage: %w", waitErr)
	}
	if _, _, err := c.api.PostMessageContext(ctx, channel, slacklib.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("slack.Client.PostMessage: %w", err)
	}
	return nil
}

// channelID resolves a "#name" channel reference to a conversation ID,
// walking the paginated conversation list.
func (c *Client) channelID(ctx context.Context, channel string) (string, error) {
	name := strings.TrimPrefix(channel, "#")

	params := &slacklib.GetConversationsParameters{
		Limit:           pageLimit,
		ExcludeArchived: true,
	}
	for {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return "", waitErr
		}
		channels, cursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("list conversations: %w", err)
		}

		for _, ch := range channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}

		if cursor == "" {
			return "", fmt.Errorf("%w: %s", ErrChannelNotFound, channel)
		}
		params.Cursor = cursor
	}
}

// memberIDs returns the raw user IDs of everyone in the conversation.
func (c *Client) memberIDs(ctx context.Context, channelID string) ([]string, error) {
	params := &slacklib.GetUsersInConversationParameters{
		ChannelID: channelID,
		Limit:     pageLimit,
	}

	var ids []string
	for {
		if waitErr := c.limiter.Wait(ctx); waitErr != nil {
			return nil, waitErr
		}
		page, cursor, err := c.api.GetUsersInConversationContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list conversation members: %w", err)
		}

		ids = append(ids, page...)
		if cursor == "" {
			return ids, nil
		}
		params.Cursor = cursor
	}
}

// slackTimestamp renders a time in the "seconds.microseconds" form the
// conversations.history window parameters expect.
func slackTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}
