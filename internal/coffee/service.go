package coffee

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/tjansson60/slackrandomcoffee/internal/domain"
)

// ChannelMessage is one historical message as seen by the core. Only the text
// matters; authorship is inferred from the text itself (see ExtractHistory).
type ChannelMessage struct {
	Text string
}

// ChannelClient is the chat-platform collaborator the service depends on.
// Implementations hide authentication, pagination and transport; the core
// sees flat member and message lists.
type ChannelClient interface {
	// ListMembers returns the rendered identifiers of the channel's human
	// members (bot accounts excluded).
	ListMembers(ctx context.Context, channel string) ([]string, error)

	// ListRecentMessages returns the channel's messages within [since, until].
	ListRecentMessages(ctx context.Context, channel string, since, until time.Time) ([]ChannelMessage, error)

	// PostMessage posts text to the channel.
	PostMessage(ctx context.Context, channel, text string) error
}

// Service runs one pairing round: list members, rebuild match history from
// past announcements, generate pairs, post the announcement.
type Service struct {
	client    ChannelClient
	generator *Generator
	channel   string // channel whose members are paired and whose history is read
	postTo    string // channel the announcement goes to; differs in testing mode
	lookback  time.Duration
	logger    zerolog.Logger
}

// NewService creates a Service. postTo is normally the same as channel; in
// testing mode it points at a scratch channel so members are not pinged.
func NewService(client ChannelClient, generator *Generator, channel, postTo string, lookback time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		client:    client,
		generator: generator,
		channel:   channel,
		postTo:    postTo,
		lookback:  lookback,
		logger:    logger,
	}
}

// Run executes one pairing round. A failure to list members aborts the round;
// a failure to read history degrades to pairing without history; a failure to
// post is logged and swallowed so the next scheduled round can try again.
// An empty channel is a no-op, not an error.
func (s *Service) Run(ctx context.Context) error {
	runLog := s.logger.With().Str("run_id", uuid.NewString()).Logger()

	members, err := s.client.ListMembers(ctx, s.channel)
	if err != nil {
		runLog.Error().Err(err).Str("channel", s.channel).Msg("listing channel members")
		return fmt.Errorf("coffee.Service.Run: list members: %w", err)
	}
	if len(members) == 0 {
		runLog.Info().Str("channel", s.channel).Msg("channel has no members, nothing to pair")
		return nil
	}

	history := s.loadHistory(ctx, runLog)

	batch := s.generator.Generate(members, history)
	message, ok := FormatMessage(batch)
	if !ok {
		runLog.Info().Msg("empty batch, nothing to post")
		return nil
	}

	if postErr := s.client.PostMessage(ctx, s.postTo, message); postErr != nil {
		runLog.Error().Err(postErr).Str("channel", s.postTo).Msg("posting announcement")
		return nil
	}

	runLog.Info().
		Int("members", len(members)).
		Int("pairs", len(batch)).
		Str("channel", s.postTo).
		Msg("posted coffee pairs")
	return nil
}

// loadHistory reads the lookback window of channel messages and extracts past
// pairing batches. Any failure degrades to an empty history: a round with
// repeat pairings beats no round at all.
func (s *Service) loadHistory(ctx context.Context, runLog zerolog.Logger) domain.History {
	until := time.Now()
	since := until.Add(-s.lookback)

	msgs, err := s.client.ListRecentMessages(ctx, s.channel, since, until)
	if err != nil {
		runLog.Warn().Err(err).Str("channel", s.channel).Msg("reading channel history failed, pairing without it")
		return nil
	}

	texts := lo.Map(msgs, func(m ChannelMessage, _ int) string { return m.Text })
	history := ExtractHistory(texts)

	runLog.Debug().
		Int("messages", len(msgs)).
		Int("batches", len(history)).
		Msg("extracted pairing history")
	return history
}
