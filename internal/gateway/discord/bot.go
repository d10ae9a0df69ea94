// Package discord provides the Discord transport. It owns the
// discordgo.Session lifecycle and forwards every user message to the router,
// one bounded goroutine per message so a slow backend never blocks intake.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/semaphore"
)

// helpReply answers the !help and !start commands.
const helpReply = "Hi! Send me a message and I'll route it to the right place:\n" +
	"- calendar questions (\"What meetings do I have today?\")\n" +
	"- time and astronomy (\"What time is it in Tokyo?\", \"moon phase\")\n" +
	"- web search (\"search for ...\")\n" +
	"Anything else starts a normal conversation."

// busyReply is sent when the concurrent-message bound is saturated.
const busyReply = "I'm handling a lot of messages right now — please try again in a moment."

// defaultMaxConcurrent bounds in-flight message processing.
const defaultMaxConcurrent = 8

// Router produces a reply for one inbound message. Satisfied by
// router.Router.
type Router interface {
	Route(ctx context.Context, chatID, text string) string
}

// messenger is the slice of discordgo.Session the bot sends through.
// Narrowed for testing.
type messenger interface {
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Config holds Discord transport configuration.
type Config struct {
	// Token is the Discord bot token.
	Token string

	// MaxConcurrent bounds how many messages are processed at once.
	// Zero means [defaultMaxConcurrent].
	MaxConcurrent int
}

// Bot owns the Discord gateway connection.
type Bot struct {
	session *discordgo.Session
	router  Router
	sem     *semaphore.Weighted
	log     *slog.Logger
}

// New creates a Bot and registers the message handler. The session is not
// opened until [Bot.Run].
func New(cfg Config, router Router, log *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if log == nil {
		log = slog.Default()
	}

	b := &Bot{
		session: session,
		router:  router,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		log:     log,
	}
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open session: %w", err)
	}
	b.log.Info("discord transport connected")

	<-ctx.Done()

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("discord: close session: %w", err)
	}
	return nil
}

// onMessageCreate filters out our own and other bots' messages and hands the
// rest to dispatch.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID {
		return
	}
	b.dispatch(context.Background(), s, m.ChannelID, strings.TrimSpace(m.Content))
}

// dispatch answers commands inline and routes everything else on a bounded
// goroutine. Send failures are logged and dropped; there is nobody further
// up to report them to.
func (b *Bot) dispatch(ctx context.Context, msgr messenger, channelID, content string) {
	if content == "" {
		return
	}

	switch content {
	case "!help", "!start":
		b.send(msgr, channelID, helpReply)
		return
	}

	if !b.sem.TryAcquire(1) {
		b.send(msgr, channelID, busyReply)
		return
	}

	go func() {
		defer b.sem.Release(1)
		if err := msgr.ChannelTyping(channelID); err != nil {
			b.log.Debug("typing indicator failed", "channel_id", channelID, "error", err)
		}
		b.send(msgr, channelID, b.router.Route(ctx, channelID, content))
	}()
}

func (b *Bot) send(msgr messenger, channelID, content string) {
	if _, err := msgr.ChannelMessageSend(channelID, content); err != nil {
		b.log.Error("discord send failed", "channel_id", channelID, "error", err)
	}
}
