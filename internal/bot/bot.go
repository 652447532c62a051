// Package bot binds the transcription workflow to Discord: slash commands,
// the attachment prompt's cancel button, inbound messages for attachment
// collection, and DM delivery.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/cuongbtq/transcribe-bot/internal/collector"
	"github.com/cuongbtq/transcribe-bot/internal/jobstatus"
	"github.com/cuongbtq/transcribe-bot/internal/lifecycle/domain"
)

// Jobs starts transcription jobs
type Jobs interface {
	Submit(ctx context.Context, req domain.Request)
	Languages() []string
}

// StatusQuerier answers /check
type StatusQuerier interface {
	Query(identifier, requestingUser string, privileged bool) (jobstatus.Snapshot, error)
}

// Canceller resolves pending attachment collections
type Canceller interface {
	Cancel(sessionID, userID, channelID string) error
}

// MessageSink receives inbound chat messages
type MessageSink interface {
	Publish(msg collector.Message)
}

// Config holds bot configuration
type Config struct {
	Logger                   *slog.Logger
	Session                  *discordgo.Session
	GuildID                  string
	RemoveCommandsOnShutdown bool
	Jobs                     Jobs
	Status                   StatusQuerier
	Canceller                Canceller
	Messages                 MessageSink
}

// Bot is the Discord front end
type Bot struct {
	logger    *slog.Logger
	session   *discordgo.Session
	api       discordAPI
	guildID   string
	cleanup   bool
	jobs      Jobs
	status    StatusQuerier
	canceller Canceller
	messages  MessageSink
}

// NewSession creates a Discord session with the intents the bot needs.
// Reading attachments from follow-up messages needs the message content
// intent.
func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent
	return session, nil
}

// New creates a bot over an unopened session
func New(cfg *Config) *Bot {
	return &Bot{
		logger:    cfg.Logger,
		session:   cfg.Session,
		api:       cfg.Session,
		guildID:   cfg.GuildID,
		cleanup:   cfg.RemoveCommandsOnShutdown,
		jobs:      cfg.Jobs,
		status:    cfg.Status,
		canceller: cfg.Canceller,
		messages:  cfg.Messages,
	}
}

// Run connects, registers the slash commands and serves events until ctx is
// cancelled. Jobs started by commands run under ctx.
func (b *Bot) Run(ctx context.Context) error {
	removeReady := b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Discord session ready",
			slog.String("user", r.User.Username),
			slog.Int("guilds", len(r.Guilds)),
		)
	})
	removeInteraction := b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(ctx, i)
	})
	removeMessage := b.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		b.handleMessage(m)
	})
	defer removeReady()
	defer removeInteraction()
	defer removeMessage()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Error("Failed to close discord session", slog.String("error", err.Error()))
		}
	}()

	appID := b.session.State.User.ID
	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, applicationCommands(b.jobs.Languages()))
	if err != nil {
		return fmt.Errorf("failed to register slash commands: %w", err)
	}
	b.logger.Info("Slash commands registered",
		slog.Int("count", len(registered)),
		slog.String("guild_id", b.guildID),
	)

	<-ctx.Done()
	b.logger.Info("Stopping Discord bot...")

	if b.cleanup {
		for _, cmd := range registered {
			if err := b.session.ApplicationCommandDelete(appID, b.guildID, cmd.ID); err != nil {
				b.logger.Warn("Failed to remove slash command",
					slog.String("command", cmd.Name),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || len(m.Attachments) == 0 {
		return
	}

	msg := collector.Message{
		ID:        m.ID,
		AuthorID:  m.Author.ID,
		ChannelID: m.ChannelID,
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, toAttachment(a))
	}
	b.messages.Publish(msg)
}

func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch name := i.ApplicationCommandData().Name; name {
		case commandTranscribe:
			b.handleTranscribe(ctx, i.Interaction)
		case commandCheck:
			b.handleCheck(i.Interaction)
		default:
			b.respond(i.Interaction, unknownCommandMessage)
		}
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i.Interaction)
	}
}

func (b *Bot) handleTranscribe(ctx context.Context, i *discordgo.Interaction) {
	if i.GuildID == "" {
		b.respond(i, guildOnlyMessage)
		return
	}

	// Collection and upload outlive Discord's three second reply window.
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("Failed to acknowledge command", slog.String("error", err.Error()))
		return
	}

	data := i.ApplicationCommandData()
	req := domain.Request{
		Owner:   interactionUserID(i),
		Channel: i.ChannelID,
		Guild:   i.GuildID,
		Replier: &interactionReplier{api: b.api, interaction: i},
	}
	for _, opt := range data.Options {
		switch opt.Name {
		case optionLanguage:
			req.Language = opt.StringValue()
		case optionFile:
			id, _ := opt.Value.(string)
			if data.Resolved != nil {
				if att, ok := data.Resolved.Attachments[id]; ok {
					a := toAttachment(att)
					req.Attachment = &a
				}
			}
		}
	}

	b.logger.Info("Transcription requested",
		slog.String("owner", req.Owner),
		slog.String("guild_id", req.Guild),
		slog.Bool("attached", req.Attachment != nil),
	)
	b.jobs.Submit(ctx, req)
}

func (b *Bot) handleCheck(i *discordgo.Interaction) {
	if i.GuildID == "" {
		b.respond(i, guildOnlyMessage)
		return
	}

	var identifier string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == optionIdentifier {
			identifier = strings.TrimSpace(opt.StringValue())
		}
	}

	snap, err := b.status.Query(identifier, interactionUserID(i), isAdministrator(i))
	switch {
	case errors.Is(err, jobstatus.ErrNotFound):
		b.respond(i, notFoundMessage(identifier))
	case errors.Is(err, jobstatus.ErrForbidden):
		b.respond(i, notAuthorMessage(identifier))
	case err != nil:
		b.logger.Error("Status query failed", slog.String("error", err.Error()))
		b.respond(i, internalErrorMessage)
	default:
		b.respond(i, checkMessage(snap))
	}
}

func (b *Bot) handleComponent(i *discordgo.Interaction) {
	sessionID, ok := sessionFromCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	err := b.canceller.Cancel(sessionID, interactionUserID(i), i.ChannelID)
	switch {
	case errors.Is(err, collector.ErrNotRequester):
		b.respond(i, notYourButtonMessage)
		return
	case errors.Is(err, collector.ErrUnknownSession):
		b.updatePrompt(i, requestClosedMessage)
		return
	case err != nil:
		b.logger.Error("Failed to cancel collection", slog.String("error", err.Error()))
		b.respond(i, internalErrorMessage)
		return
	}

	b.updatePrompt(i, cancellingMessage)
}

// updatePrompt replaces the prompt's text and removes its button.
func (b *Bot) updatePrompt(i *discordgo.Interaction, content string) {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.logger.Warn("Failed to update prompt", slog.String("error", err.Error()))
	}
}

func (b *Bot) respond(i *discordgo.Interaction, content string) {
	err := b.api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("Failed to respond to interaction", slog.String("error", err.Error()))
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func isAdministrator(i *discordgo.Interaction) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionAdministrator != 0
}

func toAttachment(a *discordgo.MessageAttachment) collector.Attachment {
	return collector.Attachment{
		ID:          a.ID,
		Filename:    a.Filename,
		URL:         a.URL,
		ContentType: a.ContentType,
		Size:        a.Size,
	}
}
