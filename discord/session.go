package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/stream-herald/config"
	"github.com/onnwee/stream-herald/store"
)

// Bot wraps the discordgo session, wiring the slash-command layer on top of
// the Registry. The notification Dispatcher is constructed separately (see
// NewDispatcher) so the poll core can be tested without a session.
type Bot struct {
	Session  *discordgo.Session
	commands *Commands
}

// NewBot builds the session and handlers but does not connect; call Open.
func NewBot(cfg *config.Config, reg *store.Registry, verifier AccountVerifier) (*Bot, error) {
	s, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	b := &Bot{Session: s}
	b.commands = &Commands{
		Registry:    reg,
		Verifier:    verifier,
		Auth:        RoleAuthorizer{ModRoleID: cfg.ModRoleID},
		OwnerLookup: b.guildOwnerID,
	}

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("discord session ready", slog.String("user", r.User.Username))
		if err := s.UpdateWatchStatus(0, "for live streams"); err != nil {
			slog.Warn("failed to set presence", slog.Any("err", err))
		}
		if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, "", commandDefs()); err != nil {
			slog.Error("failed to register slash commands", slog.Any("err", err))
		}
	})

	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		if i.Type != discordgo.InteractionApplicationCommand {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		b.commands.Dispatch(ctx, sessionResponder{s}, i)
	})

	return b, nil
}

// Open connects the gateway session.
func (b *Bot) Open() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close shuts the gateway session down.
func (b *Bot) Close() error {
	return b.Session.Close()
}

// NewDispatcher builds the go-live notification dispatcher bound to this
// bot's session.
func (b *Bot) NewDispatcher(cfg *config.Config, reg *store.Registry) *Dispatcher {
	return &Dispatcher{
		Sender:            b.Session,
		Messages:          reg,
		GeneralChannelID:  cfg.GeneralChannelID,
		PriorityChannelID: cfg.PriorityChannelID,
		PriorityStreamer:  cfg.PriorityStreamer,
	}
}

// guildOwnerID resolves a guild's owner, preferring the session state cache.
func (b *Bot) guildOwnerID(guildID string) string {
	if guildID == "" {
		return ""
	}
	if g, err := b.Session.State.Guild(guildID); err == nil && g.OwnerID != "" {
		return g.OwnerID
	}
	if g, err := b.Session.Guild(guildID); err == nil {
		return g.OwnerID
	}
	return ""
}

// sessionResponder replies ephemerally so command chatter stays out of the
// channel.
type sessionResponder struct {
	s *discordgo.Session
}

func (r sessionResponder) Respond(i *discordgo.InteractionCreate, content string) error {
	return r.s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
