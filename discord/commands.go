package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/stream-herald/store"
)

// Authorizer decides whether an actor may run privileged commands. The
// command layer never consults Discord directly so the handlers stay
// host-agnostic and testable.
type Authorizer interface {
	IsAuthorized(guildOwnerID, actorID string, roleIDs []string) bool
}

// RoleAuthorizer allows the guild owner and holders of the configured
// moderator role.
type RoleAuthorizer struct {
	ModRoleID string
}

func (a RoleAuthorizer) IsAuthorized(guildOwnerID, actorID string, roleIDs []string) bool {
	if actorID != "" && actorID == guildOwnerID {
		return true
	}
	if a.ModRoleID == "" {
		return false
	}
	for _, r := range roleIDs {
		if r == a.ModRoleID {
			return true
		}
	}
	return false
}

// AccountVerifier checks that a login exists on Twitch before it is tracked.
type AccountVerifier interface {
	UserExists(ctx context.Context, login string) (bool, error)
}

// Responder delivers a (private) reply to the invoking user.
type Responder interface {
	Respond(i *discordgo.InteractionCreate, content string) error
}

// Commands implements the privileged slash commands. All mutations go through
// the Registry; the live set is never touched here.
type Commands struct {
	Registry *store.Registry
	Verifier AccountVerifier
	Auth     Authorizer

	// OwnerLookup resolves a guild id to its owner's user id.
	OwnerLookup func(guildID string) string
}

// commandDefs are the application commands registered on ready.
func commandDefs() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "add",
			Description: "Add a new streamer to monitor",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "streamer", Description: "Twitch login", Required: true},
			},
		},
		{
			Name:        "remove",
			Description: "Remove a streamer from monitoring",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "streamer", Description: "Twitch login", Required: true},
			},
		},
		{
			Name:        "setmessage",
			Description: "Set a custom going-live message for a streamer",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "streamer", Description: "Twitch login", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "message", Description: "Message to post when they go live", Required: true},
			},
		},
		{
			Name:        "list",
			Description: "List all monitored streamers",
		},
	}
}

// Dispatch routes an application-command interaction to its handler.
func (c *Commands) Dispatch(ctx context.Context, r Responder, i *discordgo.InteractionCreate) {
	if !c.authorized(i) {
		c.respond(r, i, "You do not have permission to use this command.")
		return
	}
	data := i.ApplicationCommandData()
	switch data.Name {
	case "add":
		c.handleAdd(ctx, r, i, optionValue(data, "streamer"))
	case "remove":
		c.handleRemove(r, i, optionValue(data, "streamer"))
	case "setmessage":
		c.handleSetMessage(r, i, optionValue(data, "streamer"), optionValue(data, "message"))
	case "list":
		c.handleList(r, i)
	default:
		slog.Warn("unknown command", slog.String("name", data.Name))
	}
}

func (c *Commands) authorized(i *discordgo.InteractionCreate) bool {
	if c.Auth == nil || i.Member == nil || i.Member.User == nil {
		return false
	}
	ownerID := ""
	if c.OwnerLookup != nil {
		ownerID = c.OwnerLookup(i.GuildID)
	}
	return c.Auth.IsAuthorized(ownerID, i.Member.User.ID, i.Member.Roles)
}

func (c *Commands) handleAdd(ctx context.Context, r Responder, i *discordgo.InteractionCreate, streamer string) {
	if streamer == "" {
		c.respond(r, i, "Streamer name is required.")
		return
	}
	if c.Registry.Tracked(streamer) {
		c.respond(r, i, fmt.Sprintf("Streamer %s is already being monitored!", streamer))
		return
	}
	exists, err := c.Verifier.UserExists(ctx, strings.ToLower(streamer))
	if err != nil {
		c.respond(r, i, fmt.Sprintf("Could not verify %s on Twitch right now, try again later.", streamer))
		return
	}
	if !exists {
		c.respond(r, i, fmt.Sprintf("Streamer %s not found on Twitch!", streamer))
		return
	}
	if err := c.Registry.AddAccount(streamer); err != nil {
		if errors.Is(err, store.ErrAlreadyTracked) {
			c.respond(r, i, fmt.Sprintf("Streamer %s is already being monitored!", streamer))
			return
		}
		slog.Error("add streamer failed", slog.String("streamer", streamer), slog.Any("err", err))
		c.respond(r, i, fmt.Sprintf("Failed to save %s, nothing was changed.", streamer))
		return
	}
	c.respond(r, i, fmt.Sprintf("Added %s to monitored streamers!", streamer))
}

func (c *Commands) handleRemove(r Responder, i *discordgo.InteractionCreate, streamer string) {
	if err := c.Registry.RemoveAccount(streamer); err != nil {
		if errors.Is(err, store.ErrNotTracked) {
			c.respond(r, i, fmt.Sprintf("Streamer %s is not being monitored!", streamer))
			return
		}
		slog.Error("remove streamer failed", slog.String("streamer", streamer), slog.Any("err", err))
		c.respond(r, i, fmt.Sprintf("Failed to remove %s, nothing was changed.", streamer))
		return
	}
	c.respond(r, i, fmt.Sprintf("Removed %s from monitored streamers!", streamer))
}

func (c *Commands) handleSetMessage(r Responder, i *discordgo.InteractionCreate, streamer, message string) {
	if !c.Registry.Tracked(streamer) {
		c.respond(r, i, fmt.Sprintf("Streamer %s is not being monitored!", streamer))
		return
	}
	if err := c.Registry.SetCustomMessage(streamer, message); err != nil {
		slog.Error("set message failed", slog.String("streamer", streamer), slog.Any("err", err))
		c.respond(r, i, fmt.Sprintf("Failed to save the message for %s, nothing was changed.", streamer))
		return
	}
	c.respond(r, i, fmt.Sprintf("Set custom message for %s!\nMessage: %s", streamer, message))
}

func (c *Commands) handleList(r Responder, i *discordgo.InteractionCreate) {
	names := c.Registry.ListAccounts()
	if len(names) == 0 {
		c.respond(r, i, "No streamers are being monitored.")
		return
	}
	var b strings.Builder
	b.WriteString("Monitored streamers:\n")
	for _, n := range names {
		b.WriteString("• ")
		b.WriteString(n)
		b.WriteString("\n")
	}
	c.respond(r, i, strings.TrimRight(b.String(), "\n"))
}

func (c *Commands) respond(r Responder, i *discordgo.InteractionCreate, content string) {
	if err := r.Respond(i, content); err != nil {
		slog.Warn("interaction response failed", slog.Any("err", err))
	}
}

func optionValue(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name {
			return strings.TrimSpace(opt.StringValue())
		}
	}
	return ""
}

// commandTimeout bounds the Twitch existence check made by /add.
const commandTimeout = 10 * time.Second
