// Package discord hosts the bot session, the go-live notification dispatcher,
// and the privileged slash commands that edit the tracked-streamer config.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/stream-herald/telemetry"
	"github.com/onnwee/stream-herald/watch"
)

// Twitch brand purple, used as the embed accent color.
const embedColor = 0x9146FF

const twitchFaviconURL = "https://static.twitchcdn.net/assets/favicon-32-e29e246c157142c94346.png"

// MessageSender is the slice of the Discord session the dispatcher needs.
type MessageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// MessageLookup resolves a streamer's custom go-live message override.
type MessageLookup interface {
	CustomMessage(name string) (string, bool)
}

// Dispatcher consumes transition events and posts go-live notifications.
// Offline transitions are deliberately silent. It implements watch.Notifier.
type Dispatcher struct {
	Sender   MessageSender
	Messages MessageLookup

	GeneralChannelID  string
	PriorityChannelID string

	// PriorityStreamer (lowercased login) gets the priority channel and an
	// @everyone mention. Empty disables the priority path.
	PriorityStreamer string
}

// Notify implements watch.Notifier.
func (d *Dispatcher) Notify(ctx context.Context, ev watch.Event) {
	if ev.Kind != watch.WentLive {
		return
	}
	snap := ev.Snapshot

	text, ok := d.Messages.CustomMessage(ev.Account)
	if !ok {
		text = fmt.Sprintf("%s is now live!", snap.DisplayName)
	}

	channelID := d.GeneralChannelID
	msg := &discordgo.MessageSend{
		Content: text,
		Embed:   buildEmbed(snap),
	}
	if d.PriorityStreamer != "" && strings.ToLower(ev.Account) == d.PriorityStreamer {
		if d.PriorityChannelID != "" {
			channelID = d.PriorityChannelID
		}
		msg.Content = "@everyone " + text
		msg.AllowedMentions = &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
		}
	}

	if _, err := d.Sender.ChannelMessageSendComplex(channelID, msg); err != nil {
		telemetry.CountNotification(false)
		telemetry.LoggerWithCorr(ctx).Warn("go-live notification failed",
			slog.String("streamer", ev.Account),
			slog.String("channel_id", channelID),
			slog.Any("err", err))
		return
	}
	telemetry.CountNotification(true)
	telemetry.LoggerWithCorr(ctx).Info("go-live notification sent",
		slog.String("streamer", ev.Account),
		slog.String("channel_id", channelID))
}

// buildEmbed renders the rich notification card for a live snapshot.
// Formatting is deterministic: the thumbnail cache-buster derives from the
// snapshot's fetch time, not the send time.
func buildEmbed(snap watch.Snapshot) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: snap.Title,
		Color:       embedColor,
		Timestamp:   snap.FetchedAt.Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    fmt.Sprintf("%s is now live on Twitch!", snap.DisplayName),
			URL:     "https://twitch.tv/" + snap.Login,
			IconURL: snap.ProfileImageURL,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Game", Value: snap.GameName, Inline: true},
			{Name: "Viewers", Value: strconv.Itoa(snap.Viewers), Inline: true},
		},
		Image: &discordgo.MessageEmbedImage{
			URL: cacheBustedThumbnail(snap.ThumbnailURL, snap.FetchedAt),
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    "twitch.tv",
			IconURL: twitchFaviconURL,
		},
	}
}

// cacheBustedThumbnail appends a fetch-time-derived query parameter so the
// Twitch CDN doesn't serve a stale preview image for a fresh stream.
func cacheBustedThumbnail(url string, fetchedAt time.Time) string {
	if url == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "rand=" + strconv.FormatInt(fetchedAt.Unix(), 10)
}
