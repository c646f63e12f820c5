package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/stream-herald/watch"
)

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{}, nil
}

type fakeMessages map[string]string

func (f fakeMessages) CustomMessage(name string) (string, bool) {
	msg, ok := f[strings.ToLower(name)]
	return msg, ok
}

func liveSnapshot(login string) watch.Snapshot {
	return watch.Snapshot{
		Live:            true,
		Title:           "Speedrun attempts",
		GameName:        "Celeste",
		Viewers:         128,
		ThumbnailURL:    "https://cdn.example/live_user_" + login + "-{w}x{h}.jpg",
		ProfileImageURL: "https://cdn.example/" + login + ".png",
		DisplayName:     strings.ToUpper(login[:1]) + login[1:],
		Login:           login,
		FetchedAt:       time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
	}
}

func newTestDispatcher(sender *fakeSender, msgs fakeMessages) *Dispatcher {
	return &Dispatcher{
		Sender:            sender,
		Messages:          msgs,
		GeneralChannelID:  "general-chan",
		PriorityChannelID: "priority-chan",
		PriorityStreamer:  "shieorie",
	}
}

func TestNotifyDefaultMessageToGeneralChannel(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, fakeMessages{})

	d.Notify(context.Background(), watch.Event{Kind: watch.WentLive, Account: "Alice", Snapshot: liveSnapshot("alice")})

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.channelID != "general-chan" {
		t.Errorf("channel = %q, want general-chan", got.channelID)
	}
	if got.data.Content != "Alice is now live!" {
		t.Errorf("content = %q, want default message", got.data.Content)
	}
	if strings.Contains(got.data.Content, "@everyone") {
		t.Errorf("general notification must not mention everyone: %q", got.data.Content)
	}
}

func TestNotifyUsesCustomMessageOverride(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, fakeMessages{"alice": "Alice is live!"})

	d.Notify(context.Background(), watch.Event{Kind: watch.WentLive, Account: "ALICE", Snapshot: liveSnapshot("alice")})

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if got := sender.sent[0].data.Content; got != "Alice is live!" {
		t.Errorf("content = %q, want the exact override text", got)
	}
}

func TestNotifyPriorityStreamerMentionsEveryone(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, fakeMessages{"shieorie": "ShieOrie is back!"})

	d.Notify(context.Background(), watch.Event{Kind: watch.WentLive, Account: "ShieOrie", Snapshot: liveSnapshot("shieorie")})

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.channelID != "priority-chan" {
		t.Errorf("channel = %q, want priority-chan", got.channelID)
	}
	if got.data.Content != "@everyone ShieOrie is back!" {
		t.Errorf("content = %q, want everyone mention prefix", got.data.Content)
	}
	if got.data.AllowedMentions == nil || len(got.data.AllowedMentions.Parse) == 0 {
		t.Errorf("priority notification must allow the everyone mention")
	}
}

func TestNotifyOfflineIsSilent(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, fakeMessages{})

	d.Notify(context.Background(), watch.Event{Kind: watch.WentOffline, Account: "alice"})

	if len(sender.sent) != 0 {
		t.Fatalf("offline transition sent %d messages, want 0", len(sender.sent))
	}
}

func TestBuildEmbedFields(t *testing.T) {
	snap := liveSnapshot("alice")
	embed := buildEmbed(snap)

	if embed.Description != "Speedrun attempts" {
		t.Errorf("description = %q, want the stream title", embed.Description)
	}
	if embed.Author == nil || embed.Author.URL != "https://twitch.tv/alice" {
		t.Errorf("author URL wrong: %+v", embed.Author)
	}
	if embed.Author.Name != "Alice is now live on Twitch!" {
		t.Errorf("author name = %q", embed.Author.Name)
	}
	if len(embed.Fields) != 2 || embed.Fields[0].Value != "Celeste" || embed.Fields[1].Value != "128" {
		t.Errorf("fields wrong: %+v", embed.Fields)
	}
	if embed.Timestamp != "2025-03-10T18:00:00Z" {
		t.Errorf("timestamp = %q, want snapshot fetch time", embed.Timestamp)
	}
	if embed.Footer == nil || embed.Footer.Text != "twitch.tv" {
		t.Errorf("footer wrong: %+v", embed.Footer)
	}
}

func TestCacheBustedThumbnail(t *testing.T) {
	at := time.Unix(1710093600, 0)
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain url", "https://cdn.example/thumb.jpg", "https://cdn.example/thumb.jpg?rand=1710093600"},
		{"existing query", "https://cdn.example/thumb.jpg?w=640", "https://cdn.example/thumb.jpg?w=640&rand=1710093600"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheBustedThumbnail(tt.url, at); got != tt.want {
				t.Errorf("cacheBustedThumbnail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheBusterIsDeterministicPerFetch(t *testing.T) {
	snap := liveSnapshot("alice")
	a := buildEmbed(snap)
	b := buildEmbed(snap)
	if a.Image.URL != b.Image.URL {
		t.Errorf("same snapshot produced different thumbnails: %q vs %q", a.Image.URL, b.Image.URL)
	}
	if !strings.Contains(a.Image.URL, "rand=") {
		t.Errorf("thumbnail missing cache buster: %q", a.Image.URL)
	}
}
