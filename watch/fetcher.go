package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/onnwee/stream-herald/twitchapi"
)

const (
	thumbnailWidth  = "640"
	thumbnailHeight = "360"
)

// HelixFetcher resolves a login's full snapshot from the Twitch Helix API:
// stream status first, then (when live) the user profile and game name.
type HelixFetcher struct {
	Client *twitchapi.HelixClient
}

// FetchStatus implements StatusFetcher.
func (f *HelixFetcher) FetchStatus(ctx context.Context, login string) (Snapshot, error) {
	streams, err := f.Client.GetStreams(ctx, login)
	if err != nil {
		return Snapshot{}, err
	}
	if len(streams) == 0 {
		return Snapshot{Login: strings.ToLower(login)}, nil
	}
	st := streams[0]

	users, err := f.Client.GetUsers(ctx, login)
	if err != nil {
		return Snapshot{}, err
	}
	if len(users) == 0 {
		return Snapshot{}, fmt.Errorf("user %s not found", login)
	}
	u := users[0]

	// A missing or unresolvable game id is not worth losing the notification.
	game := "Unknown"
	if st.GameID != "" {
		if name, err := f.Client.GetGame(ctx, st.GameID); err == nil && name != "" {
			game = name
		}
	}

	thumb := strings.NewReplacer("{width}", thumbnailWidth, "{height}", thumbnailHeight).Replace(st.ThumbnailURL)
	return Snapshot{
		Live:            true,
		Title:           st.Title,
		GameName:        game,
		Viewers:         st.ViewerCount,
		ThumbnailURL:    thumb,
		ProfileImageURL: u.ProfileImageURL,
		DisplayName:     u.DisplayName,
		Login:           u.Login,
		FetchedAt:       time.Now().UTC(),
	}, nil
}
