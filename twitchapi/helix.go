// Package twitchapi contains minimal helpers to interact with Twitch Helix APIs
// for live-stream status, user profiles, and game names, using an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	helixBaseURL = "https://api.twitch.tv/helix"

	// helixMaxRetries bounds attempts against transient 5xx responses.
	// A 401 additionally earns one token refresh followed by one retry.
	helixMaxRetries = 3
)

// HelixClient provides the Helix lookups needed for live-status polling.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// get performs an authenticated GET against a Helix path and decodes the JSON
// body into out. 5xx responses are retried up to helixMaxRetries attempts; a
// 401 invalidates the cached app token and retries once with a fresh one.
func (hc *HelixClient) get(ctx context.Context, path string, query url.Values, out any) error {
	refreshed := false
	for attempt := 1; ; attempt++ {
		tok, err := hc.AppTokenSource.Get(ctx)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, helixBaseURL+path, nil)
		if err != nil {
			return err
		}
		req.URL.RawQuery = query.Encode()
		req.Header.Set("Client-Id", hc.ClientID)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := hc.http().Do(req)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			closeBody(resp)
			return err
		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			closeBody(resp)
			hc.AppTokenSource.Invalidate()
			refreshed = true
		case resp.StatusCode >= 500 && attempt < helixMaxRetries:
			closeBody(resp)
		default:
			b, _ := io.ReadAll(resp.Body)
			closeBody(resp)
			return fmt.Errorf("helix %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(b)))
		}
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}

// Stream is one entry from /helix/streams. Absence from the response means
// the channel is not live.
type Stream struct {
	UserID       string    `json:"user_id"`
	UserLogin    string    `json:"user_login"`
	UserName     string    `json:"user_name"`
	GameID       string    `json:"game_id"`
	Title        string    `json:"title"`
	ViewerCount  int       `json:"viewer_count"`
	ThumbnailURL string    `json:"thumbnail_url"`
	StartedAt    time.Time `json:"started_at"`
}

// GetStreams returns the live streams for the given logins. Logins that are
// offline simply don't appear in the result.
func (hc *HelixClient) GetStreams(ctx context.Context, logins ...string) ([]Stream, error) {
	if len(logins) == 0 {
		return nil, fmt.Errorf("logins empty")
	}
	q := url.Values{}
	for _, l := range logins {
		q.Add("user_login", l)
	}
	var body struct {
		Data []Stream `json:"data"`
	}
	if err := hc.get(ctx, "/streams", q, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// User is one entry from /helix/users.
type User struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// GetUsers resolves logins to user profiles. Unknown logins are omitted from
// the result rather than reported as errors.
func (hc *HelixClient) GetUsers(ctx context.Context, logins ...string) ([]User, error) {
	if len(logins) == 0 {
		return nil, fmt.Errorf("logins empty")
	}
	q := url.Values{}
	for _, l := range logins {
		q.Add("login", l)
	}
	var body struct {
		Data []User `json:"data"`
	}
	if err := hc.get(ctx, "/users", q, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// UserExists reports whether a login resolves to a Twitch account.
func (hc *HelixClient) UserExists(ctx context.Context, login string) (bool, error) {
	if login == "" {
		return false, fmt.Errorf("login empty")
	}
	users, err := hc.GetUsers(ctx, login)
	if err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

// GetGame resolves a game/category id to its display name. Returns "" when
// the id is unknown.
func (hc *HelixClient) GetGame(ctx context.Context, gameID string) (string, error) {
	if gameID == "" {
		return "", fmt.Errorf("gameID empty")
	}
	q := url.Values{}
	q.Set("id", gameID)
	var body struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := hc.get(ctx, "/games", q, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", nil
	}
	return body.Data[0].Name, nil
}
