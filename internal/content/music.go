package content

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/jaxron/axonet/pkg/client"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	spotifyAPIURL   = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Spotify looks up albums and singles through the Spotify Web API.
type Spotify struct {
	client *client.Client
	tokens *tokenStore
	cache  *Cache
	logger *zap.Logger
}

// NewSpotify creates a music provider backed by Spotify client credentials.
func NewSpotify(
	httpClient *client.Client,
	clientID, clientSecret string,
	tokenClient rueidis.Client,
	cache *Cache,
	logger *zap.Logger,
) *Spotify {
	spotify := &Spotify{
		client: httpClient,
		cache:  cache,
		logger: logger.Named("spotify"),
	}
	spotify.tokens = newTokenStore("spotify", tokenClient, logger, func(ctx context.Context) (string, time.Duration, error) {
		return spotify.fetchToken(ctx, clientID, clientSecret)
	})

	return spotify
}

type spotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	AlbumType   string `json:"album_type"`
	TotalTracks int    `json:"total_tracks"`

	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Genres []string `json:"genres"`
}

func (a *spotifyAlbum) artist() string {
	names := make([]string, 0, len(a.Artists))
	for _, artist := range a.Artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}

func (a *spotifyAlbum) imageURL() string {
	if len(a.Images) == 0 {
		return ""
	}
	return a.Images[0].URL
}

func (s *Spotify) Search(ctx context.Context, query string) ([]Result, error) {
	key := cacheKey("spotify", "search", query)
	return cached(ctx, s.cache, key, SearchTTL, func(ctx context.Context) ([]Result, error) {
		return s.search(ctx, query)
	})
}

func (s *Spotify) GetByID(ctx context.Context, id string) (*Media, error) {
	key := cacheKey("spotify", "details", id)
	return cached(ctx, s.cache, key, DetailsTTL, func(ctx context.Context) (*Media, error) {
		return s.details(ctx, id)
	})
}

func (s *Spotify) search(ctx context.Context, query string) ([]Result, error) {
	body, status, err := s.do(ctx, func(token string) (*http.Response, error) {
		return s.client.NewRequest().
			Method(http.MethodGet).
			URL(spotifyAPIURL+"/search").
			Query("q", query).
			Query("type", "album").
			Query("limit", fmt.Sprintf("%d", searchResultLimit)).
			Header("Authorization", "Bearer "+token).
			Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("spotify search returned status %d", status)
	}

	var payload struct {
		Albums struct {
			Items []spotifyAlbum `json:"items"`
		} `json:"albums"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse spotify response: %w", err)
	}

	results := make([]Result, 0, len(payload.Albums.Items))
	for _, album := range payload.Albums.Items {
		results = append(results, Result{
			ID:          album.ID,
			Title:       album.Name,
			Description: album.artist(),
			ImageURL:    album.imageURL(),
		})
	}

	return results, nil
}

func (s *Spotify) details(ctx context.Context, id string) (*Media, error) {
	body, status, err := s.do(ctx, func(token string) (*http.Response, error) {
		return s.client.NewRequest().
			Method(http.MethodGet).
			URL(spotifyAPIURL+"/albums/"+id).
			Header("Authorization", "Bearer "+token).
			Do(ctx)
	})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: music/%s", ErrNotFound, id)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("spotify details returned status %d", status)
	}

	var album spotifyAlbum
	if err := sonic.Unmarshal(body, &album); err != nil {
		return nil, fmt.Errorf("failed to parse spotify response: %w", err)
	}

	return &Media{
		ID:          album.ID,
		Kind:        enum.MediaKindMusic,
		Title:       album.Name,
		ReleaseDate: album.ReleaseDate,
		ImageURL:    album.imageURL(),
		URL:         album.ExternalURLs.Spotify,
		Genres:      album.Genres,
		Artist:      album.artist(),
		Tracks:      album.TotalTracks,
		AlbumType:   album.AlbumType,
	}, nil
}

// do runs an authenticated request, refreshing the access token and
// retrying once when Spotify rejects it.
func (s *Spotify) do(ctx context.Context, request func(token string) (*http.Response, error)) ([]byte, int, error) {
	body, status, err := s.doOnce(ctx, request, false)
	if status == http.StatusUnauthorized {
		s.logger.Debug("Access token rejected, refreshing")
		body, status, err = s.doOnce(ctx, request, true)
	}

	return body, status, err
}

func (s *Spotify) doOnce(ctx context.Context, request func(token string) (*http.Response, error), forceToken bool) ([]byte, int, error) {
	token, err := s.tokens.get(ctx, forceToken)
	if err != nil {
		return nil, 0, err
	}

	resp, err := request(token)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query spotify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read spotify response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (s *Spotify) fetchToken(ctx context.Context, clientID, clientSecret string) (string, time.Duration, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))

	resp, err := s.client.NewRequest().
		Method(http.MethodPost).
		URL(spotifyTokenURL).
		Header("Authorization", "Basic "+credentials).
		Header("Content-Type", "application/x-www-form-urlencoded").
		Body([]byte("grant_type=client_credentials")).
		Do(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to request spotify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("spotify token endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read spotify token response: %w", err)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return "", 0, fmt.Errorf("failed to parse spotify token response: %w", err)
	}

	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}
