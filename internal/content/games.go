package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/jaxron/axonet/pkg/client"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	igdbAPIURL      = "https://api.igdb.com/v4"
	twitchTokenURL  = "https://id.twitch.tv/oauth2/token"
	igdbSearchQuery = `search "%s"; fields name, summary, first_release_date, cover.url; limit %d;`
	igdbDetailQuery = `fields name, summary, first_release_date, cover.url, url, rating,
		genres.name, platforms.abbreviation,
		involved_companies.company.name, involved_companies.developer, involved_companies.publisher;
		where id = %s;`
)

// IGDB looks up games through the IGDB API, authenticating with Twitch
// client credentials.
type IGDB struct {
	client *client.Client
	id     string
	tokens *tokenStore
	cache  *Cache
	logger *zap.Logger
}

// NewIGDB creates a game provider backed by IGDB. The token client mirrors
// issued Twitch tokens to Redis so restarts skip re-authentication.
func NewIGDB(
	httpClient *client.Client,
	clientID, clientSecret string,
	tokenClient rueidis.Client,
	cache *Cache,
	logger *zap.Logger,
) *IGDB {
	igdb := &IGDB{
		client: httpClient,
		id:     clientID,
		cache:  cache,
		logger: logger.Named("igdb"),
	}
	igdb.tokens = newTokenStore("twitch", tokenClient, logger, func(ctx context.Context) (string, time.Duration, error) {
		return igdb.fetchToken(ctx, clientID, clientSecret)
	})

	return igdb
}

func (g *IGDB) Search(ctx context.Context, query string) ([]Result, error) {
	key := cacheKey("igdb", "search", query)
	return cached(ctx, g.cache, key, SearchTTL, func(ctx context.Context) ([]Result, error) {
		escaped := strings.ReplaceAll(query, `"`, `\"`)
		games, err := g.query(ctx, fmt.Sprintf(igdbSearchQuery, escaped, searchResultLimit))
		if err != nil {
			return nil, err
		}

		results := make([]Result, 0, len(games))
		for _, game := range games {
			results = append(results, Result{
				ID:          strconv.FormatInt(game.ID, 10),
				Title:       game.Name,
				Description: game.releaseDate(),
				ImageURL:    game.coverURL(),
			})
		}

		return results, nil
	})
}

func (g *IGDB) GetByID(ctx context.Context, id string) (*Media, error) {
	key := cacheKey("igdb", "details", id)
	return cached(ctx, g.cache, key, DetailsTTL, func(ctx context.Context) (*Media, error) {
		games, err := g.query(ctx, fmt.Sprintf(igdbDetailQuery, id))
		if err != nil {
			return nil, err
		}
		if len(games) == 0 {
			return nil, fmt.Errorf("%w: game/%s", ErrNotFound, id)
		}

		game := games[0]
		media := &Media{
			ID:          id,
			Kind:        enum.MediaKindGame,
			Title:       game.Name,
			Overview:    game.Summary,
			ReleaseDate: game.releaseDate(),
			ImageURL:    game.coverURL(),
			URL:         game.URL,
			Rating:      game.Rating,
		}
		for _, genre := range game.Genres {
			media.Genres = append(media.Genres, genre.Name)
		}
		for _, platform := range game.Platforms {
			media.Platforms = append(media.Platforms, platform.Abbreviation)
		}
		for _, company := range game.InvolvedCompanies {
			switch {
			case company.Developer && media.Developer == "":
				media.Developer = company.Company.Name
			case company.Publisher && media.Publisher == "":
				media.Publisher = company.Company.Name
			}
		}

		return media, nil
	})
}

type igdbGame struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Summary          string  `json:"summary"`
	URL              string  `json:"url"`
	Rating           float64 `json:"rating"`
	FirstReleaseDate int64   `json:"first_release_date"`

	Cover struct {
		URL string `json:"url"`
	} `json:"cover"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Abbreviation string `json:"abbreviation"`
	} `json:"platforms"`
	InvolvedCompanies []struct {
		Developer bool `json:"developer"`
		Publisher bool `json:"publisher"`
		Company   struct {
			Name string `json:"name"`
		} `json:"company"`
	} `json:"involved_companies"`
}

func (g *igdbGame) releaseDate() string {
	if g.FirstReleaseDate == 0 {
		return ""
	}
	return time.Unix(g.FirstReleaseDate, 0).UTC().Format("2006-01-02")
}

// coverURL upgrades IGDB's protocol-relative thumbnail URL to a full-size
// HTTPS cover image.
func (g *igdbGame) coverURL() string {
	url := g.Cover.URL
	if url == "" {
		return ""
	}

	url = strings.Replace(url, "t_thumb", "t_cover_big", 1)
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}

	return url
}

// query runs an apicalypse query against the games endpoint. An expired
// token is refreshed and the request retried once.
func (g *IGDB) query(ctx context.Context, body string) ([]igdbGame, error) {
	games, retry, err := g.doQuery(ctx, body, false)
	if retry {
		g.logger.Debug("Access token rejected, refreshing")
		games, _, err = g.doQuery(ctx, body, true)
	}

	return games, err
}

func (g *IGDB) doQuery(ctx context.Context, body string, forceToken bool) ([]igdbGame, bool, error) {
	token, err := g.tokens.get(ctx, forceToken)
	if err != nil {
		return nil, false, err
	}

	resp, err := g.client.NewRequest().
		Method(http.MethodPost).
		URL(igdbAPIURL+"/games").
		Header("Client-ID", g.id).
		Header("Authorization", "Bearer "+token).
		Header("Accept", "application/json").
		Body([]byte(body)).
		Do(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query igdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, !forceToken, fmt.Errorf("igdb rejected access token")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("igdb returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read igdb response: %w", err)
	}

	var games []igdbGame
	if err := sonic.Unmarshal(data, &games); err != nil {
		return nil, false, fmt.Errorf("failed to parse igdb response: %w", err)
	}

	return games, false, nil
}

func (g *IGDB) fetchToken(ctx context.Context, clientID, clientSecret string) (string, time.Duration, error) {
	resp, err := g.client.NewRequest().
		Method(http.MethodPost).
		URL(twitchTokenURL).
		Query("client_id", clientID).
		Query("client_secret", clientSecret).
		Query("grant_type", "client_credentials").
		Do(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to request twitch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("twitch token endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read twitch token response: %w", err)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return "", 0, fmt.Errorf("failed to parse twitch token response: %w", err)
	}

	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}
