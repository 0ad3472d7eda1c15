package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/culturebot/culturebot/internal/database/types/enum"
	"github.com/jaxron/axonet/pkg/client"
	"go.uber.org/zap"
)

const (
	tmdbAPIURL   = "https://api.themoviedb.org/3"
	tmdbImageURL = "https://image.tmdb.org/t/p/w500"
	tmdbSiteURL  = "https://www.themoviedb.org"

	// searchResultLimit caps how many candidates a search returns.
	searchResultLimit = 5
)

// TMDB talks to The Movie Database API and backs both the movie and
// series providers from a single authenticated client.
type TMDB struct {
	client *client.Client
	token  string
	cache  *Cache
	logger *zap.Logger
}

// NewTMDB creates a TMDB client authenticated with an API read access token.
func NewTMDB(httpClient *client.Client, token string, cache *Cache, logger *zap.Logger) *TMDB {
	return &TMDB{
		client: httpClient,
		token:  token,
		cache:  cache,
		logger: logger.Named("tmdb"),
	}
}

// Movies returns the provider for theatrical releases.
func (t *TMDB) Movies() Provider {
	return &tmdbProvider{tmdb: t, kind: enum.MediaKindMovie}
}

// Series returns the provider for television series.
func (t *TMDB) Series() Provider {
	return &tmdbProvider{tmdb: t, kind: enum.MediaKindSeries}
}

// tmdbProvider scopes the shared TMDB client to one media kind.
type tmdbProvider struct {
	tmdb *TMDB
	kind enum.MediaKind
}

func (p *tmdbProvider) Search(ctx context.Context, query string) ([]Result, error) {
	key := cacheKey("tmdb", "search_"+string(p.kind), query)
	return cached(ctx, p.tmdb.cache, key, SearchTTL, func(ctx context.Context) ([]Result, error) {
		return p.tmdb.search(ctx, p.kind, query)
	})
}

func (p *tmdbProvider) GetByID(ctx context.Context, id string) (*Media, error) {
	key := cacheKey("tmdb", "details_"+string(p.kind), id)
	return cached(ctx, p.tmdb.cache, key, DetailsTTL, func(ctx context.Context) (*Media, error) {
		return p.tmdb.details(ctx, p.kind, id)
	})
}

// tmdbEntry covers both movie and TV payloads; movies populate title and
// release_date while series use name and first_air_date.
type tmdbEntry struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
}

type tmdbDetails struct {
	tmdbEntry

	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	NumberOfSeasons  int    `json:"number_of_seasons"`
	NumberOfEpisodes int    `json:"number_of_episodes"`
	Status           string `json:"status"`
}

func (e *tmdbEntry) title() string {
	if e.Title != "" {
		return e.Title
	}
	return e.Name
}

func (e *tmdbEntry) releaseDate() string {
	if e.ReleaseDate != "" {
		return e.ReleaseDate
	}
	return e.FirstAirDate
}

func (e *tmdbEntry) imageURL() string {
	if e.PosterPath == "" {
		return ""
	}
	return tmdbImageURL + e.PosterPath
}

func tmdbEndpoint(kind enum.MediaKind) string {
	if kind == enum.MediaKindSeries {
		return "tv"
	}
	return "movie"
}

func (t *TMDB) search(ctx context.Context, kind enum.MediaKind, query string) ([]Result, error) {
	resp, err := t.client.NewRequest().
		Method(http.MethodGet).
		URL(tmdbAPIURL+"/search/"+tmdbEndpoint(kind)).
		Query("query", query).
		Query("include_adult", "false").
		Query("language", "en-US").
		Query("page", "1").
		Header("Authorization", "Bearer "+t.token).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search tmdb: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tmdb response: %w", err)
	}

	var payload struct {
		Results []tmdbEntry `json:"results"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse tmdb response: %w", err)
	}

	results := make([]Result, 0, searchResultLimit)
	for _, entry := range payload.Results {
		if len(results) >= searchResultLimit {
			break
		}

		results = append(results, Result{
			ID:          strconv.FormatInt(entry.ID, 10),
			Title:       entry.title(),
			Description: entry.releaseDate(),
			ImageURL:    entry.imageURL(),
		})
	}

	t.logger.Debug("Searched catalog",
		zap.String("kind", string(kind)),
		zap.String("query", query),
		zap.Int("results", len(results)))

	return results, nil
}

func (t *TMDB) details(ctx context.Context, kind enum.MediaKind, id string) (*Media, error) {
	endpoint := tmdbEndpoint(kind)

	resp, err := t.client.NewRequest().
		Method(http.MethodGet).
		URL(tmdbAPIURL+"/"+endpoint+"/"+id).
		Query("language", "en-US").
		Header("Authorization", "Bearer "+t.token).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tmdb details: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb details returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tmdb response: %w", err)
	}

	var details tmdbDetails
	if err := sonic.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("failed to parse tmdb response: %w", err)
	}

	media := &Media{
		ID:          id,
		Kind:        kind,
		Title:       details.title(),
		Overview:    details.Overview,
		ReleaseDate: details.releaseDate(),
		ImageURL:    details.imageURL(),
		URL:         tmdbSiteURL + "/" + endpoint + "/" + id,
		Seasons:     details.NumberOfSeasons,
		Episodes:    details.NumberOfEpisodes,
		Status:      details.Status,
	}
	for _, genre := range details.Genres {
		media.Genres = append(media.Genres, genre.Name)
	}

	return media, nil
}
