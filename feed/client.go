package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrFeedUnavailable is returned whenever the upstream sports API cannot be
// reached or answers with a non-200 status. The caller decides the retry
// policy; the client never retries internally.
var ErrFeedUnavailable = errors.New("sports feed unavailable")

const defaultVenue = "TBD"

// FeedStatus is the normalized upstream status flag of a game record.
type FeedStatus string

const (
	FeedStatusFinished FeedStatus = "finished"
	FeedStatusLive     FeedStatus = "live"
	FeedStatusUnknown  FeedStatus = "unknown"
)

// GameRecord is one normalized game observation from the upstream provider.
type GameRecord struct {
	ExternalID  int64
	HomeTeam    string
	AwayTeam    string
	HomeScore   int
	AwayScore   int
	Status      FeedStatus
	ScheduledAt time.Time
	Venue       string
	League      string
	Season      string
	Period      int
}

// Client issues parameterized requests against the sports data API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LiveGames fetches all games currently in progress.
func (c *Client) LiveGames(ctx context.Context) ([]GameRecord, error) {
	return c.fetchGames(ctx, c.baseURL+"/games?live=all")
}

// GamesByTeamSeason fetches the schedule of one team for one season,
// upcoming and completed games included.
func (c *Client) GamesByTeamSeason(ctx context.Context, teamID int, season int) ([]GameRecord, error) {
	url := fmt.Sprintf("%s/games?season=%d&team=%d", c.baseURL, season, teamID)
	return c.fetchGames(ctx, url)
}

// Raw proxies one provider endpoint and returns the response body untouched.
// The passthrough routes use it for provider data the store does not model,
// such as league listings and per-game statistics.
func (c *Client) Raw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrFeedUnavailable, err)
	}
	return json.RawMessage(body), nil
}

// apiEnvelope mirrors the relevant slice of the upstream JSON response.
type apiEnvelope struct {
	Response []apiGame `json:"response"`
}

type apiGame struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Status struct {
		Long  string `json:"long"`
		Short string `json:"short"`
	} `json:"status"`
	League struct {
		Name   string `json:"name"`
		Season string `json:"season"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Scores struct {
		Home apiScore `json:"home"`
		Away apiScore `json:"away"`
	} `json:"scores"`
	Venue struct {
		Name string `json:"name"`
	} `json:"venue"`
	Periods struct {
		Current int `json:"current"`
	} `json:"periods"`
}

// apiScore tolerates both the object form {"total": 97} and the bare
// numeric form some endpoints return.
type apiScore struct {
	Total int
}

func (s *apiScore) UnmarshalJSON(data []byte) error {
	var obj struct {
		Total *int `json:"total"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if obj.Total != nil {
			s.Total = *obj.Total
		}
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		s.Total = n
		return nil
	}

	// null or unexpected shape normalizes to zero
	s.Total = 0
	return nil
}

func (c *Client) fetchGames(ctx context.Context, url string) ([]GameRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-apisports-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status=%d body=%s", ErrFeedUnavailable, resp.StatusCode, string(body))
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrFeedUnavailable, err)
	}

	records := make([]GameRecord, 0, len(envelope.Response))
	for _, game := range envelope.Response {
		records = append(records, normalizeGame(game))
	}
	return records, nil
}

func normalizeGame(game apiGame) GameRecord {
	venue := game.Venue.Name
	if venue == "" {
		venue = defaultVenue
	}

	scheduledAt, err := time.Parse(time.RFC3339, game.Date)
	if err != nil {
		scheduledAt = time.Time{}
	}

	return GameRecord{
		ExternalID:  game.ID,
		HomeTeam:    game.Teams.Home.Name,
		AwayTeam:    game.Teams.Away.Name,
		HomeScore:   game.Scores.Home.Total,
		AwayScore:   game.Scores.Away.Total,
		Status:      normalizeStatus(game.Status.Short, game.Status.Long),
		ScheduledAt: scheduledAt,
		Venue:       venue,
		League:      game.League.Name,
		Season:      game.League.Season,
		Period:      game.Periods.Current,
	}
}

// normalizeStatus collapses the provider's status vocabulary into the three
// flags the reconciler understands. Anything unrecognized stays unknown so
// the reconciler falls back to wall-clock derivation.
func normalizeStatus(short, long string) FeedStatus {
	switch strings.ToUpper(short) {
	case "FT", "AOT", "POST":
		return FeedStatusFinished
	case "Q1", "Q2", "Q3", "Q4", "OT", "BT", "HT", "LIVE":
		return FeedStatusLive
	}

	switch {
	case strings.EqualFold(long, "Finished"), strings.EqualFold(long, "Game Finished"):
		return FeedStatusFinished
	case strings.EqualFold(long, "Live"), strings.EqualFold(long, "In Play"):
		return FeedStatusLive
	}

	return FeedStatusUnknown
}
