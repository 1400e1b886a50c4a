package adspend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/marginly/marginly-backend/pkg/config"
	"github.com/marginly/marginly-backend/pkg/metrics"
)

const (
	defaultBaseURL    = "https://googleads.googleapis.com"
	defaultAPIVersion = "v17"
	adwordsScope      = "https://www.googleapis.com/auth/adwords"
	dateLayout        = "2006-01-02"
)

var micros = decimal.NewFromInt(1_000_000)

// ClientConfig configures the Google Ads REST client.
type ClientConfig struct {
	ClientID       string
	ClientSecret   string
	DeveloperToken string
	APIVersion     string
	Timeout        time.Duration
	// BaseURL and TokenURL are only overridden against fakes.
	BaseURL  string
	TokenURL string
}

// ConfigFromEnv adapts the loaded ads settings.
func ConfigFromEnv(cfg config.AdsConfig) ClientConfig {
	return ClientConfig{
		ClientID:       cfg.ClientID,
		ClientSecret:   cfg.ClientSecret,
		DeveloperToken: cfg.DeveloperToken,
		APIVersion:     cfg.APIVersion,
		Timeout:        cfg.Timeout,
	}
}

// CampaignCost is one campaign's spend on one day.
type CampaignCost struct {
	Date         time.Time
	CampaignID   string
	CampaignName string
	Cost         decimal.Decimal
	Clicks       int64
	Impressions  int64
	Conversions  decimal.Decimal
}

// DailyCost is the spend across all campaigns on one day.
type DailyCost struct {
	Date        time.Time
	Cost        decimal.Decimal
	Clicks      int64
	Impressions int64
	Conversions decimal.Decimal
}

// APIError is returned for any non-2xx Ads API response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("google ads: status %d: %s", e.Status, body)
}

type Client struct {
	oauth   *oauth2.Config
	http    *resty.Client
	base    string
	timeout time.Duration
	metrics *metrics.SyncMetrics
}

func NewClient(cfg ClientConfig, sm *metrics.SyncMetrics) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google ads: oauth client credentials required")
	}
	if cfg.DeveloperToken == "" {
		return nil, errors.New("google ads: developer token required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}

	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{adwordsScope},
		},
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("developer-token", cfg.DeveloperToken).
			SetHeader("Content-Type", "application/json"),
		base:    base + "/" + cfg.APIVersion,
		timeout: cfg.Timeout,
		metrics: sm,
	}, nil
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchBatch struct {
	Results []struct {
		Campaign struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		} `json:"campaign"`
		Metrics struct {
			CostMicros  decimal.Decimal `json:"costMicros"`
			Clicks      decimal.Decimal `json:"clicks"`
			Impressions decimal.Decimal `json:"impressions"`
			Conversions decimal.Decimal `json:"conversions"`
		} `json:"metrics"`
		Segments struct {
			Date string `json:"date"`
		} `json:"segments"`
	} `json:"results"`
}

// FetchCampaignCosts returns spend per campaign per day for the inclusive
// date range, ordered by date then campaign.
func (c *Client) FetchCampaignCosts(ctx context.Context, customerID, refreshToken string, start, end time.Time) ([]CampaignCost, error) {
	customerID = strings.ReplaceAll(strings.TrimSpace(customerID), "-", "")
	if customerID == "" || refreshToken == "" {
		return nil, errors.New("google ads: customer id and refresh token required")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.oauth.TokenSource(callCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("google ads: refresh access token: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT campaign.id, campaign.name, segments.date, metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions "+
			"FROM campaign WHERE segments.date BETWEEN '%s' AND '%s'",
		start.UTC().Format(dateLayout), end.UTC().Format(dateLayout),
	)

	var batches []searchBatch
	started := time.Now()
	resp, err := c.http.R().
		SetContext(callCtx).
		SetAuthToken(token.AccessToken).
		SetBody(searchRequest{Query: query}).
		SetResult(&batches).
		Post(c.base + "/customers/" + customerID + "/googleAds:searchStream")
	if err != nil {
		c.metrics.ObserveUpstream("google_ads_search", "error", time.Since(started))
		return nil, fmt.Errorf("google ads: search: %w", err)
	}
	c.metrics.ObserveUpstream("google_ads_search", strconv.Itoa(resp.StatusCode()), time.Since(started))
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Body: resp.String()}
	}

	type key struct {
		date     string
		campaign string
	}
	merged := make(map[key]*CampaignCost)
	for _, batch := range batches {
		for _, row := range batch.Results {
			date, err := time.Parse(dateLayout, row.Segments.Date)
			if err != nil {
				return nil, fmt.Errorf("google ads: invalid segment date %q: %w", row.Segments.Date, err)
			}
			k := key{date: row.Segments.Date, campaign: row.Campaign.ID.String()}
			cc, ok := merged[k]
			if !ok {
				cc = &CampaignCost{Date: date, CampaignID: k.campaign, CampaignName: row.Campaign.Name}
				merged[k] = cc
			}
			cc.Cost = cc.Cost.Add(row.Metrics.CostMicros.Div(micros))
			cc.Clicks += row.Metrics.Clicks.IntPart()
			cc.Impressions += row.Metrics.Impressions.IntPart()
			cc.Conversions = cc.Conversions.Add(row.Metrics.Conversions)
		}
	}

	out := make([]CampaignCost, 0, len(merged))
	for _, cc := range merged {
		out = append(out, *cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CampaignID < out[j].CampaignID
	})
	return out, nil
}

// FetchDailyCost aggregates campaign spend by day.
func (c *Client) FetchDailyCost(ctx context.Context, customerID, refreshToken string, start, end time.Time) ([]DailyCost, error) {
	campaigns, err := c.FetchCampaignCosts(ctx, customerID, refreshToken, start, end)
	if err != nil {
		return nil, err
	}
	return SumByDay(campaigns), nil
}

// SumByDay collapses campaign rows into per-day totals ordered by date.
func SumByDay(campaigns []CampaignCost) []DailyCost {
	var out []DailyCost
	index := make(map[time.Time]int)
	for _, cc := range campaigns {
		i, ok := index[cc.Date]
		if !ok {
			i = len(out)
			index[cc.Date] = i
			out = append(out, DailyCost{Date: cc.Date})
		}
		out[i].Cost = out[i].Cost.Add(cc.Cost)
		out[i].Clicks += cc.Clicks
		out[i].Impressions += cc.Impressions
		out[i].Conversions = out[i].Conversions.Add(cc.Conversions)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
