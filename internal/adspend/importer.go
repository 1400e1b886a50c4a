// Package adspend imports daily campaign spend from Google Ads and folds it
// into the daily rollups.
package adspend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marginly/marginly-backend/internal/rollups"
	"github.com/marginly/marginly-backend/internal/stores"
	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/enums"
	"github.com/marginly/marginly-backend/pkg/logger"
)

// ErrNotConnected is returned when the store has no ads credentials.
var ErrNotConnected = errors.New("adspend: store has no ads account connected")

type credentialSource interface {
	GetByID(ctx context.Context, storeID uuid.UUID) (*stores.Credentials, error)
}

type costFetcher interface {
	FetchCampaignCosts(ctx context.Context, customerID, refreshToken string, start, end time.Time) ([]CampaignCost, error)
}

type dailyApplier interface {
	ApplyAdSpend(ctx context.Context, storeID uuid.UUID, days []rollups.DaySpend) error
}

// Result summarizes one import.
type Result struct {
	Campaigns int
	Days      int
	Total     decimal.Decimal
}

type Importer struct {
	creds   credentialSource
	client  costFetcher
	repo    Repository
	rollups dailyApplier
	logg    *logger.Logger
}

func NewImporter(creds credentialSource, client costFetcher, repo Repository, applier dailyApplier, logg *logger.Logger) (*Importer, error) {
	if creds == nil || client == nil || repo == nil || applier == nil {
		return nil, errors.New("adspend: missing dependency")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Importer{creds: creds, client: client, repo: repo, rollups: applier, logg: logg}, nil
}

// Import fetches spend for the UTC days covering [start, end] and stores it
// per campaign and per day.
func (i *Importer) Import(ctx context.Context, storeID uuid.UUID, start, end time.Time) (Result, error) {
	creds, err := i.creds.GetByID(ctx, storeID)
	if err != nil {
		return Result{}, err
	}
	if !creds.HasAds() {
		return Result{}, ErrNotConnected
	}

	campaigns, err := i.client.FetchCampaignCosts(ctx, creds.AdsCustomerID, creds.AdsRefreshToken, start, end)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	rows := make([]models.AdSpend, 0, len(campaigns))
	seen := make(map[string]struct{})
	for _, cc := range campaigns {
		seen[cc.CampaignID] = struct{}{}
		rows = append(rows, models.AdSpend{
			ID:           uuid.New(),
			StoreID:      storeID,
			Platform:     enums.AdPlatformGoogleAds,
			CampaignID:   cc.CampaignID,
			CampaignName: cc.CampaignName,
			Date:         rollups.DayStart(cc.Date),
			Amount:       cc.Cost.Round(2),
			Clicks:       cc.Clicks,
			Impressions:  cc.Impressions,
			Conversions:  cc.Conversions.Round(2),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := i.repo.Upsert(ctx, rows); err != nil {
		return Result{}, fmt.Errorf("store ad spend: %w", err)
	}

	daily := SumByDay(campaigns)
	days := make([]rollups.DaySpend, 0, len(daily))
	total := decimal.Zero
	for _, d := range daily {
		days = append(days, rollups.DaySpend{Date: d.Date, Amount: d.Cost})
		total = total.Add(d.Cost)
	}
	if err := i.rollups.ApplyAdSpend(ctx, storeID, days); err != nil {
		return Result{}, err
	}

	ctx = i.logg.WithFields(ctx, map[string]any{
		"store_id":  storeID.String(),
		"campaigns": len(seen),
		"days":      len(days),
	})
	i.logg.Info(ctx, "ad spend imported")
	return Result{Campaigns: len(seen), Days: len(days), Total: total.Round(2)}, nil
}
