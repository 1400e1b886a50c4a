package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/logger"
	"github.com/marginly/marginly-backend/pkg/security"
)

type rotationRepository interface {
	ListAll(ctx context.Context) ([]models.Store, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken string, adsRefreshToken *string) error
}

type tokenState int

const (
	tokenCurrent tokenState = iota
	tokenRotated
	tokenEncrypted
)

// Rotator re-encrypts stored credentials under the current key. Values sealed
// with the previous key are rotated and legacy plaintext values are encrypted.
type Rotator struct {
	repo     rotationRepository
	current  *security.Cipher
	previous *security.Cipher
	logg     *logger.Logger
}

// NewRotator builds a Rotator. previous may be nil when only plaintext values
// need encrypting.
func NewRotator(repo rotationRepository, current, previous *security.Cipher, logg *logger.Logger) (*Rotator, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if current == nil {
		return nil, fmt.Errorf("current cipher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Rotator{repo: repo, current: current, previous: previous, logg: logg}, nil
}

// Rotate walks every store. With dryRun set nothing is written but the report
// still reflects what would change. A store whose tokens cannot be read with
// either key is counted as failed and left untouched.
func (r *Rotator) Rotate(ctx context.Context, dryRun bool) (RotationReport, error) {
	report := RotationReport{ToKeyID: r.current.KeyID()}
	if r.previous != nil {
		report.FromKeyID = r.previous.KeyID()
	}

	rows, err := r.repo.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("list stores: %w", err)
	}

	for _, store := range rows {
		report.Scanned++
		storeCtx := r.logg.WithStoreID(ctx, store.ID.String())

		access, accessState, err := r.reseal(store.AccessToken)
		if err != nil {
			report.Failed++
			r.logg.Error(storeCtx, "access token unreadable with configured keys", err)
			continue
		}

		var refresh *string
		refreshState := tokenCurrent
		if store.AdsRefreshToken != nil && *store.AdsRefreshToken != "" {
			sealed, state, err := r.reseal(*store.AdsRefreshToken)
			if err != nil {
				report.Failed++
				r.logg.Error(storeCtx, "ads refresh token unreadable with configured keys", err)
				continue
			}
			refresh, refreshState = &sealed, state
		} else {
			refresh = store.AdsRefreshToken
		}

		switch {
		case accessState == tokenEncrypted || refreshState == tokenEncrypted:
			report.Encrypted++
		case accessState == tokenRotated || refreshState == tokenRotated:
			report.Rotated++
		default:
			report.Skipped++
			continue
		}

		if dryRun {
			continue
		}
		if err := r.repo.UpdateTokens(ctx, store.ID, access, refresh); err != nil {
			return report, fmt.Errorf("update store %s: %w", store.ID, err)
		}
		r.logg.Info(storeCtx, "store credentials re-encrypted")
	}

	return report, nil
}

func (r *Rotator) reseal(raw string) (string, tokenState, error) {
	if !security.IsEnvelope(raw) {
		sealed, err := r.current.EncryptString(raw)
		return sealed, tokenEncrypted, err
	}
	if _, err := r.current.DecryptString(raw); err == nil {
		return raw, tokenCurrent, nil
	}
	if r.previous == nil {
		return "", tokenCurrent, security.ErrDecrypt
	}
	plain, err := r.previous.DecryptString(raw)
	if err != nil {
		return "", tokenCurrent, err
	}
	sealed, err := r.current.EncryptString(plain)
	return sealed, tokenRotated, err
}
