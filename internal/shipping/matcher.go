package shipping

import (
	"context"
	"fmt"

	"github.com/zalar2202/logashop/pkg/db/models"
	pkgerrors "github.com/zalar2202/logashop/pkg/errors"
)

type zoneLister interface {
	ListActiveZones(ctx context.Context) ([]models.ShippingZone, error)
}

// Specificity scores for geographic zone matches. A higher score always
// wins; sort_order only breaks ties at equal score.
const (
	scoreCountryState = 3
	scoreCountry      = 2
	scoreGlobal       = 1
)

// Matcher selects the shipping zone serving a destination address.
type Matcher struct {
	zones zoneLister
}

// NewMatcher builds the zone matcher.
func NewMatcher(zones zoneLister) (*Matcher, error) {
	if zones == nil {
		return nil, fmt.Errorf("zone lister required")
	}
	return &Matcher{zones: zones}, nil
}

// FindZoneForAddress returns the most specific active zone covering the
// country/state pair: an explicit country+state listing beats a
// country-only listing, which beats a global catch-all. Ties fall to
// the lower sort_order. Zones flagged is_default are only considered
// when no geographic zone matches at all. A nil zone (no error) means
// nothing is configured for the destination and legacy fallback rates
// apply.
func (m *Matcher) FindZoneForAddress(ctx context.Context, country, state string) (*models.ShippingZone, error) {
	zones, err := m.zones.ListActiveZones(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping zones")
	}

	var (
		best      *models.ShippingZone
		bestScore int
	)
	for i := range zones {
		zone := &zones[i]
		if zone.IsDefault {
			continue
		}
		score := matchScore(zone, country, state)
		if score == 0 {
			continue
		}
		// Zones arrive sorted by sort_order, so the first zone at a
		// given score wins ties.
		if score > bestScore {
			best = zone
			bestScore = score
		}
	}
	if best != nil {
		return best, nil
	}

	for i := range zones {
		if zones[i].IsDefault {
			return &zones[i], nil
		}
	}
	return nil, nil
}

func matchScore(zone *models.ShippingZone, country, state string) int {
	switch {
	case zone.MatchesCountry(country) && state != "" && zone.MatchesState(state):
		return scoreCountryState
	case zone.MatchesCountry(country) && len(zone.States) == 0:
		return scoreCountry
	case zone.IsGlobal():
		return scoreGlobal
	default:
		return 0
	}
}
