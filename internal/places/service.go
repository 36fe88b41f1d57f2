package places

import (
	"context"
	"fmt"

	"github.com/seifpharma/storefront-gateway/internal/session"
	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/types"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
)

type cityLister interface {
	ListCities(ctx context.Context, auth *upstream.Auth) ([]upstream.CityPayload, error)
}

// Service serves the delivery-location picker. Soft-deleted cities and
// zones are already filtered out of everything it returns.
type Service interface {
	Cities(ctx context.Context, sess *session.Session) ([]types.City, error)
	Zone(ctx context.Context, sess *session.Session, cityID, zoneID string) (*types.Zone, error)
}

type service struct {
	lister cityLister
}

// NewService builds the places service over the upstream client.
func NewService(lister cityLister) (Service, error) {
	if lister == nil {
		return nil, fmt.Errorf("city lister required")
	}
	return &service{lister: lister}, nil
}

func (s *service) Cities(ctx context.Context, sess *session.Session) ([]types.City, error) {
	payload, err := s.lister.ListCities(ctx, sess.UpstreamAuth())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "listing delivery cities")
	}

	cities := make([]types.City, 0, len(payload))
	for _, city := range payload {
		if city.IsDeleted {
			continue
		}
		zones := make([]types.Zone, 0, len(city.Zones))
		for _, zone := range city.Zones {
			if zone.IsDeleted {
				continue
			}
			zones = append(zones, types.Zone{
				ID:   zone.ID,
				Name: types.LocalizedMessage{AR: zone.Name.AR, EN: zone.Name.EN},
				Fee:  zone.Fee,
			})
		}
		cities = append(cities, types.City{
			ID:    city.ID,
			Name:  types.LocalizedMessage{AR: city.Name.AR, EN: city.Name.EN},
			Zones: zones,
		})
	}
	return cities, nil
}

// Zone resolves one zone inside a city, for fee lookups at checkout.
func (s *service) Zone(ctx context.Context, sess *session.Session, cityID, zoneID string) (*types.Zone, error) {
	if cityID == "" || zoneID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city and zone ids are required")
	}
	cities, err := s.Cities(ctx, sess)
	if err != nil {
		return nil, err
	}
	for _, city := range cities {
		if city.ID != cityID {
			continue
		}
		for _, zone := range city.Zones {
			if zone.ID == zoneID {
				return &zone, nil
			}
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery zone not found")
}
