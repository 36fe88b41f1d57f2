package places

import (
	"context"
	"testing"

	pkgerrors "github.com/seifpharma/storefront-gateway/pkg/errors"
	"github.com/seifpharma/storefront-gateway/pkg/upstream"
	"github.com/shopspring/decimal"
)

type stubLister struct {
	cities []upstream.CityPayload
}

func (s *stubLister) ListCities(ctx context.Context, auth *upstream.Auth) ([]upstream.CityPayload, error) {
	return s.cities, nil
}

func fixtureCities() []upstream.CityPayload {
	return []upstream.CityPayload{
		{
			ID:   "cairo",
			Name: upstream.LocalizedText{AR: "القاهرة", EN: "Cairo"},
			Zones: []upstream.ZonePayload{
				{ID: "nasr-city", Name: upstream.LocalizedText{EN: "Nasr City"}, Fee: decimal.NewFromInt(25)},
				{ID: "old-zone", IsDeleted: true},
			},
		},
		{ID: "ghost-town", IsDeleted: true},
	}
}

func TestCitiesFiltersDeleted(t *testing.T) {
	svc, err := NewService(&stubLister{cities: fixtureCities()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cities, err := svc.Cities(context.Background(), nil)
	if err != nil {
		t.Fatalf("cities: %v", err)
	}
	if len(cities) != 1 {
		t.Fatalf("deleted city leaked, got %d cities", len(cities))
	}
	if len(cities[0].Zones) != 1 || cities[0].Zones[0].ID != "nasr-city" {
		t.Fatalf("deleted zone leaked: %+v", cities[0].Zones)
	}
}

func TestZoneLookup(t *testing.T) {
	svc, err := NewService(&stubLister{cities: fixtureCities()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	zone, err := svc.Zone(context.Background(), nil, "cairo", "nasr-city")
	if err != nil {
		t.Fatalf("zone: %v", err)
	}
	if !zone.Fee.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected fee %s", zone.Fee)
	}

	_, err = svc.Zone(context.Background(), nil, "cairo", "old-zone")
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("deleted zone must be invisible, got %v", err)
	}

	_, err = svc.Zone(context.Background(), nil, "", "")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
