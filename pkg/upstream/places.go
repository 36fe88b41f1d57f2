package upstream

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

// CityPayload is the raw delivery-city record, zones included.
// Deleted cities and zones still appear; filtering is the places
// service's job.
type CityPayload struct {
	ID        string        `json:"id"`
	Name      LocalizedText `json:"name"`
	IsDeleted bool          `json:"isDeleted"`
	Zones     []ZonePayload `json:"zones"`
}

// ZonePayload is the raw delivery-zone record.
type ZonePayload struct {
	ID        string          `json:"id"`
	Name      LocalizedText   `json:"name"`
	Fee       decimal.Decimal `json:"deliveryFee"`
	IsDeleted bool            `json:"isDeleted"`
}

type listCitiesResponse struct {
	Cities []CityPayload `json:"cities"`
}

// ListCities returns every delivery city the upstream knows about.
func (c *Client) ListCities(ctx context.Context, auth *Auth) ([]CityPayload, error) {
	var resp listCitiesResponse
	if err := c.do(ctx, auth, http.MethodGet, "/places/city", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Cities, nil
}
