package types

import "github.com/shopspring/decimal"

// Zone is a delivery zone inside a city. Fee is the delivery charge
// applied at checkout when the zone is selected.
type Zone struct {
	ID        string           `json:"id"`
	Name      LocalizedMessage `json:"name"`
	Fee       decimal.Decimal  `json:"fee"`
	IsDeleted bool             `json:"-"`
}

// City groups the zones the upstream currently delivers to.
type City struct {
	ID        string           `json:"id"`
	Name      LocalizedMessage `json:"name"`
	Zones     []Zone           `json:"zones"`
	IsDeleted bool             `json:"-"`
}
