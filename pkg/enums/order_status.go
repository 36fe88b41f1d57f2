package enums

// OrderStatus mirrors the platform's order states. Responses missing a
// status are defaulted to OrderStatusPlaced rather than rejected.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// NormalizeOrderStatus maps unknown or empty input to the initial state.
func NormalizeOrderStatus(value string) OrderStatus {
	status := OrderStatus(value)
	if status.IsValid() {
		return status
	}
	return OrderStatusPlaced
}
