package enums

import "fmt"

// ShipmentStatus is the logistics tracking state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusWaiting    ShipmentStatus = "waiting"
	ShipmentStatusProcessing ShipmentStatus = "processing"
	ShipmentStatusInTransit  ShipmentStatus = "in transit"
	ShipmentStatusDelivered  ShipmentStatus = "delivered"
	ShipmentStatusDelayed    ShipmentStatus = "delayed"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusWaiting,
	ShipmentStatusProcessing,
	ShipmentStatusInTransit,
	ShipmentStatusDelivered,
	ShipmentStatusDelayed,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
