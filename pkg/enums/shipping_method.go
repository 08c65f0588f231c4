package enums

import "fmt"

type ShippingMethod string

const (
	ShippingMethodFree        ShippingMethod = "free_shipping"
	ShippingMethodFlatRate    ShippingMethod = "flat_rate"
	ShippingMethodLocalPickup ShippingMethod = "local_pickup"
)

var validShippingMethods = []ShippingMethod{
	ShippingMethodFree,
	ShippingMethodFlatRate,
	ShippingMethodLocalPickup,
}

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShippingMethod.
func (s ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
