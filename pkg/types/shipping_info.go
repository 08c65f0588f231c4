package types

import "strings"

// ShippingInfo is the delivery contact copied onto an order at placement.
type ShippingInfo struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	City           string `json:"city"`
	Address        string `json:"address"`
	AddressDetails string `json:"address_details"`
}

// Normalize returns a copy with surrounding whitespace trimmed from every field.
func (s ShippingInfo) Normalize() ShippingInfo {
	return ShippingInfo{
		Name:           strings.TrimSpace(s.Name),
		Phone:          strings.TrimSpace(s.Phone),
		City:           strings.TrimSpace(s.City),
		Address:        strings.TrimSpace(s.Address),
		AddressDetails: strings.TrimSpace(s.AddressDetails),
	}
}

// MissingFields lists the json names of required fields that are blank.
func (s ShippingInfo) MissingFields() []string {
	n := s.Normalize()
	fields := []struct {
		name  string
		value string
	}{
		{"name", n.Name},
		{"phone", n.Phone},
		{"city", n.City},
		{"address", n.Address},
		{"address_details", n.AddressDetails},
	}

	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}
