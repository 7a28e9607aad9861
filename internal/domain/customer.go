package domain

import "time"

// CustomerAddress stores address fields returned to clients.
type CustomerAddress struct {
	ID            string `json:"id"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Company       string `json:"company,omitempty"`
	Address1      string `json:"address1,omitempty"`
	Address2      string `json:"address2,omitempty"`
	City          string `json:"city,omitempty"`
	ZoneCode      string `json:"zoneCode,omitempty"`
	TerritoryCode string `json:"territoryCode,omitempty"`
	Zip           string `json:"zip,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
}

// Customer represents a registered shopper tied to a shop.
type Customer struct {
	ID               string            `json:"id"`
	ShopID           string            `json:"-"`
	Email            string            `json:"email"`
	PasswordHash     string            `json:"-"`
	FirstName        string            `json:"firstName,omitempty"`
	LastName         string            `json:"lastName,omitempty"`
	Addresses        []CustomerAddress `json:"addresses"`
	DefaultAddressID string            `json:"defaultAddressId,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AddressByID returns the index of the address or -1.
func (c Customer) AddressByID(id string) int {
	for i, a := range c.Addresses {
		if a.ID == id {
			return i
		}
	}
	return -1
}
