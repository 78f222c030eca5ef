package app

import (
	"fmt"
	"strings"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
)

// ParseCriteria reads what the user typed into the search box: a country
// code, optionally followed by a city id and a hotel id, separated by
// spaces or slashes ("UA", "UA 101", "UA/101/1002").
func ParseCriteria(s string) (search.Criteria, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '/' || r == '\t'
	})
	if len(parts) == 0 {
		return search.Criteria{}, search.ErrMissingCountry
	}
	if len(parts) > 3 {
		return search.Criteria{}, fmt.Errorf("expected COUNTRY [CITY [HOTEL]], got %d fields", len(parts))
	}

	c := search.Criteria{CountryID: strings.ToUpper(parts[0])}
	if _, ok := backend.LookupCountry(c.CountryID); !ok {
		return search.Criteria{}, fmt.Errorf("%q: %w", c.CountryID, backend.ErrUnknownCountry)
	}
	if len(parts) > 1 {
		c.CityID = parts[1]
	}
	if len(parts) > 2 {
		c.HotelID = parts[2]
	}
	return c, nil
}
