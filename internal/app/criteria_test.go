package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
)

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		in   string
		want search.Criteria
	}{
		{"UA", search.Criteria{CountryID: "UA"}},
		{"  ua ", search.Criteria{CountryID: "UA"}},
		{"UA 101", search.Criteria{CountryID: "UA", CityID: "101"}},
		{"UA/101/1002", search.Criteria{CountryID: "UA", CityID: "101", HotelID: "1002"}},
		{"es 302\t3002", search.Criteria{CountryID: "ES", CityID: "302", HotelID: "3002"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCriteria(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseCriteria_Errors(t *testing.T) {
	_, err := ParseCriteria("   ")
	require.ErrorIs(t, err, search.ErrMissingCountry)

	_, err = ParseCriteria("XX")
	require.ErrorIs(t, err, backend.ErrUnknownCountry)

	_, err = ParseCriteria("UA 101 1002 extra")
	require.Error(t, err)
}
