package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectory_HotelsByCountryCached(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	first, err := d.HotelsByCountry(ctx, "UA")
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := d.HotelsByCountry(ctx, "UA")
	require.NoError(t, err)
	require.Equal(t, first, second)

	hits, misses := d.CacheStats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestDirectory_UnknownCountryNotCached(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	_, err := d.HotelsByCountry(ctx, "XX")
	require.ErrorIs(t, err, ErrUnknownCountry)
	_, err = d.HotelsByCountry(ctx, "XX")
	require.ErrorIs(t, err, ErrUnknownCountry)

	hits, misses := d.CacheStats()
	require.Zero(t, hits, "errors are not cached")
	require.Equal(t, int64(2), misses)
}

func TestDirectory_CountryWithoutHotels(t *testing.T) {
	hs, err := NewDirectory().HotelsByCountry(context.Background(), "MD")
	require.NoError(t, err)
	require.Empty(t, hs)
}

func TestDirectory_HotelIndex(t *testing.T) {
	idx, err := NewDirectory().HotelIndex(context.Background(), "TR")
	require.NoError(t, err)
	require.Len(t, idx, 3)
	require.Equal(t, "Lara Palace", idx["4001"].Name)
	require.Equal(t, "Antalya", idx["4001"].CityName)
}

func TestDirectory_Hotel(t *testing.T) {
	d := NewDirectory()

	h, err := d.Hotel(context.Background(), "6001")
	require.NoError(t, err)
	require.Equal(t, "Greece", h.CountryName)

	_, err = d.Hotel(context.Background(), "nope")
	require.ErrorIs(t, err, ErrHotelNotFound)
}

func TestDirectory_Countries(t *testing.T) {
	cs := NewDirectory().Countries(context.Background())
	require.Len(t, cs, len(Countries()))
	for _, c := range cs {
		require.Equal(t, CitiesOf(c.ID), c.Cities, c.ID)
	}
	require.Equal(t, "UA", cs[0].ID)
}
