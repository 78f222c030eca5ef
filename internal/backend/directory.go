package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/tourscout/internal/cachemanager"
	"github.com/zjrosen/tourscout/internal/log"
)

const hotelsTTL = 30 * time.Minute

// Directory answers hotel lookups used to decorate search results.
// Per-country hotel lists are read through a TTL cache.
type Directory struct {
	hotels *cachemanager.ReadThroughCache[string, []Hotel, string]
}

// NewDirectory returns a directory over the built-in catalog.
func NewDirectory() *Directory {
	d := &Directory{}
	cache := cachemanager.NewInMemoryCacheManager[string, []Hotel]("hotels", hotelsTTL, cachemanager.DefaultCleanupInterval)
	d.hotels = cachemanager.NewReadThroughCache[string, []Hotel, string](cache, d.load, false)
	return d
}

func (d *Directory) load(_ context.Context, countryID string) ([]Hotel, error) {
	if _, ok := LookupCountry(countryID); !ok {
		return nil, fmt.Errorf("hotels of %q: %w", countryID, ErrUnknownCountry)
	}
	log.Debug(log.CatBackend, "loaded hotels", "country", countryID)
	return hotelsOf(countryID), nil
}

// Countries returns the searchable countries with their cities.
func (d *Directory) Countries(context.Context) []CountryCities {
	cs := Countries()
	out := make([]CountryCities, 0, len(cs))
	for _, c := range cs {
		out = append(out, CountryCities{Country: c, Cities: CitiesOf(c.ID)})
	}
	return out
}

// CountryCities pairs a country with its searchable cities.
type CountryCities struct {
	Country
	Cities []City
}

// CacheStats reports hits and misses of the per-country hotel cache.
func (d *Directory) CacheStats() (hits, misses int64) {
	return d.hotels.Stats()
}

// HotelsByCountry returns the hotels of countryID. A known country with
// no hotels yields an empty slice.
func (d *Directory) HotelsByCountry(ctx context.Context, countryID string) ([]Hotel, error) {
	return d.hotels.Get(ctx, countryID, countryID, hotelsTTL)
}

// HotelIndex returns the hotels of countryID keyed by hotel id.
func (d *Directory) HotelIndex(ctx context.Context, countryID string) (map[string]Hotel, error) {
	hs, err := d.HotelsByCountry(ctx, countryID)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]Hotel, len(hs))
	for _, h := range hs {
		idx[h.ID] = h
	}
	return idx, nil
}

// Hotel returns one hotel by id.
func (d *Directory) Hotel(_ context.Context, id string) (Hotel, error) {
	for _, h := range hotels {
		if h.ID == id {
			return h, nil
		}
	}
	return Hotel{}, fmt.Errorf("hotel %q: %w", id, ErrHotelNotFound)
}
