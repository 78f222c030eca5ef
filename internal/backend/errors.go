package backend

import "errors"

var (
	// ErrJobNotFound is returned for tokens the backend never issued or
	// whose job has expired.
	ErrJobNotFound = errors.New("search job not found")

	// ErrUnknownCountry is returned when criteria name a country outside
	// the catalog.
	ErrUnknownCountry = errors.New("unknown country")

	// ErrUnknownCity is returned when the city does not belong to the
	// requested country.
	ErrUnknownCity = errors.New("unknown city")

	// ErrHotelNotFound is returned by Directory.Hotel.
	ErrHotelNotFound = errors.New("hotel not found")

	// ErrCancelled is returned when polling a cancelled job.
	ErrCancelled = errors.New("search job cancelled")

	// ErrSimulatedFailure marks a randomly injected transient failure.
	ErrSimulatedFailure = errors.New("simulated backend failure")
)
