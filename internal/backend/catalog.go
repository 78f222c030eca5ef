package backend

// Country is a searchable destination.
type Country struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// City belongs to a country.
type City struct {
	ID        string `json:"id" yaml:"id"`
	CountryID string `json:"country_id" yaml:"country_id"`
	Name      string `json:"name" yaml:"name"`
}

// Hotel is one bookable hotel with its location denormalized for display.
type Hotel struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Stars       int               `json:"stars" yaml:"stars"`
	CityID      string            `json:"city_id" yaml:"city_id"`
	CityName    string            `json:"city_name" yaml:"city_name"`
	CountryID   string            `json:"country_id" yaml:"country_id"`
	CountryName string            `json:"country_name" yaml:"country_name"`
	Description string            `json:"description" yaml:"description"`
	Services    map[string]string `json:"services,omitempty" yaml:"services,omitempty"`
}

// Service availability values.
const (
	ServiceYes  = "yes"
	ServiceNo   = "no"
	ServiceNone = "none"
)

var countries = []Country{
	{ID: "UA", Name: "Ukraine"},
	{ID: "PL", Name: "Poland"},
	{ID: "ES", Name: "Spain"},
	{ID: "TR", Name: "Turkey"},
	{ID: "EG", Name: "Egypt"},
	{ID: "GR", Name: "Greece"},
	{ID: "MD", Name: "Moldova"},
	{ID: "IS", Name: "Iceland"},
}

var cities = []City{
	{ID: "101", CountryID: "UA", Name: "Odesa"},
	{ID: "102", CountryID: "UA", Name: "Lviv"},
	{ID: "103", CountryID: "UA", Name: "Bukovel"},
	{ID: "201", CountryID: "PL", Name: "Krakow"},
	{ID: "202", CountryID: "PL", Name: "Gdansk"},
	{ID: "301", CountryID: "ES", Name: "Barcelona"},
	{ID: "302", CountryID: "ES", Name: "Tenerife"},
	{ID: "401", CountryID: "TR", Name: "Antalya"},
	{ID: "402", CountryID: "TR", Name: "Bodrum"},
	{ID: "501", CountryID: "EG", Name: "Hurghada"},
	{ID: "502", CountryID: "EG", Name: "Sharm El Sheikh"},
	{ID: "601", CountryID: "GR", Name: "Crete"},
	{ID: "701", CountryID: "MD", Name: "Chisinau"},
	{ID: "801", CountryID: "IS", Name: "Reykjavik"},
}

func svc(wifi, pool, parking, laundry string) map[string]string {
	return map[string]string{
		"wifi":     wifi,
		"aquapark": pool,
		"parking":  parking,
		"laundry":  laundry,
	}
}

var hotels = []Hotel{
	{ID: "1001", Name: "Black Sea Pearl", Stars: 4, CityID: "101", Description: "Seafront hotel near Arcadia beach.", Services: svc(ServiceYes, ServiceNo, ServiceYes, ServiceYes)},
	{ID: "1002", Name: "Opera Boutique", Stars: 5, CityID: "101", Description: "Historic building steps from the Opera House.", Services: svc(ServiceYes, ServiceNone, ServiceNo, ServiceYes)},
	{ID: "1003", Name: "Rynok Square Inn", Stars: 3, CityID: "102", Description: "Small inn in the old town.", Services: svc(ServiceYes, ServiceNone, ServiceNo, ServiceNo)},
	{ID: "1004", Name: "Carpathian Lodge", Stars: 4, CityID: "103", Description: "Ski-in ski-out chalet with spa.", Services: svc(ServiceYes, ServiceYes, ServiceYes, ServiceYes)},
	{ID: "2001", Name: "Wawel View", Stars: 4, CityID: "201", Description: "Rooms overlooking the castle.", Services: svc(ServiceYes, ServiceNo, ServiceYes, ServiceYes)},
	{ID: "2002", Name: "Baltic Dunes", Stars: 3, CityID: "202", Description: "Family hotel by the dunes.", Services: svc(ServiceYes, ServiceNo, ServiceYes, ServiceNo)},
	{ID: "3001", Name: "Rambla Suites", Stars: 4, CityID: "301", Description: "Apartments off La Rambla.", Services: svc(ServiceYes, ServiceNone, ServiceNo, ServiceYes)},
	{ID: "3002", Name: "Teide Resort", Stars: 5, CityID: "302", Description: "All inclusive resort with water park.", Services: svc(ServiceYes, ServiceYes, ServiceYes, ServiceYes)},
	{ID: "3003", Name: "Costa Adeje Club", Stars: 4, CityID: "302", Description: "Club hotel on the south coast.", Services: svc(ServiceYes, ServiceYes, ServiceYes, ServiceNo)},
	{ID: "4001", Name: "Lara Palace", Stars: 5, CityID: "401", Description: "Ultra all inclusive on Lara beach.", Services: svc(ServiceYes, ServiceYes, ServiceYes, ServiceYes)},
	{ID: "4002", Name: "Konyaalti Garden", Stars: 4, CityID: "401", Description: "Garden hotel near the mountains.", Services: svc(ServiceYes, ServiceNo, ServiceYes, ServiceYes)},
	{ID: "4003", Name: "Aegean Marina", Stars: 4, CityID: "402", Description: "Marina side rooms with sea view.", Services: svc(ServiceYes, ServiceNo, ServiceNo, ServiceYes)},
	{ID: "5001", Name: "Red Sea Reef", Stars: 5, CityID: "501", Description: "House reef and private beach.", Services: svc(ServiceYes, ServiceYes, ServiceYes, ServiceYes)},
	{ID: "5002", Name: "Naama Bay Sands", Stars: 4, CityID: "502", Description: "Walking distance to Naama Bay.", Services: svc(ServiceYes, ServiceYes, ServiceNo, ServiceNo)},
	{ID: "6001", Name: "Knossos Beach", Stars: 5, CityID: "601", Description: "Bungalows among gardens by the sea.", Services: svc(ServiceYes, ServiceNo, ServiceYes, ServiceYes)},
}

var (
	countryByID = make(map[string]Country, len(countries))
	cityByID    = make(map[string]City, len(cities))
)

func init() {
	for _, c := range countries {
		countryByID[c.ID] = c
	}
	for _, c := range cities {
		cityByID[c.ID] = c
	}
	for i := range hotels {
		city := cityByID[hotels[i].CityID]
		hotels[i].CityName = city.Name
		hotels[i].CountryID = city.CountryID
		hotels[i].CountryName = countryByID[city.CountryID].Name
	}
}

// Countries returns every searchable country in display order.
func Countries() []Country {
	return append([]Country(nil), countries...)
}

// CitiesOf returns the cities of countryID.
func CitiesOf(countryID string) []City {
	var out []City
	for _, c := range cities {
		if c.CountryID == countryID {
			out = append(out, c)
		}
	}
	return out
}

// LookupCountry reports whether id is in the catalog.
func LookupCountry(id string) (Country, bool) {
	c, ok := countryByID[id]
	return c, ok
}

func hotelsOf(countryID string) []Hotel {
	out := make([]Hotel, 0)
	for _, h := range hotels {
		if h.CountryID == countryID {
			out = append(out, h)
		}
	}
	return out
}
