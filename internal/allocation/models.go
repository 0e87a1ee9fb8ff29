package allocation

// DefaultServiceProvider is returned when no configured region matches the
// postcode. Allocation never fails solely because no regional entry exists.
const DefaultServiceProvider = "BS SELECT"

// Entry maps a postcode prefix to the provider serving it for one screening
// service. Matching is case-insensitive; the longest matching prefix wins.
type Entry struct {
	Prefix           string `yaml:"prefix"`
	ScreeningService string `yaml:"screeningService"`
	ServiceProvider  string `yaml:"serviceProvider"`
}

// Request carries the inputs for one allocation call.
type Request struct {
	NHSNumber        string `json:"nhsNumber"`
	Postcode         string `json:"postcode"`
	ScreeningService string `json:"screeningService"`
}
