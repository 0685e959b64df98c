package export

import "net/url"

// Endpoint is one API resource exported to its own CSV file.
type Endpoint struct {
	// Name is the CSV base name and sheet name source.
	Name string
	// Path is appended to the API base URL.
	Path string
	// Params are sent with every page request.
	Params url.Values
}

// LaunchesSince is the lower bound for the launches history export.
const LaunchesSince = "1930-01-01T19:02:00Z"

// DefaultEndpoints returns the endpoints exported by a run, in run order.
func DefaultEndpoints() []Endpoint {
	return []Endpoint{
		{
			Name: "launches",
			Path: "/launches",
			Params: url.Values{
				"modified_since": []string{LaunchesSince},
				"after_date":     []string{"1930-01-01"},
			},
		},
		{Name: "companies", Path: "/companies"},
		{Name: "locations", Path: "/locations"},
		{Name: "missions", Path: "/missions"},
		{Name: "pads", Path: "/pads"},
		{Name: "tags", Path: "/tags"},
		{Name: "vehicles", Path: "/vehicles"},
	}
}
