package brave

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// SearchResponse is the subset of the /web/search envelope this service reads
type SearchResponse struct {
	Type      string           `json:"type,omitempty"`
	Web       *WebResults      `json:"web,omitempty"`
	Locations *LocationResults `json:"locations,omitempty"`
}

// WebResults holds organic web results
type WebResults struct {
	Type    string      `json:"type,omitempty"`
	Results []WebResult `json:"results"`
}

// WebResult is a single organic result. Optional fields are left empty when
// the provider omits them.
type WebResult struct {
	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	URL           string   `json:"url,omitempty"`
	ExtraSnippets []string `json:"extra_snippets,omitempty"`
	MetaURL       *MetaURL `json:"meta_url,omitempty"`
	Age           string   `json:"age,omitempty"`
	Language      string   `json:"language,omitempty"`
}

// MetaURL holds the decomposed components of a result URL. Some payloads
// carry it as a bare string, which is kept in Raw.
type MetaURL struct {
	Scheme   string `json:"scheme,omitempty"`
	Netloc   string `json:"netloc,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Path     string `json:"path,omitempty"`
	Raw      string `json:"-"`
}

// UnmarshalJSON accepts either an object or a plain string
func (m *MetaURL) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*m = MetaURL{Raw: raw}
		return nil
	}

	type plain MetaURL
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("meta_url: %w", err)
	}
	*m = MetaURL(decoded)
	return nil
}

// String returns the most descriptive non-empty component
func (m *MetaURL) String() string {
	if m == nil {
		return ""
	}
	switch {
	case m.Raw != "":
		return m.Raw
	case m.Hostname != "":
		return m.Hostname
	case m.Netloc != "":
		return m.Netloc
	}
	return ""
}

// LocationResults holds the location entries of a locations-filtered search
type LocationResults struct {
	Type    string           `json:"type,omitempty"`
	Results []LocationResult `json:"results"`
}

// LocationResult is a place reference; only the ID is needed to resolve it
type LocationResult struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// LocationIDs returns the IDs of every location entry that carries one
func (r *SearchResponse) LocationIDs() []string {
	if r == nil || r.Locations == nil {
		return nil
	}
	ids := make([]string, 0, len(r.Locations.Results))
	for _, loc := range r.Locations.Results {
		if loc.ID != "" {
			ids = append(ids, loc.ID)
		}
	}
	return ids
}

// WebResultList returns the web results or nil
func (r *SearchResponse) WebResultList() []WebResult {
	if r == nil || r.Web == nil {
		return nil
	}
	return r.Web.Results
}

// POIResponse is the /local/pois envelope
type POIResponse struct {
	Results []POI `json:"results"`
}

// POI is a point of interest record
type POI struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Address      *Address `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Rating       *Rating  `json:"rating,omitempty"`
	PriceRange   string   `json:"priceRange,omitempty"`
	OpeningHours []string `json:"openingHours,omitempty"`
}

// Address holds the postal address components of a POI
type Address struct {
	StreetAddress   string `json:"streetAddress,omitempty"`
	AddressLocality string `json:"addressLocality,omitempty"`
	AddressRegion   string `json:"addressRegion,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
}

// Rating is the aggregate rating of a POI. The provider has been seen sending
// ratingValue both as a number and as a numeric string.
type Rating struct {
	Value    float64
	HasValue bool
	Count    int
	HasCount bool
}

// Empty reports whether neither ratingValue nor ratingCount was sent
func (r *Rating) Empty() bool {
	return r == nil || (!r.HasValue && !r.HasCount)
}

// UnmarshalJSON decodes ratingValue and ratingCount leniently
func (r *Rating) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("rating: %w", err)
	}

	*r = Rating{}
	if v, ok := raw["ratingValue"]; ok && v != nil {
		value, err := cast.ToFloat64E(v)
		if err != nil {
			return fmt.Errorf("rating: ratingValue: %w", err)
		}
		r.Value = value
		r.HasValue = true
	}
	if v, ok := raw["ratingCount"]; ok && v != nil {
		count, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("rating: ratingCount: %w", err)
		}
		r.Count = count
		r.HasCount = true
	}
	return nil
}

// MarshalJSON mirrors the provider field names
func (r Rating) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if r.HasCount {
		out["ratingCount"] = r.Count
	}
	if r.HasValue {
		out["ratingValue"] = r.Value
	}
	return json.Marshal(out)
}

// DescriptionsResponse is the /local/descriptions envelope
type DescriptionsResponse struct {
	Descriptions map[string]string `json:"descriptions"`
}
