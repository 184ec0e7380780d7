package format

import (
	"math"
	"strings"
	"testing"

	"github.com/ca-srg/bravesearch/internal/brave"
	"github.com/stretchr/testify/assert"
)

func TestWebResults_MissingFields(t *testing.T) {
	out := WebResults([]brave.WebResult{{}}, 10)

	assert.Contains(t, out, "Title: N/A")
	assert.Contains(t, out, "Description: N/A")
	assert.Contains(t, out, "URL: N/A")
	assert.NotContains(t, out, "Additional Context")
}

func TestWebResults_SnippetsAndLimit(t *testing.T) {
	results := []brave.WebResult{
		{Title: "One", Description: "First", URL: "https://example.com/1"},
		{
			Title:         "Two",
			Description:   "Second",
			URL:           "https://example.com/2",
			ExtraSnippets: []string{"s1", "s2", "s3"},
		},
		{Title: "Three"},
	}

	out := WebResults(results, 2)

	expected := "Title: One\nDescription: First\nURL: https://example.com/1\n\n" +
		"Title: Two\nDescription: Second\nURL: https://example.com/2\nAdditional Context:\n- s1\n- s2"
	assert.Equal(t, expected, out)
}

func TestWebResults_Empty(t *testing.T) {
	assert.Equal(t, NoWebResults, WebResults(nil, 10))
}

func TestWebResultsDetailed(t *testing.T) {
	results := []brave.WebResult{{
		Title:       "Café Review",
		Description: "Test Description",
		URL:         "https://example.com",
		MetaURL:     &brave.MetaURL{Raw: "example.com"},
		Age:         "2d",
		Language:    "en",
	}}

	out := WebResultsDetailed(results, 1)

	assert.Contains(t, out, "Title: Caf? Review")
	assert.Contains(t, out, "Description: Test Description")
	assert.Contains(t, out, "URL: https://example.com")
	assert.Contains(t, out, "Source: example.com")
	assert.Contains(t, out, "Age: 2d")
	assert.Contains(t, out, "Language: en")
}

func TestLocalResults(t *testing.T) {
	pois := []brave.POI{
		{
			ID:   "p1",
			Name: "Blue Bottle",
			Address: &brave.Address{
				StreetAddress:   "66 Mint St",
				AddressLocality: "San Francisco",
				PostalCode:      "94103",
			},
			Phone:        "+1 555 0100",
			Rating:       &brave.Rating{Value: 4.5, HasValue: true, Count: 120},
			PriceRange:   "$$",
			OpeningHours: []string{"Mo-Fr 07:00-18:00", "Sa 08:00-18:00"},
		},
		{ID: "p2"},
	}

	out := LocalResults(pois, map[string]string{"p1": "Third-wave coffee"})
	blocks := strings.Split(out, LocalSeparator)
	assert.Len(t, blocks, 2)

	assert.Equal(t, "Name: Blue Bottle\n"+
		"Address: 66 Mint St, San Francisco, 94103\n"+
		"Phone: +1 555 0100\n"+
		"Rating: 4.5 **** (120 reviews)\n"+
		"Price Range: $$\n"+
		"Hours: Mo-Fr 07:00-18:00, Sa 08:00-18:00\n"+
		"Description: Third-wave coffee", blocks[0])

	assert.Equal(t, "Name: N/A\n"+
		"Address: N/A\n"+
		"Phone: N/A\n"+
		"Rating: N/A\n"+
		"Price Range: N/A\n"+
		"Hours: N/A\n"+
		"Description: No description available", blocks[1])
}

func TestLocalResults_Empty(t *testing.T) {
	assert.Equal(t, NoLocalResults, LocalResults(nil, nil))
}

func TestRating(t *testing.T) {
	tests := []struct {
		name   string
		rating *brave.Rating
		want   string
	}{
		{"absent", nil, "N/A"},
		{"whole value", &brave.Rating{Value: 4, HasValue: true, Count: 8}, "4 **** (8 reviews)"},
		{"zero", &brave.Rating{Value: 0, HasValue: true}, "0  (0 reviews)"},
		{"no value", &brave.Rating{Count: 2, HasCount: true}, "N/A  (2 reviews)"},
		{"empty object", &brave.Rating{}, "N/A"},
		{"fractional", &brave.Rating{Value: 3.7, HasValue: true, Count: 1, HasCount: true}, "3.7 *** (1 reviews)"},
		{"capped", &brave.Rating{Value: 1e17, HasValue: true, Count: 1, HasCount: true}, "100000000000000000 ***** (1 reviews)"},
		{"negative", &brave.Rating{Value: -2, HasValue: true}, "-2  (0 reviews)"},
		{"not a number", &brave.Rating{Value: math.NaN(), HasValue: true}, "NaN  (0 reviews)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rating(tt.rating))
		})
	}
}

func TestAddress_AllEmpty(t *testing.T) {
	assert.Equal(t, "N/A", Address(&brave.Address{}))
}
