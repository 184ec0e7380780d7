// Package format renders provider records as the plain text returned by the
// search tools. Nothing here performs I/O; missing fields render as "N/A".
package format

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ca-srg/bravesearch/internal/brave"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

const (
	NotAvailable       = "N/A"
	NoWebResults       = "No results found for the query."
	NoLocalResults     = "No local results found"
	NoDescription      = "No description available"
	LocalSeparator     = "\n---\n"
	webSeparator       = "\n\n"
	maxContextSnippets = 2
	maxStars           = 5
)

// asciiFold replaces every non-ASCII rune with '?'
var asciiFold = runes.Map(func(r rune) rune {
	if r > unicode.MaxASCII {
		return '?'
	}
	return r
})

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

func limitResults(results []brave.WebResult, limit int) []brave.WebResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

// WebResults renders up to limit results (all when limit <= 0) as
// Title/Description/URL blocks with up to two extra snippets.
func WebResults(results []brave.WebResult, limit int) string {
	results = limitResults(results, limit)
	if len(results) == 0 {
		return NoWebResults
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		lines := []string{
			"Title: " + orNA(r.Title),
			"Description: " + orNA(r.Description),
			"URL: " + orNA(r.URL),
		}

		if len(r.ExtraSnippets) > 0 {
			lines = append(lines, "Additional Context:")
			for i, snippet := range r.ExtraSnippets {
				if i == maxContextSnippets {
					break
				}
				lines = append(lines, "- "+snippet)
			}
		}

		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	return strings.Join(blocks, webSeparator)
}

// WebResultsDetailed renders the richer presentation with Source, Age and
// Language lines. Titles and descriptions are folded to ASCII.
func WebResultsDetailed(results []brave.WebResult, limit int) string {
	results = limitResults(results, limit)
	if len(results) == 0 {
		return NoWebResults
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		lines := []string{
			"Title: " + toASCII(orNA(r.Title)),
			"Description: " + toASCII(orNA(r.Description)),
			"URL: " + orNA(r.URL),
		}
		if source := r.MetaURL.String(); source != "" {
			lines = append(lines, "Source: "+source)
		}
		if r.Age != "" {
			lines = append(lines, "Age: "+r.Age)
		}
		if r.Language != "" {
			lines = append(lines, "Language: "+r.Language)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	return strings.Join(blocks, webSeparator)
}

func toASCII(s string) string {
	out, _, err := transform.String(asciiFold, s)
	if err != nil {
		return s
	}
	return out
}

// LocalResults renders one block per POI, attaching the description with the
// same ID, separated by a "---" line.
func LocalResults(pois []brave.POI, descriptions map[string]string) string {
	blocks := make([]string, 0, len(pois))
	for _, poi := range pois {
		description, ok := descriptions[poi.ID]
		if !ok || description == "" {
			description = NoDescription
		}

		var b strings.Builder
		b.WriteString("Name: " + orNA(poi.Name) + "\n")
		b.WriteString("Address: " + Address(poi.Address) + "\n")
		b.WriteString("Phone: " + orNA(poi.Phone) + "\n")
		b.WriteString("Rating: " + Rating(poi.Rating) + "\n")
		b.WriteString("Price Range: " + orNA(poi.PriceRange) + "\n")
		b.WriteString("Hours: " + Hours(poi.OpeningHours) + "\n")
		b.WriteString("Description: " + description)
		blocks = append(blocks, b.String())
	}

	if len(blocks) == 0 {
		return NoLocalResults
	}
	return strings.Join(blocks, LocalSeparator)
}

// Address joins the non-empty address components with ", "
func Address(addr *brave.Address) string {
	if addr == nil {
		return NotAvailable
	}
	parts := make([]string, 0, 4)
	for _, component := range []string{addr.StreetAddress, addr.AddressLocality, addr.AddressRegion, addr.PostalCode} {
		if component != "" {
			parts = append(parts, component)
		}
	}
	if len(parts) == 0 {
		return NotAvailable
	}
	return strings.Join(parts, ", ")
}

// Rating renders "<value> <stars> (<count> reviews)" with one '*' per whole
// point, capped at maxStars
func Rating(r *brave.Rating) string {
	if r.Empty() {
		return NotAvailable
	}

	value := NotAvailable
	stars := 0
	if r.HasValue {
		value = strconv.FormatFloat(r.Value, 'f', -1, 64)
		// NaN fails the comparison and gets no stars
		if r.Value >= 1 {
			stars = int(min(r.Value, maxStars))
		}
	}
	return value + " " + strings.Repeat("*", stars) + " (" + strconv.Itoa(r.Count) + " reviews)"
}

// Hours joins opening hours with ", "
func Hours(hours []string) string {
	if len(hours) == 0 {
		return NotAvailable
	}
	return strings.Join(hours, ", ")
}
