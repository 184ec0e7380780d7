package searchclient

import "strings"

const (
	complexCount  = 20
	standardCount = 10

	maxSimpleWords = 5
)

var complexityIndicators = []string{
	" and ", " or ", " why ", " how ", " what ", " explain ",
	"compare", "difference", "analysis", "describe",
}

// IsComplex reports whether a query deserves the larger result count
func IsComplex(query string) bool {
	lower := strings.ToLower(query)
	for _, indicator := range complexityIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return len(strings.Fields(query)) > maxSimpleWords
}

// CountFor picks the web_search count for query
func CountFor(query string) int {
	if IsComplex(query) {
		return complexCount
	}
	return standardCount
}
