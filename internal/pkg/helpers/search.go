package helpers

import "strings"

// MatchesSearch is the filter every list view uses: a case-insensitive
// substring match against "first last" or the contact field. An empty query
// matches everything.
func MatchesSearch(query, firstName, lastName, contact string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	fullName := strings.ToLower(firstName + " " + lastName)
	if strings.Contains(fullName, q) {
		return true
	}
	return strings.Contains(strings.ToLower(contact), q)
}
