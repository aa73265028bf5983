package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Location is one row of the input location list
type Location struct {
	Locality string   `json:"locality"`
	State    string   `json:"state"`
	Postcode Postcode `json:"postcode"`
}

// Postcode accepts both "2000" and 2000 in the input JSON
type Postcode string

// UnmarshalJSON decodes a postcode given as a JSON string or number
func (p *Postcode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Postcode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("postcode must be a string or number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("postcode %s is not an integer", n)
	}
	*p = Postcode(n.String())
	return nil
}

// casers keep state, so each call gets its own
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// SearchQuery is the "LOCALITY STATE POSTCODE" string sent to the directory search
type SearchQuery string

// Query builds the search string for a location
func (l Location) Query() SearchQuery {
	s := fmt.Sprintf("%s %s %s",
		toUpper(strings.TrimSpace(l.Locality)),
		toUpper(strings.TrimSpace(l.State)),
		strings.TrimSpace(string(l.Postcode)))
	return SearchQuery(strings.TrimSpace(s))
}

// Parse splits the query back into suburb, state and postcode.
// The last two tokens are state and postcode, everything before is the suburb.
// Fewer than three tokens yields empty fields.
func (q SearchQuery) Parse() (suburb, state, postcode string) {
	parts := strings.Fields(toUpper(string(q)))
	if len(parts) < 3 {
		return "", "", ""
	}
	n := len(parts)
	return strings.Join(parts[:n-2], " "), parts[n-2], parts[n-1]
}

func (q SearchQuery) String() string {
	return string(q)
}

// ProviderRecord is one provider extracted from a detail page
type ProviderRecord struct {
	CompanyName    string `json:"company_name"`
	Address        string `json:"address"`
	Suburb         string `json:"suburb"`
	State          string `json:"state"`
	Postcode       string `json:"postcode"`
	Telephone      string `json:"telephone"`
	Email          string `json:"email"`
	Website        string `json:"website"`
	SearchCategory string `json:"search_category"`
	SearchLocation string `json:"search_location"`
	SourceURL      string `json:"source_url"`
}

// Columns are the persisted columns, in order
var Columns = []string{
	"company_name", "address", "suburb", "state", "postcode",
	"telephone", "email", "website",
}

// Row returns the persisted column values. Only the first line of the
// company name is kept.
func (r ProviderRecord) Row() []string {
	name := r.CompanyName
	if i := strings.Index(name, "\n"); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	return []string{
		name, r.Address, r.Suburb, r.State, r.Postcode,
		r.Telephone, r.Email, r.Website,
	}
}

// Outcome is the terminal state of one (location, category) pair
type Outcome string

const (
	OutcomeNoResults Outcome = "skipped-no-results"
	OutcomeNoLinks   Outcome = "skipped-no-links"
	OutcomeCompleted Outcome = "completed"
	OutcomeErrored   Outcome = "errored"
)

// PairResult summarises one processed pair
type PairResult struct {
	Location  SearchQuery
	Category  string
	Outcome   Outcome
	Attempted int
	Succeeded int
	Err       error
}
