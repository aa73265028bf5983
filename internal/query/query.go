package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-scripts/providercrawl/internal/types"
)

// HelpAtHome is the category that carries a services filter
const HelpAtHome = "help-at-home"

// HelpAtHomeServices must stay in this order, the site matches it verbatim
var HelpAtHomeServices = []string{
	"Assistive technology prescription and clinical support",
	"Client advisory services",
	"Community and centre-based respite",
	"Mobility products",
	"Self-care products",
}

// Builder turns a category and search query into a results URL
type Builder struct {
	BaseURL  string
	Distance string
	Services []string
}

// New creates a Builder using the default help-at-home service list
func New(baseURL, distance string) *Builder {
	return &Builder{
		BaseURL:  baseURL,
		Distance: distance,
		Services: HelpAtHomeServices,
	}
}

// BuildSearchURL returns the results URL for one page of a search
func (b *Builder) BuildSearchURL(category string, q types.SearchQuery, page int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s?searchType=%s&location=%s&sort=relevance",
		b.BaseURL, category, url.QueryEscape(q.String()))

	if d := strings.TrimSpace(b.Distance); d != "" {
		sb.WriteString("&distance=" + url.QueryEscape(d))
	}

	if category == HelpAtHome && len(b.Services) > 0 {
		sb.WriteString("&services=" + url.QueryEscape(strings.Join(b.Services, "|")))
	}

	fmt.Fprintf(&sb, "&page=%d&hasSearched=true", page)
	return sb.String()
}
