package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/match"
)

// NameSelectors are heading-like elements that usually hold the provider name
var NameSelectors = []string{
	"h1",
	"h1[data-testid*='name']",
	".provider-name",
	"header h1",
	"[data-testid*='provider-name']",
	"h2:first-of-type",
}

// menuKeywords mark navigation lines that are never a company name
var menuKeywords = []string{"home", "find a provider", "search", "print", "share"}

// phonePatterns are Australian number shapes, most specific first
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{2} \d{4} \d{4}\b`), // 02 8388 8000
	regexp.MustCompile(`\b\d{4} \d{3} \d{3}\b`), // 1800 864 846
	regexp.MustCompile(`\b\d{2}-\d{4}-\d{4}\b`), // 02-8388-8000
	regexp.MustCompile(`\b\d{4}-\d{3}-\d{3}\b`), // 1800-864-846
	regexp.MustCompile(`\b\d{8}\b`),
	regexp.MustCompile(`\b\d{10}\b`),
}

// yearPrefixes filter dates that look like phone numbers
var yearPrefixes = []string{"2024", "2025"}

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)

var websitePattern = regexp.MustCompile(`https?://(?:[-\w.]|%[\da-fA-F]{2})+[/\w.-]*\??[\w./:;<=&%]*`)

var addressPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+[\sA-Za-z]+,?\s+[A-Z\s]+\s+\d{4}\s+(?:ACT|NSW|NT|QLD|SA|TAS|VIC|WA)`),
	regexp.MustCompile(`\d+[\sA-Za-z]+\s+[A-Z\s]+\s+\d{4}\s+(?:ACT|NSW|NT|QLD|SA|TAS|VIC|WA)`),
}

// CompanyNameFromHeadings reads the first heading with text, first line only
func CompanyNameFromHeadings(snap *browser.Snapshot) (string, bool) {
	matchers := make([]match.Matcher[*browser.Snapshot, string], 0, len(NameSelectors))
	for _, sel := range NameSelectors {
		matchers = append(matchers, func(s *browser.Snapshot) (string, bool) {
			text := strings.TrimSpace(browser.InnerText(s.Find(sel).First()))
			if text == "" {
				return "", false
			}
			line := strings.TrimSpace(strings.SplitN(text, "\n", 2)[0])
			return line, line != "" && utf8.RuneCountInString(line) < 100
		})
	}
	return match.First(snap, matchers...)
}

// CompanyNameFromText looks for a short capitalised line that is not a menu entry
func CompanyNameFromText(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n <= 3 || n >= 100 {
			continue
		}
		if !isUpper(line) && !hasCapitalisedWord(line) {
			continue
		}
		if containsAny(strings.ToLower(line), menuKeywords) {
			continue
		}
		return line, true
	}
	return "", false
}

// Telephone returns the first phone-shaped token, trying patterns in order
func Telephone(text string) (string, bool) {
	text = browser.FoldSpace(text)
	for _, re := range phonePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if hasAnyPrefix(m, yearPrefixes) {
				continue
			}
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// Email returns the first email-shaped token
func Email(text string) (string, bool) {
	m := emailPattern.FindString(text)
	return m, m != ""
}

// Website returns the first external URL, skipping excluded hosts
func Website(text string, excluded []string) (string, bool) {
	for _, m := range websitePattern.FindAllString(text, -1) {
		if containsAny(m, excluded) {
			continue
		}
		return strings.TrimSpace(m), true
	}
	return "", false
}

// Address finds "<number> <street>, <SUBURB> <postcode> <STATE>" in the upper-cased text
func Address(text string) (string, bool) {
	upper := strings.ToUpper(browser.FoldSpace(text))
	for _, re := range addressPatterns {
		if m := re.FindString(upper); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// isUpper is true when the line has letters and none of them are lower case
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func hasCapitalisedWord(s string) bool {
	for _, w := range strings.Fields(s) {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
