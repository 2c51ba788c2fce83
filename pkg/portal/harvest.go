package portal

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const (
	// DefaultTokenField is the name of the hidden anti-forgery input the
	// portal renders into every form.
	DefaultTokenField = "__RequestVerificationToken"
)

// DefaultOrganisationPattern captures the numeric organisation id the portal
// embeds into status update pages.
var DefaultOrganisationPattern = regexp.MustCompile(`organisationId=(\d+)`)

// ExtractAntiforgeryToken returns the value of the default anti-forgery
// input in body.
func ExtractAntiforgeryToken(body string) (string, error) {
	return ExtractAntiforgeryTokenNamed(body, DefaultTokenField)
}

// ExtractAntiforgeryTokenNamed returns the value of the first <input> named
// field. A missing input, or one without a non-empty value, is reported as
// ErrTokenNotFound.
func ExtractAntiforgeryTokenNamed(body, field string) (string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	token, ok := findInputValue(doc, field)
	if !ok || token == "" {
		return "", fmt.Errorf("%w: no input named %q", ErrTokenNotFound, field)
	}
	return token, nil
}

// findInputValue walks the document depth first and stops at the first
// input element with the requested name.
func findInputValue(doc *html.Node, field string) (string, bool) {
	var (
		value string
		found bool
	)
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "input") {
			if attr(n, "name") == field {
				value = attr(n, "value")
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil && !found; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return value, found
}

func attr(n *html.Node, key string) string {
	v, _ := attrValue(n, key)
	return v
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// ExtractOrganisationID returns the digits captured by
// DefaultOrganisationPattern.
func ExtractOrganisationID(body string) (string, error) {
	return ExtractOrganisationIDWith(body, DefaultOrganisationPattern)
}

// ExtractOrganisationIDWith scans the raw body with pattern and returns its
// first capture group.
func ExtractOrganisationIDWith(body string, pattern *regexp.Regexp) (string, error) {
	m := pattern.FindStringSubmatch(body)
	if len(m) < 2 || m[1] == "" {
		return "", fmt.Errorf("%w: pattern %q did not match", ErrPatternNotFound, pattern.String())
	}
	return m[1], nil
}
