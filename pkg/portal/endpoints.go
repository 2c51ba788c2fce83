package portal

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default portal paths and status codes.
const (
	DefaultEntryPath      = "/"
	DefaultLogonPath      = "/Account/LogOn"
	DefaultLogoffPath     = "/Account/LogOff"
	DefaultListPath       = "/Einsatzberichte/Read"
	DefaultStatusPath     = "/Einsatzberichte/Status/{id}"
	DefaultSaveStatusPath = "/Einsatzberichte/SaveStatus/{id}"

	// DefaultDraftStatus selects the capture ("Erfassung") status page.
	DefaultDraftStatus = "1"
	// DefaultConfirmedStatus is submitted to mark a report as captured.
	DefaultConfirmedStatus = "3"

	// DefaultSuccessMarker only appears on the entry page of a logged in
	// user (the "unread messages" indicator).
	DefaultSuccessMarker = "ungelesene Nachrichten"
)

// Endpoints describes where and how the portal is addressed. Paths may
// contain an {id} placeholder.
type Endpoints struct {
	BaseURL         string
	EntryPath       string
	LogonPath       string
	LogoffPath      string
	ListPath        string
	StatusPath      string
	SaveStatusPath  string
	DraftStatus     string
	ConfirmedStatus string
	TokenField      string
	SuccessMarker   string
}

// DefaultEndpoints returns the portal defaults rooted at baseURL.
func DefaultEndpoints(baseURL string) Endpoints {
	return Endpoints{
		BaseURL:         baseURL,
		EntryPath:       DefaultEntryPath,
		LogonPath:       DefaultLogonPath,
		LogoffPath:      DefaultLogoffPath,
		ListPath:        DefaultListPath,
		StatusPath:      DefaultStatusPath,
		SaveStatusPath:  DefaultSaveStatusPath,
		DraftStatus:     DefaultDraftStatus,
		ConfirmedStatus: DefaultConfirmedStatus,
		TokenField:      DefaultTokenField,
		SuccessMarker:   DefaultSuccessMarker,
	}
}

// withDefaults fills every empty field from DefaultEndpoints.
func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints(e.BaseURL)
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&e.EntryPath, d.EntryPath)
	fill(&e.LogonPath, d.LogonPath)
	fill(&e.LogoffPath, d.LogoffPath)
	fill(&e.ListPath, d.ListPath)
	fill(&e.StatusPath, d.StatusPath)
	fill(&e.SaveStatusPath, d.SaveStatusPath)
	fill(&e.DraftStatus, d.DraftStatus)
	fill(&e.ConfirmedStatus, d.ConfirmedStatus)
	fill(&e.TokenField, d.TokenField)
	fill(&e.SuccessMarker, d.SuccessMarker)
	return e
}

// Validate checks that the base URL is an absolute http(s) URL.
func (e Endpoints) Validate() error {
	if e.BaseURL == "" {
		return fmt.Errorf("portal base URL is required")
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid portal base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid portal base URL %q: scheme must be http or https", e.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid portal base URL %q: missing host", e.BaseURL)
	}
	return nil
}

// resolve joins path (with {id} substituted) onto the base URL and appends
// query.
func (e Endpoints) resolve(path string, id int, query url.Values) string {
	path = strings.ReplaceAll(path, "{id}", strconv.Itoa(id))
	u := strings.TrimRight(e.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
