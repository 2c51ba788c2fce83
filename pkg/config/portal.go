package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
)

const (
	// SectionIDPortal is the identifier for the portal connection section
	SectionIDPortal = "portal"

	defaultTimeoutSeconds = 30
	maxTimeoutSeconds     = 600
)

// PortalSection holds where the portal lives and how it is addressed. The
// password is never stored.
type PortalSection struct {
	BaseURL         string `json:"base_url"`
	Username        string `json:"username"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	SuccessMarker   string `json:"success_marker"`
	EntryPath       string `json:"entry_path"`
	LogonPath       string `json:"logon_path"`
	LogoffPath      string `json:"logoff_path"`
	ListPath        string `json:"list_path"`
	StatusPath      string `json:"status_path"`
	SaveStatusPath  string `json:"save_status_path"`
	DraftStatus     string `json:"draft_status"`
	ConfirmedStatus string `json:"confirmed_status"`
	mu              sync.RWMutex
}

// NewPortalSection creates a portal section with default settings.
func NewPortalSection() *PortalSection {
	s := &PortalSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *PortalSection) ID() string {
	return SectionIDPortal
}

// Title returns the section title.
func (s *PortalSection) Title() string {
	return "Portal"
}

// Description returns the section description.
func (s *PortalSection) Description() string {
	return "Address of the FW portal, the last used username, and endpoint overrides."
}

// stringFields maps persisted keys to the string fields of s. The caller
// holds s.mu.
func (s *PortalSection) stringFields() map[string]*string {
	return map[string]*string{
		"base_url":         &s.BaseURL,
		"username":         &s.Username,
		"success_marker":   &s.SuccessMarker,
		"entry_path":       &s.EntryPath,
		"logon_path":       &s.LogonPath,
		"logoff_path":      &s.LogoffPath,
		"list_path":        &s.ListPath,
		"status_path":      &s.StatusPath,
		"save_status_path": &s.SaveStatusPath,
		"draft_status":     &s.DraftStatus,
		"confirmed_status": &s.ConfirmedStatus,
	}
}

// Data returns the current configuration data.
func (s *PortalSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := map[string]interface{}{
		"timeout_seconds": s.TimeoutSeconds,
	}
	for key, field := range s.stringFields() {
		data[key] = *field
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *PortalSection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fields := s.stringFields()
	for key, value := range data {
		if key == "timeout_seconds" {
			switch v := value.(type) {
			case float64:
				// JSON numbers come as float64
				s.TimeoutSeconds = int(v)
			case int:
				s.TimeoutSeconds = v
			default:
				return fmt.Errorf("invalid value type for timeout_seconds: expected number, got %T", value)
			}
			continue
		}

		field, known := fields[key]
		if !known {
			// Ignore unknown keys for forward compatibility
			continue
		}
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
		}
		*field = str
	}
	return nil
}

// Validate validates the current configuration. An empty base URL is
// allowed; the CLI then asks for one.
func (s *PortalSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.TimeoutSeconds < 1 || s.TimeoutSeconds > maxTimeoutSeconds {
		return fmt.Errorf("timeout_seconds must be between 1 and %d, got %d", maxTimeoutSeconds, s.TimeoutSeconds)
	}
	if s.BaseURL != "" {
		if err := s.endpointsLocked().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *PortalSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := portal.DefaultEndpoints("")
	s.BaseURL = ""
	s.Username = ""
	s.TimeoutSeconds = defaultTimeoutSeconds
	s.SuccessMarker = d.SuccessMarker
	s.EntryPath = d.EntryPath
	s.LogonPath = d.LogonPath
	s.LogoffPath = d.LogoffPath
	s.ListPath = d.ListPath
	s.StatusPath = d.StatusPath
	s.SaveStatusPath = d.SaveStatusPath
	s.DraftStatus = d.DraftStatus
	s.ConfirmedStatus = d.ConfirmedStatus
}

// Endpoints builds the client endpoint description from the section.
func (s *PortalSection) Endpoints() portal.Endpoints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpointsLocked()
}

func (s *PortalSection) endpointsLocked() portal.Endpoints {
	e := portal.DefaultEndpoints(s.BaseURL)
	e.EntryPath = s.EntryPath
	e.LogonPath = s.LogonPath
	e.LogoffPath = s.LogoffPath
	e.ListPath = s.ListPath
	e.StatusPath = s.StatusPath
	e.SaveStatusPath = s.SaveStatusPath
	e.DraftStatus = s.DraftStatus
	e.ConfirmedStatus = s.ConfirmedStatus
	e.SuccessMarker = s.SuccessMarker
	return e
}

// Timeout returns the per-request timeout.
func (s *PortalSection) Timeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// GetBaseURL returns the portal base URL.
func (s *PortalSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// SetBaseURL sets the portal base URL.
func (s *PortalSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// GetUsername returns the last used username.
func (s *PortalSection) GetUsername() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Username
}

// SetUsername remembers the last used username.
func (s *PortalSection) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Username = username
}
