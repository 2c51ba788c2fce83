package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDUI is the identifier for the UI settings section
	SectionIDUI = "ui"

	defaultConfirmAll      = true
	defaultShowDescription = true
)

// UISection manages user interface configuration settings.
type UISection struct {
	// ConfirmAll asks before confirming every listed report at once.
	ConfirmAll bool `json:"confirm_all"`
	// ShowDescription shows the Beschreibung column in the report table.
	ShowDescription bool `json:"show_description"`
	mu              sync.RWMutex
}

// NewUISection creates a new UI section with default settings.
func NewUISection() *UISection {
	return &UISection{
		ConfirmAll:      defaultConfirmAll,
		ShowDescription: defaultShowDescription,
	}
}

// ID returns the section identifier.
func (s *UISection) ID() string {
	return SectionIDUI
}

// Title returns the section title.
func (s *UISection) Title() string {
	return "UI Settings"
}

// Description returns the section description.
func (s *UISection) Description() string {
	return "Configure the terminal interface: confirmation prompts and table columns."
}

// Data returns the current configuration data.
func (s *UISection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"confirm_all":      s.ConfirmAll,
		"show_description": s.ShowDescription,
	}
}

// SetData updates the configuration from the provided data.
func (s *UISection) SetData(data map[string]interface{}) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var target *bool
		switch key {
		case "confirm_all":
			target = &s.ConfirmAll
		case "show_description":
			target = &s.ShowDescription
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}

		enabled, ok := value.(bool)
		if !ok {
			return fmt.Errorf("invalid value type for %s: expected bool, got %T", key, value)
		}
		*target = enabled
	}

	return nil
}

// Validate validates the current configuration.
func (s *UISection) Validate() error {
	return nil
}

// Reset resets the section to default configuration.
func (s *UISection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ConfirmAll = defaultConfirmAll
	s.ShowDescription = defaultShowDescription
}

// ShouldConfirmAll reports whether confirming all reports needs a prompt.
func (s *UISection) ShouldConfirmAll() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ConfirmAll
}

// SetConfirmAll sets whether confirming all reports needs a prompt.
func (s *UISection) SetConfirmAll(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ConfirmAll = enabled
}

// ShouldShowDescription reports whether the description column is shown.
func (s *UISection) ShouldShowDescription() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ShowDescription
}

// SetShowDescription sets whether the description column is shown.
func (s *UISection) SetShowDescription(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ShowDescription = enabled
}
