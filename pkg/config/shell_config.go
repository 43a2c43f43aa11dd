package config

import "errors"

// DefaultPrompt is the list shell prompt prefix used by default.
const DefaultPrompt = "MIDIKIT"

// ShellConfiguration contains interactive list shell settings.
type ShellConfiguration struct {
	// Prompt is a prefix of the shell prompt, list state is appended to it.
	Prompt string `yaml:"Prompt" toml:"Prompt"`
	// HistoryFile keeps entered commands between sessions if set.
	HistoryFile string `yaml:"HistoryFile" toml:"HistoryFile"`
	PrintLogo   bool   `yaml:"PrintLogo" toml:"PrintLogo"`
}

// Validate checks ShellConfiguration for internal consistency.
func (s *ShellConfiguration) Validate() error {
	if s.Prompt == "" {
		return errors.New("empty prompt")
	}
	return nil
}
