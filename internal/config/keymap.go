package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeymapBinding maps one key chord to a command.
type KeymapBinding struct {
	// Keys is the chord, e.g. "ctrl+b" or "mod+shift+7".
	Keys string `yaml:"keys"`

	// Command is the command id the chord runs.
	Command string `yaml:"command"`

	// Description documents the binding.
	Description string `yaml:"description,omitempty"`
}

// Keymap is the ordered list of key bindings. Later bindings override
// earlier ones for the same chord.
type Keymap struct {
	Bindings []KeymapBinding `yaml:"bindings"`
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() *Keymap {
	return &Keymap{Bindings: []KeymapBinding{
		{Keys: "mod+b", Command: "toggle-bold"},
		{Keys: "mod+i", Command: "toggle-italic"},
		{Keys: "mod+e", Command: "toggle-code"},
		{Keys: "mod+shift+s", Command: "toggle-strikethrough"},
		{Keys: "mod+z", Command: "undo"},
		{Keys: "mod+shift+z", Command: "redo"},
		{Keys: "mod+shift+up", Command: "move-block-up"},
		{Keys: "mod+shift+down", Command: "move-block-down"},
		{Keys: "mod+d", Command: "duplicate-block"},
		{Keys: "mod+shift+backspace", Command: "delete-block"},
		{Keys: "mod+enter", Command: "exit-block"},
		{Keys: "mod+j", Command: "ai-continue"},
		{Keys: "escape", Command: "ai-reject"},
	}}
}

// LoadKeymap reads user bindings from a YAML file and layers them over
// the defaults. A missing file returns the defaults.
func LoadKeymap(path string) (*Keymap, error) {
	km := DefaultKeymap()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return km, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keymap %s: %w", path, err)
	}
	var user Keymap
	if err := yaml.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("parse keymap %s: %w", path, err)
	}
	km.Bindings = append(km.Bindings, user.Bindings...)
	return km, nil
}

// Resolve returns the command bound to a chord, honoring override
// order, or "" when the chord is unbound.
func (k *Keymap) Resolve(keys string) string {
	cmd := ""
	for _, b := range k.Bindings {
		if b.Keys == keys {
			cmd = b.Command
		}
	}
	return cmd
}
