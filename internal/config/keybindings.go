package config

import (
	"maps"
	"slices"
	"strings"
)

// Viewer actions that can be bound to keys.
const (
	ActionScrollLineUp   = "scroll_line_up"
	ActionScrollLineDown = "scroll_line_down"
	ActionScrollPageUp   = "scroll_page_up"
	ActionScrollPageDown = "scroll_page_down"
	ActionScrollToTop    = "scroll_to_top"
	ActionScrollToBottom = "scroll_to_bottom"
	ActionCopySelection  = "copy_selection"
	ActionClearSelection = "clear_selection"
	ActionQuit           = "quit"
)

// ActionDescriptions are the help texts of the bindable actions.
var ActionDescriptions = map[string]string{
	ActionScrollLineUp:   "Scroll up one line",
	ActionScrollLineDown: "Scroll down one line",
	ActionScrollPageUp:   "Scroll up one page",
	ActionScrollPageDown: "Scroll down one page",
	ActionScrollToTop:    "Scroll to the oldest line",
	ActionScrollToBottom: "Return to the live screen",
	ActionCopySelection:  "Copy selection to clipboard",
	ActionClearSelection: "Clear selection",
	ActionQuit:           "Quit viewer",
}

// DefaultKeybindings returns the built in action to keys table.
func DefaultKeybindings() map[string][]string {
	return map[string][]string{
		ActionScrollLineUp:   {"shift+up"},
		ActionScrollLineDown: {"shift+down"},
		ActionScrollPageUp:   {"shift+pgup"},
		ActionScrollPageDown: {"shift+pgdown"},
		ActionScrollToTop:    {"shift+home"},
		ActionScrollToBottom: {"shift+end"},
		ActionCopySelection:  {"ctrl+shift+c"},
		ActionClearSelection: {"ctrl+shift+x"},
		ActionQuit:           {"ctrl+shift+q"},
	}
}

// Keybinding represents a single keybinding entry
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection represents a section of related keybindings
type KeybindingSection struct {
	Title    string
	Bindings []Keybinding
}

// KeybindRegistry resolves keys to actions and back.
type KeybindRegistry struct {
	normalizer *KeyNormalizer
	byAction   map[string][]string
	byKey      map[string]string
}

// NewKeybindRegistry builds a registry from cfg. Actions the config leaves
// out keep their default keys; unknown actions and invalid keys are skipped.
func NewKeybindRegistry(cfg *Config) *KeybindRegistry {
	r := &KeybindRegistry{
		normalizer: NewKeyNormalizer(),
		byAction:   DefaultKeybindings(),
		byKey:      make(map[string]string),
	}
	if cfg != nil {
		for action, keys := range cfg.Keybindings {
			if _, ok := ActionDescriptions[action]; !ok {
				continue
			}
			r.byAction[action] = keys
		}
	}

	// Sorted so that a key bound twice resolves the same way every run.
	for _, action := range slices.Sorted(maps.Keys(r.byAction)) {
		keys := r.byAction[action]
		valid := make([]string, 0, len(keys))
		for _, key := range keys {
			if ok, _ := r.normalizer.ValidateKey(key); !ok {
				continue
			}
			valid = append(valid, key)
			for _, k := range r.normalizer.NormalizeKey(key) {
				if _, taken := r.byKey[k]; !taken {
					r.byKey[k] = action
				}
			}
		}
		r.byAction[action] = valid
	}
	return r
}

// GetKeys returns the keys bound to action.
func (r *KeybindRegistry) GetKeys(action string) []string {
	return r.byAction[action]
}

// GetAction returns the action bound to key, or "" when it is unbound.
func (r *KeybindRegistry) GetAction(key string) string {
	for _, k := range r.normalizer.NormalizeKey(key) {
		if action, ok := r.byKey[k]; ok {
			return action
		}
	}
	return ""
}

// GetKeysForDisplay returns the keys bound to action joined for display.
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	return strings.Join(r.byAction[action], " / ")
}

// GetKeybindings returns the help sections for the viewer.
func GetKeybindings(registry *KeybindRegistry) []KeybindingSection {
	if registry == nil {
		registry = NewKeybindRegistry(nil)
	}

	scrollback := KeybindingSection{Title: "SCROLLBACK"}
	for _, action := range []string{
		ActionScrollLineUp, ActionScrollLineDown,
		ActionScrollPageUp, ActionScrollPageDown,
		ActionScrollToTop, ActionScrollToBottom,
	} {
		addBinding(&scrollback, registry, action)
	}

	sel := KeybindingSection{Title: "SELECTION"}
	addBinding(&sel, registry, ActionCopySelection)
	addBinding(&sel, registry, ActionClearSelection)

	session := KeybindingSection{Title: "SESSION"}
	addBinding(&session, registry, ActionQuit)

	sections := make([]KeybindingSection, 0, 4)
	for _, s := range []KeybindingSection{scrollback, sel, session} {
		if len(s.Bindings) > 0 {
			sections = append(sections, s)
		}
	}
	return append(sections, KeybindingSection{
		Title: "MOUSE",
		Bindings: []Keybinding{
			{"Drag", "Select text"},
			{"Double click", "Select word"},
			{"Triple click", "Select line"},
			{"Wheel", "Scroll history"},
		},
	})
}

// addBinding adds a keybinding to a section if the action has keys configured
func addBinding(section *KeybindingSection, registry *KeybindRegistry, action string) {
	if keys := registry.GetKeysForDisplay(action); keys != "" {
		section.Bindings = append(section.Bindings, Keybinding{
			Key:         keys,
			Description: ActionDescriptions[action],
		})
	}
}

// keyAliases maps key names to the other spellings terminals report.
var keyAliases = map[string][]string{
	"return": {"enter"},
	"enter":  {"return"},
	"escape": {"esc"},
	"esc":    {"escape"},
	"pgdn":   {"pgdown"},
	"pgdown": {"pgdn"},
	"del":    {"delete"},
	"delete": {"del"},
}

var modifiers = []string{"ctrl", "alt", "shift", "meta", "super", "hyper"}

// KeyNormalizer canonicalises key strings.
type KeyNormalizer struct{}

// NewKeyNormalizer returns a normalizer.
func NewKeyNormalizer() *KeyNormalizer { return &KeyNormalizer{} }

// NormalizeKey returns the lower cased key followed by its aliases. The
// modifiers keep their order.
func (n *KeyNormalizer) NormalizeKey(key string) []string {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return nil
	}
	out := []string{key}

	prefix, name := "", key
	if i := strings.LastIndex(key, "+"); i > 0 && i < len(key)-1 {
		prefix, name = key[:i+1], key[i+1:]
	}
	for _, alias := range keyAliases[name] {
		out = append(out, prefix+alias)
	}
	return out
}

// ValidateKey reports whether key is a usable binding and, if not, why.
func (n *KeyNormalizer) ValidateKey(key string) (bool, string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return false, "empty key"
	}
	parts := strings.Split(key, "+")
	if key == "+" {
		return true, ""
	}
	for _, mod := range parts[:len(parts)-1] {
		if !slices.Contains(modifiers, mod) {
			return false, "unknown modifier " + mod
		}
	}
	if parts[len(parts)-1] == "" {
		return false, "missing key after modifier"
	}
	return true, ""
}
