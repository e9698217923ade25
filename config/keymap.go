package config

import (
	"fmt"
	"sort"
	"strings"

	"chip8emu/chip8"

	"gopkg.in/yaml.v3"
)

// Keymap names the physical key for each logical key; entry i drives
// logical key i. Names are single characters or key names such as "Space".
//
// In a settings file a keymap is either a list of 16 names or the name of
// a built in layout ("default", "cosmac").
type Keymap []string

var layouts = map[string]func() Keymap{
	"default": DefaultKeymap,
	"cosmac":  CosmacKeymap,
}

// Layout returns the built in keymap with the given name.
func Layout(name string) (Keymap, error) {
	fn, ok := layouts[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown key layout %q (have %s)", ErrInvalid, name, strings.Join(LayoutNames(), ", "))
	}
	return fn(), nil
}

func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (k *Keymap) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		layout, err := Layout(v)
		if err != nil {
			return err
		}
		*k = layout
		return nil
	case []any:
		names := make(Keymap, 0, len(v))
		for _, e := range v {
			name, ok := e.(string)
			if !ok {
				return fmt.Errorf("%w: key name %v is not a string", ErrInvalid, e)
			}
			names = append(names, name)
		}
		*k = names
		return nil
	}
	return fmt.Errorf("%w: keys must be a layout name or a list of key names", ErrInvalid)
}

func (k *Keymap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		layout, err := Layout(node.Value)
		if err != nil {
			return err
		}
		*k = layout
		return nil
	}

	var names []string
	if err := node.Decode(&names); err != nil {
		return err
	}
	*k = names
	return nil
}

// DefaultKeymap assigns logical keys row by row across
//
//	1 2 3 4
//	Q W E R
//	A S D F
//	Z X C V
func DefaultKeymap() Keymap {
	return Keymap{
		"1", "2", "3", "4",
		"Q", "W", "E", "R",
		"A", "S", "D", "F",
		"Z", "X", "C", "V",
	}
}

// CosmacKeymap is the COSMAC VIP hex keypad laid over the same keys.
func CosmacKeymap() Keymap {
	return Keymap{
		"X", "1", "2", "3",
		"Q", "W", "E", "A",
		"S", "D", "Z", "C",
		"4", "R", "F", "V",
	}
}

func (k Keymap) Validate() error {
	if len(k) != chip8.KeyCount {
		return fmt.Errorf("%w: keymap needs %d keys, has %d", ErrInvalid, chip8.KeyCount, len(k))
	}
	seen := make(map[string]int, len(k))
	for i, name := range k {
		if name == "" {
			return fmt.Errorf("%w: logical key %X has no physical key", ErrInvalid, i)
		}
		norm := strings.ToUpper(name)
		if j, ok := seen[norm]; ok {
			return fmt.Errorf("%w: %q is bound to logical keys %X and %X", ErrInvalid, name, j, i)
		}
		seen[norm] = i
	}
	return nil
}

// Lookup returns the logical key bound to a physical key name. Matching is
// case insensitive.
func (k Keymap) Lookup(name string) (uint8, bool) {
	for i, n := range k {
		if strings.EqualFold(n, name) {
			return uint8(i), true
		}
	}
	return 0, false
}
