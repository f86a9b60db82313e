package settings

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Colour is an RGB triple, serialized in the settings file as "r g b".
type Colour struct {
	R, G, B uint8
}

// RGB builds a colour from its components.
func RGB(r, g, b uint8) Colour {
	return Colour{R: r, G: g, B: b}
}

// DefaultModeratorColour is the colour applied to moderator usernames.
func DefaultModeratorColour() Colour {
	return RGB(255, 78, 78)
}

// MarshalYAML encodes the colour as an "r g b" string.
func (c Colour) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("%d %d %d", c.R, c.G, c.B), nil
}

// UnmarshalYAML decodes an "r g b" string.
func (c *Colour) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	fields := strings.Fields(raw)
	if len(fields) < 3 {
		return fmt.Errorf("invalid colour value %q (must have 3 elements)", raw)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(fields[i], 10, 8)
		if err != nil {
			return fmt.Errorf("invalid colour value %q: %w", raw, err)
		}
		rgb[i] = uint8(n)
	}
	c.R, c.G, c.B = rgb[0], rgb[1], rgb[2]
	return nil
}
