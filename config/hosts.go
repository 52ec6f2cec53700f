package config

import (
	"strconv"
	"strings"

	"github.com/gear6io/airbus/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Hosts is the ordered list of candidate addresses.
// In YAML it is either a single address or a sequence of addresses.
type Hosts []string

// UnmarshalYAML accepts a scalar or a sequence of scalars and rejects everything else
func (h *Hosts) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*h = nil
			return nil
		}
		var host string
		if err := node.Decode(&host); err != nil {
			return errors.New(ErrHostTypeInvalid, "host type must be string or list", err)
		}
		*h = Hosts{host}
		return nil
	case yaml.SequenceNode:
		list := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return errors.New(ErrHostTypeInvalid, "host type must be string or list", nil).
					AddContext("line", strconv.Itoa(item.Line))
			}
			list = append(list, item.Value)
		}
		if len(list) == 0 {
			return errors.New(ErrHostTypeInvalid, "host list must not be empty", nil)
		}
		*h = list
		return nil
	default:
		return errors.New(ErrHostTypeInvalid, "host type must be string or list", nil).
			AddContext("line", strconv.Itoa(node.Line))
	}
}

// MarshalYAML writes a single host as a scalar
func (h Hosts) MarshalYAML() (interface{}, error) {
	switch len(h) {
	case 0:
		return nil, nil
	case 1:
		return h[0], nil
	default:
		return []string(h), nil
	}
}

// String joins the candidates for logging
func (h Hosts) String() string {
	return strings.Join(h, ",")
}
