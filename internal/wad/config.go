package wad

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mrsinham/b0spt/internal/dicom"
	"github.com/mrsinham/b0spt/internal/util"
	"gopkg.in/yaml.v3"
)

// Config is the module configuration the host passes with -c.
type Config struct {
	CfgFormat string            `json:"cfgformat" yaml:"cfgformat"`
	Comments  map[string]any    `json:"comments,omitempty" yaml:"comments,omitempty"`
	Actions   map[string]Action `json:"actions" yaml:"actions"`
}

// Action holds the named filter sets and parameters of one action.
type Action struct {
	Filters map[string]map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`
	Params  map[string]any            `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadConfig reads a JSON or YAML configuration, chosen by file extension.
// Numbers in filters keep the text they were written with, so 5.0 compares
// equal to a DS element holding "5.0".
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = decodeJSON(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after the top-level value")
	}
	return nil
}

// UnmarshalYAML decodes filter values through yaml.Node so that numeric
// scalars keep their source text, as they do in JSON configs.
func (a *Action) UnmarshalYAML(n *yaml.Node) error {
	var raw struct {
		Filters map[string]map[string]yaml.Node `yaml:"filters"`
		Params  map[string]any                 `yaml:"params"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}

	a.Params = raw.Params
	a.Filters = nil
	if raw.Filters == nil {
		return nil
	}
	a.Filters = make(map[string]map[string]any, len(raw.Filters))
	for set, ids := range raw.Filters {
		f := make(map[string]any, len(ids))
		for id, node := range ids {
			v, err := filterValue(&node)
			if err != nil {
				return fmt.Errorf("filter %s %s: %w", set, id, err)
			}
			f[id] = v
		}
		a.Filters[set] = f
	}
	return nil
}

func filterValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return filterValue(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int", "!!float":
			return json.Number(n.Value), nil
		}
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		for i, c := range n.Content {
			v, err := filterValue(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ActionNames returns the configured action names in sorted order.
func (c Config) ActionNames() []string {
	names := make([]string, 0, len(c.Actions))
	for name := range c.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports filter identifiers that are neither a tag pair nor a
// keyword spelled exactly as in the dictionary. Such filters can never match,
// which is usually a typo or a casing slip.
func (c Config) Validate() []string {
	var warnings []string
	for _, name := range c.ActionNames() {
		action := c.Actions[name]
		sets := make([]string, 0, len(action.Filters))
		for set := range action.Filters {
			sets = append(sets, set)
		}
		sort.Strings(sets)

		for _, set := range sets {
			for _, con := range dicom.NewConstraints(action.Filters[set]) {
				if _, ok := con.ID.Tag(); ok {
					continue
				}
				info, err := util.GetTagByName(con.ID.String())
				switch {
				case err != nil:
					warnings = append(warnings, fmt.Sprintf("action %s filter %s: %v", name, set, err))
				case info.Name != con.ID.String():
					warnings = append(warnings, fmt.Sprintf("action %s filter %s: keyword %q is case sensitive, did you mean %q?",
						name, set, con.ID.String(), info.Name))
				}
			}
		}
	}
	return warnings
}

// Filter returns the constraints of the named filter set.
func (a Action) Filter(name string) (dicom.Constraints, bool) {
	f, ok := a.Filters[name]
	if !ok {
		return nil, false
	}
	return dicom.NewConstraints(f), true
}

// IntsParam reads an integer list parameter. It accepts a list of numbers
// or numeric strings, a single number, or a comma separated string.
func (a Action) IntsParam(name string) ([]int, bool, error) {
	raw, ok := a.Params[name]
	if !ok || raw == nil {
		return nil, false, nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case string:
		for _, part := range strings.Split(v, ",") {
			items = append(items, strings.TrimSpace(part))
		}
	default:
		items = []any{v}
	}

	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, true, fmt.Errorf("param %s: %w", name, err)
		}
		out = append(out, n)
	}
	return out, true, nil
}

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x.String())
		}
		return toInt(f)
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
