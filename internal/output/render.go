package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudemu/zero/internal/constants"

	"gopkg.in/yaml.v3"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (constants.OutputFormat, error) {
	for _, f := range constants.OutputFormats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q (expected one of text, json, yaml)", s)
}

// Render writes a JSON response body in the printer's format.
func (p *Printer) Render(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		// not JSON: print verbatim
		p.Println(string(body))
		return nil //nolint:nilerr // non-JSON bodies are printed as-is
	}

	switch p.Format {
	case constants.OutputJSON:
		return p.renderJSON(doc)
	case constants.OutputYAML:
		return p.renderYAML(doc)
	default:
		p.renderText(doc)
		return nil
	}
}

func (p *Printer) renderJSON(doc any) error {
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func (p *Printer) renderYAML(doc any) error {
	enc := yaml.NewEncoder(p.Out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML output: %w", err)
	}
	return enc.Close()
}

// renderText prints objects as key/value pairs, and lists of objects held
// under a single key (the shape of every list response) as a table.
func (p *Printer) renderText(doc any) {
	obj, ok := doc.(map[string]any)
	if !ok {
		p.renderValue(doc)
		return
	}

	if len(obj) == 1 {
		for key, v := range obj {
			if list, isList := v.([]any); isList {
				p.Header(key)
				p.renderList(list)
				return
			}
		}
	}

	for _, key := range sortedKeys(obj) {
		if nested, isMap := obj[key].(map[string]any); isMap {
			p.KeyValue(key, "")
			for _, nk := range sortedKeys(nested) {
				p.KeyValue("  "+nk, scalar(nested[nk]))
			}
			continue
		}
		value := scalar(obj[key])
		if key == "status" || key == "Status" {
			value = StatusColor(value)
		}
		p.KeyValue(key, value)
	}
}

func (p *Printer) renderValue(v any) {
	if list, ok := v.([]any); ok {
		p.renderList(list)
		return
	}
	p.Println(scalar(v))
}

func (p *Printer) renderList(list []any) {
	if len(list) == 0 {
		p.Println("  (none)")
		return
	}

	rowsAreObjects := true
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			rowsAreObjects = false
			break
		}
	}
	if !rowsAreObjects {
		items := make([]string, 0, len(list))
		for _, item := range list {
			items = append(items, scalar(item))
		}
		p.List(items)
		return
	}

	headerSet := map[string]struct{}{}
	for _, item := range list {
		for k := range item.(map[string]any) {
			headerSet[k] = struct{}{}
		}
	}
	headers := sortedKeys(headerSet)

	rows := make([][]string, 0, len(list))
	for _, item := range list {
		obj := item.(map[string]any)
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = scalar(obj[h])
			if h == "status" {
				row[i] = StatusColor(row[i])
			}
		}
		rows = append(rows, row)
	}
	p.Table(headers, rows)
}

func scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
