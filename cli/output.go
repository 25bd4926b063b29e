package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeDocument renders data in the requested format, optionally narrowed to
// a gjson path.
func writeDocument(w io.Writer, data any, path, format string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if path != "" {
		result := gjson.GetBytes(raw, path)
		if !result.Exists() {
			return fmt.Errorf("no configuration at %s", path)
		}
		raw = []byte(result.Raw)
	}

	switch format {
	case formatJSON:
		_, err = w.Write(pretty.Pretty(raw))
		return err
	case formatYAML:
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("failed to decode configuration: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
