package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/ddlstore/internal/record"
	"github.com/vvka-141/ddlstore/pkg/ddlstore"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

func writeOutput(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case formatYAML, "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("%w: unknown output format %q (use yaml or json)", ddlstore.ErrInvalidConfig, format)
	}
}

// readRecords loads a list of records, or a single record, from a YAML or
// JSON file. The format follows the file extension; anything but .json is
// read as YAML.
func readRecords(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var raw any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid records file %s: %w", ddlstore.ErrInvalidConfig, path, err)
	}

	switch v := raw.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []record.Record{record.Map(v)}, nil
	case []any:
		recs := make([]record.Record, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s: item %d is not a mapping", ddlstore.ErrInvalidConfig, path, i)
			}
			recs = append(recs, record.Map(m))
		}
		return recs, nil
	default:
		return nil, fmt.Errorf("%w: %s must hold a mapping or a list of mappings", ddlstore.ErrInvalidConfig, path)
	}
}
