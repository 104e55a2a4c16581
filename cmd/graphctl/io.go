package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
)

// readObjects loads a JSON array of records, or an object with an "objects"
// array, from path; "-" reads stdin.
func readObjects(path string, stdin io.Reader) ([]domain.Object, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Objects []domain.Object `json:"objects"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return wrapped.Objects, nil
	}

	var objects []domain.Object
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return objects, nil
}

// writeJSON writes v to path, or to out when path is empty.
func writeJSON(out io.Writer, path string, v any) error {
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer file.Close()
		out = file
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	ts = ts.UTC()
	return &ts, nil
}
