package generator

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/champtc/cyio-graph/internal/domain"
)

// WriteDataset serializes the dataset objects as a JSON array to path,
// creating parent directories as needed.
func WriteDataset(dataset Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodeDataset(dataset, file); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}

// EncodeDataset writes the dataset objects as an indented JSON array.
func EncodeDataset(dataset Dataset, w io.Writer) error {
	objects := dataset.Objects
	if objects == nil {
		objects = []domain.Object{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(objects)
}
