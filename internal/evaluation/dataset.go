package evaluation

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitesmith/sitesmith/internal/models"
	"gopkg.in/yaml.v3"
)

var ErrEmptyQuery = errors.New("dataset item has no query")

// DatasetItem is one query to run through the image pipeline
type DatasetItem struct {
	models.ImageQuery `yaml:",inline"`

	ID      string `json:"id" yaml:"id"`
	ImageID string `json:"image_id,omitempty" yaml:"image_id,omitempty"`
	// Expect is the outcome the item should produce; empty accepts any outcome.
	Expect  string `json:"expect,omitempty" yaml:"expect,omitempty"`
}

// Dataset represents a collection of evaluation items
type Dataset struct {
	Items []DatasetItem `json:"items" yaml:"items"`
}

// LoadDataset loads a query set from a YAML (.yaml, .yml) or JSONL (.jsonl) file.
func LoadDataset(path string) (*Dataset, error) {
	var (
		dataset *Dataset
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dataset, err = loadYAML(path)
	case ".jsonl":
		dataset, err = loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .yaml, .yml, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	for i := range dataset.Items {
		item := &dataset.Items[i]
		item.Query = strings.TrimSpace(item.Query)
		if item.Query == "" {
			return nil, fmt.Errorf("item %d: %w", i+1, ErrEmptyQuery)
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("q%03d", i+1)
		}
	}

	slog.Debug("Loaded dataset", "path", path, "items", len(dataset.Items))
	return dataset, nil
}

func loadYAML(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var dataset Dataset
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	return &dataset, nil
}

func loadJSONL(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	dataset := &Dataset{Items: make([]DatasetItem, 0)}
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item DatasetItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		dataset.Items = append(dataset.Items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return dataset, nil
}
