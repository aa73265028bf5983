package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-scripts/providercrawl/internal/types"
)

// LoadLocations reads the JSON array of locations to crawl
func LoadLocations(path string) ([]types.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations file: %w", err)
	}

	var locations []types.Location
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("failed to parse locations file %s: %w", path, err)
	}
	return locations, nil
}
