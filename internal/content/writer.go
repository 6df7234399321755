package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Write writes the shoppable video to a YAML file
func Write(sv *ShoppableVideo, path string) error {
	data, err := yaml.Marshal(sv)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read reads a shoppable video from a YAML file
func Read(path string) (*ShoppableVideo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sv, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sv, nil
}

// Parse decodes YAML content and normalizes it
func Parse(data []byte) (*ShoppableVideo, error) {
	var sv ShoppableVideo
	if err := yaml.Unmarshal(data, &sv); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}

	sv.Normalize()
	return &sv, nil
}
