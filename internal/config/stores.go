package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StoreDescriptor pairs a portal display name with the short code used in
// downloaded file names. Name must exactly match the label in the portal's
// store selector.
type StoreDescriptor struct {
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`
}

type storesFile struct {
	Stores []StoreDescriptor `yaml:"stores"`
}

// LoadStores reads the ordered store registry from a YAML file:
//
//	stores:
//	  - name: "Buzz Cannabis - Mission Valley"
//	    code: MV
//
// Order is preserved; codes and names must be unique and non-empty.
func LoadStores(path string) ([]StoreDescriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stores file: %w", err)
	}
	var f storesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse stores file %s: %w", path, err)
	}
	if len(f.Stores) == 0 {
		return nil, fmt.Errorf("stores file %s lists no stores", path)
	}

	codes := make(map[string]struct{}, len(f.Stores))
	names := make(map[string]struct{}, len(f.Stores))
	for i, s := range f.Stores {
		if strings.TrimSpace(s.Name) == "" {
			return nil, fmt.Errorf("store %d has an empty name", i)
		}
		if strings.TrimSpace(s.Code) == "" {
			return nil, fmt.Errorf("store %q has an empty code", s.Name)
		}
		if _, ok := codes[s.Code]; ok {
			return nil, fmt.Errorf("duplicate store code %q", s.Code)
		}
		if _, ok := names[s.Name]; ok {
			return nil, fmt.Errorf("duplicate store name %q", s.Name)
		}
		codes[s.Code] = struct{}{}
		names[s.Name] = struct{}{}
	}
	return f.Stores, nil
}
