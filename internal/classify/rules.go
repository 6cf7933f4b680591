package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CategoryRule is the keyword table for one document category. Positive
// keywords add their weight when present in the text; each negative keyword
// present subtracts one.
type CategoryRule struct {
	Name             string             `yaml:"name"`
	PositiveKeywords map[string]float64 `yaml:"positiveKeywords"`
	NegativeKeywords []string           `yaml:"negativeKeywords"`
}

// Rules is the full category table, loaded once and passed by reference.
// Slice order defines the deterministic tie-break order.
type Rules struct {
	Categories []CategoryRule `yaml:"categories"`
}

// LoadRules reads the category keyword tables from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if len(rules.Categories) == 0 {
		return nil, fmt.Errorf("rules file %s defines no categories", path)
	}
	for _, cat := range rules.Categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("rules file %s has a category without a name", path)
		}
		if len(cat.PositiveKeywords) == 0 {
			return nil, fmt.Errorf("category %q has no positive keywords", cat.Name)
		}
	}

	return &rules, nil
}
