package config

import (
	"fmt"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"

	"github.com/lengapp/leng-api/models"
)

// PlanCatalog is the on-disk format of the plan seed file
type PlanCatalog struct {
	Plans []models.Plan `yaml:"plans"`
}

// LoadPlanCatalog reads and validates a YAML plan catalog
func LoadPlanCatalog(path string) ([]models.Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlanCatalog(b)
}

// ParsePlanCatalog decodes a YAML plan catalog
func ParsePlanCatalog(b []byte) ([]models.Plan, error) {
	var catalog PlanCatalog
	if err := yaml.Unmarshal(b, &catalog); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	for i, p := range catalog.Plans {
		if p.ID == "" {
			return nil, fmt.Errorf("plan %d has no id", i)
		}
		if !seen.Add(p.ID) {
			return nil, fmt.Errorf("duplicate plan id %q", p.ID)
		}
		if p.DurationDays <= 0 {
			catalog.Plans[i].DurationDays = 30
		}
		if p.Features == nil {
			catalog.Plans[i].Features = []string{}
		}
	}
	return catalog.Plans, nil
}
