// Package policy maps employer job-risk profiles to the study types the
// completeness gate requires. Profiles come from a YAML catalog so tenants
// can tune them without a rebuild.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/occumed/occumed/internal/domain/company"
	"github.com/occumed/occumed/internal/domain/expedient"
	"github.com/occumed/occumed/internal/domain/validation"
	"github.com/occumed/occumed/internal/platform/cache"
)

// Profile names the studies a worker under that risk profile must complete.
type Profile struct {
	Description     string   `yaml:"description"`
	RequiredStudies []string `yaml:"required_studies"`
}

// Document is the on-disk catalog shape.
type Document struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Catalog is a parsed, immutable profile catalog.
type Catalog struct {
	doc Document
}

// Parse builds a catalog from raw YAML.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policy catalog: %w", err)
	}
	if doc.DefaultProfile != "" {
		if _, ok := doc.Profiles[doc.DefaultProfile]; !ok {
			return nil, fmt.Errorf("default profile %q is not defined", doc.DefaultProfile)
		}
	}
	return &Catalog{doc: doc}, nil
}

// Load reads the catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy catalog: %w", err)
	}
	return Parse(data)
}

// StudyPolicy returns the gate policy for a named profile. Unknown profiles
// fall back to the default; with no default every study counts as required.
func (c *Catalog) StudyPolicy(profile string) validation.StudyPolicy {
	p, ok := c.doc.Profiles[profile]
	if !ok && c.doc.DefaultProfile != "" {
		p, ok = c.doc.Profiles[c.doc.DefaultProfile]
	}
	if !ok {
		return nil
	}
	required := make(map[string]bool, len(p.RequiredStudies))
	for _, s := range p.RequiredStudies {
		required[s] = true
	}
	return validation.StudyPolicyFunc(func(studyType string) bool {
		return required[studyType]
	})
}

// Resolver looks up the risk profile behind an expedient: expedient to
// company to profile. It satisfies the validation workflow's PolicyResolver.
type Resolver struct {
	catalog    *Catalog
	expedients expedient.ExpedientRepository
	companies  company.CompanyRepository
	cache      *cache.Cache
}

func NewResolver(catalog *Catalog, expedients expedient.ExpedientRepository, companies company.CompanyRepository, c *cache.Cache) *Resolver {
	return &Resolver{catalog: catalog, expedients: expedients, companies: companies, cache: c}
}

func (r *Resolver) PolicyFor(ctx context.Context, expedientID uuid.UUID) (validation.StudyPolicy, error) {
	profile, err := r.profileFor(ctx, expedientID)
	if err != nil {
		return nil, err
	}
	return r.catalog.StudyPolicy(profile), nil
}

func (r *Resolver) profileFor(ctx context.Context, expedientID uuid.UUID) (string, error) {
	key := "policy:expedient:" + expedientID.String()
	if r.cache != nil {
		if profile, err := r.cache.GetString(ctx, key); err == nil {
			return profile, nil
		}
	}

	e, err := r.expedients.GetByID(ctx, expedientID)
	if err != nil {
		return "", err
	}
	profile := company.DefaultRiskProfile
	if e.CompanyID != nil {
		co, err := r.companies.GetByID(ctx, *e.CompanyID)
		if err != nil {
			return "", err
		}
		if co.RiskProfile != "" {
			profile = co.RiskProfile
		}
	}

	if r.cache != nil {
		_ = r.cache.SetString(ctx, key, profile, cache.TTLPolicy)
	}
	return profile, nil
}
