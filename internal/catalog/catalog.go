// Package catalog loads and validates the static set of scoring categories,
// factors and weights. A loaded Catalog is immutable and safe to share.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// DefaultWeight applies when a category or factor omits its weight.
const DefaultWeight = 1.0

// FactorDefinition identifies one evaluation criterion.
type FactorDefinition struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"` // Relative to sibling factors
	CategoryKey string  `json:"category_key"`
}

// CategoryDefinition is a named, weighted group of factors.
type CategoryDefinition struct {
	Key         string             `json:"key"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Weight      float64            `json:"weight"` // Relative to sibling categories
	Factors     []FactorDefinition `json:"factors"`
}

// TotalFactorWeight sums the weights of every factor in the category.
func (c CategoryDefinition) TotalFactorWeight() float64 {
	total := 0.0
	for _, f := range c.Factors {
		total += f.Weight
	}
	return total
}

// Catalog is the validated, read-only set of categories.
type Catalog struct {
	categories []CategoryDefinition
	byCategory map[string]int
	byFactor   map[string]FactorDefinition
	total      int
}

var rawValidator = validator.New()

// Load validates raw configuration and builds an immutable Catalog.
// Every problem found is reported in a single *ConfigurationError.
func Load(raw RawCatalog) (*Catalog, error) {
	var problems []string

	if err := rawValidator.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, &ConfigurationError{Err: err}
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q check", fe.Namespace(), fe.Tag()))
		}
	}

	if len(raw.Categories) == 0 {
		problems = append(problems, "catalog defines no categories")
	}

	c := &Catalog{
		byCategory: make(map[string]int),
		byFactor:   make(map[string]FactorDefinition),
	}

	for i, rc := range raw.Categories {
		catKey := resolveKey(rc.Key, rc.Name)
		label := fmt.Sprintf("category[%d] %q", i, displayName(rc.Name, catKey))

		if catKey == "" {
			problems = append(problems, label+": key or name is required")
		} else if _, dup := c.byCategory[catKey]; dup {
			problems = append(problems, fmt.Sprintf("%s: duplicate category key %q", label, catKey))
		}

		catWeight, err := resolveWeight(rc.Weight)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
		}

		if len(rc.Factors) == 0 {
			problems = append(problems, label+": category has no factors")
		}

		cat := CategoryDefinition{
			Key:         catKey,
			Name:        displayName(rc.Name, catKey),
			Description: rc.Description,
			Weight:      catWeight,
			Factors:     make([]FactorDefinition, 0, len(rc.Factors)),
		}

		for j, rf := range rc.Factors {
			explicit := rf.Key
			if explicit == "" {
				explicit = rf.Code
			}
			factorKey := resolveKey(explicit, rf.Name)
			flabel := fmt.Sprintf("%s factor[%d] %q", label, j, displayName(rf.Name, factorKey))

			if factorKey == "" {
				problems = append(problems, flabel+": key, code or name is required")
				continue
			}
			if prev, dup := c.byFactor[factorKey]; dup {
				problems = append(problems, fmt.Sprintf("%s: factor key %q already defined in category %q", flabel, factorKey, prev.CategoryKey))
				continue
			}

			w, err := resolveWeight(rf.Weight)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", flabel, err))
			}

			fd := FactorDefinition{
				Key:         factorKey,
				Name:        displayName(rf.Name, factorKey),
				Description: rf.Description,
				Weight:      w,
				CategoryKey: catKey,
			}
			c.byFactor[factorKey] = fd
			cat.Factors = append(cat.Factors, fd)
		}

		if catKey != "" {
			if _, dup := c.byCategory[catKey]; !dup {
				c.byCategory[catKey] = len(c.categories)
			}
		}
		c.categories = append(c.categories, cat)
		c.total += len(cat.Factors)
	}

	if len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}
	return c, nil
}

// resolveWeight applies the default and rejects non-positive or non-finite values.
func resolveWeight(w *float64) (float64, error) {
	if w == nil {
		return DefaultWeight, nil
	}
	v := *w
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("weight must be a finite number, got %v", v)
	}
	if v <= 0 {
		return 0, fmt.Errorf("weight must be > 0, got %v", v)
	}
	return v, nil
}

// resolveKey returns the explicit key or derives one from the display name:
// case-folded, with runs of non-alphanumerics collapsed to "_".
func resolveKey(explicit, name string) string {
	if k := strings.TrimSpace(explicit); k != "" {
		return k
	}
	folded := cases.Fold().String(strings.TrimSpace(name))

	var b strings.Builder
	lastUnderscore := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func displayName(name, key string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return key
}

// Categories returns a copy of the categories in configuration order.
func (c *Catalog) Categories() []CategoryDefinition {
	out := make([]CategoryDefinition, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat
		out[i].Factors = append([]FactorDefinition(nil), cat.Factors...)
	}
	return out
}

// Category looks up a category by key.
func (c *Catalog) Category(key string) (CategoryDefinition, bool) {
	i, ok := c.byCategory[key]
	if !ok {
		return CategoryDefinition{}, false
	}
	cat := c.categories[i]
	cat.Factors = append([]FactorDefinition(nil), cat.Factors...)
	return cat, true
}

// Factor looks up a factor by its catalog-wide key.
func (c *Catalog) Factor(key string) (FactorDefinition, bool) {
	f, ok := c.byFactor[key]
	return f, ok
}

// TotalFactors is the number of factors across all categories.
func (c *Catalog) TotalFactors() int {
	return c.total
}

// Len is the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}
