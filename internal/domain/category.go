package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Category is a member of a fixed enum. The zero value means "none".
type Category string

const (
	CategoryNone          Category = ""
	CategoryGeneral       Category = "general"
	CategoryBusiness      Category = "business"
	CategoryTechnology    Category = "technology"
	CategoryScience       Category = "science"
	CategoryHealth        Category = "health"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryPolitics      Category = "politics"
	CategoryWorld         Category = "world"
)

// Categories lists every valid non-empty category in display order.
var Categories = []Category{
	CategoryGeneral,
	CategoryBusiness,
	CategoryTechnology,
	CategoryScience,
	CategoryHealth,
	CategorySports,
	CategoryEntertainment,
	CategoryPolitics,
	CategoryWorld,
}

// Valid reports whether c is the empty category or a member of the enum.
func (c Category) Valid() bool {
	if c == CategoryNone {
		return true
	}
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory lower-cases and trims s. Unknown values are rejected so an
// arbitrary string never becomes a category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return CategoryNone, fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c Category) String() string {
	return string(c)
}

// Value stores the empty category as NULL.
func (c Category) Value() (driver.Value, error) {
	if c == CategoryNone {
		return nil, nil
	}
	return string(c), nil
}

// Scan reads NULL as the empty category. Unknown stored values are dropped.
func (c *Category) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*c = CategoryNone
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("scan category from %T", src)
	}

	parsed, err := ParseCategory(raw)
	if err != nil {
		parsed = CategoryNone
	}
	*c = parsed
	return nil
}
