// Package option provides composable gorm query options for the generic
// repository.
package option

import (
	"fmt"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition applies a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
}

func ApplyOperator(c Condition) QueryOption { return c }

type sortBy struct {
	field string
	desc  bool
}

func (s sortBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.field, direction))
}

func WithSortBy(field string, desc bool) QueryOption {
	return sortBy{field: field, desc: desc}
}

type limit struct {
	n int
}

func (l limit) Apply(db *gorm.DB) *gorm.DB {
	if l.n <= 0 {
		return db
	}
	return db.Limit(l.n)
}

func WithLimit(n int) QueryOption { return limit{n: n} }

type isNull struct {
	field string
}

func (i isNull) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s IS NULL", i.field))
}

func WhereNull(field string) QueryOption { return isNull{field: field} }
