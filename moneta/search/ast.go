package search

import "fmt"

// Criteria is a predicate node: either a FilterCriteria or a CompositeCriteria.
type Criteria interface {
	isCriteria()
}

// Operation is the comparison applied by a filter
type Operation string

const (
	OpEqual Operation = "EQUAL"
)

// FilterCriteria compares one column to a value. Value holds a string, an
// int64, a float64, or nil.
type FilterCriteria struct {
	FieldName string
	Operation Operation
	Value     any
}

func (FilterCriteria) isCriteria() {}

// Operator combines the children of a composite
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR" // reserved; no request path builds it
)

// CompositeCriteria groups child criteria under a boolean operator.
type CompositeCriteria struct {
	Operator Operator
	Children []Criteria
}

func (CompositeCriteria) isCriteria() {}

// And builds an AND composite. With no children it matches every row.
func And(children ...Criteria) CompositeCriteria {
	return CompositeCriteria{Operator: OperatorAnd, Children: children}
}

// Equal builds an equality filter.
func Equal(field string, value any) FilterCriteria {
	return FilterCriteria{FieldName: field, Operation: OpEqual, Value: value}
}

// Walk visits c and its descendants depth-first, parents before children.
// Returning an error from fn stops the walk.
func Walk(c Criteria, fn func(Criteria) error) error {
	if err := fn(c); err != nil {
		return err
	}
	switch n := c.(type) {
	case FilterCriteria:
		return nil
	case CompositeCriteria:
		for _, child := range n.Children {
			if err := Walk(child, fn); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown criteria type %T", c)
	}
}

// Filters returns the filter leaves of c in order.
func Filters(c Criteria) []FilterCriteria {
	var out []FilterCriteria
	_ = Walk(c, func(n Criteria) error {
		if f, ok := n.(FilterCriteria); ok {
			out = append(out, f)
		}
		return nil
	})
	return out
}
