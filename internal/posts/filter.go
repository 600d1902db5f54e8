package posts

import (
	"fmt"
	"strings"
)

// Filter is the typed query specification for ListPosts. Empty fields are
// inactive; active fields combine with AND.
type Filter struct {
	Type     string
	Category string
	Location string
}

// Normalize lowercases the type filter so it matches stored values.
func (f Filter) Normalize() Filter {
	f.Type = strings.ToLower(f.Type)
	return f
}

// SQL renders the active predicates as a WHERE clause over the posts table
// (aliased p), with placeholders starting at $1. An empty filter yields an
// empty clause and no args.
func (f Filter) SQL() (string, []any) {
	var conds []string
	var args []any

	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf("p.type = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("LOWER(p.category) = LOWER($%d)", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		conds = append(conds, fmt.Sprintf("p.location ILIKE $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}
