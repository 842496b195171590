// Package search finds nodes by name for focus selection.
package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/phosphograph/pkg/multigraph"
)

// DefaultLimit is the number of results shown in suggestion lists.
const DefaultLimit = 10

// Result is one matching node.
type Result struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// Nodes returns nodes whose name contains query, ignoring case, sorted by
// name and then id. A limit of 0 or less returns every match. An empty
// query matches nothing.
func Nodes(g *multigraph.MultiGraph, query string, limit int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []Result
	for _, n := range g.Nodes() {
		if strings.Contains(strings.ToLower(n.Name), q) {
			out = append(out, Result{ID: n.ID, Name: n.Name, Desc: n.Desc})
		}
	}
	slices.SortFunc(out, func(a, b Result) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
