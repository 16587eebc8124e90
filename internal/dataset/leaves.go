package dataset

import (
	"maps"
	"slices"

	"github.com/hupe1980/agglo/node"
	"github.com/hupe1980/agglo/scoring"
)

// Leaves is the bipartite leaf set of a data set.
type Leaves struct {
	Users    []*node.Node
	Contents []*node.Node

	labels map[*node.Node]string
}

// Label returns the data set identifier of a leaf.
func (l *Leaves) Label(n *node.Node) (string, bool) {
	s, ok := l.labels[n]
	return s, ok
}

// ByKind returns the leaves grouped by node kind.
func (l *Leaves) ByKind() map[node.Kind][]*node.Node {
	return map[node.Kind][]*node.Node{
		node.KindUser:    l.Users,
		node.KindContent: l.Contents,
	}
}

// Build creates one user leaf per distinct user and one content leaf per
// distinct item. A user holds a rating attribute keyed by every content it
// rated and vice versa. A repeated (user, item) pair keeps the last rating.
// Leaves are ordered by label.
func Build(g *node.Graph, ratings []Rating) *Leaves {
	userAttrs := make(map[string]map[string]float64)
	contentAttrs := make(map[string]map[string]float64)
	for _, r := range ratings {
		if userAttrs[r.User] == nil {
			userAttrs[r.User] = make(map[string]float64)
		}
		if contentAttrs[r.Item] == nil {
			contentAttrs[r.Item] = make(map[string]float64)
		}
		userAttrs[r.User][r.Item] = r.Value
		contentAttrs[r.Item][r.User] = r.Value
	}

	l := &Leaves{labels: make(map[*node.Node]string, len(userAttrs)+len(contentAttrs))}
	users := make(map[string]*node.Node, len(userAttrs))
	contents := make(map[string]*node.Node, len(contentAttrs))

	for _, label := range slices.Sorted(maps.Keys(userAttrs)) {
		n := g.NewNode(node.KindUser)
		users[label] = n
		l.labels[n] = label
		l.Users = append(l.Users, n)
	}
	for _, label := range slices.Sorted(maps.Keys(contentAttrs)) {
		n := g.NewNode(node.KindContent)
		contents[label] = n
		l.labels[n] = label
		l.Contents = append(l.Contents, n)
	}

	for label, rated := range userAttrs {
		attrs := make(map[*node.Node]node.Attribute, len(rated))
		for item, v := range rated {
			attrs[contents[item]] = scoring.NewRating(v)
		}
		users[label].SetAttributes(attrs)
	}
	for label, raters := range contentAttrs {
		attrs := make(map[*node.Node]node.Attribute, len(raters))
		for user, v := range raters {
			attrs[users[user]] = scoring.NewRating(v)
		}
		contents[label].SetAttributes(attrs)
	}

	return l
}
