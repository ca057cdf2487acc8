package optimizer

import "github.com/donaldgifford/reopt/internal/parser"

// Transform rebuilds root bottom-up. fn is called for every node after its
// children have been transformed and returns the node to keep; it must not
// mutate its argument. Ancestors of replaced nodes are shallow-copied with
// Raw cleared. Unsupported subtrees are never visited.
func Transform(root *parser.Node, fn func(*parser.Node) *parser.Node) *parser.Node {
	if root == nil || root.Type == parser.NodeUnsupported {
		return root
	}

	n := root
	var children []*parser.Node
	for i, child := range root.Children {
		next := Transform(child, fn)
		if next == child && children == nil {
			continue
		}
		if children == nil {
			children = make([]*parser.Node, len(root.Children))
			copy(children, root.Children[:i])
		}
		children[i] = next
	}
	if children != nil {
		n = Modified(root)
		n.Children = children
	}
	return fn(n)
}

// Modified returns a shallow copy of n with Raw cleared, so the writer
// reconstructs it. Fields slices are shared and must not be mutated.
func Modified(n *parser.Node) *parser.Node {
	c := *n
	c.Raw = ""
	return &c
}
