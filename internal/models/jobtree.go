package models

// JobKind tags a JobNode as a leaf job or an aggregate of sub-builds.
type JobKind int

const (
	JobLeaf JobKind = iota
	JobAggregate
)

// JobNode is a build resolved into either a leaf job or an aggregate of children.
type JobNode struct {
	Kind     JobKind
	JobName  string
	Result   Result
	Children []JobNode
}

// ResolveJobTree resolves the sub-build nesting of a build. Children come from
// subBuilds when present, otherwise from the subBuilds of a nested build wrapper.
func ResolveJobTree(b Build) JobNode {
	node := JobNode{
		Kind:    JobLeaf,
		JobName: b.JobName,
		Result:  b.Result,
	}

	children := b.SubBuilds
	if len(children) == 0 && b.Nested != nil {
		children = b.Nested.SubBuilds
	}
	if len(children) == 0 {
		return node
	}

	node.Kind = JobAggregate
	node.Children = make([]JobNode, 0, len(children))
	for _, child := range children {
		node.Children = append(node.Children, ResolveJobTree(child))
	}
	return node
}
