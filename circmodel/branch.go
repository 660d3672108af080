package circmodel

// Branch is an ordered subrange of the global node list. Branch 1 (index 0
// in Branches) is always the main branch; later branches are bound to
// prior Topbranch/Endbranch calls in call order. Branches never reconnect:
// once a deck moves its "current branch" away from a branch, no further
// nodes are ever appended to it.
type Branch struct {
	ID          int
	Level       int
	NodeOffset  int
	First, Last int
}

// AttachmentKind selects the attachment topology: END couples a single
// parent node's KCL row to the child's first-current column; TOP couples
// two adjacent parent KCL rows with opposite sign.
type AttachmentKind int

const (
	AttachEnd AttachmentKind = iota
	AttachTop
)

// Attachment is the linkage between a parent branch anchor and a child
// branch's first node, realized in solver as a handful of sparse matrix
// edits. Line records the deck line that opened the attachment call, for
// error reporting.
type Attachment struct {
	Kind                     AttachmentKind
	ParentBranch             int
	ParentNode               int // valid for AttachEnd
	ParentLeft, ParentRight  int // valid for AttachTop
	ChildBranch              int
	Line                     int
}
