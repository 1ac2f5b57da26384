package domain

import "strings"

// RefKind classifies the ref a push command touches.
type RefKind int

const (
	RefOther RefKind = iota
	RefBranch
	RefTag
)

func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefTag:
		return "tag"
	default:
		return "ref"
	}
}

// ChangeKind is the kind of ref mutation reported by the push-acceptance path.
type ChangeKind int

const (
	ChangeCreate ChangeKind = iota
	ChangeUpdate
	ChangeUpdateNonFastForward
	ChangeDelete
)

const (
	refHeadsPrefix = "refs/heads/"
	refTagsPrefix  = "refs/tags/"
)

// ZeroID is the all-zero object id git uses for the missing side of a
// create or delete.
const ZeroID = "0000000000000000000000000000000000000000"

// RefUpdate is one ref mutation within a push: the full ref name, the old
// and new object ids, and the kind of change.
type RefUpdate struct {
	RefName string
	OldID   string
	NewID   string
	Change  ChangeKind
}

// Kind derives the ref classification from the ref name. Refs outside
// refs/heads/ and refs/tags/ are RefOther and are not posted.
func (u RefUpdate) Kind() RefKind {
	switch {
	case strings.HasPrefix(u.RefName, refHeadsPrefix):
		return RefBranch
	case strings.HasPrefix(u.RefName, refTagsPrefix):
		return RefTag
	default:
		return RefOther
	}
}

// ShortRef strips the refs/heads/ or refs/tags/ prefix from the ref name.
func (u RefUpdate) ShortRef() string {
	switch {
	case strings.HasPrefix(u.RefName, refHeadsPrefix):
		return strings.TrimPrefix(u.RefName, refHeadsPrefix)
	case strings.HasPrefix(u.RefName, refTagsPrefix):
		return strings.TrimPrefix(u.RefName, refTagsPrefix)
	default:
		return u.RefName
	}
}
