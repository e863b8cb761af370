package core

import "fmt"

// Rights is the access level of a user on a document. Higher rights include lower rights.
type Rights int

const (
	None                Rights = 1
	ReadWithoutComments Rights = 50
	Read                Rights = 100
	Comment             Rights = 200
	Review              Rights = 300
	WriteTracked        Rights = 400
	Write               Rights = 500
)

func (r Rights) String() string {
	switch r {
	case None:
		return "none"
	case ReadWithoutComments:
		return "read-without-comments"
	case Read:
		return "read"
	case Comment:
		return "comment"
	case Review:
		return "review"
	case WriteTracked:
		return "write-tracked"
	case Write:
		return "write"
	}
	return "unknown"
}

func (r Rights) Valid() bool {
	switch r {
	case None, ReadWithoutComments, Read, Comment, Review, WriteTracked, Write:
		return true
	default:
		return false
	}
}

// ParseRights is the inverse of Rights.String.
func ParseRights(s string) (Rights, error) {
	for _, r := range []Rights{None, ReadWithoutComments, Read, Comment, Review, WriteTracked, Write} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rights %q", s)
}
