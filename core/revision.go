package core

// A Revision is the state of a submission at one workflow step. Each revision owns its document.
type Revision struct {
	ID           int
	SubmissionID int
	Version      StageVersion
	DocumentID   int
	Contributors Contributors // content of contributor blocks which are hidden during review
}

type RevisionTx interface {
	GetRevision(submissionID int, version StageVersion) (*Revision, error)
	GetRevisionByDocument(documentID int) (*Revision, error)
	InsertRevision(r *Revision) error // sets r.ID
	Revisions(submissionID int) ([]Revision, error)
}
