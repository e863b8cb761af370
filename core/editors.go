package core

// Author, Editor and Reviewer map an OJS user id to a local user.
// Authors and editors belong to a submission, reviewers to a single revision.

type Author struct {
	ID           int
	UserID       int
	SubmissionID int
	OJSJID       int
}

type Editor struct {
	ID           int
	UserID       int
	SubmissionID int
	OJSJID       int
	Role         Role
}

type Reviewer struct {
	ID         int
	UserID     int
	RevisionID int
	OJSJID     int
	Method     ReviewMethod // empty until the reviewer has accepted
}

type ParticipantTx interface {
	Authors(submissionID int) ([]Author, error)
	DeleteAuthor(id int) error
	GetAuthor(submissionID, ojsJID int) (*Author, error)
	GetAuthorByUser(submissionID, userID int) (*Author, error)
	InsertAuthor(a *Author) error

	DeleteEditor(id int) error
	Editors(submissionID int) ([]Editor, error)
	GetEditor(submissionID, ojsJID int) (*Editor, error)
	GetEditorByUser(submissionID, userID int) (*Editor, error)
	InsertEditor(e *Editor) error

	DeleteReviewer(id int) error
	GetReviewer(revisionID, ojsJID int) (*Reviewer, error)
	GetReviewerByUser(revisionID, userID int) (*Reviewer, error)
	InsertReviewer(r *Reviewer) error
	SetReviewerMethod(id int, method ReviewMethod) error
}
