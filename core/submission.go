package core

import "time"

type SubmissionStatus string

const (
	Pending      SubmissionStatus = "pending"      // waiting for OJS to acknowledge the first submission
	Acknowledged SubmissionStatus = "acknowledged" // OJSJID is set
	Failed       SubmissionStatus = "failed"       // to be deleted
)

type Submission struct {
	ID          int
	SubmitterID int
	JournalID   int
	OJSJID      int // zero until acknowledged
	Status      SubmissionStatus
	Created     time.Time
}

type SubmissionTx interface {
	AcknowledgeSubmission(id, ojsJID int) error
	DeleteSubmission(id int) error // deletes revisions, documents, participants and rights too
	GetSubmission(id int) (*Submission, error)
	InsertSubmission(s *Submission) error // sets s.ID
	SetSubmissionStatus(id int, status SubmissionStatus) error
	StaleSubmissions(pendingBefore time.Time) ([]Submission, error) // failed ones, and pending ones created before the given time
}

// authSubmission loads the submission and its journal and checks the journal key.
func authSubmission(tx Tx, submissionID int, key string) (*Submission, *Journal, error) {
	sub, err := tx.GetSubmission(submissionID)
	if err != nil {
		return nil, nil, err
	}
	journal, err := tx.GetJournal(sub.JournalID)
	if err != nil {
		return nil, nil, err
	}
	if err := journal.checkKey(key); err != nil {
		return nil, nil, err
	}
	return sub, journal, nil
}
