package core

import (
	"context"
	"fmt"
)

// findUser resolves an OJS user of a submission: author first, then reviewer of the revision, then editor if isEditor is set.
func findUser(tx Tx, submissionID int, version string, ojsUID int, isEditor bool) (*User, error) {

	author, err := tx.GetAuthor(submissionID, ojsUID)
	if err == nil {
		return tx.GetUser(author.UserID)
	}
	if err != ErrNotFound {
		return nil, err
	}

	if v, err := ParseStageVersion(version); err == nil {
		rev, err := tx.GetRevision(submissionID, v)
		if err == nil {
			reviewer, err := tx.GetReviewer(rev.ID, ojsUID)
			if err == nil {
				return tx.GetUser(reviewer.UserID)
			}
			if err != ErrNotFound {
				return nil, err
			}
		} else if err != ErrNotFound {
			return nil, err
		}
	}

	if isEditor {
		editor, err := tx.GetEditor(submissionID, ojsUID)
		if err == nil {
			return tx.GetUser(editor.UserID)
		}
		if err != ErrNotFound {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: user not accessible", ErrAuthorization)
}

// IssueLoginToken is called by OJS with the journal key. OJS then sends the user to OpenRevision with the token,
// so the journal key is not exposed to the user.
func (c *CoreDB) IssueLoginToken(ctx context.Context, key string, submissionID int, ojsUID int, version string, isEditor bool) (token string, err error) {
	err = c.Update(ctx, func(tx Tx) error {
		sub, journal, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		user, err := findUser(tx, sub.ID, version, ojsUID, isEditor)
		if err != nil {
			return err
		}
		token, err = c.issueToken(journal, user)
		return err
	})
	return
}

// OpenRevision checks the login token and whether its user may open the revision document.
// It returns the user and the document id. Establishing the session is up to the caller.
func (c *CoreDB) OpenRevision(ctx context.Context, submissionID int, version string, token string) (user *User, documentID int, err error) {
	v, err := ParseStageVersion(version)
	if err != nil {
		return nil, 0, err
	}
	err = c.Update(ctx, func(tx Tx) error {
		rev, err := tx.GetRevision(submissionID, v)
		if err != nil {
			return err
		}
		sub, err := tx.GetSubmission(rev.SubmissionID)
		if err != nil {
			return err
		}
		journal, err := tx.GetJournal(sub.JournalID)
		if err != nil {
			return err
		}
		userID, err := c.verifyToken(journal, token)
		if err != nil {
			return err
		}
		user, err = tx.GetUser(userID)
		if err != nil {
			return err
		}
		doc, err := tx.GetDocument(rev.DocumentID)
		if err != nil {
			return err
		}
		ok, err := canOpen(tx, doc, user.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAuthorization
		}
		documentID = doc.ID
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return user, documentID, nil
}

// CheckRevision returns whether the revision exists, after checking that the OJS user is known.
func (c *CoreDB) CheckRevision(ctx context.Context, key string, submissionID int, version string, ojsUID int, isEditor bool) (exists bool, err error) {
	err = c.Update(ctx, func(tx Tx) error {
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		if _, err := findUser(tx, sub.ID, version, ojsUID, isEditor); err != nil {
			return err
		}
		v, err := ParseStageVersion(version)
		if err != nil {
			return nil // exists is false
		}
		_, err = tx.GetRevision(sub.ID, v)
		switch err {
		case nil:
			exists = true
			return nil
		case ErrNotFound:
			return nil
		default:
			return err
		}
	})
	return
}

// GetUser returns the user with the given id.
func (c *CoreDB) GetUser(ctx context.Context, id int) (u *User, err error) {
	err = c.Update(ctx, func(tx Tx) error {
		u, err = tx.GetUser(id)
		return err
	})
	return
}
