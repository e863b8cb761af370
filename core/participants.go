package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// GrantReviewer registers a reviewer for a revision and gives them access to the revision document.
// Until the reviewer has accepted, they can only read without comments. If method is not empty, it is stored and
// the reviewer gets the rights of that review method.
// It returns created == true if a reviewer or an access right has been created.
func (c *CoreDB) GrantReviewer(ctx context.Context, key string, submissionID int, version string, ojsUID int, id Identity, method ReviewMethod) (created bool, err error) {
	v, err := ParseStageVersion(version)
	if err != nil {
		return false, err
	}
	err = c.createOrGet(ctx, func(tx Tx) error {
		created = false
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		rev, err := tx.GetRevision(sub.ID, v)
		if err != nil {
			return err
		}

		reviewer, err := tx.GetReviewer(rev.ID, ojsUID)
		if err == ErrNotFound {
			user, err := getOrCreateUser(tx, id)
			if err != nil {
				return err
			}
			reviewer = &Reviewer{
				UserID:     user.ID,
				RevisionID: rev.ID,
				OJSJID:     ojsUID,
			}
			if err := tx.InsertReviewer(reviewer); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}

		if method != "" && method != reviewer.Method {
			if err := tx.SetReviewerMethod(reviewer.ID, method); err != nil {
				return err
			}
			reviewer.Method = method
		}

		var rights = ReadWithoutComments
		if reviewer.Method != "" {
			rights = reviewer.Method.Rights()
		}

		rightCreated, err := upgradeRights(tx, rev.DocumentID, reviewer.UserID, rights)
		created = created || rightCreated
		return err
	})
	return
}

// AcceptReviewer stores the review method and sets the rights of the reviewer on the revision document accordingly.
// Rights on other revisions are not touched.
func (c *CoreDB) AcceptReviewer(ctx context.Context, key string, submissionID int, version string, ojsUID int, method ReviewMethod) (created bool, err error) {
	v, err := ParseStageVersion(version)
	if err != nil {
		return false, err
	}
	if method == "" {
		method = DoubleAnonymous
	}
	err = c.createOrGet(ctx, func(tx Tx) error {
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		rev, err := tx.GetRevision(sub.ID, v)
		if err != nil {
			return err
		}
		reviewer, err := tx.GetReviewer(rev.ID, ojsUID)
		if err == ErrNotFound {
			return fmt.Errorf("%w: unknown reviewer", ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := tx.SetReviewerMethod(reviewer.ID, method); err != nil {
			return err
		}
		created, err = setRights(tx, rev.DocumentID, reviewer.UserID, method.Rights())
		return err
	})
	return
}

// RevokeReviewer deletes the access rights of the reviewer on all revisions of the submission, then the reviewer.
func (c *CoreDB) RevokeReviewer(ctx context.Context, key string, submissionID int, version string, ojsUID int) error {
	v, err := ParseStageVersion(version)
	if err != nil {
		return err
	}
	return c.Update(ctx, func(tx Tx) error {
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		rev, err := tx.GetRevision(sub.ID, v)
		if err != nil {
			return err
		}
		reviewer, err := tx.GetReviewer(rev.ID, ojsUID)
		if err == ErrNotFound {
			return fmt.Errorf("%w: unknown reviewer", ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := revokeAll(tx, sub.ID, reviewer.UserID); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Int("submission", sub.ID).Int("user", reviewer.UserID).Msg("revoked reviewer")
		return tx.DeleteReviewer(reviewer.ID)
	})
}

// GrantEditor registers an editor of the submission. On every revision whose stage is in stages, the editor gets the
// rights of their role.
func (c *CoreDB) GrantEditor(ctx context.Context, key string, submissionID int, ojsUID int, id Identity, role Role, stages []int) (created bool, err error) {
	err = c.createOrGet(ctx, func(tx Tx) error {
		created = false
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}

		editor, err := tx.GetEditor(sub.ID, ojsUID)
		if err == ErrNotFound {
			if !role.Valid() {
				return &UnconfiguredRoleError{Role: role}
			}
			user, err := getOrCreateUser(tx, id)
			if err != nil {
				return err
			}
			editor = &Editor{
				UserID:       user.ID,
				SubmissionID: sub.ID,
				OJSJID:       ojsUID,
				Role:         role,
			}
			if err := tx.InsertEditor(editor); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}

		var stageSet = make(map[int]struct{}, len(stages))
		for _, stage := range stages {
			stageSet[stage] = struct{}{}
		}

		revisions, err := tx.Revisions(sub.ID)
		if err != nil {
			return err
		}
		for _, rev := range revisions {
			if _, ok := stageSet[rev.Version.Stage]; !ok {
				continue
			}
			rights, err := RightsFor(editor.Role, rev.Version.Stage)
			if err != nil {
				return err
			}
			rightCreated, err := upgradeRights(tx, rev.DocumentID, editor.UserID, rights)
			if err != nil {
				return err
			}
			created = created || rightCreated
		}
		return nil
	})
	return
}

// RevokeEditor deletes the access rights of the editor on all revisions of the submission, then the editor.
func (c *CoreDB) RevokeEditor(ctx context.Context, key string, submissionID int, ojsUID int) error {
	return c.Update(ctx, func(tx Tx) error {
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		editor, err := tx.GetEditor(sub.ID, ojsUID)
		if err == ErrNotFound {
			return fmt.Errorf("%w: unknown editor", ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := revokeAll(tx, sub.ID, editor.UserID); err != nil {
			return err
		}
		return tx.DeleteEditor(editor.ID)
	})
}

// authorRights returns the rights an author has on a revision, or false if they have none.
func authorRights(v StageVersion) (Rights, bool) {
	switch {
	case v.Stage == 1:
		return ReadWithoutComments, true
	case v.Stage == 3 && v.IsAuthorSubversion():
		return Write, true
	case v.Stage == 4:
		return WriteTracked, true
	}
	return None, false
}

// GrantAuthor registers an author of the submission and gives them access to the existing revisions which are
// meant for authors.
func (c *CoreDB) GrantAuthor(ctx context.Context, key string, submissionID int, ojsUID int, id Identity) (created bool, err error) {
	err = c.createOrGet(ctx, func(tx Tx) error {
		created = false
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}

		author, err := tx.GetAuthor(sub.ID, ojsUID)
		if err == ErrNotFound {
			user, err := getOrCreateUser(tx, id)
			if err != nil {
				return err
			}
			author = &Author{
				UserID:       user.ID,
				SubmissionID: sub.ID,
				OJSJID:       ojsUID,
			}
			if err := tx.InsertAuthor(author); err != nil {
				return err
			}
			created = true
		} else if err != nil {
			return err
		}

		revisions, err := tx.Revisions(sub.ID)
		if err != nil {
			return err
		}
		for _, rev := range revisions {
			rights, ok := authorRights(rev.Version)
			if !ok {
				continue
			}
			rightCreated, err := upgradeRights(tx, rev.DocumentID, author.UserID, rights)
			if err != nil {
				return err
			}
			created = created || rightCreated
		}
		return nil
	})
	return
}

// RevokeAuthor deletes the access rights of the author on all revisions of the submission, then the author.
func (c *CoreDB) RevokeAuthor(ctx context.Context, key string, submissionID int, ojsUID int) error {
	return c.Update(ctx, func(tx Tx) error {
		sub, _, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}
		author, err := tx.GetAuthor(sub.ID, ojsUID)
		if err == ErrNotFound {
			return fmt.Errorf("%w: unknown author", ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := revokeAll(tx, sub.ID, author.UserID); err != nil {
			return err
		}
		return tx.DeleteAuthor(author.ID)
	})
}

// HasAccess returns true if the user owns the document or has any rights on it.
func (c *CoreDB) HasAccess(ctx context.Context, documentID, userID int) (ok bool, err error) {
	err = c.Update(ctx, func(tx Tx) error {
		doc, err := tx.GetDocument(documentID)
		if err != nil {
			return err
		}
		ok, err = canOpen(tx, doc, userID)
		return err
	})
	return
}

// AccessRights returns the rights on a document by user id.
func (c *CoreDB) AccessRights(ctx context.Context, documentID int) (rights map[int]Rights, err error) {
	err = c.Update(ctx, func(tx Tx) error {
		rights, err = tx.AccessRights(documentID)
		return err
	})
	return
}
