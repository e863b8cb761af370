package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Advance creates a copy of the revision with the old version, moving the submission to the new version.
//
// The new document gets the contributors removed when external review begins, and restored when it ends.
// Editors whose OJS ids are in granted get the rights of their role at the new stage.
// Authors get write access to copyedit versions (tracked) and to author sub-versions.
// Rights on older revisions are not changed.
//
// If a revision with the new version exists, it is returned and created is false.
func (c *CoreDB) Advance(ctx context.Context, key string, submissionID int, oldVersion, newVersion string, granted []int) (rev *Revision, created bool, err error) {

	from, err := ParseStageVersion(oldVersion)
	if err != nil {
		return nil, false, err
	}
	to, err := ParseStageVersion(newVersion)
	if err != nil {
		return nil, false, err
	}

	err = c.createOrGet(ctx, func(tx Tx) error {

		sub, journal, err := authSubmission(tx, submissionID, key)
		if err != nil {
			return err
		}

		if existing, err := tx.GetRevision(sub.ID, to); err == nil {
			rev = existing
			return nil
		} else if err != ErrNotFound {
			return err
		}

		current, err := tx.GetRevision(sub.ID, from)
		if err != nil {
			return err
		}

		src, err := tx.GetDocument(current.DocumentID)
		if err != nil {
			return err
		}

		content, contributors, err := transformContributors(src.Content, current.Contributors, from.Stage, to.Stage)
		if err != nil {
			return err
		}

		imageIDs, err := tx.DocumentImages(src.ID)
		if err != nil {
			return err
		}

		var copied = *src
		copied.OwnerID = journal.EditorID
		copied.Content = content

		doc, err := c.createDocument(tx, sub.ID, to, &copied, imageIDs)
		if err != nil {
			return err
		}

		rev = &Revision{
			SubmissionID: sub.ID,
			Version:      to,
			DocumentID:   doc.ID,
			Contributors: contributors,
		}
		if err := tx.InsertRevision(rev); err != nil {
			return err
		}

		if err := grantEditors(tx, sub.ID, doc.ID, to.Stage, granted); err != nil {
			return err
		}

		if err := grantAuthors(tx, sub.ID, doc.ID, to); err != nil {
			return err
		}

		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		zerolog.Ctx(ctx).Info().
			Int("submission", submissionID).
			Str("from", from.String()).
			Str("to", to.String()).
			Int("document", rev.DocumentID).
			Msg("advanced submission")
	}
	return rev, created, nil
}

// grantEditors gives the granted editors the rights of their role at the given stage.
func grantEditors(tx Tx, submissionID, documentID, stage int, granted []int) error {
	if len(granted) == 0 {
		return nil
	}
	var grantedSet = make(map[int]struct{}, len(granted))
	for _, ojsJID := range granted {
		grantedSet[ojsJID] = struct{}{}
	}
	editors, err := tx.Editors(submissionID)
	if err != nil {
		return err
	}
	for _, editor := range editors {
		if _, ok := grantedSet[editor.OJSJID]; !ok {
			continue
		}
		rights, err := RightsFor(editor.Role, stage)
		if err != nil {
			return err
		}
		if _, err := upgradeRights(tx, documentID, editor.UserID, rights); err != nil {
			return err
		}
	}
	return nil
}

// grantAuthors gives all authors write access if the version is meant to be edited by them.
func grantAuthors(tx Tx, submissionID, documentID int, version StageVersion) error {
	var rights Rights
	switch {
	case version.Stage == 4:
		rights = WriteTracked
	case version.IsAuthorSubversion():
		rights = Write
	default:
		return nil
	}
	authors, err := tx.Authors(submissionID)
	if err != nil {
		return err
	}
	for _, author := range authors {
		if _, err := upgradeRights(tx, documentID, author.UserID, rights); err != nil {
			return err
		}
	}
	return nil
}
