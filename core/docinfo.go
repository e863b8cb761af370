package core

import "context"

// DocInfo tells the editor which OJS related controls to show for a document.
type DocInfo struct {
	Submission SubmissionInfo `json:"submission"`
	Journals   []JournalInfo  `json:"journals"`
}

type SubmissionInfo struct {
	Status       string `json:"status"` // "submitted" or "unsubmitted"
	SubmissionID int    `json:"submission_id,omitempty"`
	Version      string `json:"version,omitempty"`
	JournalID    int    `json:"journal_id,omitempty"`
	UserRole     string `json:"user_role,omitempty"`
}

type JournalInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	EditorID int    `json:"editor_id"`
	OJSJID   int    `json:"ojs_jid"`
}

// GetDocInfo returns the submission state of a document and the journals which accept its template.
// If documentID is zero, the document has not been saved yet and templateID is used.
func (c *CoreDB) GetDocInfo(ctx context.Context, user *User, documentID, templateID int) (info *DocInfo, err error) {
	info = &DocInfo{
		Submission: SubmissionInfo{Status: "unsubmitted"},
		Journals:   []JournalInfo{},
	}
	err = c.Update(ctx, func(tx Tx) error {
		if documentID != 0 {
			doc, err := tx.GetDocument(documentID)
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
			templateID = doc.TemplateID

			rev, err := tx.GetRevisionByDocument(doc.ID)
			switch err {
			case nil:
				sub, err := tx.GetSubmission(rev.SubmissionID)
				if err != nil {
					return err
				}
				role, err := userRole(tx, rev, sub, user)
				if err != nil {
					return err
				}
				info.Submission = SubmissionInfo{
					Status:       "submitted",
					SubmissionID: sub.ID,
					Version:      rev.Version.String(),
					JournalID:    sub.JournalID,
					UserRole:     role,
				}
			case ErrNotFound:
			default:
				return err
			}
		}

		journals, err := tx.JournalsByTemplate(templateID)
		if err != nil {
			return err
		}
		for _, j := range journals {
			info.Journals = append(info.Journals, JournalInfo{
				ID:       j.ID,
				Name:     j.Name,
				EditorID: j.EditorID,
				OJSJID:   j.OJSJID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// userRole returns "reviewer", "author", "sub-author" (an author who is not the submitter), the editor role name, or "".
func userRole(tx Tx, rev *Revision, sub *Submission, user *User) (string, error) {
	if _, err := tx.GetReviewerByUser(rev.ID, user.ID); err == nil {
		return "reviewer", nil
	} else if err != ErrNotFound {
		return "", err
	}
	if _, err := tx.GetAuthorByUser(sub.ID, user.ID); err == nil {
		if sub.SubmitterID == user.ID {
			return "author", nil
		}
		return "sub-author", nil
	} else if err != ErrNotFound {
		return "", err
	}
	if editor, err := tx.GetEditorByUser(sub.ID, user.ID); err == nil {
		return editor.Role.Name(), nil
	} else if err != ErrNotFound {
		return "", err
	}
	return "", nil
}
