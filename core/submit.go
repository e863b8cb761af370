package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// FirstSubmission is what an author sends along with a new submission.
type FirstSubmission struct {
	JournalID    int
	DocumentID   int // the draft, if it is known here
	TemplateID   int // used if the draft is not known here
	Title        string
	Abstract     string
	Content      json.RawMessage
	Bibliography json.RawMessage
	ImageIDs     []int
	FirstName    string
	LastName     string
	Affiliation  string
	AuthorURL    string
	FidusURL     string // base url of the editor, OJS links back to it
}

// authorSubmitResponse is the response of OJS to the first submission.
type authorSubmitResponse struct {
	SubmissionID int `json:"submission_id"`
	UserID       int `json:"user_id"`
}

// Journals relays the journal list of an OJS installation.
func (c *CoreDB) Journals(ctx context.Context, ojsURL, key string) ([]byte, error) {
	return c.Gateway.Get(ctx, ojsURL, key, JournalsEndpoint)
}

// FirstSubmit creates a submission at version 1.0.0 and announces it to OJS.
// If OJS does not acknowledge it, the submission is deleted again.
//
// The announcement is not bound to ctx, so the caller going away does not leave the submission pending.
// It is bound to SubmitTimeout instead.
func (c *CoreDB) FirstSubmit(ctx context.Context, submitter *User, fs *FirstSubmission) (*Submission, *Revision, []byte, error) {

	var log = zerolog.Ctx(ctx)

	var sub *Submission
	var rev *Revision
	var journal *Journal

	err := c.Update(ctx, func(tx Tx) error {

		var err error
		journal, err = tx.GetJournal(fs.JournalID)
		if err != nil {
			return err
		}

		var templateID = fs.TemplateID
		if fs.DocumentID != 0 {
			if draft, err := tx.GetDocument(fs.DocumentID); err == nil {
				templateID = draft.TemplateID
			} else if err != ErrNotFound {
				return err
			}
		}

		accepts, err := tx.JournalAcceptsTemplate(journal.ID, templateID)
		if err != nil {
			return err
		}
		if !accepts {
			return fmt.Errorf("%w: template %d is not available for journal %d", ErrAuthorization, templateID, journal.ID)
		}

		sub = &Submission{
			SubmitterID: submitter.ID,
			JournalID:   journal.ID,
			Status:      Pending,
			Created:     c.now(),
		}
		if err := tx.InsertSubmission(sub); err != nil {
			return err
		}

		doc, err := c.createDocument(tx, sub.ID, FirstVersion, &Document{
			OwnerID:      journal.EditorID,
			TemplateID:   templateID,
			Title:        fs.Title,
			Content:      fs.Content,
			Bibliography: fs.Bibliography,
		}, fs.ImageIDs)
		if err != nil {
			return err
		}

		rev = &Revision{
			SubmissionID: sub.ID,
			Version:      FirstVersion,
			DocumentID:   doc.ID,
			Contributors: Contributors{},
		}
		return tx.InsertRevision(rev)
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var form = url.Values{}
	form.Set("username", submitter.Username)
	form.Set("title", fs.Title)
	form.Set("abstract", fs.Abstract)
	form.Set("first_name", fs.FirstName)
	form.Set("last_name", fs.LastName)
	form.Set("email", submitter.Email)
	form.Set("affiliation", fs.Affiliation)
	form.Set("author_url", fs.AuthorURL)
	form.Set("journal_id", strconv.Itoa(journal.OJSJID))
	form.Set("fidus_url", fs.FidusURL)
	form.Set("fidus_id", strconv.Itoa(sub.ID))
	form.Set("version", FirstVersion.String())

	// detach from the request, so the compensating delete runs even if the client disconnects
	var detached = context.WithoutCancel(ctx)

	submitCtx, cancel := context.WithTimeout(detached, c.SubmitTimeout)
	defer cancel()

	body, err := c.Gateway.Post(submitCtx, journal.OJSURL, journal.OJSKey, AuthorSubmitEndpoint, form)
	if err == nil {
		var resp authorSubmitResponse
		if err = json.Unmarshal(body, &resp); err == nil {
			if err = c.acknowledge(detached, sub, rev, submitter, resp); err != nil {
				// OJS keeps its submission, it has to be removed there by hand
				log.Error().Err(err).
					Int("submission", sub.ID).
					Str("ojs_url", journal.OJSURL).
					Int("ojs_submission", resp.SubmissionID).
					Int("ojs_user", resp.UserID).
					Msg("OJS accepted the submission, but it could not be acknowledged")
			}
		} else {
			err = fmt.Errorf("%w: decoding authorSubmit response: %v", ErrRemoteTerminal, err)
		}
	}
	if err != nil {
		log.Error().Err(err).Int("submission", sub.ID).Msg("first submission failed, deleting it")
		if discardErr := c.discard(detached, sub.ID); discardErr != nil {
			log.Error().Err(discardErr).Int("submission", sub.ID).Msg("could not delete failed submission")
		}
		return nil, nil, nil, err
	}

	log.Info().Int("submission", sub.ID).Int("ojs_jid", sub.OJSJID).Msg("submission acknowledged")
	return sub, rev, body, nil
}

// acknowledge stores the OJS submission id and registers the submitter as author.
func (c *CoreDB) acknowledge(ctx context.Context, sub *Submission, rev *Revision, submitter *User, resp authorSubmitResponse) error {
	return c.createOrGet(ctx, func(tx Tx) error {
		if err := tx.AcknowledgeSubmission(sub.ID, resp.SubmissionID); err != nil {
			return err
		}
		sub.OJSJID = resp.SubmissionID
		sub.Status = Acknowledged

		if _, err := tx.GetAuthor(sub.ID, resp.UserID); err == ErrNotFound {
			if err := tx.InsertAuthor(&Author{
				UserID:       submitter.ID,
				SubmissionID: sub.ID,
				OJSJID:       resp.UserID,
			}); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		_, err := upgradeRights(tx, rev.DocumentID, submitter.ID, ReadWithoutComments)
		return err
	})
}

// discard is the compensating transaction of a failed first submission. The submission is marked failed first,
// so the sweep can retry the deletion.
func (c *CoreDB) discard(ctx context.Context, submissionID int) error {
	if err := c.Update(ctx, func(tx Tx) error {
		return tx.SetSubmissionStatus(submissionID, Failed)
	}); err != nil {
		return err
	}
	return c.Update(ctx, func(tx Tx) error {
		return tx.DeleteSubmission(submissionID)
	})
}

// SweepPending deletes failed submissions and submissions which are pending for longer than olderThan.
// It returns the number of deleted submissions.
func (c *CoreDB) SweepPending(ctx context.Context, olderThan time.Duration) (int, error) {
	var stale []Submission
	err := c.Update(ctx, func(tx Tx) error {
		var err error
		stale, err = tx.StaleSubmissions(c.now().Add(-olderThan))
		return err
	})
	if err != nil {
		return 0, err
	}
	var deleted = 0
	for _, sub := range stale {
		zerolog.Ctx(ctx).Error().
			Int("submission", sub.ID).
			Str("status", string(sub.Status)).
			Time("created", sub.Created).
			Msg("submission was not acknowledged by OJS, deleting it")
		if err := c.discard(ctx, sub.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// submissionOfDocument returns the revision, submission and journal of a revision document.
func submissionOfDocument(tx Tx, documentID int) (*Revision, *Submission, *Journal, error) {
	rev, err := tx.GetRevisionByDocument(documentID)
	if err != nil {
		return nil, nil, nil, err
	}
	sub, err := tx.GetSubmission(rev.SubmissionID)
	if err != nil {
		return nil, nil, nil, err
	}
	journal, err := tx.GetJournal(sub.JournalID)
	if err != nil {
		return nil, nil, nil, err
	}
	return rev, sub, journal, nil
}

// postAndDowngrade sends the form to OJS and lowers the rights of the user to read on success.
func (c *CoreDB) postAndDowngrade(ctx context.Context, journal *Journal, endpoint string, form url.Values, documentID, userID int) ([]byte, error) {
	body, err := c.Gateway.Post(ctx, journal.OJSURL, journal.OJSKey, endpoint, form)
	if err != nil {
		return nil, err
	}
	err = c.Update(context.WithoutCancel(ctx), func(tx Tx) error {
		return downgradeToRead(tx, documentID, userID)
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("endpoint", endpoint).Int("document", documentID).Int("user", userID).Msg("submitted to OJS")
	return body, nil
}

// AuthorSubmit resubmits fs.DocumentID if it is a revision document. Else it creates a new submission from fs.
func (c *CoreDB) AuthorSubmit(ctx context.Context, user *User, fs *FirstSubmission) ([]byte, error) {
	var submitted bool
	err := c.Update(ctx, func(tx Tx) error {
		if fs.DocumentID == 0 {
			return nil
		}
		_, err := tx.GetRevisionByDocument(fs.DocumentID)
		switch err {
		case nil:
			submitted = true
			return nil
		case ErrNotFound:
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	if submitted {
		return c.AuthorResubmit(ctx, user, fs.DocumentID)
	}
	_, _, body, err := c.FirstSubmit(ctx, user, fs)
	return body, err
}

// AuthorResubmit announces a new version of an existing submission. Only the submitter may do that.
func (c *CoreDB) AuthorResubmit(ctx context.Context, user *User, documentID int) ([]byte, error) {
	var rev *Revision
	var sub *Submission
	var journal *Journal
	err := c.Update(ctx, func(tx Tx) error {
		var err error
		rev, sub, journal, err = submissionOfDocument(tx, documentID)
		if err != nil {
			return err
		}
		if sub.SubmitterID != user.ID {
			return ErrAuthorization
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var form = url.Values{}
	form.Set("submission_id", strconv.Itoa(sub.OJSJID))
	form.Set("version", rev.Version.String())
	return c.postAndDowngrade(ctx, journal, AuthorSubmitEndpoint, form, documentID, user.ID)
}

// ReviewerRecommendation is the result of a review.
type ReviewerRecommendation struct {
	EditorMessage       string
	EditorAuthorMessage string
	Recommendation      string
}

// ReviewerSubmit hands in a review. The user must be a reviewer of the revision.
func (c *CoreDB) ReviewerSubmit(ctx context.Context, user *User, documentID int, rec ReviewerRecommendation) ([]byte, error) {
	var form = url.Values{}
	var journal *Journal
	err := c.Update(ctx, func(tx Tx) error {
		rev, sub, j, err := submissionOfDocument(tx, documentID)
		if err != nil {
			return err
		}
		reviewer, err := tx.GetReviewerByUser(rev.ID, user.ID)
		if err == ErrNotFound {
			return ErrAuthorization
		}
		if err != nil {
			return err
		}
		journal = j
		form.Set("submission_id", strconv.Itoa(sub.OJSJID))
		form.Set("version", rev.Version.String())
		form.Set("user_id", strconv.Itoa(reviewer.OJSJID))
		form.Set("editor_message", rec.EditorMessage)
		form.Set("editor_author_message", rec.EditorAuthorMessage)
		form.Set("recommendation", rec.Recommendation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.postAndDowngrade(ctx, journal, ReviewerSubmitEndpoint, form, documentID, user.ID)
}

// CopyeditDraftSubmit hands in the copyedit draft. Only version 4.0.0 can be submitted, by an author or an editor.
func (c *CoreDB) CopyeditDraftSubmit(ctx context.Context, user *User, documentID int) ([]byte, error) {
	var form = url.Values{}
	var journal *Journal
	err := c.Update(ctx, func(tx Tx) error {
		rev, sub, j, err := submissionOfDocument(tx, documentID)
		if err != nil {
			return err
		}
		if rev.Version != CopyeditDraftVersion {
			return fmt.Errorf("%w: version %s is not a copyedit draft", ErrAuthorization, rev.Version)
		}

		var ojsUID int
		if author, err := tx.GetAuthorByUser(sub.ID, user.ID); err == nil {
			ojsUID = author.OJSJID
		} else if err != ErrNotFound {
			return err
		} else if editor, err := tx.GetEditorByUser(sub.ID, user.ID); err == nil {
			ojsUID = editor.OJSJID
		} else if err != ErrNotFound {
			return err
		} else {
			return ErrAuthorization
		}

		journal = j
		form.Set("submission_id", strconv.Itoa(sub.OJSJID))
		form.Set("ojs_uid", strconv.Itoa(ojsUID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.postAndDowngrade(ctx, journal, CopyeditDraftSubmitEndpoint, form, documentID, user.ID)
}
