package core

type AccessTx interface {
	AccessRights(documentID int) (map[int]Rights, error) // user id -> rights
	DeleteAccessRight(documentID, userID int) error
	GetAccessRight(documentID, userID int) (Rights, error) // returns ErrNotFound if there is no row
	InsertAccessRight(documentID, userID int, rights Rights) error
	UpdateAccessRight(documentID, userID int, rights Rights) error
}

// upgradeRights creates or raises the rights of a user on a document. It never lowers them.
func upgradeRights(tx Tx, documentID, userID int, rights Rights) (created bool, err error) {
	current, err := tx.GetAccessRight(documentID, userID)
	switch {
	case err == ErrNotFound:
		return true, tx.InsertAccessRight(documentID, userID, rights)
	case err != nil:
		return false, err
	case current < rights:
		return false, tx.UpdateAccessRight(documentID, userID, rights)
	default:
		return false, nil
	}
}

// setRights creates or overwrites the rights of a user on a document.
func setRights(tx Tx, documentID, userID int, rights Rights) (created bool, err error) {
	current, err := tx.GetAccessRight(documentID, userID)
	switch {
	case err == ErrNotFound:
		return true, tx.InsertAccessRight(documentID, userID, rights)
	case err != nil:
		return false, err
	case current != rights:
		return false, tx.UpdateAccessRight(documentID, userID, rights)
	default:
		return false, nil
	}
}

// downgradeToRead is applied after a user has handed in their work. Users without rights keep having none.
func downgradeToRead(tx Tx, documentID, userID int) error {
	_, err := tx.GetAccessRight(documentID, userID)
	if err == ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return tx.UpdateAccessRight(documentID, userID, Read)
}

// revokeAll deletes the rights of a user on the documents of every revision of the submission.
func revokeAll(tx Tx, submissionID, userID int) error {
	revisions, err := tx.Revisions(submissionID)
	if err != nil {
		return err
	}
	for _, rev := range revisions {
		if err := tx.DeleteAccessRight(rev.DocumentID, userID); err != nil {
			return err
		}
	}
	return nil
}

// canOpen returns true if the user owns the document or has any rights on it.
func canOpen(tx Tx, doc *Document, userID int) (bool, error) {
	if doc.OwnerID == userID {
		return true, nil
	}
	_, err := tx.GetAccessRight(doc.ID, userID)
	switch err {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}
