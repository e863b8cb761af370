package core

// Role is an editorial role id as defined by OJS.
type Role int

const (
	SiteAdmin Role = 1
	Manager   Role = 16
	SubEditor Role = 17
	Assistant Role = 4097
)

// Name returns the role name as shown in the editor.
func (role Role) Name() string {
	switch role {
	case SiteAdmin, Manager:
		return "editor"
	case SubEditor:
		return "subeditor"
	case Assistant:
		return "assistant"
	}
	return ""
}

func (role Role) Valid() bool {
	_, ok := stageRights[role]
	return ok
}

var stageRights = map[Role]map[int]Rights{
	SiteAdmin: {1: Write, 3: Write, 4: Write, 5: Write},
	Manager:   {1: Write, 3: Write, 4: Write, 5: Write},
	SubEditor: {1: Write, 3: Write, 4: Write, 5: Write},
	Assistant: {1: Comment, 3: Comment, 4: WriteTracked, 5: Comment},
}

// RightsFor returns the rights of an editor with the given role at the given workflow stage.
// A missing entry is an *UnconfiguredRoleError, never a default.
func RightsFor(role Role, stage int) (Rights, error) {
	if rights, ok := stageRights[role][stage]; ok {
		return rights, nil
	}
	return None, &UnconfiguredRoleError{Role: role, Stage: stage}
}

// ReviewMethod is chosen by the editor when a reviewer accepts a review request.
type ReviewMethod string

const (
	Open            ReviewMethod = "open"
	Anonymous       ReviewMethod = "anonymous"
	DoubleAnonymous ReviewMethod = "doubleanonymous"
)

// ParseReviewMethod accepts the OJS names and a few spellings of them.
func ParseReviewMethod(s string) (ReviewMethod, bool) {
	switch s {
	case "open", "1":
		return Open, true
	case "anonymous", "blind", "2":
		return Anonymous, true
	case "doubleanonymous", "double-anonymous", "double_anonymous", "doubleblind", "3":
		return DoubleAnonymous, true
	}
	return "", false
}

// Rights returns the rights a reviewer gets on the reviewed document. Open reviews are plain comments.
func (m ReviewMethod) Rights() Rights {
	if m == Open {
		return Comment
	}
	return Review
}
