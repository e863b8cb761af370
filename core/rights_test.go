package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRightsOrder(t *testing.T) {
	var ordered = []Rights{None, ReadWithoutComments, Read, Comment, Review, WriteTracked, Write}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, int(ordered[i-1]), int(ordered[i]))
	}
	for _, r := range ordered {
		assert.True(t, r.Valid())
		parsed, err := ParseRights(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
	assert.False(t, Rights(0).Valid())
	_, err := ParseRights("admin")
	assert.Error(t, err)
}

func TestRightsFor(t *testing.T) {
	var tests = []struct {
		role   Role
		stage  int
		rights Rights
	}{
		{SiteAdmin, 1, Write},
		{Manager, 3, Write},
		{SubEditor, 5, Write},
		{Assistant, 1, Comment},
		{Assistant, 3, Comment},
		{Assistant, 4, WriteTracked},
		{Assistant, 5, Comment},
	}
	for _, test := range tests {
		rights, err := RightsFor(test.role, test.stage)
		require.NoError(t, err)
		assert.Equal(t, test.rights, rights, "role %d stage %d", test.role, test.stage)
	}
}

func TestRightsForUnconfigured(t *testing.T) {
	for _, test := range []struct {
		role  Role
		stage int
	}{
		{Role(99), 1},
		{Manager, 2},
		{Assistant, 0},
	} {
		rights, err := RightsFor(test.role, test.stage)
		assert.Equal(t, None, rights)
		assert.True(t, errors.Is(err, ErrUnconfiguredRole))

		var roleErr *UnconfiguredRoleError
		require.True(t, errors.As(err, &roleErr))
		assert.Equal(t, test.role, roleErr.Role)
		assert.Equal(t, test.stage, roleErr.Stage)
	}
}

func TestRoleName(t *testing.T) {
	assert.Equal(t, "editor", Manager.Name())
	assert.Equal(t, "subeditor", SubEditor.Name())
	assert.Equal(t, "assistant", Assistant.Name())
	assert.Equal(t, "", Role(2).Name())
	assert.False(t, Role(2).Valid())
}

func TestReviewMethod(t *testing.T) {
	for input, want := range map[string]ReviewMethod{
		"open":             Open,
		"blind":            Anonymous,
		"anonymous":        Anonymous,
		"double-anonymous": DoubleAnonymous,
		"doubleanonymous":  DoubleAnonymous,
	} {
		got, ok := ParseReviewMethod(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got)
	}
	_, ok := ParseReviewMethod("public")
	assert.False(t, ok)

	assert.Equal(t, Comment, Open.Rights())
	assert.Equal(t, Review, Anonymous.Rights())
	assert.Equal(t, Review, DoubleAnonymous.Rights())
}

func TestRemoteError(t *testing.T) {
	var transient error = &RemoteError{Endpoint: "authorSubmit", Status: 503, Attempts: 11, Transient: true}
	assert.True(t, errors.Is(transient, ErrRemoteTerminal))
	assert.True(t, errors.Is(transient, ErrRemoteTransient))
	assert.Contains(t, transient.Error(), "11 attempt(s)")

	var terminal error = &RemoteError{Endpoint: "authorSubmit", Status: 403, Attempts: 1}
	assert.True(t, errors.Is(terminal, ErrRemoteTerminal))
	assert.False(t, errors.Is(terminal, ErrRemoteTransient))
}
