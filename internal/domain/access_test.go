package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func genLevel() gopter.Gen {
	return gen.OneConstOf(GrantLevelRead, GrantLevelWrite)
}

func genUser() gopter.Gen {
	return gen.OneConstOf("U1", "U2", "U3", "U4")
}

// TestDecide_Properties checks the access table over random notes, actors and grants.
func TestDecide_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("owner always has read and write", prop.ForAll(
		func(owner string, public bool, grantLevel GrantLevel) bool {
			note := &Note{ID: "n", OwnerID: owner, IsPublic: public}
			grant := &Grant{NoteID: "n", GranteeID: owner, Level: grantLevel}
			return Decide(note, owner, GrantLevelRead, nil) &&
				Decide(note, owner, GrantLevelWrite, nil) &&
				Decide(note, owner, GrantLevelWrite, grant)
		},
		genUser(), gen.Bool(), genLevel(),
	))

	properties.Property("public note is readable by anyone, writable only with write grant", prop.ForAll(
		func(actor string, hasGrant bool, level GrantLevel) bool {
			note := &Note{ID: "n", OwnerID: "OWNER", IsPublic: true}
			var grant *Grant
			if hasGrant {
				grant = &Grant{NoteID: "n", GranteeID: actor, Level: level}
			}
			canWrite := Decide(note, actor, GrantLevelWrite, grant)
			return Decide(note, actor, GrantLevelRead, grant) &&
				canWrite == (hasGrant && level == GrantLevelWrite)
		},
		genUser(), gen.Bool(), genLevel(),
	))

	properties.Property("private note without grant denies non-owner", prop.ForAll(
		func(actor string, required GrantLevel) bool {
			note := &Note{ID: "n", OwnerID: "OWNER", IsPublic: false}
			return !Decide(note, actor, required, nil)
		},
		genUser(), genLevel(),
	))

	properties.Property("any grant satisfies read on private note", prop.ForAll(
		func(actor string, level GrantLevel) bool {
			note := &Note{ID: "n", OwnerID: "OWNER"}
			return Decide(note, actor, GrantLevelRead, &Grant{NoteID: "n", GranteeID: actor, Level: level})
		},
		genUser(), genLevel(),
	))

	properties.Property("missing note always denies", prop.ForAll(
		func(actor string, required GrantLevel) bool {
			return !Decide(nil, actor, required, &Grant{NoteID: "n", GranteeID: actor, Level: GrantLevelWrite})
		},
		genUser(), genLevel(),
	))

	properties.TestingRun(t)
}

func TestDecide_Table(t *testing.T) {
	note := &Note{ID: "n1", OwnerID: "U1"}

	tests := []struct {
		name     string
		actor    string
		required GrantLevel
		grant    *Grant
		want     bool
	}{
		{"owner write", "U1", GrantLevelWrite, nil, true},
		{"stranger read", "U2", GrantLevelRead, nil, false},
		{"read grant read", "U2", GrantLevelRead, &Grant{NoteID: "n1", GranteeID: "U2", Level: GrantLevelRead}, true},
		{"read grant write", "U2", GrantLevelWrite, &Grant{NoteID: "n1", GranteeID: "U2", Level: GrantLevelRead}, false},
		{"write grant write", "U2", GrantLevelWrite, &Grant{NoteID: "n1", GranteeID: "U2", Level: GrantLevelWrite}, true},
		{"grant for another note", "U2", GrantLevelRead, &Grant{NoteID: "n2", GranteeID: "U2", Level: GrantLevelWrite}, false},
		{"grant for another user", "U3", GrantLevelRead, &Grant{NoteID: "n1", GranteeID: "U2", Level: GrantLevelWrite}, false},
		{"empty actor", "", GrantLevelRead, nil, false},
		{"unknown level", "U2", GrantLevel("admin"), &Grant{NoteID: "n1", GranteeID: "U2", Level: GrantLevelWrite}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(note, tt.actor, tt.required, tt.grant))
		})
	}
}

func TestNote_Apply(t *testing.T) {
	note := &Note{Title: "old", Content: "c", IsPublic: true, Status: NoteStatusOpen}
	var patch NotePatch
	patch.Title.Set, patch.Title.Value = true, "  new  "
	patch.Deadline.Set = true

	note.Apply(patch)

	assert.Equal(t, "new", note.Title)
	assert.Equal(t, "c", note.Content)
	assert.True(t, note.IsPublic)
	assert.Nil(t, note.Deadline)
	assert.Equal(t, NoteStatusOpen, note.Status)
	assert.True(t, NoteStatusCompleted.Valid())
	assert.False(t, NoteStatus("closed").Valid())
}
