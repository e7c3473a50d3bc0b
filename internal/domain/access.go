package domain

// DecideWithoutGrant applies the ownership and visibility rules, in order:
// missing note denies, owner allows, public note allows read.
// decided is false when the answer depends on the actor's grant.
func DecideWithoutGrant(note *Note, actorID string, required GrantLevel) (allowed bool, decided bool) {
	if note == nil {
		return false, true
	}
	if note.IsOwner(actorID) {
		return true, true
	}
	if required == GrantLevelRead && note.IsPublic {
		return true, true
	}
	return false, false
}

// Decide 访问控制判定；grant 为 actor 在该笔记上的授权，没有授权时为 nil
func Decide(note *Note, actorID string, required GrantLevel, grant *Grant) bool {
	if allowed, decided := DecideWithoutGrant(note, actorID, required); decided {
		return allowed
	}
	if grant == nil || grant.NoteID != note.ID || grant.GranteeID != actorID {
		return false
	}
	return grant.Level.Satisfies(required)
}
