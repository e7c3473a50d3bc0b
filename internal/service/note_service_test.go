package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/dto"
	"github.com/haierkeys/issue-note-service/internal/events"
	"github.com/haierkeys/issue-note-service/pkg/code"
	"github.com/haierkeys/issue-note-service/pkg/optional"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteService_CreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		uid  string
		req  *dto.NoteCreateRequest
		want *code.Code
	}{
		{"blank title", "U1", &dto.NoteCreateRequest{ContainerKey: "PROJ-1", Title: "   "}, code.ErrorNoteTitleEmpty},
		{"missing container", "U1", &dto.NoteCreateRequest{Title: "T"}, code.ErrorContainerKeyEmpty},
		{"anonymous", "", &dto.NoteCreateRequest{ContainerKey: "PROJ-1", Title: "T"}, code.ErrorNotUserAuthToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx, tt.uid, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	n, err := h.svc.Create(ctx, "U1", &dto.NoteCreateRequest{ContainerKey: " PROJ-1 ", Title: "  Fix login  "})
	require.NoError(t, err)
	assert.Equal(t, "Fix login", n.Title)
	assert.Equal(t, "PROJ-1", n.ContainerKey)
	assert.Equal(t, string(domain.NoteStatusOpen), n.Status)
	assert.Equal(t, int64(1), n.Version)
	assert.Equal(t, []events.EventType{events.NoteCreated}, h.pub.types())
}

func TestNoteService_CreateSurvivesReminderFailure(t *testing.T) {
	h := newHarness(t)
	h.notifs.failCreate = errors.New("disk full")
	h.pub.err = errors.New("broker down")

	n := h.create(t, "U1", h.at(2*time.Hour), false)

	_, err := h.notes.GetByID(context.Background(), n.ID)
	assert.NoError(t, err)
	pending, _ := h.notifs.ListPending(context.Background())
	assert.Empty(t, pending)
}

func TestNoteService_ReadDenialDoesNotLeakExistence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)

	_, err := h.svc.Get(ctx, "U2", &dto.NoteGetRequest{ID: n.ID})
	assert.ErrorIs(t, err, code.ErrorNotePermissionDenied)

	_, err = h.svc.Get(ctx, "U2", &dto.NoteGetRequest{ID: "missing"})
	assert.ErrorIs(t, err, code.ErrorNotePermissionDenied)

	got, err := h.svc.Get(ctx, "U1", &dto.NoteGetRequest{ID: n.ID})
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	pub := h.create(t, "U1", nil, true)
	_, err = h.svc.Get(ctx, "U9", &dto.NoteGetRequest{ID: pub.ID})
	assert.NoError(t, err, "public note readable by anyone")
}

func TestNoteService_ReadGrantThenWriteGrant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)

	update := &dto.NoteUpdateRequest{ID: n.ID, Title: optional.Of("by U2")}

	h.share(t, "U1", n.ID, "U2", "read")
	_, err := h.svc.Update(ctx, "U2", update)
	assert.ErrorIs(t, err, code.ErrorNotePermissionDenied)

	got, err := h.svc.Get(ctx, "U2", &dto.NoteGetRequest{ID: n.ID})
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)

	h.share(t, "U1", n.ID, "U2", "write")
	updated, err := h.svc.Update(ctx, "U2", update)
	require.NoError(t, err)
	assert.Equal(t, "by U2", updated.Title)
	assert.Equal(t, "U1", updated.OwnerID, "owner never changes")

	grants, err := h.grants.ListByNote(ctx, n.ID)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, domain.GrantLevelWrite, grants[0].Level)

	// 写权限也不能删除
	err = h.svc.Delete(ctx, "U2", &dto.NoteDeleteRequest{ID: n.ID})
	assert.ErrorIs(t, err, code.ErrorNoteOwnerRequired)
}

func TestNoteService_UpdatePartial(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n, err := h.svc.Create(ctx, "U1", &dto.NoteCreateRequest{ContainerKey: "PROJ-1", Title: "T", Content: "body", IsPublic: true})
	require.NoError(t, err)

	updated, err := h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Status: optional.Of("completed")})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "body", updated.Content)
	assert.Equal(t, "T", updated.Title)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, int64(2), updated.Version)

	_, err = h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Title: optional.Of(" ")})
	assert.ErrorIs(t, err, code.ErrorNoteTitleEmpty)

	_, err = h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Status: optional.Of("closed")})
	assert.ErrorIs(t, err, code.ErrorInvalidNoteStatus)

	_, err = h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Content: optional.Of("x"), Version: optional.Of(int64(1))})
	assert.ErrorIs(t, err, code.ErrorNoteVersionConflict)

	ok, err := h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Content: optional.Of("x"), Version: optional.Of(int64(2))})
	require.NoError(t, err)
	assert.Equal(t, int64(3), ok.Version)
	assert.Equal(t, "x", ok.Content)
}

func TestNoteService_DeadlineRegeneration(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)
	h.share(t, "U1", n.ID, "U2", "read")
	h.share(t, "U1", n.ID, "U3", "write")

	_, err := h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Deadline: optional.Of(h.at(2 * time.Hour))})
	require.NoError(t, err)

	first, _ := h.notifs.ListByNote(ctx, n.ID)
	require.Len(t, first, 3)
	recipients := []string{first[0].RecipientID, first[1].RecipientID, first[2].RecipientID}
	assert.Equal(t, []string{"U1", "U2", "U3"}, recipients)
	for _, item := range first {
		assert.False(t, item.IsSent())
		assert.Equal(t, "Note deadline: T", item.Title)
		assert.Contains(t, item.Message, "PROJ-1")
	}

	_, err = h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Deadline: optional.Of(h.at(5 * time.Hour))})
	require.NoError(t, err)
	second, _ := h.notifs.ListByNote(ctx, n.ID)
	require.Len(t, second, 3)
	oldIDs := map[string]bool{first[0].ID: true, first[1].ID: true, first[2].ID: true}
	for _, item := range second {
		assert.False(t, oldIDs[item.ID], "reminders are replaced, not patched")
	}

	cleared, err := h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Deadline: optional.Null[time.Time]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.Deadline)
	left, _ := h.notifs.ListByNote(ctx, n.ID)
	assert.Empty(t, left)

	// 未提供 deadline 时不触碰提醒
	_, err = h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Deadline: optional.Of(h.at(time.Hour))})
	require.NoError(t, err)
	_, err = h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Title: optional.Of("T2")})
	require.NoError(t, err)
	kept, _ := h.notifs.ListByNote(ctx, n.ID)
	assert.Len(t, kept, 3)
}

func TestNoteService_PastDeadlineNeverNotifies(t *testing.T) {
	h := newHarness(t)
	n := h.create(t, "U1", h.at(-time.Hour), false)
	items, _ := h.notifs.ListByNote(context.Background(), n.ID)
	assert.Empty(t, items)

	n2 := h.create(t, "U1", h.at(0), false)
	items, _ = h.notifs.ListByNote(context.Background(), n2.ID)
	assert.Empty(t, items, "deadline must be strictly in the future")
}

func TestNoteService_DeleteCascades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", h.at(2*time.Hour), false)
	h.share(t, "U1", n.ID, "U2", "write")
	_, err := h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Deadline: optional.Of(h.at(time.Hour))})
	require.NoError(t, err)

	err = h.svc.Delete(ctx, "U1", &dto.NoteDeleteRequest{ID: n.ID})
	require.NoError(t, err)

	ok, err := h.access.CanAccess(ctx, n.ID, "U2", domain.GrantLevelRead)
	require.NoError(t, err)
	assert.False(t, ok)
	grants, _ := h.grants.ListByNote(ctx, n.ID)
	assert.Empty(t, grants)

	due, err := h.notifications.DuePending(ctx)
	require.NoError(t, err)
	for _, d := range due {
		assert.NotEqual(t, n.ID, d.Note.ID)
	}

	err = h.svc.Delete(ctx, "U1", &dto.NoteDeleteRequest{ID: n.ID})
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
}

func TestNoteService_DeleteContinuesWhenReminderCleanupFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)
	h.share(t, "U1", n.ID, "U2", "read")
	h.notifs.failDelete = errors.New("timeout")

	require.NoError(t, h.svc.Delete(ctx, "U1", &dto.NoteDeleteRequest{ID: n.ID}))
	_, err := h.notes.GetByID(ctx, n.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	grants, _ := h.grants.ListByNote(ctx, n.ID)
	assert.Empty(t, grants)
}

func TestNoteService_ShareValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)

	_, err := h.svc.Share(ctx, "U1", &dto.NoteShareRequest{ID: n.ID, GranteeID: "U2", Level: "admin"})
	assert.ErrorIs(t, err, code.ErrorInvalidGrantLevel)

	_, err = h.svc.Share(ctx, "U1", &dto.NoteShareRequest{ID: n.ID, GranteeID: "U1", Level: "read"})
	assert.ErrorIs(t, err, code.ErrorShareSelf)

	_, err = h.svc.Share(ctx, "U2", &dto.NoteShareRequest{ID: n.ID, GranteeID: "U3", Level: "read"})
	assert.ErrorIs(t, err, code.ErrorNoteOwnerRequired)

	_, err = h.svc.Share(ctx, "U1", &dto.NoteShareRequest{ID: "missing", GranteeID: "U3", Level: "read"})
	assert.ErrorIs(t, err, code.ErrorNoteNotFound)
}

func TestNoteService_ShareManyIsolatesFailures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)
	h.grants.failFor["U3invalid"] = errors.New("constraint violation")

	res, err := h.svc.ShareMany(ctx, "U1", &dto.NoteShareManyRequest{ID: n.ID, GranteeIDs: []string{"U2", "U3invalid"}, Level: "read"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Outcomes, 2)
	assert.True(t, res.Outcomes[0].Success)
	assert.False(t, res.Outcomes[1].Success)
	assert.NotEmpty(t, res.Outcomes[1].Error)

	g, err := h.grants.Get(ctx, n.ID, "U2")
	require.NoError(t, err)
	require.NotNil(t, g)

	_, err = h.svc.ShareMany(ctx, "U1", &dto.NoteShareManyRequest{ID: n.ID, Level: "read"})
	assert.ErrorIs(t, err, code.ErrorShareGranteeEmpty)

	_, err = h.svc.ShareMany(ctx, "U2", &dto.NoteShareManyRequest{ID: n.ID, GranteeIDs: []string{"U3"}, Level: "read"})
	assert.ErrorIs(t, err, code.ErrorNoteOwnerRequired)

	res, err = h.svc.ShareMany(ctx, "U1", &dto.NoteShareManyRequest{ID: n.ID, GranteeIDs: []string{"U4", "U4", "U1"}, Level: "write"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed, "sharing with the owner fails for that target only")
}

func TestNoteService_RevokeIdempotentAndClearsPendingReminders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)
	h.share(t, "U1", n.ID, "U2", "read")
	_, err := h.svc.Update(ctx, "U1", &dto.NoteUpdateRequest{ID: n.ID, Deadline: optional.Of(h.at(3 * time.Hour))})
	require.NoError(t, err)

	require.NoError(t, h.svc.Revoke(ctx, "U1", &dto.NoteRevokeRequest{ID: n.ID, GranteeID: "U2"}))
	require.NoError(t, h.svc.Revoke(ctx, "U1", &dto.NoteRevokeRequest{ID: n.ID, GranteeID: "U2"}))

	ok, err := h.access.CanAccess(ctx, n.ID, "U2", domain.GrantLevelRead)
	require.NoError(t, err)
	assert.False(t, ok)

	items, _ := h.notifs.ListByNote(ctx, n.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "U1", items[0].RecipientID)

	assert.ErrorIs(t, h.svc.Revoke(ctx, "U2", &dto.NoteRevokeRequest{ID: n.ID, GranteeID: "U1"}), code.ErrorNoteOwnerRequired)
	assert.ErrorIs(t, h.svc.Revoke(ctx, "U1", &dto.NoteRevokeRequest{ID: n.ID, GranteeID: " "}), code.ErrorShareGranteeEmpty)
}

func TestNoteService_Listing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	own := h.create(t, "U1", nil, false)
	sharedWithU1 := h.create(t, "U2", nil, false)
	h.share(t, "U2", sharedWithU1.ID, "U1", "read")
	hidden := h.create(t, "U2", nil, false)
	public := h.create(t, "U3", nil, true)

	list, err := h.svc.ListForContainer(ctx, "U1", &dto.NoteListRequest{ContainerKey: "PROJ-1"})
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{own.ID, sharedWithU1.ID}, ids)
	assert.NotContains(t, ids, hidden.ID)
	assert.NotContains(t, ids, public.ID)

	pubs, err := h.svc.ListPublicForContainer(ctx, &dto.NoteListRequest{ContainerKey: "PROJ-1"})
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, public.ID, pubs[0].ID)

	_, err = h.svc.ListForContainer(ctx, "U1", &dto.NoteListRequest{ContainerKey: ""})
	assert.ErrorIs(t, err, code.ErrorContainerKeyEmpty)
	_, err = h.svc.ListPublicForContainer(ctx, &dto.NoteListRequest{ContainerKey: " "})
	assert.ErrorIs(t, err, code.ErrorContainerKeyEmpty)
}

func TestNoteService_GrantsAndCandidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	n := h.create(t, "U1", nil, false)
	h.share(t, "U1", n.ID, "U2", "write")

	grants, err := h.svc.ListGrants(ctx, "U1", &dto.NoteGetRequest{ID: n.ID})
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "U2", grants[0].GranteeID)
	assert.Equal(t, "write", grants[0].Level)

	_, err = h.svc.ListGrants(ctx, "U2", &dto.NoteGetRequest{ID: n.ID})
	assert.ErrorIs(t, err, code.ErrorNoteOwnerRequired)

	candidates, err := h.svc.ShareCandidates(ctx, "U1", &dto.NoteGetRequest{ID: n.ID})
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, &dto.ShareCandidateDTO{UserID: "U2", Email: "u2@example.com", Level: "write"}, candidates[0])
	assert.Equal(t, "U3", candidates[1].UserID)
	assert.Empty(t, candidates[1].Level)
}
