package dao

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/haierkeys/issue-note-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDao 每个测试使用独立的内存 SQLite
func newTestDao(t *testing.T) *Dao {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := NewDBEngineWithConfig(DatabaseConfig{
		Type:         "sqlite",
		Path:         fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	}, nil)
	require.NoError(t, err)
	require.NoError(t, EnsureSchema(db))
	// 再次执行保持幂等
	require.NoError(t, EnsureSchema(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return New(db, nil)
}

func newNote(container, owner string, public bool) *domain.Note {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Note{
		ID:           uuid.NewString(),
		ContainerKey: container,
		Title:        "T",
		OwnerID:      owner,
		IsPublic:     public,
		Status:       domain.NoteStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestNoteRepository_CRUDAndVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(newTestDao(t))

	created, err := repo.Create(ctx, newNote("PROJ-1", "U1", false))
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.Version)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deadline := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	created.Title = "T2"
	created.Deadline = &deadline
	updated, err := repo.Update(ctx, created, nil)
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, int64(2), updated.Version)
	require.NotNil(t, updated.Deadline)
	assert.True(t, updated.Deadline.Equal(deadline))

	// 清空截止时间
	updated.Deadline = nil
	stale := int64(1)
	_, err = repo.Update(ctx, updated, &stale)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	current := int64(2)
	cleared, err := repo.Update(ctx, updated, &current)
	require.NoError(t, err)
	assert.Nil(t, cleared.Deadline)
	assert.Equal(t, int64(3), cleared.Version)

	missing := newNote("PROJ-1", "U1", false)
	_, err = repo.Update(ctx, missing, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNoteRepository_Listing(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository(newTestDao(t))

	own, _ := repo.Create(ctx, newNote("PROJ-1", "U1", false))
	pub, _ := repo.Create(ctx, newNote("PROJ-1", "U2", true))
	priv, _ := repo.Create(ctx, newNote("PROJ-1", "U2", false))
	_, _ = repo.Create(ctx, newNote("PROJ-2", "U1", true))

	owned, err := repo.ListOwned(ctx, "PROJ-1", "U1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, own.ID, owned[0].ID)

	public, err := repo.ListPublic(ctx, "PROJ-1")
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, pub.ID, public[0].ID)

	byIDs, err := repo.ListByIDs(ctx, "PROJ-1", []string{priv.ID, "other"})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, priv.ID, byIDs[0].ID)

	empty, err := repo.ListByIDs(ctx, "PROJ-1", nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, repo.Ping(ctx))
}

func TestGrantRepository_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewGrantRepository(newTestDao(t))

	g, err := repo.Upsert(ctx, &domain.Grant{NoteID: "n1", GranteeID: "U2", Level: domain.GrantLevelRead, GrantedBy: "U1", GrantedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, domain.GrantLevelRead, g.Level)

	g2, err := repo.Upsert(ctx, &domain.Grant{NoteID: "n1", GranteeID: "U2", Level: domain.GrantLevelWrite, GrantedBy: "U1", GrantedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, domain.GrantLevelWrite, g2.Level)
	assert.Equal(t, g.ID, g2.ID)

	grants, err := repo.ListByNote(ctx, "n1")
	require.NoError(t, err)
	assert.Len(t, grants, 1)

	_, _ = repo.Upsert(ctx, &domain.Grant{NoteID: "n2", GranteeID: "U2", Level: domain.GrantLevelRead, GrantedBy: "U1", GrantedAt: time.Now()})
	ids, err := repo.ListNoteIDsByGrantee(ctx, "U2")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"n1", "n2"}, ids)

	none, err := repo.Get(ctx, "n1", "U9")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, repo.Delete(ctx, "n1", "U2"))
	require.NoError(t, repo.Delete(ctx, "n1", "U2"), "revoke is idempotent")
	gone, err := repo.Get(ctx, "n1", "U2")
	require.NoError(t, err)
	assert.Nil(t, gone)

	require.NoError(t, repo.DeleteByNote(ctx, "n2"))
	ids, _ = repo.ListNoteIDsByGrantee(ctx, "U2")
	assert.Empty(t, ids)
}

func TestNotificationRepository_RecordFailureKeepsRunes(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDao(t))
	now := time.Now().UTC()

	item := &domain.Notification{RecipientID: "U1", NoteID: "n1", Kind: domain.NotificationKindDeadlineReminder, Title: "a", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.CreateBatch(ctx, []*domain.Notification{item}))

	// 第 1024 字节落在 "é" 中间
	n, err := repo.RecordFailure(ctx, item.ID, "x"+strings.Repeat("é", 600), 0, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Attempts)
	assert.True(t, utf8.ValidString(n.LastError))
	assert.Len(t, n.LastError, maxLastErrorLen-1)

	assert.Equal(t, "ab", truncateUTF8("ab", 4))
	assert.Equal(t, "a", truncateUTF8("a界", 3))
	assert.Equal(t, "", truncateUTF8("界", 2))
}

func TestNotificationRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDao(t))
	now := time.Now().UTC()

	items := []*domain.Notification{
		{RecipientID: "U1", NoteID: "n1", Kind: domain.NotificationKindDeadlineReminder, Title: "a", CreatedAt: now, UpdatedAt: now},
		{RecipientID: "U2", NoteID: "n1", Kind: domain.NotificationKindDeadlineReminder, Title: "b", CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, repo.CreateBatch(ctx, items))
	require.NotEmpty(t, items[0].ID)

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	// 发送成功只发生一次
	require.NoError(t, repo.MarkSent(ctx, items[0].ID, now))
	require.NoError(t, repo.MarkSent(ctx, items[0].ID, now.Add(time.Hour)))
	sent, err := repo.GetByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, sent.IsSent())
	require.NotNil(t, sent.SentAt)
	assert.WithinDuration(t, now, *sent.SentAt, time.Second)

	// 失败两次后进入 failed
	n, err := repo.RecordFailure(ctx, items[1].ID, "smtp down", 2, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n.Attempts)
	assert.True(t, n.IsPending())
	n, err = repo.RecordFailure(ctx, items[1].ID, strings.Repeat("x", 2000), 2, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n.Attempts)
	assert.Equal(t, domain.NotificationStatusFailed, n.Status)
	assert.Len(t, n.LastError, maxLastErrorLen)

	pending, _ = repo.ListPending(ctx)
	assert.Empty(t, pending)

	inbox, err := repo.ListByRecipient(ctx, "U1", 1, 10)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
	count, err := repo.CountByRecipient(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.DeleteByNote(ctx, "n1"))
	all, _ := repo.ListByNote(ctx, "n1")
	assert.Empty(t, all)
}

func TestNotificationRepository_DeletePendingByRecipient(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(newTestDao(t))
	now := time.Now().UTC()

	items := []*domain.Notification{
		{RecipientID: "U2", NoteID: "n1", Kind: domain.NotificationKindDeadlineReminder, CreatedAt: now, UpdatedAt: now},
		{RecipientID: "U2", NoteID: "n1", Kind: domain.NotificationKindDeadlineReminder, CreatedAt: now, UpdatedAt: now},
		{RecipientID: "U3", NoteID: "n1", Kind: domain.NotificationKindDeadlineReminder, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, repo.CreateBatch(ctx, items))
	require.NoError(t, repo.MarkSent(ctx, items[0].ID, now))

	require.NoError(t, repo.DeletePendingByRecipient(ctx, "n1", "U2"))

	left, err := repo.ListByNote(ctx, "n1")
	require.NoError(t, err)
	require.Len(t, left, 2)
	for _, n := range left {
		if n.RecipientID == "U2" {
			assert.True(t, n.IsSent(), "sent history is kept")
		}
	}
}
