package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/haierkeys/issue-note-service/internal/domain"

	"github.com/google/uuid"
)

type memNoteRepo struct {
	domain.NoteRepository
	mu    sync.Mutex
	notes map[string]*domain.Note
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: make(map[string]*domain.Note)}
}

func cloneNote(n *domain.Note) *domain.Note {
	c := *n
	if n.Deadline != nil {
		d := *n.Deadline
		c.Deadline = &d
	}
	return &c
}

func (r *memNoteRepo) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneNote(note)
	c.Version = 1
	r.notes[c.ID] = c
	return cloneNote(c), nil
}

func (r *memNoteRepo) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneNote(n), nil
}

func (r *memNoteRepo) Update(_ context.Context, note *domain.Note, expectedVersion *int64) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.notes[note.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if expectedVersion != nil && *expectedVersion != cur.Version {
		return nil, domain.ErrVersionConflict
	}
	c := cloneNote(note)
	c.OwnerID = cur.OwnerID
	c.CreatedAt = cur.CreatedAt
	c.Version = cur.Version + 1
	r.notes[c.ID] = c
	return cloneNote(c), nil
}

func (r *memNoteRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.notes, id)
	return nil
}

func (r *memNoteRepo) list(match func(*domain.Note) bool) []*domain.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Note, 0)
	for _, n := range r.notes {
		if match(n) {
			out = append(out, cloneNote(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memNoteRepo) ListOwned(_ context.Context, containerKey, ownerID string) ([]*domain.Note, error) {
	return r.list(func(n *domain.Note) bool { return n.ContainerKey == containerKey && n.OwnerID == ownerID }), nil
}

func (r *memNoteRepo) ListByIDs(_ context.Context, containerKey string, ids []string) ([]*domain.Note, error) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return r.list(func(n *domain.Note) bool { return n.ContainerKey == containerKey && set[n.ID] }), nil
}

func (r *memNoteRepo) ListPublic(_ context.Context, containerKey string) ([]*domain.Note, error) {
	return r.list(func(n *domain.Note) bool { return n.ContainerKey == containerKey && n.IsPublic }), nil
}

type memGrantRepo struct {
	domain.GrantRepository
	mu     sync.Mutex
	grants map[[2]string]*domain.Grant
	// failFor 对指定 grantee 的写入返回错误
	failFor map[string]error
}

func newMemGrantRepo() *memGrantRepo {
	return &memGrantRepo{grants: make(map[[2]string]*domain.Grant), failFor: make(map[string]error)}
}

func (r *memGrantRepo) Upsert(_ context.Context, g *domain.Grant) (*domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[g.GranteeID]; err != nil {
		return nil, err
	}
	key := [2]string{g.NoteID, g.GranteeID}
	c := *g
	if cur, ok := r.grants[key]; ok {
		c.ID = cur.ID
	} else {
		c.ID = uuid.NewString()
	}
	r.grants[key] = &c
	out := c
	return &out, nil
}

func (r *memGrantRepo) Get(_ context.Context, noteID, granteeID string) (*domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[[2]string{noteID, granteeID}]
	if !ok {
		return nil, nil
	}
	c := *g
	return &c, nil
}

func (r *memGrantRepo) ListByNote(_ context.Context, noteID string) ([]*domain.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Grant, 0)
	for k, g := range r.grants {
		if k[0] == noteID {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GranteeID < out[j].GranteeID })
	return out, nil
}

func (r *memGrantRepo) ListNoteIDsByGrantee(_ context.Context, granteeID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0)
	for k := range r.grants {
		if k[1] == granteeID {
			out = append(out, k[0])
		}
	}
	return out, nil
}

func (r *memGrantRepo) Delete(_ context.Context, noteID, granteeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.grants, [2]string{noteID, granteeID})
	return nil
}

func (r *memGrantRepo) DeleteByNote(_ context.Context, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.grants {
		if k[0] == noteID {
			delete(r.grants, k)
		}
	}
	return nil
}

type memNotificationRepo struct {
	domain.NotificationRepository
	mu    sync.Mutex
	items map[string]*domain.Notification
	// failCreate / failDelete 模拟存储故障
	failCreate error
	failDelete error
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{items: make(map[string]*domain.Notification)}
}

func (r *memNotificationRepo) CreateBatch(_ context.Context, items []*domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	for _, it := range items {
		it.ID = uuid.NewString()
		if it.Status == "" {
			it.Status = domain.NotificationStatusPending
		}
		c := *it
		r.items[c.ID] = &c
	}
	return nil
}

func (r *memNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *memNotificationRepo) filter(match func(*domain.Notification) bool) []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Notification, 0)
	for _, n := range r.items {
		if match(n) {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out
}

func (r *memNotificationRepo) ListByNote(_ context.Context, noteID string) ([]*domain.Notification, error) {
	return r.filter(func(n *domain.Notification) bool { return n.NoteID == noteID }), nil
}

func (r *memNotificationRepo) ListPending(_ context.Context) ([]*domain.Notification, error) {
	return r.filter(func(n *domain.Notification) bool { return n.IsPending() }), nil
}

func (r *memNotificationRepo) ListByRecipient(_ context.Context, recipientID string, page, pageSize int) ([]*domain.Notification, error) {
	all := r.filter(func(n *domain.Notification) bool { return n.RecipientID == recipientID })
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []*domain.Notification{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *memNotificationRepo) CountByRecipient(_ context.Context, recipientID string) (int64, error) {
	return int64(len(r.filter(func(n *domain.Notification) bool { return n.RecipientID == recipientID }))), nil
}

func (r *memNotificationRepo) MarkSent(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.items[id]; ok && n.IsPending() {
		n.Status = domain.NotificationStatusSent
		n.SentAt = &at
	}
	return nil
}

func (r *memNotificationRepo) RecordFailure(_ context.Context, id string, reason string, maxAttempts int, at time.Time) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if n.IsPending() {
		n.Attempts++
		n.LastError = reason
		n.UpdatedAt = at
		if maxAttempts > 0 && n.Attempts >= maxAttempts {
			n.Status = domain.NotificationStatusFailed
		}
	}
	c := *n
	return &c, nil
}

func (r *memNotificationRepo) DeleteByNote(_ context.Context, noteID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete != nil {
		return r.failDelete
	}
	for id, n := range r.items {
		if n.NoteID == noteID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *memNotificationRepo) DeletePendingByRecipient(_ context.Context, noteID, recipientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.items {
		if n.NoteID == noteID && n.RecipientID == recipientID && n.IsPending() {
			delete(r.items, id)
		}
	}
	return nil
}

// fixedClock 可调整的测试时钟
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}
