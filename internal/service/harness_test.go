package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/haierkeys/issue-note-service/internal/dto"
	"github.com/haierkeys/issue-note-service/internal/events"
	"github.com/haierkeys/issue-note-service/internal/membership"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.NoteEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *events.NoteEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type harness struct {
	notes         *memNoteRepo
	grants        *memGrantRepo
	notifs        *memNotificationRepo
	clock         *fixedClock
	pub           *recordingPublisher
	config        *ServiceConfig
	access        AccessService
	notifications *notificationService
	svc           *noteService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		notes:  newMemNoteRepo(),
		grants: newMemGrantRepo(),
		notifs: newMemNotificationRepo(),
		clock:  &fixedClock{t: baseTime},
		pub:    &recordingPublisher{},
		config: DefaultServiceConfig(),
	}
	h.access = NewAccessService(h.notes, h.grants)
	h.notifications = NewNotificationService(h.notes, h.grants, h.notifs, h.config, nil).(*notificationService)
	h.notifications.now = h.clock.Now

	dir := membership.NewStaticDirectory(membership.StaticConfig{
		Containers: map[string][]string{"PROJ-1": {"U1", "U2", "U3", "U4"}},
		Emails:     map[string]string{"U2": "u2@example.com"},
	})
	h.svc = NewNoteService(h.notes, h.grants, h.access, h.notifications, dir, h.pub, h.config, nil).(*noteService)
	h.svc.now = h.clock.Now
	return h
}

func (h *harness) at(d time.Duration) *time.Time {
	t := h.clock.Now().Add(d)
	return &t
}

func (h *harness) create(t *testing.T, owner string, deadline *time.Time, public bool) *dto.NoteDTO {
	t.Helper()
	n, err := h.svc.Create(context.Background(), owner, &dto.NoteCreateRequest{
		ContainerKey: "PROJ-1",
		Title:        "T",
		Deadline:     deadline,
		IsPublic:     public,
	})
	require.NoError(t, err)
	return n
}

func (h *harness) share(t *testing.T, owner, noteID, grantee, level string) {
	t.Helper()
	_, err := h.svc.Share(context.Background(), owner, &dto.NoteShareRequest{ID: noteID, GranteeID: grantee, Level: level})
	require.NoError(t, err)
}
