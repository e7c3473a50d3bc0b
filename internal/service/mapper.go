package service

import (
	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/dto"
	"github.com/haierkeys/issue-note-service/pkg/timex"
)

// noteToDTO 将领域模型转换为 DTO
func noteToDTO(note *domain.Note) *dto.NoteDTO {
	if note == nil {
		return nil
	}
	return &dto.NoteDTO{
		ID:           note.ID,
		ContainerKey: note.ContainerKey,
		Title:        note.Title,
		Content:      note.Content,
		OwnerID:      note.OwnerID,
		Deadline:     timex.Ptr(note.Deadline),
		IsPublic:     note.IsPublic,
		Status:       string(note.Status),
		Version:      note.Version,
		CreatedAt:    timex.Time(note.CreatedAt),
		UpdatedAt:    timex.Time(note.UpdatedAt),
	}
}

func notesToDTO(notes []*domain.Note) []*dto.NoteDTO {
	out := make([]*dto.NoteDTO, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteToDTO(n))
	}
	return out
}

func grantToDTO(g *domain.Grant) *dto.GrantDTO {
	if g == nil {
		return nil
	}
	return &dto.GrantDTO{
		NoteID:    g.NoteID,
		GranteeID: g.GranteeID,
		Level:     string(g.Level),
		GrantedBy: g.GrantedBy,
		GrantedAt: timex.Time(g.GrantedAt),
	}
}

func notificationToDTO(n *domain.Notification) *dto.NotificationDTO {
	if n == nil {
		return nil
	}
	return &dto.NotificationDTO{
		ID:        n.ID,
		NoteID:    n.NoteID,
		Kind:      string(n.Kind),
		Title:     n.Title,
		Message:   n.Message,
		Status:    string(n.Status),
		Attempts:  n.Attempts,
		CreatedAt: timex.Time(n.CreatedAt),
		SentAt:    timex.Ptr(n.SentAt),
	}
}
