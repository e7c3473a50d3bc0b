package service

import (
	"context"
	"errors"

	"github.com/haierkeys/issue-note-service/internal/domain"

	pkgerrors "github.com/pkg/errors"
)

// AccessService 访问控制判定，每次都读取最新的笔记与授权，不做缓存
type AccessService interface {
	// CanAccess 按笔记 ID 判定；笔记不存在时返回 false
	CanAccess(ctx context.Context, noteID, actorID string, level domain.GrantLevel) (bool, error)

	// Evaluate 对已加载的笔记判定
	Evaluate(ctx context.Context, note *domain.Note, actorID string, level domain.GrantLevel) (bool, error)
}

type accessService struct {
	noteRepo  domain.NoteRepository
	grantRepo domain.GrantRepository
}

// NewAccessService 创建 AccessService 实例
func NewAccessService(noteRepo domain.NoteRepository, grantRepo domain.GrantRepository) AccessService {
	return &accessService{noteRepo: noteRepo, grantRepo: grantRepo}
}

func (s *accessService) CanAccess(ctx context.Context, noteID, actorID string, level domain.GrantLevel) (bool, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "access: load note")
	}
	return s.Evaluate(ctx, note, actorID, level)
}

func (s *accessService) Evaluate(ctx context.Context, note *domain.Note, actorID string, level domain.GrantLevel) (bool, error) {
	if allowed, decided := domain.DecideWithoutGrant(note, actorID, level); decided {
		return allowed, nil
	}
	if actorID == "" {
		return false, nil
	}
	grant, err := s.grantRepo.Get(ctx, note.ID, actorID)
	if err != nil {
		return false, pkgerrors.Wrap(err, "access: load grant")
	}
	return domain.Decide(note, actorID, level, grant), nil
}
