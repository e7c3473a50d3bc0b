package dao

import (
	"context"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/model"

	"gorm.io/gorm"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

func (r *noteRepository) toDomain(m *model.Note) *domain.Note {
	if m == nil {
		return nil
	}
	return &domain.Note{
		ID:           m.ID,
		ContainerKey: m.ContainerKey,
		Title:        m.Title,
		Content:      m.Content,
		OwnerID:      m.OwnerID,
		Deadline:     m.Deadline,
		IsPublic:     m.IsPublic,
		Status:       domain.NoteStatus(m.Status),
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (r *noteRepository) toModel(d *domain.Note) *model.Note {
	if d == nil {
		return nil
	}
	return &model.Note{
		ID:           d.ID,
		ContainerKey: d.ContainerKey,
		Title:        d.Title,
		Content:      d.Content,
		OwnerID:      d.OwnerID,
		Deadline:     d.Deadline,
		IsPublic:     d.IsPublic,
		Status:       string(d.Status),
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func (r *noteRepository) toDomainList(ms []*model.Note) []*domain.Note {
	out := make([]*domain.Note, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.toDomain(m))
	}
	return out
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) (*domain.Note, error) {
	m := r.toModel(note)
	if m.Version == 0 {
		m.Version = 1
	}
	if err := r.dao.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(m), nil
}

func (r *noteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	var m model.Note
	if err := r.dao.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return r.toDomain(&m), nil
}

// Update 写入全部可变字段；deadline 通过 map 更新，以便清空为 NULL
func (r *noteRepository) Update(ctx context.Context, note *domain.Note, expectedVersion *int64) (*domain.Note, error) {
	tx := r.dao.WithContext(ctx).Model(&model.Note{}).Where("id = ?", note.ID)
	if expectedVersion != nil {
		tx = tx.Where("version = ?", *expectedVersion)
	}

	result := tx.Updates(map[string]interface{}{
		"title":      note.Title,
		"content":    note.Content,
		"deadline":   note.Deadline,
		"is_public":  note.IsPublic,
		"status":     string(note.Status),
		"updated_at": note.UpdatedAt,
		"version":    gorm.Expr("version + 1"),
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, note.ID); err != nil {
			return nil, err
		}
		return nil, domain.ErrVersionConflict
	}
	return r.GetByID(ctx, note.ID)
}

func (r *noteRepository) Delete(ctx context.Context, id string) error {
	return r.dao.WithContext(ctx).Where("id = ?", id).Delete(&model.Note{}).Error
}

func (r *noteRepository) ListOwned(ctx context.Context, containerKey, ownerID string) ([]*domain.Note, error) {
	var ms []*model.Note
	err := r.dao.WithContext(ctx).
		Where("container_key = ? AND owner_id = ?", containerKey, ownerID).
		Order("updated_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

func (r *noteRepository) ListByIDs(ctx context.Context, containerKey string, ids []string) ([]*domain.Note, error) {
	if len(ids) == 0 {
		return []*domain.Note{}, nil
	}
	var ms []*model.Note
	err := r.dao.WithContext(ctx).
		Where("container_key = ? AND id IN ?", containerKey, ids).
		Order("updated_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

func (r *noteRepository) ListPublic(ctx context.Context, containerKey string) ([]*domain.Note, error) {
	var ms []*model.Note
	err := r.dao.WithContext(ctx).
		Where("container_key = ? AND is_public = ?", containerKey, true).
		Order("updated_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toDomainList(ms), nil
}

func (r *noteRepository) Ping(ctx context.Context) error {
	return r.dao.Ping(ctx)
}
