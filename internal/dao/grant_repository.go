package dao

import (
	"context"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// grantRepository 实现 domain.GrantRepository 接口
type grantRepository struct {
	dao *Dao
}

// NewGrantRepository 创建 GrantRepository 实例
func NewGrantRepository(dao *Dao) domain.GrantRepository {
	return &grantRepository{dao: dao}
}

func (r *grantRepository) toDomain(m *model.NoteGrant) *domain.Grant {
	if m == nil {
		return nil
	}
	return &domain.Grant{
		ID:        m.ID,
		NoteID:    m.NoteID,
		GranteeID: m.GranteeID,
		Level:     domain.GrantLevel(m.Level),
		GrantedBy: m.GrantedBy,
		GrantedAt: m.GrantedAt,
	}
}

// Upsert 依赖 (note_id, grantee_id) 唯一索引覆盖已有授权
func (r *grantRepository) Upsert(ctx context.Context, grant *domain.Grant) (*domain.Grant, error) {
	id := grant.ID
	if id == "" {
		id = uuid.NewString()
	}
	m := &model.NoteGrant{
		ID:        id,
		NoteID:    grant.NoteID,
		GranteeID: grant.GranteeID,
		Level:     string(grant.Level),
		GrantedBy: grant.GrantedBy,
		GrantedAt: grant.GrantedAt,
	}

	err := r.dao.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "note_id"}, {Name: "grantee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"level", "granted_by", "granted_at"}),
	}).Create(m).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, grant.NoteID, grant.GranteeID)
}

func (r *grantRepository) Get(ctx context.Context, noteID, granteeID string) (*domain.Grant, error) {
	var ms []*model.NoteGrant
	err := r.dao.WithContext(ctx).
		Where("note_id = ? AND grantee_id = ?", noteID, granteeID).
		Limit(1).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return r.toDomain(ms[0]), nil
}

func (r *grantRepository) ListByNote(ctx context.Context, noteID string) ([]*domain.Grant, error) {
	var ms []*model.NoteGrant
	if err := r.dao.WithContext(ctx).Where("note_id = ?", noteID).Order("granted_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Grant, 0, len(ms))
	for _, m := range ms {
		out = append(out, r.toDomain(m))
	}
	return out, nil
}

func (r *grantRepository) ListNoteIDsByGrantee(ctx context.Context, granteeID string) ([]string, error) {
	var ids []string
	err := r.dao.WithContext(ctx).Model(&model.NoteGrant{}).
		Where("grantee_id = ?", granteeID).
		Pluck("note_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *grantRepository) Delete(ctx context.Context, noteID, granteeID string) error {
	return r.dao.WithContext(ctx).
		Where("note_id = ? AND grantee_id = ?", noteID, granteeID).
		Delete(&model.NoteGrant{}).Error
}

func (r *grantRepository) DeleteByNote(ctx context.Context, noteID string) error {
	return r.dao.WithContext(ctx).Where("note_id = ?", noteID).Delete(&model.NoteGrant{}).Error
}
