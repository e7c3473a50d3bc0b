package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/issue-note-service/internal/domain"
	"github.com/haierkeys/issue-note-service/internal/dto"
	"github.com/haierkeys/issue-note-service/internal/events"
	"github.com/haierkeys/issue-note-service/internal/membership"
	"github.com/haierkeys/issue-note-service/pkg/code"
	"github.com/haierkeys/issue-note-service/pkg/convert"
	"github.com/haierkeys/issue-note-service/pkg/logger"
	"github.com/haierkeys/issue-note-service/pkg/optional"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NoteService 定义笔记业务服务接口，所有笔记写操作都经过这里
type NoteService interface {
	// Create 创建笔记
	Create(ctx context.Context, uid string, params *dto.NoteCreateRequest) (*dto.NoteDTO, error)

	// Get 获取单条笔记，需要读权限
	Get(ctx context.Context, uid string, params *dto.NoteGetRequest) (*dto.NoteDTO, error)

	// Update 局部更新，需要写权限
	Update(ctx context.Context, uid string, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error)

	// Delete 删除笔记及其授权和提醒，仅所有者
	Delete(ctx context.Context, uid string, params *dto.NoteDeleteRequest) error

	// Share 分享给单个用户，重复分享会覆盖级别
	Share(ctx context.Context, uid string, params *dto.NoteShareRequest) (*dto.GrantDTO, error)

	// ShareMany 批量分享，单个失败不影响其他用户
	ShareMany(ctx context.Context, uid string, params *dto.NoteShareManyRequest) (*domain.ShareManyResult, error)

	// Revoke 撤销分享，授权不存在时不报错
	Revoke(ctx context.Context, uid string, params *dto.NoteRevokeRequest) error

	// ListForContainer 容器下用户拥有或被授权的笔记
	ListForContainer(ctx context.Context, uid string, params *dto.NoteListRequest) ([]*dto.NoteDTO, error)

	// ListPublicForContainer 容器下的全部公开笔记
	ListPublicForContainer(ctx context.Context, params *dto.NoteListRequest) ([]*dto.NoteDTO, error)

	// ListGrants 笔记的当前授权，仅所有者
	ListGrants(ctx context.Context, uid string, params *dto.NoteGetRequest) ([]*dto.GrantDTO, error)

	// ShareCandidates 容器成员中可分享的用户，仅所有者
	ShareCandidates(ctx context.Context, uid string, params *dto.NoteGetRequest) ([]*dto.ShareCandidateDTO, error)
}

// noteService 实现 NoteService 接口
type noteService struct {
	noteRepo      domain.NoteRepository
	grantRepo     domain.GrantRepository
	access        AccessService
	notifications NotificationService
	directory     membership.Directory
	publisher     events.Publisher
	config        *ServiceConfig
	logger        *zap.Logger
	now           func() time.Time
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(
	noteRepo domain.NoteRepository,
	grantRepo domain.GrantRepository,
	access AccessService,
	notifications NotificationService,
	directory membership.Directory,
	publisher events.Publisher,
	config *ServiceConfig,
	lg *zap.Logger,
) NoteService {
	if lg == nil {
		lg = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &noteService{
		noteRepo:      noteRepo,
		grantRepo:     grantRepo,
		access:        access,
		notifications: notifications,
		directory:     directory,
		publisher:     publisher,
		config:        config,
		logger:        lg,
		now:           time.Now,
	}
}

// internalError 返回不带详情的错误码，原始错误只保留在错误链中供日志输出
func internalError(c *code.Code, err error) error {
	return pkgerrors.WithMessage(c, err.Error())
}

func dbError(err error) error {
	return internalError(code.ErrorDBQuery, err)
}

// publicMessage 可以返回给调用方的错误文本
func publicMessage(err error) string {
	var c *code.Code
	if errors.As(err, &c) {
		return c.Error()
	}
	return code.ErrorServerInternal.Msg()
}

// loadOwned 加载笔记并要求 uid 为所有者
func (s *noteService) loadOwned(ctx context.Context, uid, noteID string) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, code.ErrorNoteNotFound
		}
		return nil, dbError(err)
	}
	if !note.IsOwner(uid) {
		return nil, code.ErrorNoteOwnerRequired
	}
	return note, nil
}

// loadAccessible 加载笔记并检查权限；笔记不存在与无权限返回相同错误
func (s *noteService) loadAccessible(ctx context.Context, uid, noteID string, level domain.GrantLevel) (*domain.Note, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, code.ErrorNotePermissionDenied
		}
		return nil, dbError(err)
	}
	ok, err := s.access.Evaluate(ctx, note, uid, level)
	if err != nil {
		return nil, dbError(err)
	}
	if !ok {
		return nil, code.ErrorNotePermissionDenied
	}
	return note, nil
}

// publish 发布事件，失败只记录日志
func (s *noteService) publish(ctx context.Context, ev *events.NoteEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish note event failed",
			zap.String(logger.FieldAction, string(ev.Type)),
			zap.String(logger.FieldNoteID, ev.NoteID),
			zap.Error(err),
		)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

// Create 创建笔记；提醒生成失败不影响创建结果
func (s *noteService) Create(ctx context.Context, uid string, params *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	if uid == "" {
		return nil, code.ErrorNotUserAuthToken
	}
	if domain.IsBlank(params.ContainerKey) {
		return nil, code.ErrorContainerKeyEmpty
	}
	if domain.IsBlank(params.Title) {
		return nil, code.ErrorNoteTitleEmpty
	}

	now := s.now().UTC()
	created, err := s.noteRepo.Create(ctx, &domain.Note{
		ID:           uuid.NewString(),
		ContainerKey: strings.TrimSpace(params.ContainerKey),
		Title:        strings.TrimSpace(params.Title),
		Content:      params.Content,
		OwnerID:      uid,
		Deadline:     utcPtr(params.Deadline),
		IsPublic:     params.IsPublic,
		Status:       domain.NoteStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, dbError(err)
	}

	if created.HasDeadline() {
		if err := s.notifications.MaterializeForDeadline(ctx, created.ID, created.Deadline, created.ContainerKey); err != nil {
			s.logger.Warn("materialize reminders failed",
				zap.String(logger.FieldNoteID, created.ID),
				zap.String(logger.FieldMethod, "NoteService.Create"),
				zap.Error(err),
			)
		}
	}

	s.publish(ctx, events.NewNoteEvent(events.NoteCreated, created.ID, created.ContainerKey, uid, created.IsPublic))
	return noteToDTO(created), nil
}

// Get 获取单条笔记
func (s *noteService) Get(ctx context.Context, uid string, params *dto.NoteGetRequest) (*dto.NoteDTO, error) {
	note, err := s.loadAccessible(ctx, uid, params.ID, domain.GrantLevelRead)
	if err != nil {
		return nil, err
	}
	return noteToDTO(note), nil
}

// toPatch 将请求转换为领域补丁并校验
func toPatch(params *dto.NoteUpdateRequest) (domain.NotePatch, error) {
	patch := domain.NotePatch{
		Title:           params.Title,
		Content:         params.Content,
		IsPublic:        params.IsPublic,
		ExpectedVersion: params.Version,
	}
	if v, ok := params.Title.Get(); ok && domain.IsBlank(v) {
		return patch, code.ErrorNoteTitleEmpty
	}
	if v, ok := params.Status.Get(); ok {
		status := domain.NoteStatus(v)
		if !status.Valid() {
			return patch, code.ErrorInvalidNoteStatus
		}
		patch.Status = optional.Of(status)
	}
	if v, ok := params.Deadline.Get(); ok {
		patch.Deadline = optional.Of(utcPtr(v))
	}
	return patch, nil
}

// Update 局部更新；请求中出现 deadline 时总是重建提醒
func (s *noteService) Update(ctx context.Context, uid string, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	patch, err := toPatch(params)
	if err != nil {
		return nil, err
	}

	note, err := s.loadAccessible(ctx, uid, params.ID, domain.GrantLevelWrite)
	if err != nil {
		return nil, err
	}

	var expected *int64
	if v, ok := patch.ExpectedVersion.Get(); ok {
		if v != note.Version {
			return nil, code.ErrorNoteVersionConflict
		}
		expected = &v
	}

	note.Apply(patch)
	note.UpdatedAt = s.now().UTC()

	updated, err := s.noteRepo.Update(ctx, note, expected)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrVersionConflict):
			return nil, code.ErrorNoteVersionConflict
		case errors.Is(err, domain.ErrNotFound):
			return nil, code.ErrorNoteNotFound
		default:
			return nil, dbError(err)
		}
	}

	if patch.Deadline.Set {
		if err := s.notifications.ReplaceForDeadline(ctx, updated.ID, updated.Deadline, updated.ContainerKey); err != nil {
			s.logger.Warn("replace reminders failed",
				zap.String(logger.FieldNoteID, updated.ID),
				zap.String(logger.FieldMethod, "NoteService.Update"),
				zap.Error(err),
			)
		}
	}

	s.publish(ctx, events.NewNoteEvent(events.NoteUpdated, updated.ID, updated.ContainerKey, uid, updated.IsPublic))
	return noteToDTO(updated), nil
}

// Delete 依次删除提醒、授权、笔记；提醒清理失败只记录日志
func (s *noteService) Delete(ctx context.Context, uid string, params *dto.NoteDeleteRequest) error {
	note, err := s.loadOwned(ctx, uid, params.ID)
	if err != nil {
		return err
	}

	if err := s.notifications.DeleteForNote(ctx, note.ID); err != nil {
		s.logger.Warn("delete reminders failed",
			zap.String(logger.FieldNoteID, note.ID),
			zap.String(logger.FieldMethod, "NoteService.Delete"),
			zap.Error(err),
		)
	}
	if err := s.grantRepo.DeleteByNote(ctx, note.ID); err != nil {
		return dbError(err)
	}
	if err := s.noteRepo.Delete(ctx, note.ID); err != nil {
		return dbError(err)
	}

	s.publish(ctx, events.NewNoteEvent(events.NoteDeleted, note.ID, note.ContainerKey, uid, note.IsPublic))
	return nil
}

// grant 为单个用户创建或覆盖授权，调用方已确认所有者身份
func (s *noteService) grant(ctx context.Context, note *domain.Note, uid, granteeID string, level domain.GrantLevel) (*domain.Grant, error) {
	granteeID = strings.TrimSpace(granteeID)
	if granteeID == "" {
		return nil, code.ErrorShareGranteeEmpty
	}
	if granteeID == note.OwnerID {
		return nil, code.ErrorShareSelf
	}
	g, err := s.grantRepo.Upsert(ctx, &domain.Grant{
		NoteID:    note.ID,
		GranteeID: granteeID,
		Level:     level,
		GrantedBy: uid,
		GrantedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, dbError(err)
	}

	s.publish(ctx, events.NewNoteEvent(events.NoteShared, note.ID, note.ContainerKey, uid, note.IsPublic).
		With("grantee", granteeID).With("level", string(level)))
	return g, nil
}

// Share 分享笔记
func (s *noteService) Share(ctx context.Context, uid string, params *dto.NoteShareRequest) (*dto.GrantDTO, error) {
	level := domain.GrantLevel(params.Level)
	if !level.Valid() {
		return nil, code.ErrorInvalidGrantLevel
	}
	note, err := s.loadOwned(ctx, uid, params.ID)
	if err != nil {
		return nil, err
	}
	g, err := s.grant(ctx, note, uid, params.GranteeID, level)
	if err != nil {
		return nil, err
	}
	return grantToDTO(g), nil
}

// ShareMany 批量分享；只有参数错误或所有者校验失败才返回错误
func (s *noteService) ShareMany(ctx context.Context, uid string, params *dto.NoteShareManyRequest) (*domain.ShareManyResult, error) {
	level := domain.GrantLevel(params.Level)
	if !level.Valid() {
		return nil, code.ErrorInvalidGrantLevel
	}

	grantees := make([]string, 0, len(params.GranteeIDs))
	seen := make(map[string]struct{}, len(params.GranteeIDs))
	for _, id := range params.GranteeIDs {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		grantees = append(grantees, id)
	}
	if len(grantees) == 0 {
		return nil, code.ErrorShareGranteeEmpty
	}

	note, err := s.loadOwned(ctx, uid, params.ID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]*domain.ShareOutcome, len(grantees))
	var g errgroup.Group
	g.SetLimit(s.config.shareConcurrency())
	for i, granteeID := range grantees {
		g.Go(func() error {
			outcome := &domain.ShareOutcome{GranteeID: granteeID, Success: true}
			if _, err := s.grant(ctx, note, uid, granteeID, level); err != nil {
				outcome.Success = false
				outcome.Error = publicMessage(err)
				s.logger.Warn("share failed",
					zap.String(logger.FieldNoteID, note.ID),
					zap.String(logger.FieldGrantee, granteeID),
					zap.Error(err),
				)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.ShareManyResult{Total: len(outcomes), Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	return result, nil
}

// Revoke 撤销分享，同时清理该用户尚未发送的提醒
func (s *noteService) Revoke(ctx context.Context, uid string, params *dto.NoteRevokeRequest) error {
	granteeID := strings.TrimSpace(params.GranteeID)
	if granteeID == "" {
		return code.ErrorShareGranteeEmpty
	}
	note, err := s.loadOwned(ctx, uid, params.ID)
	if err != nil {
		return err
	}
	if err := s.grantRepo.Delete(ctx, note.ID, granteeID); err != nil {
		return dbError(err)
	}

	if err := s.notifications.DeleteForRecipient(ctx, note.ID, granteeID); err != nil {
		s.logger.Warn("delete revoked reminders failed",
			zap.String(logger.FieldNoteID, note.ID),
			zap.String(logger.FieldGrantee, granteeID),
			zap.Error(err),
		)
	}

	s.publish(ctx, events.NewNoteEvent(events.NoteRevoked, note.ID, note.ContainerKey, uid, note.IsPublic).
		With("grantee", granteeID))
	return nil
}

// sortNotes 按更新时间倒序
func sortNotes(notes []*domain.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}

// ListForContainer 用户拥有的笔记与被授权笔记的并集
func (s *noteService) ListForContainer(ctx context.Context, uid string, params *dto.NoteListRequest) ([]*dto.NoteDTO, error) {
	if domain.IsBlank(params.ContainerKey) {
		return nil, code.ErrorContainerKeyEmpty
	}
	containerKey := strings.TrimSpace(params.ContainerKey)

	owned, err := s.noteRepo.ListOwned(ctx, containerKey, uid)
	if err != nil {
		return nil, dbError(err)
	}
	grantedIDs, err := s.grantRepo.ListNoteIDsByGrantee(ctx, uid)
	if err != nil {
		return nil, dbError(err)
	}
	granted, err := s.noteRepo.ListByIDs(ctx, containerKey, grantedIDs)
	if err != nil {
		return nil, dbError(err)
	}

	seen := make(map[string]struct{}, len(owned)+len(granted))
	notes := make([]*domain.Note, 0, len(owned)+len(granted))
	for _, n := range append(owned, granted...) {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		notes = append(notes, n)
	}
	sortNotes(notes)
	return notesToDTO(notes), nil
}

// ListPublicForContainer 公开笔记不做权限检查
func (s *noteService) ListPublicForContainer(ctx context.Context, params *dto.NoteListRequest) ([]*dto.NoteDTO, error) {
	if domain.IsBlank(params.ContainerKey) {
		return nil, code.ErrorContainerKeyEmpty
	}
	notes, err := s.noteRepo.ListPublic(ctx, strings.TrimSpace(params.ContainerKey))
	if err != nil {
		return nil, dbError(err)
	}
	sortNotes(notes)
	return notesToDTO(notes), nil
}

// ListGrants 笔记的授权列表
func (s *noteService) ListGrants(ctx context.Context, uid string, params *dto.NoteGetRequest) ([]*dto.GrantDTO, error) {
	note, err := s.loadOwned(ctx, uid, params.ID)
	if err != nil {
		return nil, err
	}
	grants, err := s.grantRepo.ListByNote(ctx, note.ID)
	if err != nil {
		return nil, dbError(err)
	}
	out := make([]*dto.GrantDTO, 0, len(grants))
	for _, g := range grants {
		out = append(out, grantToDTO(g))
	}
	return out, nil
}

// ShareCandidates 容器成员去掉所有者，并标注当前授权级别
func (s *noteService) ShareCandidates(ctx context.Context, uid string, params *dto.NoteGetRequest) ([]*dto.ShareCandidateDTO, error) {
	note, err := s.loadOwned(ctx, uid, params.ID)
	if err != nil {
		return nil, err
	}
	if s.directory == nil {
		return []*dto.ShareCandidateDTO{}, nil
	}

	members, err := s.directory.Members(ctx, note.ContainerKey)
	if err != nil {
		return nil, internalError(code.ErrorServerInternal, err)
	}
	grants, err := s.grantRepo.ListByNote(ctx, note.ID)
	if err != nil {
		return nil, dbError(err)
	}
	levels := make(map[string]domain.GrantLevel, len(grants))
	for _, g := range grants {
		levels[g.GranteeID] = g.Level
	}

	out := make([]*dto.ShareCandidateDTO, 0, len(members))
	for _, m := range members {
		if m.UserID == note.OwnerID {
			continue
		}
		c := &dto.ShareCandidateDTO{}
		if err := convert.StructAssign(m, c); err != nil {
			return nil, internalError(code.ErrorServerInternal, err)
		}
		c.Level = string(levels[m.UserID])
		out = append(out, c)
	}
	return out, nil
}
