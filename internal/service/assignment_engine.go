package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	pkgerrors "pfe-hub/backend/pkg/errors"
)

// 运行结果状态
const (
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
)

// ════════════════════════════════════════════════════════════
// RunAutomatic 自动分配
// ════════════════════════════════════════════════════════════
//
// 第一阶段：自拟选题。按申报提交顺序处理，选题已通过且未分配时直接分配给申报人（及其搭档）。
// 第二阶段：其余已通过且未分配的选题。候选志愿剔除已分配学生后按平均成绩降序稳定排序，取第一位。
//
// 每个选题单独一个事务；单个选题失败只记录在结果中，不影响其他选题。

func (s *assignmentService) RunAutomatic(ctx context.Context, callerID string) (*dto.AssignmentRunResponse, error) {
	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, assignmentRunLock, s.lockTTL)
		switch {
		case err != nil:
			// 锁服务不可用时继续执行，正确性由唯一约束保证
			s.logger.Warn("获取自动分配锁失败，继续执行", zap.Error(err))
		case !acquired:
			return nil, ErrAssignmentRunInProgress
		default:
			defer release()
		}
	}

	run := &dto.AssignmentRunResponse{
		Items:       []dto.AssignmentRunItem{},
		Assignments: []dto.AssignmentResponse{},
	}

	if err := s.runProposalPhase(ctx, callerID, run); err != nil {
		return nil, err
	}
	if err := s.runMeritPhase(ctx, callerID, run); err != nil {
		return nil, err
	}

	run.Status = RunStatusCompleted
	if run.Failed > 0 {
		run.Status = RunStatusPartial
	}

	s.logger.Info("自动分配完成",
		zap.String("caller", callerID),
		zap.String("status", run.Status),
		zap.Int("created", run.Created),
		zap.Int("failed", run.Failed),
		zap.Int("processed", len(run.Items)),
	)
	return run, nil
}

// ────────────────────── 第一阶段：自拟选题 ──────────────────────

func (s *assignmentService) runProposalPhase(ctx context.Context, callerID string, run *dto.AssignmentRunResponse) error {
	proposals, err := s.repo.Choice.ListProposals(ctx)
	if err != nil {
		s.logger.Error("查询自拟选题申报失败", zap.Error(err))
		return err
	}

	for i := range proposals {
		c := &proposals[i]
		unit := assignmentUnit{
			phase:     1,
			subjectID: c.SubjectID,
			studentID: c.StudentID,
			partnerID: c.PartnerID,
		}
		s.applyUnit(ctx, unit, callerID, run)
	}
	return nil
}

// ────────────────────── 第二阶段：按成绩排序 ──────────────────────

func (s *assignmentService) runMeritPhase(ctx context.Context, callerID string, run *dto.AssignmentRunResponse) error {
	subjects, err := s.repo.Subject.ListApprovedUnassigned(ctx)
	if err != nil {
		s.logger.Error("查询待分配选题失败", zap.Error(err))
		return err
	}

	for i := range subjects {
		subject := &subjects[i]

		choices, err := s.repo.Choice.ListBySubject(ctx, subject.SubjectID)
		if err != nil {
			s.recordFailure(run, 2, subject.SubjectID, "", err)
			continue
		}

		candidates, err := s.rankCandidates(ctx, choices)
		if err != nil {
			s.recordFailure(run, 2, subject.SubjectID, "", err)
			continue
		}
		if len(candidates) == 0 {
			run.Items = append(run.Items, dto.AssignmentRunItem{
				Phase:     2,
				SubjectID: subject.SubjectID,
				Outcome:   dto.OutcomeNoCandidate,
			})
			continue
		}

		best := candidates[0]
		unit := assignmentUnit{
			phase:     2,
			subjectID: subject.SubjectID,
			studentID: best.choice.StudentID,
			partnerID: best.choice.PartnerID,
		}
		s.applyUnit(ctx, unit, callerID, run)
	}
	return nil
}

// candidate 第二阶段的候选志愿
type candidate struct {
	choice  *model.Choice
	average *float64
}

// rankCandidates 剔除学生或搭档已分配的志愿，按平均成绩降序稳定排序
// 输入顺序（志愿序号 → 提交时间 → choice_id）决定同分者的先后；无成绩者排在最后
func (s *assignmentService) rankCandidates(ctx context.Context, choices []model.Choice) ([]candidate, error) {
	if len(choices) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(choices)*2)
	for i := range choices {
		ids = append(ids, choices[i].StudentID)
		if choices[i].PartnerID != nil {
			ids = append(ids, *choices[i].PartnerID)
		}
	}

	assignedIDs, err := s.repo.Assignment.AssignedStudentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	assigned := make(map[string]bool, len(assignedIDs))
	for _, id := range assignedIDs {
		assigned[id] = true
	}

	students, err := s.repo.Student.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	averages := make(map[string]*float64, len(students))
	for i := range students {
		averages[students[i].StudentID] = students[i].Average
	}

	candidates := make([]candidate, 0, len(choices))
	for i := range choices {
		c := &choices[i]
		if assigned[c.StudentID] {
			continue
		}
		if c.PartnerID != nil && assigned[*c.PartnerID] {
			continue
		}
		candidates = append(candidates, candidate{choice: c, average: averages[c.StudentID]})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return higherAverage(candidates[i].average, candidates[j].average)
	})
	return candidates, nil
}

// higherAverage a 是否严格排在 b 之前
func higherAverage(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a > *b
	}
}

// ────────────────────── 单选题事务 ──────────────────────

// assignmentUnit 一次待尝试的分配
type assignmentUnit struct {
	phase     int
	subjectID string
	studentID string
	partnerID *string
}

func (u assignmentUnit) studentIDs() []string {
	ids := []string{u.studentID}
	if u.partnerID != nil && *u.partnerID != "" {
		ids = append(ids, *u.partnerID)
	}
	return ids
}

// applyUnit 执行一次分配尝试并把结果写入 run
func (s *assignmentService) applyUnit(ctx context.Context, u assignmentUnit, callerID string, run *dto.AssignmentRunResponse) {
	outcome, created, err := s.assignUnit(ctx, u, callerID)
	item := dto.AssignmentRunItem{
		Phase:     u.phase,
		SubjectID: u.subjectID,
		StudentID: u.studentID,
		Outcome:   outcome,
	}

	switch {
	case err != nil && outcome == dto.OutcomeConflict:
		s.logger.Info("分配时发生并发冲突，已跳过",
			zap.String("subject_id", u.subjectID),
			zap.String("constraint", pkgerrors.ConstraintName(err)),
		)
		item.Reason = "并发写入冲突"
	case err != nil:
		s.recordFailure(run, u.phase, u.subjectID, u.studentID, err)
		return
	case created != nil:
		item.AssignmentID = created.AssignmentID
		run.Created++
		run.Assignments = append(run.Assignments, s.afterCreate(ctx, created))
	}

	run.Items = append(run.Items, item)
}

// assignUnit 在单个事务内锁定选题、复核占用情况并写入分配
// 返回的 outcome 总是有效；err 非空时 outcome 为 conflict 或 failed
func (s *assignmentService) assignUnit(ctx context.Context, u assignmentUnit, callerID string) (string, *model.Assignment, error) {
	outcome := dto.OutcomeAssigned
	var created *model.Assignment

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		subject, err := tx.Subject.GetForUpdate(ctx, u.subjectID)
		if err != nil {
			return err
		}

		switch subject.Status {
		case model.SubjectPending:
			outcome = dto.OutcomePending
			return nil
		case model.SubjectRejected:
			outcome = dto.OutcomeRejected
			return nil
		}

		if _, err := tx.Assignment.GetBySubject(ctx, subject.SubjectID); err == nil {
			outcome = dto.OutcomeAlreadyTaken
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		taken, err := tx.Assignment.AssignedStudentIDs(ctx, u.studentIDs())
		if err != nil {
			return err
		}
		if len(taken) > 0 {
			outcome = dto.OutcomeAlreadyTaken
			return nil
		}

		a := &model.Assignment{
			SubjectID:    subject.SubjectID,
			StudentID:    u.studentID,
			PartnerID:    u.partnerID,
			SupervisorID: subject.SupervisorID,
			AssignedAt:   s.now(),
		}
		a.StampCreated(callerID)
		if err := tx.Assignment.Create(ctx, a); err != nil {
			return err
		}
		created = a
		return nil
	})

	if err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return dto.OutcomeConflict, nil, err
		}
		return dto.OutcomeFailed, nil, err
	}
	return outcome, created, nil
}

// afterCreate 提交后重新加载完整分配并发送通知
func (s *assignmentService) afterCreate(ctx context.Context, a *model.Assignment) dto.AssignmentResponse {
	full, err := s.repo.Assignment.GetByID(ctx, a.AssignmentID)
	if err != nil {
		s.logger.Warn("重新加载分配失败", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
		full = a
	}

	s.logger.Info("分配已创建",
		zap.String("assignment_id", full.AssignmentID),
		zap.String("subject_id", full.SubjectID),
		zap.Strings("students", full.StudentIDs()),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyAssignment(ctx, full); err != nil {
			s.logger.Warn("发送分配通知失败", zap.String("assignment_id", full.AssignmentID), zap.Error(err))
		}
	}
	return toAssignmentResponse(full)
}

func (s *assignmentService) recordFailure(run *dto.AssignmentRunResponse, phase int, subjectID, studentID string, err error) {
	s.logger.Error("选题分配失败",
		zap.Int("phase", phase),
		zap.String("subject_id", subjectID),
		zap.String("student_id", studentID),
		zap.Error(err),
	)
	run.Failed++
	run.Items = append(run.Items, dto.AssignmentRunItem{
		Phase:     phase,
		SubjectID: subjectID,
		StudentID: studentID,
		Outcome:   dto.OutcomeFailed,
		Reason:    err.Error(),
	})
}
