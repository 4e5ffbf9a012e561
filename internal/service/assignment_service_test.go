package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
)

// ── 测试替身 ──

type recordingNotifier struct {
	created   []*model.Assignment
	cancelled []*model.Assignment
	err       error
}

func (n *recordingNotifier) NotifyAssignment(_ context.Context, a *model.Assignment) error {
	n.created = append(n.created, a)
	return n.err
}

func (n *recordingNotifier) NotifyAssignmentCancelled(_ context.Context, a *model.Assignment) error {
	n.cancelled = append(n.cancelled, a)
	return n.err
}

type fakeLocker struct {
	acquired bool
	err      error
	calls    int
	released int
}

func (l *fakeLocker) TryLock(_ context.Context, name string, _ time.Duration) (func(), bool, error) {
	l.calls++
	if l.err != nil {
		return nil, false, l.err
	}
	if !l.acquired {
		return nil, false, nil
	}
	return func() { l.released++ }, true, nil
}

var testAssignedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func setupTestAssignmentService(locker RunLocker) (*assignmentService, *mockDB, *recordingNotifier) {
	db := newMockDB()
	notifier := &recordingNotifier{}
	svc := NewAssignmentService(db.repository(), notifier, locker, time.Minute, zap.NewNop()).(*assignmentService)
	svc.now = func() time.Time { return testAssignedAt }
	return svc, db, notifier
}

func itemFor(run *dto.AssignmentRunResponse, subjectID string) *dto.AssignmentRunItem {
	for i := range run.Items {
		if run.Items[i].SubjectID == subjectID {
			return &run.Items[i]
		}
	}
	return nil
}

// ════════════════════════════════════════════════════════════
// 端到端场景
// ════════════════════════════════════════════════════════════

func TestRunAutomatic_MeritPicksHigherAverage(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	teacher := db.addTeacher("t1", "Amine", "Haddad")
	db.addStudent("A", "Alice", "Martin", float64Ptr(3.2))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(3.8))
	db.addSubject("S1", "推荐系统", model.SubjectApproved, &teacher.TeacherID, false)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("B", "S1", 1, nil, false)

	run, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.Created)
	require.Len(t, run.Assignments, 1)

	a := db.assignmentFor("S1")
	require.NotNil(t, a)
	assert.Equal(t, "B", a.StudentID)
	require.NotNil(t, a.SupervisorID)
	assert.Equal(t, "t1", *a.SupervisorID)
	assert.True(t, a.AssignedAt.Equal(testAssignedAt))

	resp := run.Assignments[0]
	assert.Equal(t, "推荐系统", resp.SubjectTitle)
	assert.Equal(t, "Bilal Roux", resp.StudentName)
	assert.Equal(t, "Amine Haddad", resp.Supervisor)
}

func TestRunAutomatic_ProposalWinsInPhaseOne(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("C", "Chloé", "Petit", float64Ptr(2.1))
	db.addStudent("D", "Driss", "Blanc", float64Ptr(3.9))
	db.addSubject("S2", "学生自拟：无人机巡检", model.SubjectApproved, nil, true)
	db.addChoice("C", "S2", 1, nil, true)
	// 成绩更高的竞争志愿不影响自拟选题
	db.addChoice("D", "S2", 1, nil, false)

	run, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)

	a := db.assignmentFor("S2")
	require.NotNil(t, a)
	assert.Equal(t, "C", a.StudentID)
	assert.Nil(t, a.SupervisorID)

	item := itemFor(run, "S2")
	require.NotNil(t, item)
	assert.Equal(t, 1, item.Phase)
	assert.Equal(t, dto.OutcomeAssigned, item.Outcome)
	assert.Equal(t, unspecifiedSupervisor, run.Assignments[0].Supervisor)
}

func TestRunAutomatic_MixedRunThenRerun(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.2))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(3.8))
	db.addStudent("C", "Chloé", "Petit", nil)
	db.addSubject("S1", "推荐系统", model.SubjectApproved, nil, false)
	db.addSubject("S2", "知识图谱", model.SubjectApproved, nil, false)
	db.addSubject("S3", "自拟选题", model.SubjectPending, nil, true)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("B", "S1", 2, nil, false)
	db.addChoice("B", "S2", 1, nil, false)
	db.addChoice("A", "S2", 2, nil, false)
	db.addChoice("C", "S2", 3, nil, false)
	db.addChoice("C", "S3", 1, nil, true)

	run, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, run.Created)

	// 成绩优先于志愿序号；B 占用 S1 后 S2 落到 A
	require.NotNil(t, db.assignmentFor("S1"))
	assert.Equal(t, "B", db.assignmentFor("S1").StudentID)
	require.NotNil(t, db.assignmentFor("S2"))
	assert.Equal(t, "A", db.assignmentFor("S2").StudentID)
	assert.Nil(t, db.assignmentFor("S3"))

	item := itemFor(run, "S3")
	require.NotNil(t, item, "待审核的自拟选题应出现在结果中")
	assert.Equal(t, 1, item.Phase)
	assert.Equal(t, dto.OutcomePending, item.Outcome)

	second, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
}

func TestRunAutomatic_DeleteThenRerunAssignsRemainingCandidate(t *testing.T) {
	svc, db, notifier := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.2))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(3.8))
	db.addSubject("S1", "推荐系统", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)
	choiceB := db.addChoice("B", "S1", 1, nil, false)

	_, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)
	first := db.assignmentFor("S1")
	require.NotNil(t, first)
	require.Equal(t, "B", first.StudentID)

	require.NoError(t, svc.Delete(ctx, first.AssignmentID))
	assert.Nil(t, db.assignmentFor("S1"))
	require.Len(t, notifier.cancelled, 1)
	assert.Equal(t, "S1", notifier.cancelled[0].SubjectID)

	got, err := svc.FindByStudent(ctx, "B")
	require.NoError(t, err)
	assert.Nil(t, got, "删除后 B 应重新处于未分配状态")

	// B 撤回志愿后，A 的志愿仍在
	delete(db.choices, choiceB.ChoiceID)

	run, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)
	second := db.assignmentFor("S1")
	require.NotNil(t, second)
	assert.Equal(t, "A", second.StudentID)
}

func TestRunAutomatic_DeletedAssignmentReopensSubject(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.2))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(3.8))
	db.addSubject("S1", "推荐系统", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("B", "S1", 1, nil, false)

	_, err := svc.RunAutomatic(ctx, "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, db.assignmentFor("S1").AssignmentID))

	run, err := svc.RunAutomatic(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)
	assert.Equal(t, "B", db.assignmentFor("S1").StudentID)
}

// ════════════════════════════════════════════════════════════
// 不变量
// ════════════════════════════════════════════════════════════

func TestRunAutomatic_Idempotent(t *testing.T) {
	svc, db, notifier := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.2))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(3.8))
	db.addStudent("C", "Chloé", "Petit", nil)
	db.addSubject("S1", "推荐系统", model.SubjectApproved, nil, false)
	db.addSubject("S2", "自拟", model.SubjectApproved, nil, true)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("B", "S1", 1, nil, false)
	db.addChoice("C", "S2", 1, nil, true)

	first, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := svc.RunAutomatic(ctx, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, RunStatusCompleted, second.Status)
	assert.Len(t, db.assignments, 2)
	assert.Len(t, notifier.created, 2, "第二次运行不应再发通知")

	// 已分配的自拟选题在第二次运行中报告为已占用
	item := itemFor(second, "S2")
	require.NotNil(t, item)
	assert.Equal(t, dto.OutcomeAlreadyTaken, item.Outcome)
}

func TestRunAutomatic_StudentNeverAssignedTwice(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.9))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(2.5))
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addSubject("S2", "选题二", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("A", "S2", 2, nil, false)
	db.addChoice("B", "S2", 1, nil, false)

	run, err := svc.RunAutomatic(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, "A", db.assignmentFor("S1").StudentID)
	assert.Equal(t, "B", db.assignmentFor("S2").StudentID)
}

func TestRunAutomatic_ProposalInvolvingAssignedStudentIsSkipped(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", nil)
	db.addStudent("P", "Paul", "Girard", nil)
	db.addSubject("S1", "自拟一", model.SubjectApproved, nil, true)
	db.addSubject("S2", "自拟二", model.SubjectApproved, nil, true)
	db.addChoice("A", "S1", 1, strPtr("P"), true)
	// P 另以主申请人身份申报，但已作为搭档被分配
	db.addChoice("P", "S2", 1, nil, true)

	run, err := svc.RunAutomatic(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)

	a := db.assignmentFor("S1")
	require.NotNil(t, a)
	require.NotNil(t, a.PartnerID)
	assert.Equal(t, "P", *a.PartnerID)
	assert.Nil(t, db.assignmentFor("S2"))
	assert.Equal(t, dto.OutcomeAlreadyTaken, itemFor(run, "S2").Outcome)
}

func TestRunAutomatic_PendingAndRejectedProposals(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addStudent("A", "Alice", "Martin", nil)
	db.addStudent("B", "Bilal", "Roux", nil)
	db.addSubject("S1", "待审核自拟", model.SubjectPending, nil, true)
	db.addSubject("S2", "已驳回自拟", model.SubjectRejected, nil, true)
	db.addChoice("A", "S1", 1, nil, true)
	db.addChoice("B", "S2", 1, nil, true)

	run, err := svc.RunAutomatic(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, run.Created)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Empty(t, db.assignments)
	assert.Equal(t, dto.OutcomePending, itemFor(run, "S1").Outcome)
	assert.Equal(t, dto.OutcomeRejected, itemFor(run, "S2").Outcome)
}

// ════════════════════════════════════════════════════════════
// 第二阶段排序
// ════════════════════════════════════════════════════════════

func TestRunAutomatic_MissingAverageRanksLast(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)

	db.addStudent("A", "Alice", "Martin", nil)
	db.addStudent("B", "Bilal", "Roux", float64Ptr(1.5))
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("B", "S1", 2, nil, false)

	_, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "B", db.assignmentFor("S1").StudentID)
}

func TestRunAutomatic_TieKeepsPreferenceOrder(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(3.0))
	db.addStudent("C", "Chloé", "Petit", float64Ptr(3.0))
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 2, nil, false)
	db.addChoice("B", "S1", 1, nil, false)
	db.addChoice("C", "S1", 1, nil, false)

	_, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	// 同分时：志愿序号优先，其次提交时间
	assert.Equal(t, "B", db.assignmentFor("S1").StudentID)
}

func TestRunAutomatic_SkipsCandidateWithAssignedPartner(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.9))
	db.addStudent("P", "Paul", "Girard", float64Ptr(2.0))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(2.8))
	db.addSubject("S0", "自拟", model.SubjectApproved, nil, true)
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addChoice("P", "S0", 1, nil, true)
	db.addChoice("A", "S1", 1, strPtr("P"), false)
	db.addChoice("B", "S1", 1, nil, false)

	run, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, run.Created)
	assert.Equal(t, "P", db.assignmentFor("S0").StudentID)
	assert.Equal(t, "B", db.assignmentFor("S1").StudentID)
}

func TestRunAutomatic_NoCandidate(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addSubject("S0", "自拟", model.SubjectApproved, nil, true)
	db.addSubject("S1", "无人选择", model.SubjectApproved, nil, false)
	db.addSubject("S2", "仅已分配学生选择", model.SubjectApproved, nil, false)
	db.addChoice("A", "S0", 1, nil, true)
	db.addChoice("A", "S2", 1, nil, false)

	run, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, dto.OutcomeNoCandidate, itemFor(run, "S1").Outcome)
	assert.Equal(t, dto.OutcomeNoCandidate, itemFor(run, "S2").Outcome)
	assert.Equal(t, RunStatusCompleted, run.Status)
}

// ════════════════════════════════════════════════════════════
// 失败隔离
// ════════════════════════════════════════════════════════════

func TestRunAutomatic_FailureIsIsolatedPerSubject(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(2.0))
	db.addSubject("S1", "写入失败", model.SubjectApproved, nil, false)
	db.addSubject("S2", "正常", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)
	db.addChoice("B", "S2", 1, nil, false)
	db.assignmentErrs["S1"] = errInjected

	run, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, RunStatusPartial, run.Status)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.Created)

	failed := itemFor(run, "S1")
	require.NotNil(t, failed)
	assert.Equal(t, dto.OutcomeFailed, failed.Outcome)
	assert.Contains(t, failed.Reason, errInjected.Error())
	assert.NotNil(t, db.assignmentFor("S2"))
}

func TestRunAutomatic_UniqueViolationReportedAsConflict(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addSubject("S1", "并发写入", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)
	db.assignmentErrs["S1"] = uniqueViolation("assignments_subject_id_key")

	run, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 0, run.Failed)
	assert.Equal(t, dto.OutcomeConflict, itemFor(run, "S1").Outcome)
}

func TestRunAutomatic_NotifierErrorDoesNotFailRun(t *testing.T) {
	svc, db, notifier := setupTestAssignmentService(nil)
	notifier.err = errors.New("smtp down")

	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)

	run, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)
	require.Len(t, notifier.created, 1)
	assert.Equal(t, "Alice Martin", notifier.created[0].Student.FullName())
}

// ════════════════════════════════════════════════════════════
// 运行锁
// ════════════════════════════════════════════════════════════

func TestRunAutomatic_LockHeldElsewhere(t *testing.T) {
	locker := &fakeLocker{acquired: false}
	svc, db, _ := setupTestAssignmentService(locker)
	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)

	_, err := svc.RunAutomatic(context.Background(), "")
	assert.ErrorIs(t, err, ErrAssignmentRunInProgress)
	assert.Empty(t, db.assignments)
}

func TestRunAutomatic_LockReleasedAfterRun(t *testing.T) {
	locker := &fakeLocker{acquired: true}
	svc, _, _ := setupTestAssignmentService(locker)

	_, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, locker.calls)
	assert.Equal(t, 1, locker.released)
}

func TestRunAutomatic_LockErrorFallsBackToConstraints(t *testing.T) {
	locker := &fakeLocker{err: errors.New("redis unavailable")}
	svc, db, _ := setupTestAssignmentService(locker)
	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addSubject("S1", "选题一", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)

	run, err := svc.RunAutomatic(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, run.Created)
}

// ════════════════════════════════════════════════════════════
// 删除与查询
// ════════════════════════════════════════════════════════════

func TestAssignmentService_Delete_NotFound(t *testing.T) {
	svc, _, notifier := setupTestAssignmentService(nil)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
	assert.Empty(t, notifier.cancelled)
}

func TestAssignmentService_QueriesAndCounts(t *testing.T) {
	svc, db, _ := setupTestAssignmentService(nil)
	ctx := context.Background()

	db.addTeacher("t1", "Amine", "Haddad")
	db.addStudent("A", "Alice", "Martin", float64Ptr(3.0))
	db.addStudent("P", "Paul", "Girard", float64Ptr(2.0))
	db.addSubject("S1", "选题一", model.SubjectApproved, strPtr("t1"), false)
	db.addChoice("A", "S1", 1, strPtr("P"), false)

	_, err := svc.RunAutomatic(ctx, "")
	require.NoError(t, err)

	byPartner, err := svc.FindByStudent(ctx, "P")
	require.NoError(t, err)
	require.NotNil(t, byPartner)
	require.NotNil(t, byPartner.PartnerName)
	assert.Equal(t, "Paul Girard", *byPartner.PartnerName)

	got, err := svc.GetByID(ctx, byPartner.ID)
	require.NoError(t, err)
	assert.Equal(t, "S1", got.SubjectID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	students, err := svc.CountStudentsBySupervisor(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, students)

	subjects, err := svc.CountSubjectsBySupervisor(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, subjects)

	_, err = svc.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}
