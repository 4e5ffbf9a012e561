package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
)

func setupTestSubjectService() (SubjectService, *mockDB) {
	db := newMockDB()
	return NewSubjectService(db.repository(), zap.NewNop()), db
}

// ── Create ──

func TestSubjectService_Create_TeacherIsSupervisor(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addTeacher("t1", "Amine", "Haddad")
	db.addTeacher("t2", "Sara", "Benali")

	resp, err := svc.Create(context.Background(), &dto.CreateSubjectRequest{
		Title:        "联邦学习平台",
		Technologies: []string{" Go ", "", "Kafka"},
		SupervisorID: strPtr("t2"),
	}, "t1", model.RoleTeacher)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Supervisor == nil || resp.Supervisor.ID != "t1" {
		t.Errorf("教师发布的选题应归属本人，实际 %+v", resp.Supervisor)
	}
	if resp.Status != string(model.SubjectPending) || resp.StatusLabel != "待审核" {
		t.Errorf("新选题应为待审核，实际 %s/%s", resp.Status, resp.StatusLabel)
	}
	if len(resp.Technologies) != 2 || resp.Technologies[0] != "Go" {
		t.Errorf("技术标签应去空白并丢弃空值，实际 %v", resp.Technologies)
	}
}

func TestSubjectService_Create_UnknownSupervisor(t *testing.T) {
	svc, _ := setupTestSubjectService()

	_, err := svc.Create(context.Background(), &dto.CreateSubjectRequest{
		Title:        "选题",
		SupervisorID: strPtr("ghost"),
	}, "admin-1", model.RoleAdmin)
	if !errors.Is(err, ErrSupervisorNotFound) {
		t.Errorf("期望 ErrSupervisorNotFound，实际: %v", err)
	}
}

// ── Update ──

func TestSubjectService_Update_OnlyPending(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addTeacher("t1", "Amine", "Haddad")
	db.addSubject("S1", "已通过", model.SubjectApproved, strPtr("t1"), false)

	title := "新标题"
	_, err := svc.Update(context.Background(), "S1", &dto.UpdateSubjectRequest{Title: &title}, "t1", model.RoleTeacher)
	if !errors.Is(err, ErrSubjectNotPending) {
		t.Errorf("期望 ErrSubjectNotPending，实际: %v", err)
	}
}

func TestSubjectService_Update_OtherTeacherForbidden(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addTeacher("t1", "Amine", "Haddad")
	db.addSubject("S1", "选题", model.SubjectPending, strPtr("t1"), false)

	title := "新标题"
	_, err := svc.Update(context.Background(), "S1", &dto.UpdateSubjectRequest{Title: &title}, "t2", model.RoleTeacher)
	if !errors.Is(err, ErrNotSupervisor) {
		t.Errorf("期望 ErrNotSupervisor，实际: %v", err)
	}
}

func TestSubjectService_Update_AdminReassignsSupervisor(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addTeacher("t1", "Amine", "Haddad")
	db.addTeacher("t2", "Sara", "Benali")
	db.addSubject("S1", "选题", model.SubjectPending, strPtr("t1"), false)

	resp, err := svc.Update(context.Background(), "S1", &dto.UpdateSubjectRequest{SupervisorID: strPtr("t2")}, "admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Supervisor == nil || resp.Supervisor.ID != "t2" {
		t.Errorf("管理员应能更换指导教师，实际 %+v", resp.Supervisor)
	}
}

// ── 审核 ──

func TestSubjectService_ApproveIsIdempotent(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addSubject("S1", "选题", model.SubjectPending, nil, false)

	for i := 0; i < 2; i++ {
		resp, err := svc.Approve(context.Background(), "S1", "admin-1")
		if err != nil {
			t.Fatalf("第 %d 次 Approve 应成功: %v", i+1, err)
		}
		if resp.Status != string(model.SubjectApproved) {
			t.Errorf("期望 approved，实际 %s", resp.Status)
		}
	}
	if db.subjects["S1"].Status != model.SubjectApproved {
		t.Error("仓储中的状态应为 approved")
	}
}

func TestSubjectService_ReviewDecisionCanBeRevised(t *testing.T) {
	svc, db := setupTestSubjectService()
	ctx := context.Background()
	db.addSubject("S1", "被驳回", model.SubjectRejected, nil, false)
	db.addSubject("S2", "已通过", model.SubjectApproved, nil, false)

	resp, err := svc.Approve(ctx, "S1", "admin-1")
	if err != nil {
		t.Fatalf("驳回的选题应可重新通过: %v", err)
	}
	if resp.Status != string(model.SubjectApproved) {
		t.Errorf("期望 approved，实际 %s", resp.Status)
	}

	resp, err = svc.Reject(ctx, "S2", "admin-1")
	if err != nil {
		t.Fatalf("未分配的已通过选题应可驳回: %v", err)
	}
	if resp.Status != string(model.SubjectRejected) || db.subjects["S2"].Status != model.SubjectRejected {
		t.Errorf("期望 rejected，实际 %s", resp.Status)
	}
}

func TestSubjectService_RejectAssignedSubject(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addStudent("A", "Alice", "Martin", nil)
	db.addSubject("S1", "选题", model.SubjectApproved, nil, false)
	_ = (&mockAssignmentRepo{db}).Create(context.Background(), &model.Assignment{SubjectID: "S1", StudentID: "A"})

	_, err := svc.Reject(context.Background(), "S1", "admin-1")
	if !errors.Is(err, ErrSubjectAssigned) {
		t.Errorf("已分配选题不能驳回，期望 ErrSubjectAssigned，实际: %v", err)
	}
}

func TestSubjectService_Approve_NotFound(t *testing.T) {
	svc, _ := setupTestSubjectService()

	_, err := svc.Approve(context.Background(), "missing", "admin-1")
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("期望 ErrSubjectNotFound，实际: %v", err)
	}
}

// ── Delete ──

func TestSubjectService_Delete_BlockedWhenAssigned(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addStudent("A", "Alice", "Martin", nil)
	db.addSubject("S1", "选题", model.SubjectApproved, nil, false)
	_ = (&mockAssignmentRepo{db}).Create(context.Background(), &model.Assignment{SubjectID: "S1", StudentID: "A"})

	if err := svc.Delete(context.Background(), "S1", "admin-1", model.RoleAdmin); !errors.Is(err, ErrSubjectAssigned) {
		t.Errorf("期望 ErrSubjectAssigned，实际: %v", err)
	}
}

func TestSubjectService_Delete_RemovesChoices(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addStudent("A", "Alice", "Martin", nil)
	db.addSubject("S1", "选题", model.SubjectApproved, nil, false)
	db.addChoice("A", "S1", 1, nil, false)

	if err := svc.Delete(context.Background(), "S1", "admin-1", model.RoleAdmin); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(db.choices) != 0 {
		t.Errorf("删除选题后志愿应一并删除，剩余 %d", len(db.choices))
	}
}

// ── List / Stats ──

func TestSubjectService_List_Filters(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addStudent("A", "Alice", "Martin", nil)
	db.addSubject("S1", "普通", model.SubjectApproved, nil, false)
	db.addSubject("S2", "自拟", model.SubjectApproved, nil, true)
	db.addSubject("S3", "待审核", model.SubjectPending, nil, false)
	_ = (&mockAssignmentRepo{db}).Create(context.Background(), &model.Assignment{SubjectID: "S1", StudentID: "A"})

	proposals, _ := svc.List(context.Background(), &dto.SubjectListRequest{Origin: "proposal"})
	if len(proposals) != 1 || proposals[0].ID != "S2" {
		t.Errorf("origin=proposal 应只返回 S2，实际 %+v", proposals)
	}

	open, _ := svc.List(context.Background(), &dto.SubjectListRequest{Status: "approved", Unassigned: true})
	if len(open) != 1 || open[0].ID != "S2" {
		t.Errorf("已通过且未分配应只返回 S2，实际 %+v", open)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	if stats.Total != 3 || stats.Approved != 2 || stats.Pending != 1 {
		t.Errorf("统计不正确: %+v", stats)
	}
}

// ── Propose ──

func TestSubjectService_Propose_CreatesSubjectAndChoice(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addStudent("A", "Alice", "Martin", nil)
	db.addStudent("P", "Paul", "Girard", nil)

	resp, err := svc.Propose(context.Background(), "A", &dto.ProposeSubjectRequest{
		Title:     "校园导航小程序",
		PartnerID: strPtr("P"),
	})
	if err != nil {
		t.Fatalf("Propose 应成功: %v", err)
	}
	if !resp.Subject.IsStudentProposal || resp.Subject.Status != string(model.SubjectPending) {
		t.Errorf("自拟选题应为待审核的学生提案: %+v", resp.Subject)
	}
	if !resp.Choice.IsProposal || resp.Choice.PreferenceRank != 1 || resp.Choice.SubjectID != resp.Subject.ID {
		t.Errorf("申报应为指向该选题的第一志愿: %+v", resp.Choice)
	}

	proposals, _ := (&mockChoiceRepo{db}).ListProposals(context.Background())
	if len(proposals) != 1 || proposals[0].PartnerID == nil || *proposals[0].PartnerID != "P" {
		t.Errorf("仓储中应有一条带搭档的申报，实际 %+v", proposals)
	}
}

func TestSubjectService_Propose_SelfAsPartner(t *testing.T) {
	svc, db := setupTestSubjectService()
	db.addStudent("A", "Alice", "Martin", nil)

	_, err := svc.Propose(context.Background(), "A", &dto.ProposeSubjectRequest{Title: "选题", PartnerID: strPtr("A")})
	if !errors.Is(err, ErrInvalidPartner) {
		t.Errorf("期望 ErrInvalidPartner，实际: %v", err)
	}
	if len(db.subjects) != 0 {
		t.Error("校验失败时不应创建选题")
	}
}
