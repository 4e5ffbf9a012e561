package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
)

func setupTestStudentService() (StudentService, *mockDB) {
	db := newMockDB()
	return NewStudentService(db.repository(), zap.NewNop()), db
}

func TestStudentService_Create_EmailUniqueAcrossAccounts(t *testing.T) {
	svc, db := setupTestStudentService()
	db.addTeacher("t1", "Amine", "Haddad") // amine@univ.test

	_, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		FirstName: "Amine",
		LastName:  "Copie",
		Email:     "AMINE@univ.test",
		Password:  "password123",
	}, "admin-1")
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("期望 ErrEmailExists，实际: %v", err)
	}
}

func TestStudentService_Create_Success(t *testing.T) {
	svc, db := setupTestStudentService()
	db.addTeacher("t1", "Amine", "Haddad")

	resp, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		FirstName:    "Nora",
		LastName:     "Saidi",
		Email:        "Nora.Saidi@Etu.test",
		Password:     "password123",
		Average:      float64Ptr(14.5),
		SupervisorID: strPtr("t1"),
	}, "admin-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Email != "nora.saidi@etu.test" {
		t.Errorf("邮箱应统一小写，实际 %s", resp.Email)
	}
	if resp.Supervisor == nil || resp.Supervisor.Name != "Amine Haddad" {
		t.Errorf("指导教师信息缺失: %+v", resp.Supervisor)
	}
	if db.students[resp.ID].PasswordHash == "password123" {
		t.Error("密码不应明文保存")
	}
}

func TestStudentService_Update_StudentRestrictions(t *testing.T) {
	svc, db := setupTestStudentService()
	db.addStudent("A", "Alice", "Martin", float64Ptr(12))
	db.addStudent("B", "Bilal", "Roux", nil)
	ctx := context.Background()

	if _, err := svc.Update(ctx, "B", &dto.UpdateStudentRequest{Section: strPtr("GL")}, "A", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生不能修改他人信息，实际: %v", err)
	}
	if _, err := svc.Update(ctx, "A", &dto.UpdateStudentRequest{Average: float64Ptr(20)}, "A", model.RoleStudent); !errors.Is(err, ErrNoPermission) {
		t.Errorf("学生不能修改成绩，实际: %v", err)
	}

	resp, err := svc.Update(ctx, "A", &dto.UpdateStudentRequest{Group: strPtr("G2")}, "A", model.RoleStudent)
	if err != nil {
		t.Fatalf("学生修改本人班级应成功: %v", err)
	}
	if resp.Group != "G2" {
		t.Errorf("期望 Group=G2，实际 %s", resp.Group)
	}
}

func TestStudentService_Delete_BlockedWhenAssigned(t *testing.T) {
	svc, db := setupTestStudentService()
	db.addStudent("A", "Alice", "Martin", nil)
	db.addStudent("P", "Paul", "Girard", nil)
	db.addSubject("S1", "选题", model.SubjectApproved, nil, false)
	_ = (&mockAssignmentRepo{db}).Create(context.Background(), &model.Assignment{SubjectID: "S1", StudentID: "A", PartnerID: strPtr("P")})

	if err := svc.Delete(context.Background(), "P", "admin-1"); !errors.Is(err, ErrStudentAssigned) {
		t.Errorf("已分配的搭档不能删除，实际: %v", err)
	}
}

func TestStudentService_Ranking_CompetitionRanks(t *testing.T) {
	svc, db := setupTestStudentService()
	db.addStudent("A", "Alice", "Martin", float64Ptr(15))
	db.addStudent("B", "Bilal", "Roux", float64Ptr(17))
	db.addStudent("C", "Chloé", "Petit", float64Ptr(15))
	db.addStudent("D", "Driss", "Blanc", float64Ptr(11))
	db.addStudent("E", "Emma", "Faure", nil)

	list, err := svc.Ranking(context.Background())
	if err != nil {
		t.Fatalf("Ranking 应成功: %v", err)
	}

	want := map[string]int{"B": 1, "A": 2, "C": 2, "D": 4}
	for _, st := range list {
		expected, ranked := want[st.ID]
		if !ranked {
			if st.MeritRank != nil {
				t.Errorf("%s 无成绩不应有名次，实际 %d", st.ID, *st.MeritRank)
			}
			continue
		}
		if st.MeritRank == nil || *st.MeritRank != expected {
			t.Errorf("%s 期望名次 %d，实际 %v", st.ID, expected, st.MeritRank)
		}
	}
	if list[len(list)-1].ID != "E" {
		t.Errorf("无成绩学生应排在最后，实际 %s", list[len(list)-1].ID)
	}
	if r := db.students["D"].MeritRank; r == nil || *r != 4 {
		t.Errorf("名次应写回仓储，实际 %v", r)
	}
}

// ── Excel 导入 ──

func buildImportWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &row); err != nil {
			t.Fatalf("写入测试表格失败: %v", err)
		}
	}
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		t.Fatalf("生成测试表格失败: %v", err)
	}
	return buf
}

func TestStudentService_ParseImportFile_HeaderAliases(t *testing.T) {
	svc, _ := setupTestStudentService()
	buf := buildImportWorkbook(t, [][]interface{}{
		{"Nom", "Prenom", "Email", "Moyenne"},
		{"Martin", "Alice", "alice@etu.test", "14,25"},
		{"", "", "", ""},
		{"Roux", "Bilal", "bilal@etu.test", "16"},
	})

	rows, err := svc.ParseImportFile(buf)
	if err != nil {
		t.Fatalf("ParseImportFile 应成功: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("空行应跳过，期望 2 行，实际 %d", len(rows))
	}
	if rows[0].LastName != "Martin" || rows[0].Average != "14,25" || rows[0].Row != 2 {
		t.Errorf("第一行解析不正确: %+v", rows[0])
	}
	if rows[1].Row != 4 {
		t.Errorf("行号应对应表格行，实际 %d", rows[1].Row)
	}
}

func TestStudentService_ParseImportFile_MissingColumns(t *testing.T) {
	svc, _ := setupTestStudentService()
	buf := buildImportWorkbook(t, [][]interface{}{
		{"Nom", "Prenom"},
		{"Martin", "Alice"},
	})

	if _, err := svc.ParseImportFile(buf); !errors.Is(err, ErrImportBadHeader) {
		t.Errorf("期望 ErrImportBadHeader，实际: %v", err)
	}
}

func TestStudentService_Import_UpdateCreateAndFail(t *testing.T) {
	svc, db := setupTestStudentService()
	db.addStudent("A", "Alice", "Martin", nil) // alice@etu.test

	resp, err := svc.Import(context.Background(), []ImportStudentRow{
		{Row: 2, Email: "alice@etu.test", Average: "14,25", Group: "G1"},
		{Row: 3, Email: "new@etu.test", Average: "12", FirstName: "Nina", LastName: "Leroy", Password: "initpass1"},
		{Row: 4, Email: "bad@etu.test", Average: "25"},
		{Row: 5, Email: "nopass@etu.test", Average: "10", FirstName: "X", LastName: "Y"},
	}, "admin-1")
	if err != nil {
		t.Fatalf("Import 应成功: %v", err)
	}
	if resp.Updated != 1 || resp.Created != 1 || resp.Failed != 2 {
		t.Errorf("导入统计不正确: %+v", resp)
	}
	if avg := db.students["A"].Average; avg == nil || *avg != 14.25 {
		t.Errorf("逗号小数应被解析，实际 %v", avg)
	}
	if len(resp.Errors) != 2 || resp.Errors[0].Row != 4 {
		t.Errorf("错误明细不正确: %+v", resp.Errors)
	}
}
