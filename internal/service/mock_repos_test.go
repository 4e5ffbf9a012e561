package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
	pkgerrors "pfe-hub/backend/pkg/errors"
)

// ── 内存数据库 ──
//
// 所有 mock 仓储共享同一个 mockDB，关联预加载从这里回填。
// 写入顺序决定 CreatedAt，列表排序与 PostgreSQL 实现保持一致。

var mockEpoch = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

type mockDB struct {
	seq int

	students      map[string]*model.Student
	teachers      map[string]*model.Teacher
	admins        map[string]*model.Administrator
	subjects      map[string]*model.Subject
	choices       map[string]*model.Choice
	assignments   map[string]*model.Assignment
	members       map[string]string // student_id → assignment_id
	documents     map[string]*model.Document
	internships   map[string]*model.Internship
	notifications []*model.Notification
	feedbacks     []*model.Feedback
	meetings      []*model.Meeting
	sysConfig     *model.SystemConfig

	// 按 subject_id 注入的分配写入错误
	assignmentErrs map[string]error
}

func newMockDB() *mockDB {
	return &mockDB{
		students:       make(map[string]*model.Student),
		teachers:       make(map[string]*model.Teacher),
		admins:         make(map[string]*model.Administrator),
		subjects:       make(map[string]*model.Subject),
		choices:        make(map[string]*model.Choice),
		assignments:    make(map[string]*model.Assignment),
		members:        make(map[string]string),
		documents:      make(map[string]*model.Document),
		internships:    make(map[string]*model.Internship),
		assignmentErrs: make(map[string]error),
	}
}

// repository 返回绑定到本数据库的仓储聚合（无 gorm 连接，Transaction 直接执行）
func (db *mockDB) repository() *repository.Repository {
	return &repository.Repository{
		Student:      &mockStudentRepo{db},
		Teacher:      &mockTeacherRepo{db},
		Admin:        &mockAdminRepo{db},
		Subject:      &mockSubjectRepo{db},
		Choice:       &mockChoiceRepo{db},
		Assignment:   &mockAssignmentRepo{db},
		Document:     &mockDocumentRepo{db},
		Internship:   &mockInternshipRepo{db},
		Notification: &mockNotificationRepo{db},
		Feedback:     &mockFeedbackRepo{db},
		Meeting:      &mockMeetingRepo{db},
		SystemConfig: &mockSystemConfigRepo{db},
	}
}

func (db *mockDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%03d", prefix, db.seq)
}

func (db *mockDB) stamp(b *model.BaseModel) {
	db.seq++
	if b.CreatedAt.IsZero() {
		b.CreatedAt = mockEpoch.Add(time.Duration(db.seq) * time.Second)
	}
	b.UpdatedAt = b.CreatedAt
}

// uniqueViolation 构造与 PostgreSQL 一致的唯一约束错误
func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint}
}

func (db *mockDB) teacherPtr(id *string) *model.Teacher {
	if id == nil {
		return nil
	}
	return db.teachers[*id]
}

func (db *mockDB) studentPtr(id *string) *model.Student {
	if id == nil {
		return nil
	}
	return db.students[*id]
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ db *mockDB }

func (m *mockStudentRepo) Create(_ context.Context, st *model.Student) error {
	if st.StudentID == "" {
		st.StudentID = m.db.nextID("stu")
	}
	m.db.stamp(&st.BaseModel)
	m.db.students[st.StudentID] = st
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	st, ok := m.db.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	st.Supervisor = m.db.teacherPtr(st.SupervisorID)
	return st, nil
}

func (m *mockStudentRepo) GetByEmail(_ context.Context, email string) (*model.Student, error) {
	for _, st := range m.db.students {
		if strings.EqualFold(st.Email, email) {
			return st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByIDs(_ context.Context, ids []string) ([]model.Student, error) {
	var result []model.Student
	seen := make(map[string]bool)
	for _, id := range ids {
		if st, ok := m.db.students[id]; ok && !seen[id] {
			seen[id] = true
			result = append(result, *st)
		}
	}
	return result, nil
}

func (m *mockStudentRepo) List(_ context.Context, f repository.StudentFilter) ([]model.Student, int64, error) {
	var result []model.Student
	for _, st := range m.db.students {
		if f.Section != "" && st.Section != f.Section {
			continue
		}
		if f.Group != "" && st.Group != f.Group {
			continue
		}
		if f.SupervisorID != "" && (st.SupervisorID == nil || *st.SupervisorID != f.SupervisorID) {
			continue
		}
		if f.Keyword != "" {
			kw := strings.ToLower(f.Keyword)
			hay := strings.ToLower(st.FirstName + " " + st.LastName + " " + st.Email)
			if !strings.Contains(hay, kw) {
				continue
			}
		}
		result = append(result, *st)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	total := int64(len(result))
	if f.Offset > len(result) {
		return nil, total, nil
	}
	result = result[f.Offset:]
	if f.Limit > 0 && f.Limit < len(result) {
		result = result[:f.Limit]
	}
	return result, total, nil
}

func (m *mockStudentRepo) ListRanked(_ context.Context) ([]model.Student, error) {
	var result []model.Student
	for _, st := range m.db.students {
		result = append(result, *st)
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Average, result[j].Average
		if (a == nil) != (b == nil) {
			return a != nil
		}
		if a != nil && *a != *b {
			return *a > *b
		}
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, st *model.Student) error {
	if _, ok := m.db.students[st.StudentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.db.students[st.StudentID] = st
	return nil
}

func (m *mockStudentRepo) UpdateMeritRanks(_ context.Context, ranks map[string]int) error {
	for _, st := range m.db.students {
		if r, ok := ranks[st.StudentID]; ok {
			r := r
			st.MeritRank = &r
		} else {
			st.MeritRank = nil
		}
	}
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id, _ string) error {
	if _, ok := m.db.students[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.students, id)
	return nil
}

func (m *mockStudentRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.db.students)), nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct{ db *mockDB }

func (m *mockTeacherRepo) Create(_ context.Context, t *model.Teacher) error {
	if t.TeacherID == "" {
		t.TeacherID = m.db.nextID("tch")
	}
	m.db.stamp(&t.BaseModel)
	m.db.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.db.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) GetByEmail(_ context.Context, email string) (*model.Teacher, error) {
	for _, t := range m.db.teachers {
		if strings.EqualFold(t.Email, email) {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context, department string) ([]model.Teacher, error) {
	var result []model.Teacher
	for _, t := range m.db.teachers {
		if department != "" && t.Department != department {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastName < result[j].LastName })
	return result, nil
}

func (m *mockTeacherRepo) Update(_ context.Context, t *model.Teacher) error {
	if _, ok := m.db.teachers[t.TeacherID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.db.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id, _ string) error {
	if _, ok := m.db.teachers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.teachers, id)
	return nil
}

// ── Mock AdminRepository ──

type mockAdminRepo struct{ db *mockDB }

func (m *mockAdminRepo) Create(_ context.Context, a *model.Administrator) error {
	if a.AdminID == "" {
		a.AdminID = m.db.nextID("adm")
	}
	m.db.stamp(&a.BaseModel)
	m.db.admins[a.AdminID] = a
	return nil
}

func (m *mockAdminRepo) GetByID(_ context.Context, id string) (*model.Administrator, error) {
	if a, ok := m.db.admins[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdminRepo) GetByEmail(_ context.Context, email string) (*model.Administrator, error) {
	for _, a := range m.db.admins {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAdminRepo) List(_ context.Context) ([]model.Administrator, error) {
	var result []model.Administrator
	for _, a := range m.db.admins {
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AdminID < result[j].AdminID })
	return result, nil
}

func (m *mockAdminRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.db.admins[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.admins, id)
	return nil
}

func (m *mockAdminRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.db.admins)), nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct{ db *mockDB }

func (m *mockSubjectRepo) Create(_ context.Context, s *model.Subject) error {
	if s.SubjectID == "" {
		s.SubjectID = m.db.nextID("sub")
	}
	if s.Status == "" {
		s.Status = model.SubjectPending
	}
	m.db.stamp(&s.BaseModel)
	if s.ProposedAt.IsZero() {
		s.ProposedAt = s.CreatedAt
	}
	m.db.subjects[s.SubjectID] = s
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	s, ok := m.db.subjects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.Supervisor = m.db.teacherPtr(s.SupervisorID)
	return s, nil
}

func (m *mockSubjectRepo) GetForUpdate(ctx context.Context, id string) (*model.Subject, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSubjectRepo) assigned(id string) bool {
	for _, a := range m.db.assignments {
		if a.SubjectID == id {
			return true
		}
	}
	return false
}

func (m *mockSubjectRepo) List(_ context.Context, f repository.SubjectFilter) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.db.subjects {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Proposal != nil && s.IsStudentProposal != *f.Proposal {
			continue
		}
		if f.SupervisorID != "" && (s.SupervisorID == nil || *s.SupervisorID != f.SupervisorID) {
			continue
		}
		if f.Unassigned && m.assigned(s.SubjectID) {
			continue
		}
		cp := *s
		cp.Supervisor = m.db.teacherPtr(s.SupervisorID)
		result = append(result, cp)
	}
	sortSubjects(result)
	return result, nil
}

func (m *mockSubjectRepo) ListApprovedUnassigned(_ context.Context) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.db.subjects {
		if s.Status == model.SubjectApproved && !m.assigned(s.SubjectID) {
			result = append(result, *s)
		}
	}
	sortSubjects(result)
	return result, nil
}

func sortSubjects(list []model.Subject) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].SubjectID < list[j].SubjectID
	})
}

func (m *mockSubjectRepo) Update(_ context.Context, s *model.Subject) error {
	if _, ok := m.db.subjects[s.SubjectID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.db.subjects[s.SubjectID] = s
	return nil
}

func (m *mockSubjectRepo) UpdateStatus(_ context.Context, id string, status model.SubjectStatus, updatedBy string) error {
	s, ok := m.db.subjects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	s.StampUpdated(updatedBy)
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.db.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	if m.assigned(id) {
		return foreignKeyViolation("assignments_subject_id_fkey")
	}
	delete(m.db.subjects, id)
	for cid, c := range m.db.choices {
		if c.SubjectID == id {
			delete(m.db.choices, cid)
		}
	}
	return nil
}

func (m *mockSubjectRepo) CountByStatus(_ context.Context, supervisorID string) (repository.SubjectStatusCount, error) {
	counts := make(repository.SubjectStatusCount)
	for _, s := range m.db.subjects {
		if supervisorID != "" && (s.SupervisorID == nil || *s.SupervisorID != supervisorID) {
			continue
		}
		counts[s.Status]++
	}
	return counts, nil
}

func (m *mockSubjectRepo) CountDistinctSupervisors(_ context.Context) (int64, error) {
	seen := make(map[string]bool)
	for _, s := range m.db.subjects {
		if s.SupervisorID != nil {
			seen[*s.SupervisorID] = true
		}
	}
	return int64(len(seen)), nil
}

// ── Mock ChoiceRepository ──

type mockChoiceRepo struct{ db *mockDB }

func (m *mockChoiceRepo) Create(_ context.Context, c *model.Choice) error {
	for _, other := range m.db.choices {
		if other.StudentID == c.StudentID && other.SubjectID == c.SubjectID {
			return uniqueViolation("uq_choices_student_subject")
		}
	}
	if c.ChoiceID == "" {
		c.ChoiceID = m.db.nextID("cho")
	}
	m.db.stamp(&c.BaseModel)
	m.db.choices[c.ChoiceID] = c
	return nil
}

func (m *mockChoiceRepo) withRelations(c *model.Choice) model.Choice {
	cp := *c
	cp.Student = m.db.students[c.StudentID]
	cp.Subject = m.db.subjects[c.SubjectID]
	cp.Partner = m.db.studentPtr(c.PartnerID)
	return cp
}

func (m *mockChoiceRepo) GetByID(_ context.Context, id string) (*model.Choice, error) {
	c, ok := m.db.choices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withRelations(c)
	return &cp, nil
}

func (m *mockChoiceRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.db.choices[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.choices, id)
	return nil
}

func (m *mockChoiceRepo) collect(keep func(*model.Choice) bool) []model.Choice {
	var result []model.Choice
	for _, c := range m.db.choices {
		if keep(c) {
			result = append(result, m.withRelations(c))
		}
	}
	return result
}

func byRankThenTime(list []model.Choice) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].PreferenceRank != list[j].PreferenceRank {
			return list[i].PreferenceRank < list[j].PreferenceRank
		}
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ChoiceID < list[j].ChoiceID
	})
}

func (m *mockChoiceRepo) ListByStudent(_ context.Context, studentID string) ([]model.Choice, error) {
	result := m.collect(func(c *model.Choice) bool { return c.StudentID == studentID })
	byRankThenTime(result)
	return result, nil
}

func (m *mockChoiceRepo) ListBySubject(_ context.Context, subjectID string) ([]model.Choice, error) {
	result := m.collect(func(c *model.Choice) bool { return c.SubjectID == subjectID })
	byRankThenTime(result)
	return result, nil
}

func (m *mockChoiceRepo) ListProposals(_ context.Context) ([]model.Choice, error) {
	result := m.collect(func(c *model.Choice) bool { return c.IsProposal })
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ChoiceID < result[j].ChoiceID
	})
	return result, nil
}

func (m *mockChoiceRepo) ExistsByStudentAndSubject(_ context.Context, studentID, subjectID string) (bool, error) {
	for _, c := range m.db.choices {
		if c.StudentID == studentID && c.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockChoiceRepo) CountByStudent(_ context.Context, studentID string) (int64, error) {
	var n int64
	for _, c := range m.db.choices {
		if c.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (m *mockChoiceRepo) CountDistinctStudents(_ context.Context) (int64, error) {
	seen := make(map[string]bool)
	for _, c := range m.db.choices {
		seen[c.StudentID] = true
	}
	return int64(len(seen)), nil
}

// ── Mock AssignmentRepository ──
//
// 与数据库约束一致：subject_id 唯一，任一学生至多出现在一条分配的成员中。

type mockAssignmentRepo struct{ db *mockDB }

func (m *mockAssignmentRepo) Create(_ context.Context, a *model.Assignment) error {
	if err := m.db.assignmentErrs[a.SubjectID]; err != nil {
		return err
	}
	for _, other := range m.db.assignments {
		if other.SubjectID == a.SubjectID {
			return uniqueViolation("assignments_subject_id_key")
		}
	}
	for _, id := range a.StudentIDs() {
		if _, taken := m.db.members[id]; taken {
			return uniqueViolation("assignment_members_pkey")
		}
	}
	if a.AssignmentID == "" {
		a.AssignmentID = m.db.nextID("asg")
	}
	m.db.stamp(&a.BaseModel)
	stored := *a
	stored.Members = nil
	for i, id := range a.StudentIDs() {
		role := model.MemberPrimary
		if i > 0 {
			role = model.MemberPartner
		}
		stored.Members = append(stored.Members, model.AssignmentMember{StudentID: id, AssignmentID: a.AssignmentID, Role: role})
		m.db.members[id] = a.AssignmentID
	}
	m.db.assignments[a.AssignmentID] = &stored
	return nil
}

func (m *mockAssignmentRepo) withRelations(a *model.Assignment) *model.Assignment {
	cp := *a
	cp.Subject = m.db.subjects[a.SubjectID]
	cp.Student = m.db.students[a.StudentID]
	cp.Partner = m.db.studentPtr(a.PartnerID)
	cp.Supervisor = m.db.teacherPtr(a.SupervisorID)
	return &cp
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	a, ok := m.db.assignments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withRelations(a), nil
}

func (m *mockAssignmentRepo) GetBySubject(_ context.Context, subjectID string) (*model.Assignment, error) {
	for _, a := range m.db.assignments {
		if a.SubjectID == subjectID {
			return m.withRelations(a), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) FindByStudent(_ context.Context, studentID string) (*model.Assignment, error) {
	id, ok := m.db.members[studentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withRelations(m.db.assignments[id]), nil
}

func (m *mockAssignmentRepo) AssignedStudentIDs(_ context.Context, studentIDs []string) ([]string, error) {
	var result []string
	seen := make(map[string]bool)
	for _, id := range studentIDs {
		if _, ok := m.db.members[id]; ok && !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) list(keep func(*model.Assignment) bool) []model.Assignment {
	var result []model.Assignment
	for _, a := range m.db.assignments {
		if keep(a) {
			result = append(result, *m.withRelations(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AssignedAt.Equal(result[j].AssignedAt) {
			return result[i].AssignedAt.After(result[j].AssignedAt)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (m *mockAssignmentRepo) List(_ context.Context) ([]model.Assignment, error) {
	return m.list(func(*model.Assignment) bool { return true }), nil
}

func (m *mockAssignmentRepo) ListBySupervisor(_ context.Context, teacherID string) ([]model.Assignment, error) {
	return m.list(func(a *model.Assignment) bool {
		return a.SupervisorID != nil && *a.SupervisorID == teacherID
	}), nil
}

func (m *mockAssignmentRepo) Delete(_ context.Context, id string) error {
	a, ok := m.db.assignments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, sid := range a.StudentIDs() {
		delete(m.db.members, sid)
	}
	delete(m.db.assignments, id)
	return nil
}

func (m *mockAssignmentRepo) CountStudentsBySupervisor(_ context.Context, teacherID string) (int64, error) {
	var n int64
	for _, a := range m.db.assignments {
		if a.SupervisorID != nil && *a.SupervisorID == teacherID {
			n += int64(len(a.StudentIDs()))
		}
	}
	return n, nil
}

func (m *mockAssignmentRepo) CountSubjectsBySupervisor(_ context.Context, teacherID string) (int64, error) {
	var n int64
	for _, a := range m.db.assignments {
		if a.SupervisorID != nil && *a.SupervisorID == teacherID {
			n++
		}
	}
	return n, nil
}

// ── Mock DocumentRepository ──

type mockDocumentRepo struct{ db *mockDB }

func (m *mockDocumentRepo) Create(_ context.Context, d *model.Document) error {
	if d.DocumentID == "" {
		d.DocumentID = m.db.nextID("doc")
	}
	m.db.stamp(&d.BaseModel)
	m.db.documents[d.DocumentID] = d
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id string) (*model.Document, error) {
	d, ok := m.db.documents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	d.Student = m.db.students[d.StudentID]
	return d, nil
}

func (m *mockDocumentRepo) List(_ context.Context, f repository.DocumentFilter) ([]model.Document, error) {
	var result []model.Document
	for _, d := range m.db.documents {
		if f.StudentID != "" && d.StudentID != f.StudentID {
			continue
		}
		if f.InternshipID != "" && (d.InternshipID == nil || *d.InternshipID != f.InternshipID) {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Attached != nil && (d.InternshipID != nil) != *f.Attached {
			continue
		}
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UploadedAt.After(result[j].UploadedAt) })
	return result, nil
}

func (m *mockDocumentRepo) UpdateStatus(_ context.Context, d *model.Document) error {
	stored, ok := m.db.documents[d.DocumentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = d.Status
	stored.RejectReason = d.RejectReason
	stored.UpdatedBy = d.UpdatedBy
	return nil
}

func (m *mockDocumentRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.db.documents[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.db.documents, id)
	return nil
}

// ── Mock InternshipRepository ──

type mockInternshipRepo struct{ db *mockDB }

func (m *mockInternshipRepo) Create(_ context.Context, in *model.Internship) error {
	if in.InternshipID == "" {
		in.InternshipID = m.db.nextID("int")
	}
	in.Version = 1
	m.db.stamp(&in.BaseModel)
	stored := *in
	m.db.internships[in.InternshipID] = &stored
	return nil
}

func (m *mockInternshipRepo) GetByID(_ context.Context, id string) (*model.Internship, error) {
	in, ok := m.db.internships[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *in
	cp.Student = m.db.students[in.StudentID]
	cp.Documents = nil
	for _, d := range m.db.documents {
		if d.InternshipID != nil && *d.InternshipID == id {
			cp.Documents = append(cp.Documents, *d)
		}
	}
	return &cp, nil
}

func (m *mockInternshipRepo) List(_ context.Context, studentID string, status model.InternshipStatus) ([]model.Internship, error) {
	var result []model.Internship
	for _, in := range m.db.internships {
		if studentID != "" && in.StudentID != studentID {
			continue
		}
		if status != "" && in.Status != status {
			continue
		}
		result = append(result, *in)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

// Update 按版本号比较并递增，与 SQL 实现的乐观锁一致
func (m *mockInternshipRepo) Update(_ context.Context, in *model.Internship) error {
	stored, ok := m.db.internships[in.InternshipID]
	if !ok || stored.Version != in.Version {
		return pkgerrors.ErrOptimisticLock
	}
	in.Version++
	cp := *in
	cp.Student, cp.Documents = nil, nil
	m.db.internships[in.InternshipID] = &cp
	return nil
}

func (m *mockInternshipRepo) CountByStatus(_ context.Context) (map[model.InternshipStatus]int64, error) {
	counts := make(map[model.InternshipStatus]int64)
	for _, in := range m.db.internships {
		counts[in.Status]++
	}
	return counts, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ db *mockDB }

func (m *mockNotificationRepo) CreateBatch(_ context.Context, list []model.Notification) error {
	for i := range list {
		n := list[i]
		if n.NotificationID == "" {
			n.NotificationID = m.db.nextID("ntf")
		}
		m.db.stamp(&n.BaseModel)
		m.db.notifications = append(m.db.notifications, &n)
	}
	return nil
}

func (m *mockNotificationRepo) forUser(userID string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.db.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Notification, int64, error) {
	mine := m.forUser(userID)
	// 最新在前
	var result []model.Notification
	for i := len(mine) - 1; i >= 0; i-- {
		result = append(result, *mine[i])
	}
	total := int64(len(result))
	if offset >= len(result) {
		return nil, total, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var n int64
	for _, ntf := range m.forUser(userID) {
		if !ntf.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for _, n := range m.forUser(userID) {
		if n.NotificationID == id {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var changed int64
	for _, n := range m.forUser(userID) {
		if !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

// ── Mock Feedback / Meeting ──

type mockFeedbackRepo struct{ db *mockDB }

func (m *mockFeedbackRepo) Create(_ context.Context, fb *model.Feedback) error {
	if fb.FeedbackID == "" {
		fb.FeedbackID = m.db.nextID("fb")
	}
	m.db.stamp(&fb.BaseModel)
	m.db.feedbacks = append(m.db.feedbacks, fb)
	return nil
}

func (m *mockFeedbackRepo) ListBySubject(_ context.Context, subjectID string) ([]model.Feedback, error) {
	var result []model.Feedback
	for _, fb := range m.db.feedbacks {
		if fb.SubjectID == subjectID {
			cp := *fb
			cp.Teacher = m.db.teachers[fb.TeacherID]
			result = append(result, cp)
		}
	}
	return result, nil
}

type mockMeetingRepo struct{ db *mockDB }

func (m *mockMeetingRepo) Create(_ context.Context, mt *model.Meeting) error {
	if mt.MeetingID == "" {
		mt.MeetingID = m.db.nextID("mtg")
	}
	m.db.stamp(&mt.BaseModel)
	m.db.meetings = append(m.db.meetings, mt)
	return nil
}

func (m *mockMeetingRepo) ListBySubject(_ context.Context, subjectID string) ([]model.Meeting, error) {
	var result []model.Meeting
	for _, mt := range m.db.meetings {
		if mt.SubjectID == subjectID {
			result = append(result, *mt)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return result, nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct{ db *mockDB }

func (m *mockSystemConfigRepo) Get(_ context.Context) (*model.SystemConfig, error) {
	if m.db.sysConfig == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m.db.sysConfig
	return &cp, nil
}

func (m *mockSystemConfigRepo) Ensure(_ context.Context) error {
	if m.db.sysConfig == nil {
		m.db.sysConfig = &model.SystemConfig{Singleton: true, MaxChoicesPerStudent: 5, NotifyOnAssignment: true}
	}
	return nil
}

func (m *mockSystemConfigRepo) Update(_ context.Context, cfg *model.SystemConfig) error {
	if m.db.sysConfig == nil {
		return gorm.ErrRecordNotFound
	}
	cp := *cfg
	m.db.sysConfig = &cp
	return nil
}

// ════════════════════════════════════════════════════════════
// 测试数据构造
// ════════════════════════════════════════════════════════════

func float64Ptr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func (db *mockDB) addTeacher(id, first, last string) *model.Teacher {
	t := &model.Teacher{TeacherID: id, FirstName: first, LastName: last, Email: strings.ToLower(first) + "@univ.test"}
	_ = (&mockTeacherRepo{db}).Create(context.Background(), t)
	return t
}

func (db *mockDB) addStudent(id, first, last string, average *float64) *model.Student {
	st := &model.Student{StudentID: id, FirstName: first, LastName: last, Email: strings.ToLower(first) + "@etu.test", Average: average}
	_ = (&mockStudentRepo{db}).Create(context.Background(), st)
	return st
}

func (db *mockDB) addSubject(id, title string, status model.SubjectStatus, supervisorID *string, proposal bool) *model.Subject {
	s := &model.Subject{SubjectID: id, Title: title, Status: status, SupervisorID: supervisorID, IsStudentProposal: proposal}
	_ = (&mockSubjectRepo{db}).Create(context.Background(), s)
	return s
}

func (db *mockDB) addChoice(studentID, subjectID string, rank int, partnerID *string, proposal bool) *model.Choice {
	c := &model.Choice{StudentID: studentID, SubjectID: subjectID, PreferenceRank: rank, PartnerID: partnerID, IsProposal: proposal}
	if err := (&mockChoiceRepo{db}).Create(context.Background(), c); err != nil {
		panic(err)
	}
	return c
}

// assignmentFor 测试断言用：按选题查分配
func (db *mockDB) assignmentFor(subjectID string) *model.Assignment {
	for _, a := range db.assignments {
		if a.SubjectID == subjectID {
			return a
		}
	}
	return nil
}

var errInjected = errors.New("injected failure")
