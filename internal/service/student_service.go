package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pfe-hub/backend/internal/dto"
	"pfe-hub/backend/internal/model"
	"pfe-hub/backend/internal/repository"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound   = errors.New("学生不存在")
	ErrStudentAssigned   = errors.New("学生已有分配，不能删除")
	ErrEmailExists       = errors.New("邮箱已被使用")
	ErrNoPermission      = errors.New("无权操作")
	ErrImportNoData      = errors.New("Excel 文件中没有数据")
	ErrImportBadHeader   = errors.New("Excel 表头缺少 email 或 average 列")
	ErrImportTooManyRows = errors.New("单次导入不能超过 1000 行")
)

const maxImportRows = 1000

const (
	minGrade = 0
	maxGrade = 20
)

// StudentService 学生业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID, callerRole string) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id, callerID string) error
	// Ranking 按平均分重新计算 merit_rank 并返回排名列表
	Ranking(ctx context.Context) ([]dto.StudentResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportStudentRow, error)
	Import(ctx context.Context, rows []ImportStudentRow, callerID string) (*dto.ImportStudentsResponse, error)
	Count(ctx context.Context) (int64, error)
}

// ImportStudentRow Excel 导入解析后的单行数据
type ImportStudentRow struct {
	Row       int
	Email     string
	Average   string
	FirstName string
	LastName  string
	Section   string
	Group     string
	Password  string
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	if err := ensureEmailFree(ctx, s.repo, req.Email, ""); err != nil {
		return nil, err
	}
	if err := s.ensureSupervisor(ctx, req.SupervisorID); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	student := &model.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Section:      req.Section,
		Group:        req.Group,
		Average:      req.Average,
		SupervisorID: req.SupervisorID,
	}
	student.StampCreated(callerID)

	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, student.StudentID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *studentService) GetByID(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *studentService) List(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, repository.StudentFilter{
		Section:      req.Section,
		Group:        req.Group,
		SupervisorID: req.SupervisorID,
		Keyword:      req.Keyword,
		Offset:       req.GetOffset(),
		Limit:        req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, toStudentResponse(&students[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID, callerRole string) (*dto.StudentResponse, error) {
	// 学生只能修改自己的基本信息，成绩与指导教师由管理员维护
	if callerRole == model.RoleStudent {
		if callerID != id || req.Average != nil || req.SupervisorID != nil {
			return nil, ErrNoPermission
		}
	}

	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, student.Email) {
		if err := ensureEmailFree(ctx, s.repo, *req.Email, id); err != nil {
			return nil, err
		}
		student.Email = strings.ToLower(*req.Email)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, err
		}
		student.PasswordHash = string(hash)
	}
	if req.Section != nil {
		student.Section = *req.Section
	}
	if req.Group != nil {
		student.Group = *req.Group
	}
	if req.Average != nil {
		student.Average = req.Average
	}
	if req.SupervisorID != nil {
		if err := s.ensureSupervisor(ctx, req.SupervisorID); err != nil {
			return nil, err
		}
		student.SupervisorID = req.SupervisorID
	}
	student.StampUpdated(callerID)

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, id, callerID string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	if _, err := s.repo.Assignment.FindByStudent(ctx, id); err == nil {
		return ErrStudentAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := s.repo.Student.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Ranking ──────────────────────

// Ranking 同分同名次（1, 2, 2, 4），未录入成绩的学生不参与排名
func (s *studentService) Ranking(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.repo.Student.ListRanked(ctx)
	if err != nil {
		s.logger.Error("查询学生排名失败", zap.Error(err))
		return nil, err
	}

	ranks := make(map[string]int, len(students))
	rank := 0
	var prev *float64
	for i := range students {
		st := &students[i]
		if st.Average == nil {
			st.MeritRank = nil
			continue
		}
		if prev == nil || *st.Average != *prev {
			rank = i + 1
		}
		prev = st.Average
		r := rank
		st.MeritRank = &r
		ranks[st.StudentID] = r
	}

	if err := s.repo.Student.UpdateMeritRanks(ctx, ranks); err != nil {
		s.logger.Error("写入学生排名失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, toStudentResponse(&students[i]))
	}
	return result, nil
}

func (s *studentService) Count(ctx context.Context) (int64, error) {
	return s.repo.Student.Count(ctx)
}

// ────────────────────── Excel 导入 ──────────────────────

// ParseImportFile 解析成绩导入表，第一行为表头，列顺序不限
func (s *studentService) ParseImportFile(reader io.Reader) ([]ImportStudentRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	col := parseStudentHeader(excelRows[0])
	if col["email"] < 0 || col["average"] < 0 {
		return nil, ErrImportBadHeader
	}

	cell := func(row []string, key string) string {
		if idx := col[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []ImportStudentRow
	for i := 1; i < len(excelRows); i++ {
		r := excelRows[i]
		item := ImportStudentRow{
			Row:       i + 1,
			Email:     cell(r, "email"),
			Average:   cell(r, "average"),
			FirstName: cell(r, "first_name"),
			LastName:  cell(r, "last_name"),
			Section:   cell(r, "section"),
			Group:     cell(r, "group"),
			Password:  cell(r, "password"),
		}
		if item.Email == "" && item.Average == "" && item.FirstName == "" && item.LastName == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseStudentHeader 表头别名 → 列索引，缺失列为 -1
func parseStudentHeader(header []string) map[string]int {
	aliases := map[string][]string{
		"email":      {"email", "邮箱"},
		"average":    {"average", "moyenne", "平均成绩", "成绩"},
		"first_name": {"first_name", "prenom", "名"},
		"last_name":  {"last_name", "nom", "姓"},
		"section":    {"section", "专业"},
		"group":      {"group", "groupe", "班级"},
		"password":   {"password", "初始密码"},
	}

	index := make(map[string]int, len(aliases))
	for key := range aliases {
		index[key] = -1
	}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for key, names := range aliases {
			for _, name := range names {
				if h == name && index[key] < 0 {
					index[key] = i
				}
			}
		}
	}
	return index
}

// Import 已存在的邮箱更新成绩与班级信息，不存在时按姓名与初始密码创建
// 单行失败记录原因后继续处理其余行
func (s *studentService) Import(ctx context.Context, rows []ImportStudentRow, callerID string) (*dto.ImportStudentsResponse, error) {
	resp := &dto.ImportStudentsResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if row.Email == "" {
			fail(row.Row, "邮箱为空")
			continue
		}

		var average *float64
		if row.Average != "" {
			v, err := strconv.ParseFloat(strings.ReplaceAll(row.Average, ",", "."), 64)
			if err != nil || v < minGrade || v > maxGrade {
				fail(row.Row, fmt.Sprintf("成绩无效: %s", row.Average))
				continue
			}
			average = &v
		}

		existing, err := s.repo.Student.GetByEmail(ctx, row.Email)
		switch {
		case err == nil:
			if average != nil {
				existing.Average = average
			}
			if row.Section != "" {
				existing.Section = row.Section
			}
			if row.Group != "" {
				existing.Group = row.Group
			}
			existing.StampUpdated(callerID)
			if err := s.repo.Student.Update(ctx, existing); err != nil {
				s.logger.Error("导入更新学生失败", zap.Int("row", row.Row), zap.Error(err))
				fail(row.Row, "更新失败")
				continue
			}
			resp.Updated++

		case errors.Is(err, gorm.ErrRecordNotFound):
			if row.FirstName == "" || row.LastName == "" || len(row.Password) < 8 {
				fail(row.Row, "新学生需提供姓名与不少于 8 位的初始密码")
				continue
			}
			if err := ensureEmailFree(ctx, s.repo, row.Email, ""); err != nil {
				fail(row.Row, fmt.Sprintf("邮箱已被使用: %s", row.Email))
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(row.Password), bcrypt.DefaultCost)
			if err != nil {
				fail(row.Row, "密码处理失败")
				continue
			}
			student := &model.Student{
				FirstName:    row.FirstName,
				LastName:     row.LastName,
				Email:        strings.ToLower(row.Email),
				PasswordHash: string(hash),
				Section:      row.Section,
				Group:        row.Group,
				Average:      average,
			}
			student.StampCreated(callerID)
			if err := s.repo.Student.Create(ctx, student); err != nil {
				s.logger.Error("导入创建学生失败", zap.Int("row", row.Row), zap.Error(err))
				fail(row.Row, "创建失败")
				continue
			}
			resp.Created++

		default:
			s.logger.Error("导入查询学生失败", zap.Int("row", row.Row), zap.Error(err))
			fail(row.Row, "查询失败")
		}
	}

	s.logger.Info("学生成绩导入完成",
		zap.Int("total", resp.Total),
		zap.Int("created", resp.Created),
		zap.Int("updated", resp.Updated),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// ────────────────────── 内部辅助 ──────────────────────

func (s *studentService) load(ctx context.Context, id string) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

func (s *studentService) ensureSupervisor(ctx context.Context, teacherID *string) error {
	if teacherID == nil || *teacherID == "" {
		return nil
	}
	if _, err := s.repo.Teacher.GetByID(ctx, *teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupervisorNotFound
		}
		return err
	}
	return nil
}

// ensureEmailFree 登录邮箱在学生、教师、管理员三类账号中唯一
// exceptID 为当前账号本身（更新场景）
func ensureEmailFree(ctx context.Context, repo *repository.Repository, email, exceptID string) error {
	if st, err := repo.Student.GetByEmail(ctx, email); err == nil {
		if st.StudentID != exceptID {
			return ErrEmailExists
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if t, err := repo.Teacher.GetByEmail(ctx, email); err == nil {
		if t.TeacherID != exceptID {
			return ErrEmailExists
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if a, err := repo.Admin.GetByEmail(ctx, email); err == nil {
		if a.AdminID != exceptID {
			return ErrEmailExists
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func toStudentResponse(st *model.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:        st.StudentID,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		FullName:  st.FullName(),
		Email:     st.Email,
		Section:   st.Section,
		Group:     st.Group,
		Average:   st.Average,
		MeritRank: st.MeritRank,
		CreatedAt: dto.FormatTime(st.CreatedAt),
	}
	if st.Supervisor != nil {
		resp.Supervisor = &dto.PersonBrief{
			ID:    st.Supervisor.TeacherID,
			Name:  st.Supervisor.FullName(),
			Email: st.Supervisor.Email,
		}
	}
	return resp
}
