package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"pfe-hub/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoAssignments = errors.New("暂无分配结果")
	ErrExportGenerateFail  = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入
type ExportService interface {
	// ExportAssignments 导出全部分配结果为 Excel
	ExportAssignments(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

// ═══════════════════════════════════════════════════════════
// ExportAssignments 导出分配结果
// ═══════════════════════════════════════════════════════════
//
// 输出格式：单个 Sheet "分配结果"
//   - 第 1 行：标题（合并单元格）
//   - 第 2 行：表头
//   - 之后每行一条分配，按分配日期倒序

var assignmentExportHeader = []string{"序号", "选题", "学生", "搭档", "指导教师", "分配日期"}

func (s *exportService) ExportAssignments(ctx context.Context) (*bytes.Buffer, string, error) {
	list, err := s.repo.Assignment.List(ctx)
	if err != nil {
		s.logger.Error("查询分配结果失败", zap.Error(err))
		return nil, "", err
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoAssignments
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "分配结果"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{8, 40, 22, 22, 22, 14}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	lastCol := colName(len(assignmentExportHeader) - 1)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("选题分配结果（%s）", s.now().Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", cell(lastCol, 1), headerStyle)

	// 表头
	for i, h := range assignmentExportHeader {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	for i := range list {
		v := toAssignmentResponse(&list[i])
		row := i + 3
		partner := "-"
		if v.PartnerName != nil {
			partner = *v.PartnerName
		}
		values := []interface{}{i + 1, v.SubjectTitle, v.StudentName, partner, v.Supervisor, v.AssignedAt}
		for c, val := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), val)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("分配结果_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// colName 0 起始列号转 Excel 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
