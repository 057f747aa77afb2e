package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"smart-watering/internal/model"
	"smart-watering/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("failed to generate export file")
)

// ExportService 导出业务接口
//
// 两种格式都基于全部计划（与 all-schedules 相同的数据源）：
//   - iCalendar：每条计划一个 VEVENT，可直接导入手机日历
//   - Excel：每条计划一行
type ExportService interface {
	// ExportICS 导出为 .ics 文本
	ExportICS(ctx context.Context) ([]byte, string, error)
	// ExportXLSX 导出为 Excel
	ExportXLSX(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

func (s *exportService) listAll(ctx context.Context) ([]model.Schedule, error) {
	schedules, err := s.repo.Schedule.ListSince(ctx, nil)
	if err != nil {
		s.logger.Error("查询全部计划失败", zap.Error(err))
		return nil, err
	}
	return schedules, nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportICS(ctx context.Context) ([]byte, string, error) {
	schedules, err := s.listAll(ctx)
	if err != nil {
		return nil, "", err
	}

	stamp := s.now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//smart-watering//schedules//EN")
	cal.SetXWRCalName("Riego")
	cal.SetXWRTimezone(s.loc.String())

	for i := range schedules {
		sc := &schedules[i]
		name := deviceName(sc)

		event := cal.AddEvent(fmt.Sprintf("schedule-%d@smart-watering", sc.ID))
		event.SetDtStampTime(stamp)
		event.SetStartAt(sc.StartDate.UTC())
		event.SetEndAt(sc.EndDate.UTC())
		event.SetSummary(fmt.Sprintf("%s (%d min)", name, sc.Duration.Minutes()))
		event.SetDescription(describe(sc))
		event.SetProperty(ics.ComponentPropertyCategories, name)
		if sc.Device != nil && sc.Device.Color != "" {
			event.SetProperty(ics.ComponentPropertyColor, sc.Device.Color)
		}
	}

	filename := fmt.Sprintf("schedules_%s.ics", stamp.In(s.loc).Format("20060102"))
	return []byte(cal.Serialize()), filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportXLSX
// ═══════════════════════════════════════════════════════════
//
// 列：ID | 设备 | 开始 | 结束 | 时长(分钟) | 频率 | 间隔 | 状态
// 时间以参考时区渲染

func (s *exportService) ExportXLSX(ctx context.Context) (*bytes.Buffer, string, error) {
	schedules, err := s.listAll(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedules"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	headers := []string{"ID", "Device", "Start", "End", "Duration (min)", "Frequency", "Interval", "Status"}
	widths := []float64{8, 22, 22, 22, 16, 12, 10, 12}
	for i, h := range headers {
		col := colName(i)
		f.SetCellValue(sheetName, cell(col, 1), h)
		f.SetColWidth(sheetName, col, col, widths[i])
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	const layout = "2006-01-02 15:04"
	for i := range schedules {
		sc := &schedules[i]
		row := i + 2

		f.SetCellValue(sheetName, cell("A", row), sc.ID)
		f.SetCellValue(sheetName, cell("B", row), deviceName(sc))
		f.SetCellValue(sheetName, cell("C", row), sc.StartDate.In(s.loc).Format(layout))
		f.SetCellValue(sheetName, cell("D", row), sc.EndDate.In(s.loc).Format(layout))
		f.SetCellValue(sheetName, cell("E", row), sc.Duration.Minutes())
		if sc.Frequency != nil {
			f.SetCellValue(sheetName, cell("F", row), *sc.Frequency)
		} else {
			f.SetCellValue(sheetName, cell("F", row), "-")
		}
		if sc.Interval != nil {
			f.SetCellValue(sheetName, cell("G", row), *sc.Interval)
		} else {
			f.SetCellValue(sheetName, cell("G", row), "-")
		}
		f.SetCellValue(sheetName, cell("H", row), sc.Status)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedules_%s.xlsx", s.now().In(s.loc).Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func deviceName(sc *model.Schedule) string {
	if sc.Device != nil {
		return sc.Device.Name
	}
	return fmt.Sprintf("device %d", sc.DeviceID)
}

func describe(sc *model.Schedule) string {
	desc := fmt.Sprintf("Duration: %s\nStatus: %s", sc.Duration.String(), sc.Status)
	if sc.Frequency != nil {
		interval := 1
		if sc.Interval != nil {
			interval = *sc.Interval
		}
		desc += fmt.Sprintf("\nRepeats: %s (every %d)", *sc.Frequency, interval)
	}
	return desc
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
