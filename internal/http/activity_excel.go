package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"lifeband-data/internal/domain"
)

// ActivityExportHeader 活动导出表头
var ActivityExportHeader = []string{
	"Record ID",
	"Type",
	"Status",
	"Message",
	"Metadata",
	"Created At",
}

// activityColumnWidths 各列宽度，与表头一一对应
var activityColumnWidths = []float64{
	38, // Record ID
	12, // Type
	12, // Status
	45, // Message
	60, // Metadata
	22, // Created At
}

// GenerateActivityExport 生成活动记录导出 Excel 文件
// records 为空时只生成表头
func GenerateActivityExport(records []domain.ActivityRecord) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Activity Log"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range ActivityExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 设置列宽
	for i := range ActivityExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(activityColumnWidths) {
			if err := f.SetColWidth(sheetName, col, col, activityColumnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	// 写入数据（第1行是表头，数据从第2行开始）
	for rowIdx, record := range records {
		row := rowIdx + 2

		metadata := ""
		if len(record.Metadata) > 0 {
			if raw, err := json.Marshal(record.Metadata); err == nil {
				metadata = string(raw)
			}
		}

		values := []any{
			record.ID,
			record.Type,
			record.Status,
			record.Message,
			metadata,
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}

	return buf.Bytes(), nil
}
