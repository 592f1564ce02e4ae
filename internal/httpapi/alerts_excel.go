package httpapi

import (
	"bytes"
	"fmt"

	"worksafe-notify/internal/domain"

	"github.com/xuri/excelize/v2"
)

// AlertsExportHeader 通知导出表头
var AlertsExportHeader = []string{
	"Alert ID",
	"Kind",
	"Priority",
	"Case ID",
	"Recipient",
	"Subject",
	"Status",
	"Message ID",
	"Error",
	"Created At",
	"Sent At",
}

const timestampLayout = "2006-01-02 15:04:05"

// GenerateAlertsExport 生成通知导出 Excel 文件
// alerts 为空时只生成表头
func GenerateAlertsExport(alerts []*domain.Alert) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Notifications"
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
	for col, header := range AlertsExportHeader {
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

	// 列宽
	columnWidths := []float64{
		38, // Alert ID
		20, // Kind
		10, // Priority
		20, // Case ID
		28, // Recipient
		50, // Subject
		10, // Status
		24, // Message ID
		40, // Error
		20, // Created At
		20, // Sent At
	}
	for i := range AlertsExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if i < len(columnWidths) && columnWidths[i] > 0 {
			if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set column width: %w", err)
			}
		}
	}

	// 写入数据
	for rowIdx, alert := range alerts {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）

		messageID := ""
		if alert.MessageID != nil {
			messageID = *alert.MessageID
		}
		errorText := ""
		if alert.ErrorText != nil {
			errorText = *alert.ErrorText
		}
		sentAt := ""
		if alert.SentAt != nil {
			sentAt = alert.SentAt.Format(timestampLayout)
		}

		values := []any{
			alert.AlertID,
			alert.Kind,
			alert.Priority,
			alert.CaseID,
			alert.Recipient,
			alert.Subject,
			alert.Status,
			messageID,
			errorText,
			alert.CreatedAt.Format(timestampLayout),
			sentAt,
		}

		for col, value := range values {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	// Note: File must remain open during Write operation
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
