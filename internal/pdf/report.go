package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olgkv/tasklist/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

const DateLayout = "2006-01-02 15:04"

func BuildTasksReport(tasks []*domain.Task, generated time.Time) ([]byte, error) {
	p := gofpdf.New("P", "mm", "A4", "")
	tr := p.UnicodeTranslatorFromDescriptor("")
	p.AddPage()

	p.SetFont("Arial", "B", 14)
	p.Cell(40, 10, "Task report")
	p.Ln(8)
	p.SetFont("Arial", "", 10)
	p.Cell(40, 8, fmt.Sprintf("Generated %s, %d task(s)", generated.Format(DateLayout), len(tasks)))
	p.Ln(12)

	p.SetFont("Arial", "B", 11)
	p.CellFormat(15, 8, "ID", "1", 0, "", false, 0, "")
	p.CellFormat(100, 8, "Name", "1", 0, "", false, 0, "")
	p.CellFormat(30, 8, "Status", "1", 0, "", false, 0, "")
	p.CellFormat(40, 8, "Created", "1", 1, "", false, 0, "")

	p.SetFont("Arial", "", 10)
	for _, t := range tasks {
		p.CellFormat(15, 8, fmt.Sprintf("%d", t.ID), "1", 0, "", false, 0, "")
		p.CellFormat(100, 8, tr(truncate(t.Name, 55)), "1", 0, "", false, 0, "")
		p.CellFormat(30, 8, string(t.Status), "1", 0, "", false, 0, "")
		p.CellFormat(40, 8, t.CreationDate.Format(DateLayout), "1", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
