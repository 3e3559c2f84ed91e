package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

// MenuTitle は献立 PDF とメール件名で共通の表題。
const MenuTitle = "Mess Menu Timetable"

var menuHeader = [4]string{"Day", "Breakfast", "Lunch", "Dinner"}

// MenuRenderer は A4 横向きの献立表を描画する。
type MenuRenderer struct{}

func NewMenuRenderer() *MenuRenderer {
	return &MenuRenderer{}
}

func (MenuRenderer) RenderMenu(menu messdomain.Menu) ([]byte, error) {
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetTitle(MenuTitle, true)
	doc.SetMargins(12, 12, 12)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(0, 12, MenuTitle, "", 1, "C", false, 0, "")
	doc.Ln(4)

	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	dayWidth := 40.0
	slotWidth := (pageWidth - left - right - dayWidth) / 3
	widths := [4]float64{dayWidth, slotWidth, slotWidth, slotWidth}

	doc.SetFont("Helvetica", "B", 11)
	doc.SetFillColor(230, 230, 240)
	for i, label := range menuHeader {
		doc.CellFormat(widths[i], 9, label, "1", 0, "C", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "I", 10)
	writeRow(doc, widths, "Timings", menu.Timings, true)

	doc.SetFont("Helvetica", "", 10)
	for _, row := range menu.Rows() {
		writeRow(doc, widths, row.Day, row.Slots, false)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("献立 PDF の出力に失敗: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRow は最も長いセルに合わせて行の高さを揃える。
func writeRow(doc *fpdf.Fpdf, widths [4]float64, label string, slots messdomain.MealSlots, fill bool) {
	const lineHeight = 6.0
	cells := [4]string{label, slots[0], slots[1], slots[2]}

	lines := 1
	for i, text := range cells {
		if n := len(doc.SplitText(text, widths[i]-2)); n > lines {
			lines = n
		}
	}
	height := float64(lines) * lineHeight

	x, y := doc.GetXY()
	style := "D"
	if fill {
		doc.SetFillColor(245, 245, 245)
		style = "FD"
	}
	for i, text := range cells {
		doc.Rect(x, y, widths[i], height, style)
		doc.SetXY(x, y)
		doc.MultiCell(widths[i], lineHeight, text, "", "L", false)
		x += widths[i]
	}
	left, _, _, _ := doc.GetMargins()
	doc.SetXY(left, y+height)
}
