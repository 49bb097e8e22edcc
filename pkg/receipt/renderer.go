// Package receipt renders the delivery acta handed to instructors with their equipment.
package receipt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CodePrefix is prepended to the assignment id fragment to form a receipt code.
const CodePrefix = "RECEIPT-"

// Code derives the receipt code for an assignment id.
func Code(assignmentID string) string {
	fragment := strings.ReplaceAll(assignmentID, "-", "")
	if len(fragment) > 8 {
		fragment = fragment[:8]
	}
	return CodePrefix + strings.ToUpper(fragment)
}

// Filename returns the stored file name for a receipt code.
func Filename(code string) string {
	return code + ".pdf"
}

// Item is one table row of the receipt.
type Item struct {
	Name        string
	Description string
	Quantity    int
}

// Document carries everything printed on a receipt.
type Document struct {
	Code           string
	InstructorName string
	Discipline     string
	IssuedAt       time.Time
	IssuerName     string
	IssuerEmail    string
	Items          []Item
	Notes          string
}

// Renderer produces single page A4 receipts.
type Renderer struct {
	title string
}

// NewRenderer builds a renderer. An empty title falls back to the default heading.
func NewRenderer(title string) *Renderer {
	if strings.TrimSpace(title) == "" {
		title = "Inventory Delivery Receipt"
	}
	return &Renderer{title: title}
}

// Render lays out the receipt and returns the PDF bytes.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	if doc.Code == "" {
		return nil, fmt.Errorf("receipt code required")
	}
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("receipt requires at least one item")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetTitle(doc.Code, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(r.title)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	issued := doc.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	meta := [][2]string{
		{"Code", doc.Code},
		{"Instructor", doc.InstructorName},
		{"Discipline", doc.Discipline},
		{"Date", issued.UTC().Format("02/01/2006 15:04")},
		{"Delivered by", issuer(doc)},
	}
	for _, line := range meta {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 6, tr(line[0]+":"), "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(line[1]), "", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{55, 100, 25}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(245, 245, 245)
	for i, header := range []string{"Item", "Description", "Quantity"} {
		pdf.CellFormat(widths[i], 9, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, item := range doc.Items {
		pdf.CellFormat(widths[0], 8, tr(item.Name), "1", 0, "C", true, 0, "")
		pdf.CellFormat(widths[1], 8, tr(item.Description), "1", 0, "C", true, 0, "")
		pdf.CellFormat(widths[2], 8, strconv.Itoa(item.Quantity), "1", 0, "C", true, 0, "")
		pdf.Ln(-1)
	}

	if notes := strings.TrimSpace(doc.Notes); notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Notes:", "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, tr(notes), "", "", false)
	}

	pdf.Ln(25)
	y := pdf.GetY()
	pdf.Line(20, y, 90, y)
	pdf.Line(120, y, 190, y)
	pdf.SetY(y + 2)
	pdf.SetFont("Arial", "", 9)
	pdf.SetX(20)
	pdf.CellFormat(70, 5, "Instructor signature", "", 0, "C", false, 0, "")
	pdf.SetX(120)
	pdf.CellFormat(70, 5, "Responsible-party signature", "", 1, "C", false, 0, "")
	pdf.SetX(20)
	pdf.CellFormat(70, 5, tr(doc.InstructorName), "", 0, "C", false, 0, "")
	pdf.SetX(120)
	pdf.CellFormat(70, 5, tr(doc.IssuerName), "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func issuer(doc Document) string {
	switch {
	case doc.IssuerName != "" && doc.IssuerEmail != "":
		return fmt.Sprintf("%s (%s)", doc.IssuerName, doc.IssuerEmail)
	case doc.IssuerEmail != "":
		return doc.IssuerEmail
	default:
		return doc.IssuerName
	}
}
