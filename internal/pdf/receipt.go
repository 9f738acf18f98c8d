package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator is an interface so services can be tested with a fake.
type Generator interface {
	GenerateReceipt(data ReceiptData) (string, error)
}

type ReceiptGenerator struct {
	RootDir string // storage root, e.g. "./files"
}

type ReceiptData struct {
	PaymentID     int64
	AppointmentID int64
	PatientName   string
	DoctorName    string
	Amount        float64
	PaidAt        time.Time
	Filename      string // base name only; generated when empty
}

func NewReceiptGenerator(rootDir string) *ReceiptGenerator {
	return &ReceiptGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *ReceiptGenerator) GenerateReceipt(data ReceiptData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("receipt_payment_%d.pdf", data.PaymentID)
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Receipt #%d", data.PaymentID), false)
	pdf.SetAuthor("HealthLink Platform", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "PAYMENT RECEIPT", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	sub := fmt.Sprintf("No. HL-%06d  issued  %s",
		data.PaymentID,
		data.PaidAt.Format("02.01.2006"),
	)
	pdf.CellFormat(0, 7, sub, "", 1, "C", false, 0, "")
	g.hr(pdf)

	pdf.Ln(3)

	g.sectionTitle(pdf, "Parties")
	g.kvLine(pdf, "Patient", data.PatientName)
	g.kvLine(pdf, "Doctor", data.DoctorName)
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Payment details")
	g.kvLine(pdf, "Appointment", fmt.Sprintf("%d", data.AppointmentID))
	g.kvLine(pdf, "Amount paid", fmt.Sprintf("%.2f", data.Amount))
	g.kvLine(pdf, "Paid at", data.PaidAt.Format("02.01.2006 15:04"))
	pdf.Ln(1)

	pdf.SetFont("Helvetica", "", 11)
	note := "This receipt confirms that the payment listed above was received and verified. " +
		"Keep it for your records; it may be required for insurance claims."
	pdf.MultiCell(0, 6, note, "", "L", false)
	pdf.Ln(2)
	g.hr(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 10,
			fmt.Sprintf("Page %d/{nb}", pdf.PageNo()),
			"", 0, "C", false, 0, "",
		)
	})

	if err := pdf.OutputFileAndClose(absPath); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(filepath.Base(absPath)), nil
}

func (g *ReceiptGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func (g *ReceiptGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReceiptGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ReceiptGenerator) ensureTarget(filename string) (string, error) {
	if err := os.MkdirAll(g.RootDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}
	filename = filepath.Base(filename)
	return filepath.Join(g.RootDir, filename), nil
}
