package billing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/taller-facturacion/internal/domain"
	domainbilling "github.com/jhoicas/taller-facturacion/internal/domain/billing"
	"github.com/jhoicas/taller-facturacion/internal/domain/entity"
	"github.com/jhoicas/taller-facturacion/internal/domain/repository"
	"github.com/jhoicas/taller-facturacion/pkg/logger"
)

// PDFUseCase genera el PDF de una factura a partir de una instantánea tomada en una transacción.
type PDFUseCase struct {
	tx        TxRunner
	generator InvoicePDFGenerator
	outputDir string
	log       *logger.Logger
	now       func() time.Time
}

// NewPDFUseCase construye el caso de uso. outputDir es la carpeta donde se escriben los archivos.
func NewPDFUseCase(tx TxRunner, generator InvoicePDFGenerator, outputDir string, log *logger.Logger) *PDFUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &PDFUseCase{tx: tx, generator: generator, outputDir: outputDir, log: log, now: time.Now}
}

// Snapshot carga la factura con su cliente y la copia a un InvoiceSnapshot.
func (uc *PDFUseCase) Snapshot(ctx context.Context, userID, invoiceID string) (*InvoiceSnapshot, error) {
	var inv *entity.Invoice
	err := uc.tx.Run(ctx, func(_ repository.UserRepository, customers repository.CustomerRepository, invoices repository.InvoiceRepository) error {
		var err error
		inv, err = invoices.GetByID(userID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.Customer == nil {
			inv.Customer, err = customers.GetByID(userID, inv.CustomerID)
			if err != nil {
				return err
			}
			if inv.Customer == nil {
				return domain.ErrCustomerNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, logUnexpected(uc.log, "pdf.snapshot", err)
	}

	calc, err := domainbilling.Calculate(inv.LineItems)
	if err != nil {
		return nil, fmt.Errorf("pdf: líneas de la factura %s: %w", inv.InvoiceNumber, err)
	}
	subtotal := decimal.Zero
	for _, it := range calc.Items {
		subtotal = subtotal.Add(it.Hours.Mul(it.Rate).Add(it.Parts))
	}
	subtotal = subtotal.Round(domainbilling.TotalPlaces)

	return &InvoiceSnapshot{
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		IssuedDate:      inv.IssuedDate,
		DueDate:         inv.DueDate,
		Status:          inv.Status,
		Template:        inv.Template,
		CustomerName:    inv.Customer.Name,
		CustomerEmail:   inv.Customer.Email,
		CustomerPhone:   inv.Customer.Phone,
		CustomerAddress: inv.Customer.Address,
		Items:           calc.Items,
		Skipped:         calc.Skipped,
		Subtotal:        subtotal,
		Tax:             inv.Total.Sub(subtotal),
		Total:           inv.Total,
		GeneratedAt:     uc.now().UTC(),
	}, nil
}

// Render genera el PDF en memoria y devuelve sus bytes y el nombre de archivo sugerido.
//
// Retorna:
//   - domain.ErrNotFound          si la factura no existe para el usuario.
//   - domain.ErrTemplateNotFound  si la plantilla de la factura no existe.
func (uc *PDFUseCase) Render(ctx context.Context, userID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	snap, err := uc.Snapshot(ctx, userID, invoiceID)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, *snap)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, FileName(snap.InvoiceNumber, snap.InvoiceID), nil
}

// Generate escribe el PDF y devuelve la ruta final.
// outputPath vacío usa <outputDir>/invoice_<número>.pdf; una ruta fuera de outputDir
// se reduce a su nombre base dentro de outputDir.
func (uc *PDFUseCase) Generate(ctx context.Context, userID, invoiceID, outputPath string) (string, error) {
	pdfBytes, filename, err := uc.Render(ctx, userID, invoiceID)
	if err != nil {
		return "", err
	}
	path, err := ResolveOutputPath(uc.outputDir, outputPath, filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPDFWrite, err)
	}
	if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPDFWrite, err)
	}
	uc.log.Info().Str("invoice_id", invoiceID).Str("path", path).Int("bytes", len(pdfBytes)).Msg("PDF generado")
	return path, nil
}

// FileName invoice_<slug del número>.pdf; si el número no produce slug se usa el ID.
func FileName(number, id string) string {
	s := slug.Make(number)
	if s == "" {
		s = slug.Make(id)
	}
	return "invoice_" + s + ".pdf"
}

// ResolveOutputPath confina outputPath a outputDir.
func ResolveOutputPath(outputDir, outputPath, filename string) (string, error) {
	if strings.TrimSpace(outputDir) == "" {
		outputDir = "."
	}
	dir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPDFWrite, err)
	}
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return filepath.Join(dir, filename), nil
	}
	p := outputPath
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		base := filepath.Base(outputPath)
		if base == "." || base == string(filepath.Separator) || base == ".." {
			base = filename
		}
		return filepath.Join(dir, base), nil
	}
	return p, nil
}
