// Package report renders collection snapshots into spreadsheet workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/wa2g/denis-portal/internal/application/service"
	"github.com/wa2g/denis-portal/internal/domain/entity"
)

// Workbook wraps a built spreadsheet ready to be written out.
type Workbook struct {
	file *excelize.File
}

func (w *Workbook) Write(out io.Writer) error {
	defer w.file.Close()
	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// File exposes the underlying workbook for inspection.
func (w *Workbook) File() *excelize.File { return w.file }

const summarySheet = "Summary"

func build(sheet string, headers []string, rows [][]interface{}, counts map[string]int) (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("add summary sheet: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]interface{}{"Status", "Count"}); err != nil {
		return nil, fmt.Errorf("write summary header: %w", err)
	}
	line := 2
	for _, status := range orderedStatuses(counts) {
		row := []interface{}{status, counts[status]}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", line), &row); err != nil {
			return nil, fmt.Errorf("write summary row: %w", err)
		}
		line++
	}
	return &Workbook{file: f}, nil
}

// Orders builds the order register workbook.
func Orders(orders []entity.Order) (*Workbook, error) {
	headers := []string{"Number", "Customer", "Status", "Items", "Subtotal", "Tax", "Total", "Created"}
	rows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []interface{}{
			o.HumanNumber,
			o.CustomerName,
			string(o.Status),
			len(o.Items),
			o.Subtotal.StringFixed(2),
			o.Tax.StringFixed(2),
			o.Total.StringFixed(2),
			o.CreatedAt.Format("2006-01-02"),
		})
	}
	return build("Orders", headers, rows, statusCounts(service.CountByStatus(orders)))
}

// Invoices builds the invoice register workbook.
func Invoices(invoices []entity.Invoice) (*Workbook, error) {
	headers := []string{"Number", "Order", "Customer", "Status", "Total", "Due", "Created"}
	rows := make([][]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []interface{}{
			inv.HumanNumber,
			inv.OrderID,
			inv.CustomerID,
			string(inv.Status),
			inv.Total.StringFixed(2),
			inv.DueDate.Format("2006-01-02"),
			inv.CreatedAt.Format("2006-01-02"),
		})
	}
	return build("Invoices", headers, rows, statusCounts(service.CountByStatus(invoices)))
}

// StockReceipts builds the goods-received workbook.
func StockReceipts(receipts []entity.StockReceipt) (*Workbook, error) {
	headers := []string{"Number", "Product", "Supplier", "Status", "Expected", "Received", "Remaining", "Unit Price", "Accountant Approved"}
	rows := make([][]interface{}, 0, len(receipts))
	for _, r := range receipts {
		rows = append(rows, []interface{}{
			r.HumanNumber,
			r.ProductName,
			r.SupplierName,
			string(r.Status),
			r.ExpectedQuantity,
			r.ReceivedQuantity,
			r.Remaining(),
			r.UnitPrice.StringFixed(2),
			r.ApprovedByAccountant,
		})
	}
	return build("StockReceipts", headers, rows, statusCounts(service.CountByStatus(receipts)))
}
