// Package report renders spreadsheets for the back office.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"jacareparts/backend/internal/domain"
)

const sheetName = "Sheet1"

// WriteStockReport writes the stock report as an xlsx workbook.
func WriteStockReport(w io.Writer, rep *domain.StockReport) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"SKU", "Descrição", "Estoque", "Estoque Mínimo", "Custo Médio", "Preço Venda", "Valor em Estoque", "Abaixo do Mínimo"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rep.Rows {
		lowStock := ""
		if row.LowStock {
			lowStock = "SIM"
		}
		values := []any{
			row.SKU,
			row.Description,
			row.StockQty,
			row.MinStockQty,
			row.CostPrice.StringFixed(4),
			row.SalePrice.StringFixed(2),
			row.StockValue.StringFixed(2),
			lowStock,
		}
		if err := setRow(f, i+2, values); err != nil {
			return err
		}
	}

	totalRow := len(rep.Rows) + 2
	if err := setRow(f, totalRow, []any{"TOTAL", "", "", "", "", "", rep.TotalStockValue.StringFixed(2), ""}); err != nil {
		return err
	}

	return f.Write(w)
}

// WritePurchaseHistory writes purchase receipts as an xlsx workbook.
func WritePurchaseHistory(w io.Writer, entries []domain.PurchaseHistoryEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Recebido em", "SKU", "Produto", "Fornecedor", "Qtd", "Custo Unitário", "Nota Fiscal"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	for i, entry := range entries {
		values := []any{
			entry.Receipt.ReceivedAt.Format("02/01/2006"),
			entry.ProductSKU,
			entry.ProductDescription,
			entry.SupplierTradeName,
			entry.Receipt.Qty,
			entry.Receipt.UnitCost.StringFixed(4),
			entry.Receipt.InvoiceNumber,
		}
		if err := setRow(f, i+2, values); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, rowNo int, values []any) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
