// Package export renders the store's records back into a spreadsheet, using
// the same column layout as the remote sheet so the file can be re-imported.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pense-backend/internal/logger"
	"pense-backend/internal/models"
	"pense-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

var bonsHeader = []string{
	"ID", "Date", "Nom Client", "Poids Vide", "Poids Complet", "Materiel",
	"Prix Unitaire", "Montant", "Statut", "Versements", "Montant Paye", "Montant Restant",
}

var fraisHeader = []string{"ID", "Date", "Description", "Prix"}

func writeRow(f *excelize.File, sheetName string, rowIdx int, values []any) error {
	for colIdx, v := range values {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func buildWorkbook(bons []models.Bon, frais []models.Frais) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", "Bons"); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet("Frais"); err != nil {
		return nil, err
	}

	header := make([]any, len(bonsHeader))
	for i, h := range bonsHeader {
		header[i] = h
	}
	if err := writeRow(f, "Bons", 1, header); err != nil {
		return nil, err
	}
	for i, b := range bons {
		raw, err := json.Marshal(b.Versements)
		if err != nil {
			return nil, fmt.Errorf("encode versements for bon %s: %w", b.ID, err)
		}
		versements := string(raw)
		row := []any{
			b.ID, b.Date.Format("02/01/2006"), b.NomClient, b.PoidsVide,
			b.PoidsComplet, b.Materiel, b.PrixUnitaire, b.Montant,
			string(b.Statut()), versements, b.MontantPaye, b.MontantRestant,
		}
		if err := writeRow(f, "Bons", i+2, row); err != nil {
			return nil, err
		}
	}

	header = make([]any, len(fraisHeader))
	for i, h := range fraisHeader {
		header[i] = h
	}
	if err := writeRow(f, "Frais", 1, header); err != nil {
		return nil, err
	}
	for i, fr := range frais {
		row := []any{fr.ID, fr.Date.Format("02/01/2006"), fr.Description, fr.Prix}
		if err := writeRow(f, "Frais", i+2, row); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// GET /api/export
// Streams an .xlsx workbook with a "Bons" and a "Frais" sheet.
func ExportHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bons, err := st.ListBons(c.Context())
		if err != nil {
			return mapStoreError(err)
		}
		frais, err := st.ListFrais(c.Context())
		if err != nil {
			return mapStoreError(err)
		}

		f, err := buildWorkbook(bons, frais)
		if err != nil {
			logger.L().Errorw("could not build export workbook", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build the export file")
		}
		defer f.Close()

		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			logger.L().Errorw("could not serialize export workbook", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build the export file")
		}

		filename := fmt.Sprintf("pense-export-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
		return c.Send(buf.Bytes())
	}
}

func mapStoreError(err error) error {
	var rerr *store.RemoteError
	if errors.As(err, &rerr) {
		logger.L().Warnw("record store failure", "error", rerr)
		return fiber.NewError(fiber.StatusBadGateway, "Sync error with the record store")
	}
	return err
}
