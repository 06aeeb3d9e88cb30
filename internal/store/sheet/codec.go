package sheet

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pense-backend/internal/models"
)

// Records live as spreadsheet rows behind the web app. Outgoing items use
// the camelCase property names the script expects; rows read back are keyed
// by the sheet header names ("Nom Client", "Poids Vide", ...), with the
// camelCase names as fallback for rows written before the headers existed.
// The versement sequence does not fit a tabular cell as a structure, so it
// travels as a JSON-encoded string inside the "Versements" column.

// wireVersement keeps the date as a string so rows written by older clients
// (plain YYYY-MM-DD dates) still parse.
type wireVersement struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Montant float64 `json:"montant"`
	Note    string  `json:"note,omitempty"`
}

func encodeVersements(versements []models.Versement) (string, error) {
	wire := make([]wireVersement, 0, len(versements))
	for _, v := range versements {
		wire = append(wire, wireVersement{
			ID:      v.ID,
			Date:    v.Date.Format(time.RFC3339),
			Montant: v.Montant,
			Note:    v.Note,
		})
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode versements: %w", err)
	}
	return string(raw), nil
}

func decodeVersements(cell string) ([]models.Versement, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "[]" {
		return []models.Versement{}, nil
	}
	var wire []wireVersement
	if err := json.Unmarshal([]byte(cell), &wire); err != nil {
		return nil, fmt.Errorf("decode versements cell: %w", err)
	}
	versements := make([]models.Versement, 0, len(wire))
	for _, w := range wire {
		versements = append(versements, models.Versement{
			ID:      w.ID,
			Date:    parseDate(w.Date),
			Montant: w.Montant,
			Note:    w.Note,
		})
	}
	return versements, nil
}

// parseDate accepts the formats seen in the sheet: RFC 3339 from this
// service, dd/mm/yyyy written by the web app, plain dates from older rows.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "02/01/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// cellString and cellFloat cope with the loose typing of spreadsheet cells:
// numbers may come back as float64 or as strings, ids as numbers. The first
// key that has a value wins.
func cellString(row map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := row[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

func cellFloat(row map[string]any, keys ...string) float64 {
	for _, key := range keys {
		switch v := row[key].(type) {
		case float64:
			return v
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return f
		}
	}
	return 0
}

// hasCell reports whether any of the keys holds a non-empty value, so a
// missing column can be told apart from a stored zero.
func hasCell(row map[string]any, keys ...string) bool {
	for _, key := range keys {
		switch v := row[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return true
			}
		case nil:
		default:
			return true
		}
	}
	return false
}

func bonToItem(b models.Bon) (map[string]any, error) {
	versements, err := encodeVersements(b.Versements)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":             b.ID,
		"date":           b.Date.Format(time.RFC3339),
		"nomClient":      b.NomClient,
		"poidsVide":      b.PoidsVide,
		"poidsComplet":   b.PoidsComplet,
		"materiel":       b.Materiel,
		"prixUnitaire":   b.PrixUnitaire,
		"montant":        b.Montant,
		"statut":         string(b.Statut()),
		"versements":     versements,
		"montantPaye":    b.MontantPaye,
		"montantRestant": b.MontantRestant,
	}, nil
}

func rowToBon(row map[string]any) (models.Bon, error) {
	versements, err := decodeVersements(cellString(row, "Versements", "versements"))
	if err != nil {
		return models.Bon{}, err
	}
	montant := cellFloat(row, "Montant", "montant")
	// Rows written before payment tracking have no "Montant Restant"
	// column. Nothing was paid on them, so the full montant remains;
	// reading the absent cell as 0 would mark them paid.
	restant := montant
	if hasCell(row, "Montant Restant", "montantRestant") {
		restant = cellFloat(row, "Montant Restant", "montantRestant")
	}
	return models.Bon{
		ID:             cellString(row, "ID", "id"),
		Date:           parseDate(cellString(row, "Date", "date")),
		NomClient:      cellString(row, "Nom Client", "nomClient"),
		PoidsVide:      cellFloat(row, "Poids Vide", "poidsVide"),
		PoidsComplet:   cellFloat(row, "Poids Complet", "poidsComplet"),
		Materiel:       cellString(row, "Materiel", "materiel"),
		PrixUnitaire:   cellFloat(row, "Prix Unitaire", "prixUnitaire"),
		Montant:        montant,
		Versements:     versements,
		MontantPaye:    cellFloat(row, "Montant Paye", "montantPaye"),
		MontantRestant: restant,
	}, nil
}

func fraisToItem(f models.Frais) map[string]any {
	return map[string]any{
		"id":          f.ID,
		"date":        f.Date.Format(time.RFC3339),
		"description": f.Description,
		"prix":        f.Prix,
	}
}

func rowToFrais(row map[string]any) models.Frais {
	return models.Frais{
		ID:          cellString(row, "ID", "id"),
		Date:        parseDate(cellString(row, "Date", "date")),
		Description: cellString(row, "Description", "description"),
		Prix:        cellFloat(row, "Prix", "prix"),
	}
}
