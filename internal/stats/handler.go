// Package stats serves the dashboard and statistics screens: per-day totals
// of bons and frais and the bénéfice between them. Aggregation is a plain
// reduction over the store's lists, bucketed by calendar day in the
// service's local time zone.
package stats

import (
	"errors"
	"time"

	"pense-backend/internal/logger"
	"pense-backend/internal/models"
	"pense-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

type BonSummary struct {
	ID        string           `json:"id"`
	Date      string           `json:"date"`
	NomClient string           `json:"nomClient"`
	Materiel  string           `json:"materiel"`
	Montant   float64          `json:"montant"`
	Statut    models.BonStatut `json:"statut"`
}

type FraisSummary struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Prix        float64 `json:"prix"`
}

type StatisticsResponse struct {
	Date       string         `json:"date"` // "2026-01-03"
	TotalBons  float64        `json:"totalBons"`
	TotalFrais float64        `json:"totalFrais"`
	Benefice   float64        `json:"benefice"`
	BonsCount  int            `json:"bonsCount"`
	FraisCount int            `json:"fraisCount"`
	Bons       []BonSummary   `json:"bons"`
	Frais      []FraisSummary `json:"frais"`
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func mapStoreError(err error) error {
	var rerr *store.RemoteError
	if errors.As(err, &rerr) {
		logger.L().Warnw("record store failure", "error", rerr)
		return fiber.NewError(fiber.StatusBadGateway, "Sync error with the record store")
	}
	return err
}

func buildStatistics(c *fiber.Ctx, st store.Store, day time.Time) (StatisticsResponse, error) {
	resp := StatisticsResponse{
		Date:  day.Format("2006-01-02"),
		Bons:  []BonSummary{},
		Frais: []FraisSummary{},
	}

	bons, err := st.ListBons(c.Context())
	if err != nil {
		return resp, mapStoreError(err)
	}
	for _, b := range bons {
		if !sameDay(b.Date, day) {
			continue
		}
		resp.TotalBons += b.Montant
		resp.Bons = append(resp.Bons, BonSummary{
			ID:        b.ID,
			Date:      b.Date.Format(time.RFC3339),
			NomClient: b.NomClient,
			Materiel:  b.Materiel,
			Montant:   b.Montant,
			Statut:    b.Statut(),
		})
	}

	frais, err := st.ListFrais(c.Context())
	if err != nil {
		return resp, mapStoreError(err)
	}
	for _, f := range frais {
		if !sameDay(f.Date, day) {
			continue
		}
		resp.TotalFrais += f.Prix
		resp.Frais = append(resp.Frais, FraisSummary{
			ID:          f.ID,
			Date:        f.Date.Format(time.RFC3339),
			Description: f.Description,
			Prix:        f.Prix,
		})
	}

	resp.Benefice = resp.TotalBons - resp.TotalFrais
	resp.BonsCount = len(resp.Bons)
	resp.FraisCount = len(resp.Frais)
	return resp, nil
}

// GET /api/dashboard
// Today's totals and records.
func DashboardHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resp, err := buildStatistics(c, st, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}

// GET /api/statistics?filter=today|yesterday|custom&date=2026-01-03
func StatisticsHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var day time.Time

		switch filter := c.Query("filter", "today"); filter {
		case "today":
			day = time.Now()
		case "yesterday":
			day = time.Now().AddDate(0, 0, -1)
		case "custom":
			dateStr := c.Query("date")
			if dateStr == "" {
				return fiber.NewError(fiber.StatusBadRequest, "date is required with filter=custom (YYYY-MM-DD)")
			}
			var err error
			day, err = time.ParseInLocation("2006-01-02", dateStr, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date must be 'YYYY-MM-DD'")
			}
		default:
			return fiber.NewError(fiber.StatusBadRequest, "filter must be 'today', 'yesterday' or 'custom'")
		}

		resp, err := buildStatistics(c, st, day)
		if err != nil {
			return err
		}
		return c.JSON(resp)
	}
}
