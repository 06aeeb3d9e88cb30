package frais

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pense-backend/internal/audit"
	"pense-backend/internal/auth"
	"pense-backend/internal/logger"
	"pense-backend/internal/models"
	"pense-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FraisRequest struct {
	Date        string  `json:"date"` // optional, "2026-01-03" or RFC 3339; defaults to now
	Description string  `json:"description"`
	Prix        float64 `json:"prix"`
}

type FraisResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Prix        float64 `json:"prix"`
}

func toResponse(f models.Frais) FraisResponse {
	return FraisResponse{
		ID:          f.ID,
		Date:        f.Date.Format(time.RFC3339),
		Description: f.Description,
		Prix:        f.Prix,
	}
}

func parseBody(c *fiber.Ctx) (models.Frais, error) {
	var body FraisRequest
	if err := c.BodyParser(&body); err != nil {
		return models.Frais{}, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if strings.TrimSpace(body.Description) == "" {
		return models.Frais{}, fiber.NewError(fiber.StatusBadRequest, "Description is required")
	}
	if body.Prix <= 0 {
		return models.Frais{}, fiber.NewError(fiber.StatusBadRequest, "Prix must be greater than 0")
	}

	date := time.Now()
	if body.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", body.Date)
		if err != nil {
			date, err = time.Parse(time.RFC3339, body.Date)
		}
		if err != nil {
			return models.Frais{}, fiber.NewError(fiber.StatusBadRequest, "Date must be 'YYYY-MM-DD'")
		}
	}

	return models.Frais{
		Date:        date,
		Description: strings.TrimSpace(body.Description),
		Prix:        body.Prix,
	}, nil
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Frais not found")
	}
	var rerr *store.RemoteError
	if errors.As(err, &rerr) {
		logger.L().Warnw("record store failure", "error", rerr)
		return fiber.NewError(fiber.StatusBadGateway, "Sync error with the record store")
	}
	return err
}

func record(c *fiber.Ctx, rec audit.Recorder, e audit.Entry) {
	e.Username = auth.Username(c)
	if err := rec.Record(c.Context(), e); err != nil {
		logger.L().Warnw("could not write audit log", "error", err)
	}
}

// GET /api/frais
func ListFraisHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		frais, err := st.ListFrais(c.Context())
		if err != nil {
			return mapStoreError(err)
		}

		resp := make([]FraisResponse, 0, len(frais))
		for _, f := range frais {
			resp = append(resp, toResponse(f))
		}
		return c.JSON(resp)
	}
}

// POST /api/frais
func CreateFraisHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseBody(c)
		if err != nil {
			return err
		}
		f.ID = uuid.NewString()

		if err := st.AddFrais(c.Context(), f); err != nil {
			return mapStoreError(err)
		}

		record(c, rec, audit.Entry{
			EntityType:  "frais",
			EntityID:    f.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Frais created: %.2f DH - %s", f.Prix, f.Description),
			After:       toResponse(f),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(f))
	}
}

// PUT /api/frais/:id
func UpdateFraisHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		// fetch first so the audit trail can keep the previous state
		all, err := st.ListFrais(c.Context())
		if err != nil {
			return mapStoreError(err)
		}
		var before *models.Frais
		for i := range all {
			if all[i].ID == id {
				before = &all[i]
				break
			}
		}
		if before == nil {
			return fiber.NewError(fiber.StatusNotFound, "Frais not found")
		}

		f, err := parseBody(c)
		if err != nil {
			return err
		}
		f.ID = id

		if err := st.UpdateFrais(c.Context(), f); err != nil {
			return mapStoreError(err)
		}

		record(c, rec, audit.Entry{
			EntityType:  "frais",
			EntityID:    f.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Frais updated: %.2f DH - %s", f.Prix, f.Description),
			Before:      toResponse(*before),
			After:       toResponse(f),
		})

		return c.JSON(toResponse(f))
	}
}

// DELETE /api/frais/:id
func DeleteFraisHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		all, err := st.ListFrais(c.Context())
		if err != nil {
			return mapStoreError(err)
		}
		var before *models.Frais
		for i := range all {
			if all[i].ID == id {
				before = &all[i]
				break
			}
		}
		if before == nil {
			return fiber.NewError(fiber.StatusNotFound, "Frais not found")
		}

		if err := st.DeleteFrais(c.Context(), id); err != nil {
			return mapStoreError(err)
		}

		record(c, rec, audit.Entry{
			EntityType:  "frais",
			EntityID:    id,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Frais deleted: %.2f DH - %s", before.Prix, before.Description),
			Before:      toResponse(*before),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
