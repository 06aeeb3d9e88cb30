package bons

import (
	"errors"
	"fmt"
	"time"

	"pense-backend/internal/audit"
	"pense-backend/internal/auth"
	"pense-backend/internal/ledger"
	"pense-backend/internal/logger"
	"pense-backend/internal/models"
	"pense-backend/internal/store"

	"github.com/gofiber/fiber/v2"
)

// -------------------------
// Request/Response Types
// -------------------------

type BonRequest struct {
	NomClient    string  `json:"nomClient"`
	PoidsVide    float64 `json:"poidsVide"`
	PoidsComplet float64 `json:"poidsComplet"`
	Materiel     string  `json:"materiel"`
	PrixUnitaire float64 `json:"prixUnitaire"`
}

type CreateVersementRequest struct {
	Montant float64 `json:"montant"`
	Note    string  `json:"note"`
}

type VersementResponse struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Montant float64 `json:"montant"`
	Note    string  `json:"note,omitempty"`
}

type BonResponse struct {
	ID             string              `json:"id"`
	Date           string              `json:"date"`
	NomClient      string              `json:"nomClient"`
	PoidsVide      float64             `json:"poidsVide"`
	PoidsComplet   float64             `json:"poidsComplet"`
	Materiel       string              `json:"materiel"`
	PrixUnitaire   float64             `json:"prixUnitaire"`
	Montant        float64             `json:"montant"`
	Statut         models.BonStatut    `json:"statut"`
	Versements     []VersementResponse `json:"versements"`
	MontantPaye    float64             `json:"montantPaye"`
	MontantRestant float64             `json:"montantRestant"`
	Warning        string              `json:"warning,omitempty"`
}

func toResponse(b models.Bon) BonResponse {
	versements := make([]VersementResponse, 0, len(b.Versements))
	for _, v := range b.Versements {
		versements = append(versements, VersementResponse{
			ID:      v.ID,
			Date:    v.Date.Format(time.RFC3339),
			Montant: v.Montant,
			Note:    v.Note,
		})
	}
	return BonResponse{
		ID:             b.ID,
		Date:           b.Date.Format(time.RFC3339),
		NomClient:      b.NomClient,
		PoidsVide:      b.PoidsVide,
		PoidsComplet:   b.PoidsComplet,
		Materiel:       b.Materiel,
		PrixUnitaire:   b.PrixUnitaire,
		Montant:        b.Montant,
		Statut:         b.Statut(),
		Versements:     versements,
		MontantPaye:    b.MontantPaye,
		MontantRestant: b.MontantRestant,
	}
}

func toInput(body BonRequest) ledger.BonInput {
	return ledger.BonInput{
		NomClient:    body.NomClient,
		PoidsVide:    body.PoidsVide,
		PoidsComplet: body.PoidsComplet,
		Materiel:     body.Materiel,
		PrixUnitaire: body.PrixUnitaire,
	}
}

// mapStoreError translates store failures for the client: missing ids are
// 404, anything remote is a 502 "sync error". The handlers never retry.
func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Bon not found")
	}
	var rerr *store.RemoteError
	if errors.As(err, &rerr) {
		logger.L().Warnw("record store failure", "error", rerr)
		return fiber.NewError(fiber.StatusBadGateway, "Sync error with the record store")
	}
	return err
}

func validationResponse(c *fiber.Ctx, verr *ledger.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"fields": verr.Fields,
	})
}

func record(c *fiber.Ctx, rec audit.Recorder, e audit.Entry) {
	e.Username = auth.Username(c)
	if err := rec.Record(c.Context(), e); err != nil {
		logger.L().Warnw("could not write audit log", "error", err)
	}
}

// -------------------------
// Bon CRUD
// -------------------------

// GET /api/bons
func ListBonsHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bons, err := st.ListBons(c.Context())
		if err != nil {
			return mapStoreError(err)
		}

		resp := make([]BonResponse, 0, len(bons))
		for _, b := range bons {
			resp = append(resp, toResponse(b))
		}
		return c.JSON(resp)
	}
}

// GET /api/bons/:id
// Full record including the versement history, used by the receipt view.
func GetBonHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := st.GetBon(c.Context(), c.Params("id"))
		if err != nil {
			return mapStoreError(err)
		}
		return c.JSON(toResponse(b))
	}
}

// POST /api/bons
func CreateBonHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BonRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		b, err := ledger.NewBon(toInput(body))
		if err != nil {
			var verr *ledger.ValidationError
			if errors.As(err, &verr) {
				return validationResponse(c, verr)
			}
			return err
		}

		if err := st.AddBon(c.Context(), b); err != nil {
			return mapStoreError(err)
		}

		record(c, rec, audit.Entry{
			EntityType:  "bon",
			EntityID:    b.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Bon created: %.2f DH - %s", b.Montant, b.NomClient),
			After:       toResponse(b),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(b))
	}
}

// PUT /api/bons/:id
// Edits the weighing fields and recomputes the montant. The versement
// history and montantPaye are preserved; if the new montant drops below
// what was already paid the response carries a warning instead of failing.
func UpdateBonHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := st.GetBon(c.Context(), c.Params("id"))
		if err != nil {
			return mapStoreError(err)
		}

		var body BonRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		before := toResponse(b)

		edited, warn, err := ledger.Edit(b, toInput(body))
		if err != nil {
			var verr *ledger.ValidationError
			if errors.As(err, &verr) {
				return validationResponse(c, verr)
			}
			return err
		}

		if err := st.UpdateBon(c.Context(), edited); err != nil {
			return mapStoreError(err)
		}

		record(c, rec, audit.Entry{
			EntityType:  "bon",
			EntityID:    edited.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Bon updated: %.2f DH - %s", edited.Montant, edited.NomClient),
			Before:      before,
			After:       toResponse(edited),
		})

		resp := toResponse(edited)
		if warn != nil {
			resp.Warning = warn.Error()
			logger.L().Warnw("bon edited below paid amount",
				"bon_id", edited.ID, "montant_restant", edited.MontantRestant)
		}
		return c.JSON(resp)
	}
}

// DELETE /api/bons/:id
// Removes the bon and its versement history as one unit.
func DeleteBonHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := st.GetBon(c.Context(), c.Params("id"))
		if err != nil {
			return mapStoreError(err)
		}

		if err := st.DeleteBon(c.Context(), b.ID); err != nil {
			return mapStoreError(err)
		}

		record(c, rec, audit.Entry{
			EntityType:  "bon",
			EntityID:    b.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Bon deleted: %.2f DH - %s", b.Montant, b.NomClient),
			Before:      toResponse(b),
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Versements
// -------------------------

// POST /api/bons/:id/versements
func CreateVersementHandler(st store.Store, rec audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := st.GetBon(c.Context(), c.Params("id"))
		if err != nil {
			return mapStoreError(err)
		}

		var body CreateVersementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		updated, err := ledger.ApplyVersement(b, body.Montant, body.Note)
		if err != nil {
			var perr *ledger.PaymentOutOfRangeError
			if errors.As(err, &perr) {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("Versement must be within [0, %.2f]", perr.Max))
			}
			return err
		}

		if err := st.UpdateBon(c.Context(), updated); err != nil {
			return mapStoreError(err)
		}

		v := updated.Versements[len(updated.Versements)-1]
		record(c, rec, audit.Entry{
			EntityType:  "bon",
			EntityID:    updated.ID,
			Action:      models.AuditActionVersement,
			Description: fmt.Sprintf("Versement added: %.2f DH on bon %s", v.Montant, updated.ID),
			After:       toResponse(updated),
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(updated))
	}
}

// GET /api/bons/:id/versements
func ListVersementsHandler(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := st.GetBon(c.Context(), c.Params("id"))
		if err != nil {
			return mapStoreError(err)
		}

		resp := make([]VersementResponse, 0, len(b.Versements))
		for _, v := range b.Versements {
			resp = append(resp, VersementResponse{
				ID:      v.ID,
				Date:    v.Date.Format(time.RFC3339),
				Montant: v.Montant,
				Note:    v.Note,
			})
		}
		return c.JSON(resp)
	}
}
