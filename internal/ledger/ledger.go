// Package ledger owns the monetary state of a bon: montant calculation,
// versement application and remaining-amount recomputation on edit. All
// operations are pure, they return a new Bon and never touch the input.
// Persistence is the caller's business.
package ledger

import (
	"strings"
	"time"

	"pense-backend/internal/models"

	"github.com/google/uuid"
)

// BonInput - raw form fields of a bon, before validation
type BonInput struct {
	NomClient    string
	PoidsVide    float64
	PoidsComplet float64
	Materiel     string
	PrixUnitaire float64
}

func validate(in BonInput) error {
	fields := map[string]string{}

	if strings.TrimSpace(in.NomClient) == "" {
		fields["nomClient"] = "Client name is required"
	}
	if in.PoidsVide < 0 {
		fields["poidsVide"] = "Poids Vide must be greater than or equal to 0"
	}
	if in.PoidsComplet <= in.PoidsVide {
		fields["poidsComplet"] = "Poids Complet must be greater than Poids Vide"
	}
	if strings.TrimSpace(in.Materiel) == "" {
		fields["materiel"] = "Materiel is required"
	}
	if in.PrixUnitaire <= 0 {
		fields["prixUnitaire"] = "Prix Unitaire must be greater than 0"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// NewBon validates the input and builds a fresh bon with no versements.
// Montant = (poidsComplet - poidsVide) * prixUnitaire, kept at full float64
// precision; rounding happens at display time only.
func NewBon(in BonInput) (models.Bon, error) {
	if err := validate(in); err != nil {
		return models.Bon{}, err
	}

	montant := (in.PoidsComplet - in.PoidsVide) * in.PrixUnitaire
	return models.Bon{
		ID:             uuid.NewString(),
		Date:           time.Now(),
		NomClient:      strings.TrimSpace(in.NomClient),
		PoidsVide:      in.PoidsVide,
		PoidsComplet:   in.PoidsComplet,
		Materiel:       strings.TrimSpace(in.Materiel),
		PrixUnitaire:   in.PrixUnitaire,
		Montant:        montant,
		Versements:     []models.Versement{},
		MontantPaye:    0,
		MontantRestant: montant,
	}, nil
}

// ApplyVersement appends a payment of montant to the bon. The amount must be
// within (0, b.MontantRestant]; paying exactly the remaining amount settles
// the bon in full. On a range violation the returned error is a
// *PaymentOutOfRangeError and the input bon is left as it was.
func ApplyVersement(b models.Bon, montant float64, note string) (models.Bon, error) {
	if montant <= 0 || montant > b.MontantRestant {
		return b, &PaymentOutOfRangeError{Montant: montant, Max: b.MontantRestant}
	}

	v := models.Versement{
		ID:      uuid.NewString(),
		Date:    time.Now(),
		Montant: montant,
		Note:    strings.TrimSpace(note),
	}

	// Fresh slice so the caller's bon keeps its own versement sequence.
	versements := make([]models.Versement, 0, len(b.Versements)+1)
	versements = append(versements, b.Versements...)
	versements = append(versements, v)

	b.Versements = versements
	b.MontantPaye += montant
	b.MontantRestant -= montant
	return b, nil
}

// Edit replaces the weighing fields of the bon and recomputes the montant.
// The versement sequence and montantPaye are carried over unchanged;
// montantRestant becomes new montant - montantPaye. Lowering the price after
// payments can push the remaining amount below zero: the edit is not blocked,
// the returned *NegativeRemainingWarning reports it.
func Edit(b models.Bon, in BonInput) (models.Bon, *NegativeRemainingWarning, error) {
	if err := validate(in); err != nil {
		return b, nil, err
	}

	montant := (in.PoidsComplet - in.PoidsVide) * in.PrixUnitaire

	b.NomClient = strings.TrimSpace(in.NomClient)
	b.PoidsVide = in.PoidsVide
	b.PoidsComplet = in.PoidsComplet
	b.Materiel = strings.TrimSpace(in.Materiel)
	b.PrixUnitaire = in.PrixUnitaire
	b.Montant = montant
	b.MontantRestant = montant - b.MontantPaye

	var warn *NegativeRemainingWarning
	if b.MontantRestant < 0 {
		warn = &NegativeRemainingWarning{MontantRestant: b.MontantRestant}
	}
	return b, warn, nil
}
