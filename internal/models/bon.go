package models

import "time"

type BonStatut string

const (
	StatutImpaye      BonStatut = "impaye"
	StatutPayePartiel BonStatut = "paye_partiel"
	StatutPaye        BonStatut = "paye"
)

// Bon - weighing/delivery ticket with partial payment tracking
type Bon struct {
	ID             string      `json:"id"`
	Date           time.Time   `json:"date"`
	NomClient      string      `json:"nomClient"`
	PoidsVide      float64     `json:"poidsVide"`     // kg
	PoidsComplet   float64     `json:"poidsComplet"`  // kg
	Materiel       string      `json:"materiel"`
	PrixUnitaire   float64     `json:"prixUnitaire"`  // DH/kg
	Montant        float64     `json:"montant"`       // (poidsComplet - poidsVide) * prixUnitaire
	Versements     []Versement `json:"versements"`
	MontantPaye    float64     `json:"montantPaye"`
	MontantRestant float64     `json:"montantRestant"`
}

// Versement - one partial payment applied against a bon
type Versement struct {
	ID      string    `json:"id"`
	Date    time.Time `json:"date"`
	Montant float64   `json:"montant"`
	Note    string    `json:"note,omitempty"`
}

// Statut derives the payment state from the amounts. It is never stored as
// its own field so it cannot drift from montantPaye/montantRestant.
// Comparison with zero is exact, matching the historical spreadsheet data.
func (b Bon) Statut() BonStatut {
	switch {
	case b.MontantRestant == 0:
		return StatutPaye
	case b.MontantPaye == 0:
		return StatutImpaye
	default:
		return StatutPayePartiel
	}
}
