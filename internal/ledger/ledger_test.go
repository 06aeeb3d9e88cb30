package ledger

import (
	"testing"

	"pense-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() BonInput {
	return BonInput{
		NomClient:    "Test Client",
		PoidsVide:    10.5,
		PoidsComplet: 50.5,
		Materiel:     "Cuivre",
		PrixUnitaire: 85.5,
	}
}

func TestNewBonComputesMontant(t *testing.T) {
	b, err := NewBon(validInput())
	require.NoError(t, err)

	assert.Equal(t, (50.5-10.5)*85.5, b.Montant)
	assert.Equal(t, 3420.0, b.Montant)
	assert.Equal(t, models.StatutImpaye, b.Statut())
	assert.Equal(t, 0.0, b.MontantPaye)
	assert.Equal(t, b.Montant, b.MontantRestant)
	assert.Empty(t, b.Versements)
	assert.NotEmpty(t, b.ID)
	assert.False(t, b.Date.IsZero())
}

func TestNewBonReportsAllInvalidFieldsTogether(t *testing.T) {
	_, err := NewBon(BonInput{
		NomClient:    "  ",
		PoidsVide:    -1,
		PoidsComplet: -2,
		Materiel:     "",
		PrixUnitaire: 0,
	})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 5)
	assert.Contains(t, verr.Fields, "nomClient")
	assert.Contains(t, verr.Fields, "poidsVide")
	assert.Contains(t, verr.Fields, "poidsComplet")
	assert.Contains(t, verr.Fields, "materiel")
	assert.Contains(t, verr.Fields, "prixUnitaire")
}

func TestNewBonRejectsZeroWeights(t *testing.T) {
	in := validInput()
	in.PoidsVide = 0
	in.PoidsComplet = 0

	_, err := NewBon(in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "poidsComplet")
	assert.NotContains(t, verr.Fields, "poidsVide")
}

func TestApplyVersementAccumulates(t *testing.T) {
	b, err := NewBon(validInput())
	require.NoError(t, err)

	b, err = ApplyVersement(b, 1000, "premier versement")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, b.MontantPaye)
	assert.Equal(t, 2420.0, b.MontantRestant)
	assert.Equal(t, models.StatutPayePartiel, b.Statut())
	require.Len(t, b.Versements, 1)
	assert.Equal(t, "premier versement", b.Versements[0].Note)

	b, err = ApplyVersement(b, 420, "")
	require.NoError(t, err)
	assert.Equal(t, 1420.0, b.MontantPaye)
	assert.Equal(t, b.Montant-b.MontantPaye, b.MontantRestant)
	require.Len(t, b.Versements, 2)
}

func TestApplyVersementExactRemainderSettles(t *testing.T) {
	b, _ := NewBon(validInput())
	b, err := ApplyVersement(b, 1000, "")
	require.NoError(t, err)

	b, err = ApplyVersement(b, 2420, "solde")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.MontantRestant)
	assert.Equal(t, 3420.0, b.MontantPaye)
	assert.Equal(t, models.StatutPaye, b.Statut())
}

func TestApplyVersementOutOfRangeLeavesBonUnchanged(t *testing.T) {
	b, _ := NewBon(validInput())
	b, err := ApplyVersement(b, 3000, "")
	require.NoError(t, err)

	for _, montant := range []float64{0, -5, 421} {
		got, err := ApplyVersement(b, montant, "")
		require.Error(t, err)

		var perr *PaymentOutOfRangeError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, montant, perr.Montant)
		assert.Equal(t, 420.0, perr.Max)

		// no payment appended, amounts untouched
		assert.Equal(t, b, got)
		assert.Len(t, b.Versements, 1)
		assert.Equal(t, 3000.0, b.MontantPaye)
	}
}

func TestApplyVersementDoesNotMutateInput(t *testing.T) {
	b, _ := NewBon(validInput())
	before := b

	after, err := ApplyVersement(b, 500, "")
	require.NoError(t, err)

	assert.Equal(t, before.MontantPaye, b.MontantPaye)
	assert.Len(t, b.Versements, 0)
	assert.Len(t, after.Versements, 1)
}

func TestEditPreservesVersementsAndPaid(t *testing.T) {
	b, _ := NewBon(validInput())
	b, _ = ApplyVersement(b, 1000, "acompte")
	b, _ = ApplyVersement(b, 500, "")
	versements := b.Versements

	in := validInput()
	in.PrixUnitaire = 100 // montant becomes 4000
	edited, warn, err := Edit(b, in)
	require.NoError(t, err)
	assert.Nil(t, warn)

	assert.Equal(t, 4000.0, edited.Montant)
	assert.Equal(t, 1500.0, edited.MontantPaye)
	assert.Equal(t, 2500.0, edited.MontantRestant)
	assert.Equal(t, models.StatutPayePartiel, edited.Statut())
	// same elements, same order
	require.Len(t, edited.Versements, 2)
	assert.Equal(t, versements, edited.Versements)
}

func TestEditWithSameValuesIsIdempotent(t *testing.T) {
	b, _ := NewBon(validInput())
	b, _ = ApplyVersement(b, 1000, "")

	edited, warn, err := Edit(b, BonInput{
		NomClient:    b.NomClient,
		PoidsVide:    b.PoidsVide,
		PoidsComplet: b.PoidsComplet,
		Materiel:     b.Materiel,
		PrixUnitaire: b.PrixUnitaire,
	})
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, b, edited)
}

func TestEditValidationLeavesBonUnchanged(t *testing.T) {
	b, _ := NewBon(validInput())

	in := validInput()
	in.PrixUnitaire = -3
	got, warn, err := Edit(b, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Nil(t, warn)
	assert.Equal(t, b, got)
}

func TestEditBelowPaidAmountWarnsWithoutClamping(t *testing.T) {
	b, _ := NewBon(validInput())
	b, _ = ApplyVersement(b, 3000, "")

	in := validInput()
	in.PrixUnitaire = 50 // montant becomes 2000, below the 3000 already paid
	edited, warn, err := Edit(b, in)
	require.NoError(t, err)

	require.NotNil(t, warn)
	assert.Equal(t, -1000.0, warn.MontantRestant)
	assert.Equal(t, -1000.0, edited.MontantRestant)
	assert.Equal(t, 3000.0, edited.MontantPaye)
	// still "partially paid": not settled, but money was received
	assert.Equal(t, models.StatutPayePartiel, edited.Statut())
}

// Full scenario from the field: 10.5kg empty, 50.5kg loaded, 85.5 DH/kg.
func TestBonLifecycle(t *testing.T) {
	b, err := NewBon(validInput())
	require.NoError(t, err)
	require.Equal(t, 3420.0, b.Montant)
	require.Equal(t, models.StatutImpaye, b.Statut())

	b, err = ApplyVersement(b, 1000, "")
	require.NoError(t, err)
	require.Equal(t, 1000.0, b.MontantPaye)
	require.Equal(t, 2420.0, b.MontantRestant)
	require.Equal(t, models.StatutPayePartiel, b.Statut())

	b, err = ApplyVersement(b, 2420, "")
	require.NoError(t, err)
	require.Equal(t, 0.0, b.MontantRestant)
	require.Equal(t, models.StatutPaye, b.Statut())

	_, err = ApplyVersement(b, 1, "")
	var perr *PaymentOutOfRangeError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, 0.0, perr.Max)
}
