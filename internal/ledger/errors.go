package ledger

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries every invalid field at once so the form can show
// all messages together instead of one at a time.
type ValidationError struct {
	Fields map[string]string // field name -> message
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "invalid fields: " + strings.Join(names, ", ")
}

// PaymentOutOfRangeError is returned when a versement amount falls outside
// (0, montantRestant]. Max is the remaining amount at the time of the attempt.
type PaymentOutOfRangeError struct {
	Montant float64
	Max     float64
}

func (e *PaymentOutOfRangeError) Error() string {
	return fmt.Sprintf("versement %.2f out of range, must be within [0, %.2f]", e.Montant, e.Max)
}

// NegativeRemainingWarning signals that an edit lowered the montant below
// what has already been paid. The edit is still applied (last write wins,
// no clamping); callers decide how to surface it.
type NegativeRemainingWarning struct {
	MontantRestant float64
}

func (w *NegativeRemainingWarning) Error() string {
	return fmt.Sprintf("montant restant is negative (%.2f): paid amount exceeds the new montant", w.MontantRestant)
}
