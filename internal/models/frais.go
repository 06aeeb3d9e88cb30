package models

import "time"

// Frais - flat dated expense, no payment tracking
type Frais struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Prix        float64   `json:"prix"` // DH
}
