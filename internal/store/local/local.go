// Package local persists records to a SQL database through GORM, for
// deployments that do not sync to the spreadsheet web app. Rows keep the
// same tabular layout as the sheet: the versement sequence is a JSON column
// and the derived statut is written alongside the amounts so the table stays
// readable, but it is never read back as truth.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pense-backend/internal/models"
	"pense-backend/internal/store"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type bonRow struct {
	ID             string    `gorm:"primaryKey;size:64"`
	Date           time.Time `gorm:"index;not null"`
	NomClient      string    `gorm:"size:255;not null"`
	PoidsVide      float64   `gorm:"not null"`
	PoidsComplet   float64   `gorm:"not null"`
	Materiel       string    `gorm:"size:255;not null"`
	PrixUnitaire   float64   `gorm:"not null"`
	Montant        float64   `gorm:"not null"`
	Statut         string    `gorm:"size:20;not null"`
	Versements     datatypes.JSON
	MontantPaye    float64 `gorm:"not null"`
	MontantRestant float64 `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (bonRow) TableName() string { return "bons" }

type fraisRow struct {
	ID          string    `gorm:"primaryKey;size:64"`
	Date        time.Time `gorm:"index;not null"`
	Description string    `gorm:"size:255;not null"`
	Prix        float64   `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (fraisRow) TableName() string { return "frais" }

type Store struct {
	db *gorm.DB
}

// Open connects to the database behind dsn and migrates the tables. A DSN
// containing "host=" or a postgres:// scheme selects Postgres, anything else
// is treated as an SQLite path (":memory:" included).
func Open(dsn string) (*Store, error) {
	var dialector gorm.Dialector
	if strings.Contains(dsn, "host=") || strings.HasPrefix(dsn, "postgres://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&bonRow{}, &fraisRow{}, &models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for collaborators sharing the database
// (the audit recorder).
func (s *Store) DB() *gorm.DB { return s.db }

func toBonRow(b models.Bon) (bonRow, error) {
	versements, err := json.Marshal(b.Versements)
	if err != nil {
		return bonRow{}, fmt.Errorf("encode versements: %w", err)
	}
	return bonRow{
		ID:             b.ID,
		Date:           b.Date,
		NomClient:      b.NomClient,
		PoidsVide:      b.PoidsVide,
		PoidsComplet:   b.PoidsComplet,
		Materiel:       b.Materiel,
		PrixUnitaire:   b.PrixUnitaire,
		Montant:        b.Montant,
		Statut:         string(b.Statut()),
		Versements:     datatypes.JSON(versements),
		MontantPaye:    b.MontantPaye,
		MontantRestant: b.MontantRestant,
	}, nil
}

func fromBonRow(row bonRow) (models.Bon, error) {
	versements := []models.Versement{}
	if len(row.Versements) > 0 {
		if err := json.Unmarshal(row.Versements, &versements); err != nil {
			return models.Bon{}, fmt.Errorf("decode versements for bon %s: %w", row.ID, err)
		}
	}
	return models.Bon{
		ID:             row.ID,
		Date:           row.Date,
		NomClient:      row.NomClient,
		PoidsVide:      row.PoidsVide,
		PoidsComplet:   row.PoidsComplet,
		Materiel:       row.Materiel,
		PrixUnitaire:   row.PrixUnitaire,
		Montant:        row.Montant,
		Versements:     versements,
		MontantPaye:    row.MontantPaye,
		MontantRestant: row.MontantRestant,
	}, nil
}

func (s *Store) ListBons(ctx context.Context) ([]models.Bon, error) {
	var rows []bonRow
	if err := s.db.WithContext(ctx).Order("date desc, id desc").Find(&rows).Error; err != nil {
		return nil, &store.RemoteError{Op: "list bons", Err: err}
	}
	bons := make([]models.Bon, 0, len(rows))
	for _, row := range rows {
		b, err := fromBonRow(row)
		if err != nil {
			return nil, &store.RemoteError{Op: "list bons", Err: err}
		}
		bons = append(bons, b)
	}
	return bons, nil
}

func (s *Store) GetBon(ctx context.Context, id string) (models.Bon, error) {
	var row bonRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Bon{}, store.ErrNotFound
		}
		return models.Bon{}, &store.RemoteError{Op: "get bon", Err: err}
	}
	return fromBonRow(row)
}

func (s *Store) AddBon(ctx context.Context, b models.Bon) error {
	row, err := toBonRow(b)
	if err != nil {
		return &store.RemoteError{Op: "add bon", Err: err}
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &store.RemoteError{Op: "add bon", Err: err}
	}
	return nil
}

func (s *Store) UpdateBon(ctx context.Context, b models.Bon) error {
	row, err := toBonRow(b)
	if err != nil {
		return &store.RemoteError{Op: "update bon", Err: err}
	}
	res := s.db.WithContext(ctx).Model(&bonRow{}).Where("id = ?", b.ID).Select(
		"date", "nom_client", "poids_vide", "poids_complet", "materiel",
		"prix_unitaire", "montant", "statut", "versements", "montant_paye",
		"montant_restant",
	).Updates(&row)
	if res.Error != nil {
		return &store.RemoteError{Op: "update bon", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBon(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&bonRow{}, "id = ?", id)
	if res.Error != nil {
		return &store.RemoteError{Op: "delete bon", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListFrais(ctx context.Context) ([]models.Frais, error) {
	var rows []fraisRow
	if err := s.db.WithContext(ctx).Order("date desc, id desc").Find(&rows).Error; err != nil {
		return nil, &store.RemoteError{Op: "list frais", Err: err}
	}
	frais := make([]models.Frais, 0, len(rows))
	for _, row := range rows {
		frais = append(frais, models.Frais{
			ID:          row.ID,
			Date:        row.Date,
			Description: row.Description,
			Prix:        row.Prix,
		})
	}
	return frais, nil
}

func (s *Store) AddFrais(ctx context.Context, f models.Frais) error {
	row := fraisRow{ID: f.ID, Date: f.Date, Description: f.Description, Prix: f.Prix}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return &store.RemoteError{Op: "add frais", Err: err}
	}
	return nil
}

func (s *Store) UpdateFrais(ctx context.Context, f models.Frais) error {
	res := s.db.WithContext(ctx).Model(&fraisRow{}).Where("id = ?", f.ID).Select(
		"date", "description", "prix",
	).Updates(&fraisRow{Date: f.Date, Description: f.Description, Prix: f.Prix})
	if res.Error != nil {
		return &store.RemoteError{Op: "update frais", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFrais(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&fraisRow{}, "id = ?", id)
	if res.Error != nil {
		return &store.RemoteError{Op: "delete frais", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
