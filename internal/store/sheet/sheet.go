// Package sheet talks to the spreadsheet-backed Apps Script web app: a
// single endpoint taking {action, type, id, item} JSON bodies and answering
// {success, data, error, message}. The web app locates rows by scanning the
// ID column, so every operation is a full round trip.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pense-backend/internal/models"
	"pense-backend/internal/store"
)

const (
	typeBons  = "bons"
	typeFrais = "frais"

	actionGetAll = "getAll"
	actionAdd    = "add"
	actionUpdate = "update"
	actionDelete = "delete"
)

type request struct {
	Action string         `json:"action"`
	Type   string         `json:"type"`
	ID     string         `json:"id,omitempty"`
	Item   map[string]any `json:"item,omitempty"`
}

type response struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Error   string           `json:"error"`
	Message string           `json:"message"`
}

type Store struct {
	url    string
	client *http.Client
}

func New(webAppURL string) *Store {
	return &Store{
		url: webAppURL,
		// The Apps Script runtime is slow to cold start.
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *Store) call(ctx context.Context, op string, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &store.RemoteError{Op: op, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, &store.RemoteError{Op: op, Err: err}
	}
	// text/plain avoids the CORS preflight the web app cannot answer.
	httpReq.Header.Set("Content-Type", "text/plain")

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &store.RemoteError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &store.RemoteError{Op: op, Err: err}
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &store.RemoteError{Op: op, Err: fmt.Errorf("unexpected status %d", httpResp.StatusCode)}
	}

	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &store.RemoteError{Op: op, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if !resp.Success {
		// The web app reports a missing id as "Item not found with ID: x".
		// Other "not found" errors ("Sheet not found: Bons") mean the
		// spreadsheet itself is broken, which is a remote failure.
		if strings.Contains(resp.Error, "Item not found") {
			return nil, store.ErrNotFound
		}
		return nil, &store.RemoteError{Op: op, Err: errors.New(resp.Error)}
	}
	return &resp, nil
}

func (s *Store) ListBons(ctx context.Context) ([]models.Bon, error) {
	resp, err := s.call(ctx, "list bons", request{Action: actionGetAll, Type: typeBons})
	if err != nil {
		return nil, err
	}
	bons := make([]models.Bon, 0, len(resp.Data))
	for _, row := range resp.Data {
		b, err := rowToBon(row)
		if err != nil {
			return nil, &store.RemoteError{Op: "list bons", Err: err}
		}
		bons = append(bons, b)
	}
	return bons, nil
}

// GetBon retrieves the full list and scans for the id, exactly as the web
// app itself does: there is no by-id lookup in the spreadsheet API.
func (s *Store) GetBon(ctx context.Context, id string) (models.Bon, error) {
	bons, err := s.ListBons(ctx)
	if err != nil {
		return models.Bon{}, err
	}
	for _, b := range bons {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Bon{}, store.ErrNotFound
}

func (s *Store) AddBon(ctx context.Context, b models.Bon) error {
	item, err := bonToItem(b)
	if err != nil {
		return &store.RemoteError{Op: "add bon", Err: err}
	}
	_, err = s.call(ctx, "add bon", request{Action: actionAdd, Type: typeBons, Item: item})
	return err
}

func (s *Store) UpdateBon(ctx context.Context, b models.Bon) error {
	item, err := bonToItem(b)
	if err != nil {
		return &store.RemoteError{Op: "update bon", Err: err}
	}
	_, err = s.call(ctx, "update bon", request{Action: actionUpdate, Type: typeBons, ID: b.ID, Item: item})
	return err
}

func (s *Store) DeleteBon(ctx context.Context, id string) error {
	_, err := s.call(ctx, "delete bon", request{Action: actionDelete, Type: typeBons, ID: id})
	return err
}

func (s *Store) ListFrais(ctx context.Context) ([]models.Frais, error) {
	resp, err := s.call(ctx, "list frais", request{Action: actionGetAll, Type: typeFrais})
	if err != nil {
		return nil, err
	}
	frais := make([]models.Frais, 0, len(resp.Data))
	for _, row := range resp.Data {
		frais = append(frais, rowToFrais(row))
	}
	return frais, nil
}

func (s *Store) AddFrais(ctx context.Context, f models.Frais) error {
	_, err := s.call(ctx, "add frais", request{Action: actionAdd, Type: typeFrais, Item: fraisToItem(f)})
	return err
}

func (s *Store) UpdateFrais(ctx context.Context, f models.Frais) error {
	_, err := s.call(ctx, "update frais", request{Action: actionUpdate, Type: typeFrais, ID: f.ID, Item: fraisToItem(f)})
	return err
}

func (s *Store) DeleteFrais(ctx context.Context, id string) error {
	_, err := s.call(ctx, "delete frais", request{Action: actionDelete, Type: typeFrais, ID: id})
	return err
}
