package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"agromarket_back_end/internal/models"

	"github.com/gocql/gocql"
)

type FarmerStore struct {
	session *gocql.Session
}

func NewFarmerStore(session *gocql.Session) *FarmerStore {
	return &FarmerStore{session: session}
}

// CreateFarmer assigns an id and creation time and stores the farmer with its
// crops list.
func (s *FarmerStore) CreateFarmer(ctx context.Context, f *models.Farmer) error {
	id := gocql.TimeUUID()
	f.ID = id.String()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	crops, err := encodeCrops(f.Crops)
	if err != nil {
		return fmt.Errorf("encode crops: %w", err)
	}
	return s.session.Query(`INSERT INTO farmers (farmer_id, farmer_name, phone_number, crops, created_at)
		VALUES (?, ?, ?, ?, ?)`, id, f.Name, f.PhoneNumber, crops, f.CreatedAt).
		WithContext(ctx).Exec()
}

func (s *FarmerStore) ListFarmers(ctx context.Context) ([]models.Farmer, error) {
	iter := s.session.Query(`SELECT farmer_id, farmer_name, phone_number, crops, created_at FROM farmers`).
		WithContext(ctx).Iter()

	var (
		farmers   []models.Farmer
		id        gocql.UUID
		name      string
		phone     string
		crops     *string
		createdAt time.Time
	)
	for iter.Scan(&id, &name, &phone, &crops, &createdAt) {
		f := models.Farmer{ID: id.String(), Name: name, PhoneNumber: phone, CreatedAt: createdAt}
		// unreadable crops behave like a missing crops array
		if decoded, err := decodeCrops(crops); err == nil {
			f.Crops = decoded
		}
		farmers = append(farmers, f)
		crops = nil
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	sortFarmers(farmers)
	return farmers, nil
}

func (s *FarmerStore) GetFarmer(ctx context.Context, farmerID string) (*models.Farmer, error) {
	id, err := parseID(farmerID)
	if err != nil {
		return nil, err
	}
	var (
		name, phone string
		crops       *string
		createdAt   time.Time
	)
	err = s.session.Query(`SELECT farmer_name, phone_number, crops, created_at FROM farmers WHERE farmer_id = ?`, id).
		WithContext(ctx).Scan(&name, &phone, &crops, &createdAt)
	if err != nil {
		return nil, notFound(err)
	}
	decoded, err := decodeCrops(crops)
	if err != nil {
		return nil, fmt.Errorf("decode crops of %s: %w", farmerID, err)
	}
	return &models.Farmer{ID: farmerID, Name: name, PhoneNumber: phone, Crops: decoded, CreatedAt: createdAt}, nil
}

// UpdateCrops replaces the crops list of an existing farmer.
func (s *FarmerStore) UpdateCrops(ctx context.Context, farmerID string, crops []models.Crop) error {
	id, err := parseID(farmerID)
	if err != nil {
		return err
	}
	encoded, err := encodeCrops(crops)
	if err != nil {
		return fmt.Errorf("encode crops: %w", err)
	}
	applied, err := s.session.Query(`UPDATE farmers SET crops = ? WHERE farmer_id = ? IF EXISTS`, encoded, id).
		WithContext(ctx).MapScanCAS(map[string]any{})
	if err != nil {
		return err
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

// encodeCrops keeps the difference between no crops array (NULL) and an
// empty one ("[]").
func encodeCrops(crops []models.Crop) (*string, error) {
	if crops == nil {
		return nil, nil
	}
	s, err := encodeJSON(crops)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeCrops(raw *string) ([]models.Crop, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	crops := []models.Crop{}
	if err := json.Unmarshal([]byte(*raw), &crops); err != nil {
		return nil, err
	}
	return crops, nil
}

// sortFarmers orders by creation time so the flattened catalog is stable
// across partition scans.
func sortFarmers(farmers []models.Farmer) {
	sort.SliceStable(farmers, func(i, j int) bool {
		return farmers[i].CreatedAt.Before(farmers[j].CreatedAt)
	})
}
