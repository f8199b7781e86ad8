package service_models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/shared_models"
)

var ErrServiceNotFound = errors.New("service not found")

// LashService is one entry of the studio's service menu.
type LashService struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Price           int64     `json:"price"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewLashService builds a catalog entry.
func NewLashService(name, description string, price int64, durationMinutes int) (*LashService, error) {
	if name == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if price <= 0 {
		return nil, fmt.Errorf("service price must be positive")
	}
	id, err := shared_models.GenerateUUIDv7()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &LashService{
		ID:              id,
		Name:            name,
		Description:     description,
		Price:           price,
		DurationMinutes: durationMinutes,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetServiceByName fetches an active service by its menu name.
func GetServiceByName(ctx context.Context, db *pgxpool.Pool, name string) (*LashService, error) {
	svc := &LashService{}
	err := db.QueryRow(ctx, `
		SELECT id, name, description, price, duration_minutes, is_active, created_at, updated_at
		FROM services
		WHERE name = $1 AND is_active`,
		name,
	).Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price, &svc.DurationMinutes, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		logger.ErrorLogger.Errorf("Failed to fetch service %q: %v", name, err)
		return nil, fmt.Errorf("database error fetching service: %w", err)
	}
	return svc, nil
}

// ListActiveServices returns the public menu.
func ListActiveServices(ctx context.Context, db *pgxpool.Pool) ([]LashService, error) {
	rows, err := db.Query(ctx, `
		SELECT id, name, description, price, duration_minutes, is_active, created_at, updated_at
		FROM services
		WHERE is_active
		ORDER BY name`)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to list services: %v", err)
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []LashService
	for rows.Next() {
		var svc LashService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description, &svc.Price, &svc.DurationMinutes, &svc.IsActive, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// CreateService inserts a catalog entry.
func CreateService(ctx context.Context, db *pgxpool.Pool, svc *LashService) error {
	_, err := db.Exec(ctx, `
		INSERT INTO services (id, name, description, price, duration_minutes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		svc.ID, svc.Name, svc.Description, svc.Price, svc.DurationMinutes, svc.IsActive, svc.CreatedAt, svc.UpdatedAt,
	)
	if err != nil {
		logger.ErrorLogger.Errorf("Failed to insert service %q: %v", svc.Name, err)
		return fmt.Errorf("failed to create service: %w", err)
	}
	logger.InfoLogger.Infof("Service %q created", svc.Name)
	return nil
}

// PostgresCatalog adapts the services table to the booking engine's
// price-lookup interface.
type PostgresCatalog struct {
	db *pgxpool.Pool
}

func NewPostgresCatalog(db *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

func (c *PostgresCatalog) PriceFor(ctx context.Context, name string) (int64, error) {
	svc, err := GetServiceByName(ctx, c.db, name)
	if err != nil {
		return 0, err
	}
	return svc.Price, nil
}
