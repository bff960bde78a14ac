package repository

import (
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"liquidityguard/internal/models"
)

// ============================================================
// PositionRepository Tests
// ============================================================

func positionColumns() []string {
	return []string{
		"id", "user_address", "protocol", "chain", "collateral_token", "debt_token",
		"collateral_amount", "debt_amount", "collateral_value_usd", "debt_value_usd",
		"health_factor", "risk_level", "status", "created_at", "updated_at",
	}
}

func positionRow(id string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, "0xabc", "aave", "ethereum", "ETH", "USDC",
		25.6, 50000.0, 64000.0, 50000.0,
		1.088, models.RiskLevelCritical, models.PositionStatusMonitored, now, now,
	}
}

func TestNewPositionRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewPositionRepository(db)
	if repo == nil {
		t.Fatal("NewPositionRepository returned nil")
	}
	if repo.db != db {
		t.Error("db not set correctly")
	}
}

func TestPositionRepositoryCreate(t *testing.T) {
	tests := []struct {
		name        string
		pos         *models.Position
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			pos: &models.Position{
				ID:               "pos-1",
				UserAddress:      "0xabc",
				Protocol:         "aave",
				Chain:            "ethereum",
				CollateralToken:  "ETH",
				DebtToken:        "USDC",
				CollateralAmount: 25.6,
				DebtAmount:       50000,
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO positions`).
					WithArgs("pos-1", "0xabc", "aave", "ethereum", "ETH", "USDC",
						25.6, 50000.0, float64(0), float64(0), float64(0), "",
						models.PositionStatusMonitored, sqlmock.AnyArg(), sqlmock.AnyArg()).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectError: nil,
		},
		{
			name: "duplicate key error",
			pos: &models.Position{
				ID:          "pos-1",
				UserAddress: "0xabc",
				Protocol:    "aave",
				Chain:       "ethereum",
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO positions`).
					WillReturnError(errors.New("duplicate key value violates unique constraint"))
			},
			expectError: ErrPositionExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewPositionRepository(db)
			err = repo.Create(tt.pos)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected %v, got %v", tt.expectError, err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPositionRepositoryGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM positions`).
		WithArgs("pos-1").
		WillReturnRows(sqlmock.NewRows(positionColumns()).AddRow(positionRow("pos-1")...))

	repo := NewPositionRepository(db)
	pos, err := repo.GetByID("pos-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pos.ID != "pos-1" {
		t.Errorf("id = %q, want pos-1", pos.ID)
	}
	if pos.HealthFactor != 1.088 {
		t.Errorf("health factor = %v, want 1.088", pos.HealthFactor)
	}
	if pos.RiskLevel != models.RiskLevelCritical {
		t.Errorf("risk level = %q, want critical", pos.RiskLevel)
	}
}

func TestPositionRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM positions`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(positionColumns()))

	repo := NewPositionRepository(db)
	_, err = repo.GetByID("missing")
	if !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestPositionRepositoryListMonitored(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM positions`).
		WithArgs(models.PositionStatusMonitored).
		WillReturnRows(sqlmock.NewRows(positionColumns()).
			AddRow(positionRow("pos-1")...).
			AddRow(positionRow("pos-2")...))

	repo := NewPositionRepository(db)
	positions, err := repo.ListMonitored()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(positions) != 2 {
		t.Errorf("positions = %d, want 2", len(positions))
	}
}

func TestPositionRepositoryUpdateNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE positions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPositionRepository(db)
	err = repo.Update(&models.Position{ID: "missing"})
	if !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestPositionRepositoryUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE positions`).
		WithArgs(models.PositionStatusPaused, sqlmock.AnyArg(), "pos-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPositionRepository(db)
	if err := repo.UpdateStatus("pos-1", models.PositionStatusPaused); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Неизвестный статус отвергается без обращения к БД
	if err := repo.UpdateStatus("pos-1", "liquidated"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestPositionRepositoryCountByRiskLevel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT risk_level, COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"risk_level", "count"}).
			AddRow(models.RiskLevelCritical, 2).
			AddRow(models.RiskLevelSafe, 7))

	repo := NewPositionRepository(db)
	counts, err := repo.CountByRiskLevel()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if counts[models.RiskLevelCritical] != 2 || counts[models.RiskLevelSafe] != 7 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestPositionRepositoryDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM positions`).
		WithArgs("pos-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM positions`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPositionRepository(db)
	if err := repo.Delete("pos-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound, got %v", err)
	}
}
