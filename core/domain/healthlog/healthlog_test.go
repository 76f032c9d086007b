package healthlog

import (
	"database/sql"
	"testing"
	"time"

	"examhub/dispatch/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{RunID: "run-1", ServiceName: "grading-service", CheckedAt: base, Status: StatusHealthy, StatusCode: 200, ResponseTimeMs: 4},
		{RunID: "run-2", ServiceName: "grading-service", CheckedAt: base.Add(time.Minute), Status: StatusUnhealthy, StatusCode: 503, ErrorMessage: "HTTP 503", ResponseTimeMs: 9},
		{RunID: "run-2", ServiceName: "auth-service", CheckedAt: base.Add(time.Minute), Status: StatusHealthy, StatusCode: 200},
	}
	for _, e := range entries {
		if err := repo.Create(e); err != nil {
			t.Fatalf("Failed to create entry: %v", err)
		}
		if e.ID == 0 {
			t.Error("Expected ID to be set after insert")
		}
	}

	logs, err := repo.GetByService("grading-service", 10)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(logs))
	}
	if logs[0].RunID != "run-2" {
		t.Errorf("Expected most recent entry first, got %s", logs[0].RunID)
	}
	if logs[0].ErrorMessage != "HTTP 503" {
		t.Errorf("Expected error message 'HTTP 503', got '%s'", logs[0].ErrorMessage)
	}
	if logs[1].ErrorMessage != "" {
		t.Errorf("Expected empty error message, got '%s'", logs[1].ErrorMessage)
	}
	if !logs[1].CheckedAt.Equal(base) {
		t.Errorf("Expected checked_at %v, got %v", base, logs[1].CheckedAt)
	}
}

func TestRepository_Limit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	for i := 0; i < 5; i++ {
		if err := repo.Create(&Entry{RunID: "r", ServiceName: "auth-service", Status: StatusHealthy}); err != nil {
			t.Fatalf("Failed to create entry: %v", err)
		}
	}

	logs, err := repo.GetByService("auth-service", 3)
	if err != nil {
		t.Fatalf("Failed to get entries: %v", err)
	}
	if len(logs) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(logs))
	}
}

func TestRepository_NilDB(t *testing.T) {
	repo := NewRepository(nil)

	if err := repo.Create(&Entry{ServiceName: "x"}); err != nil {
		t.Errorf("Expected nil error without database, got %v", err)
	}
	logs, err := repo.GetByService("x", 10)
	if err != nil || logs != nil {
		t.Errorf("Expected no logs and no error, got %v, %v", logs, err)
	}
}
