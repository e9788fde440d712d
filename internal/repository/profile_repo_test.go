package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	vs "voltage_sweeper"
)

func TestProfileSaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewProfileSQLite(db)

	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	p := vs.Profile{
		ID:        "p1",
		Name:      "slow ramp",
		Settings:  testSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	settingsJSON, _ := json.Marshal(p.Settings)

	mock.ExpectExec(regexp.QuoteMeta(upsertProfileSQL)).
		WithArgs("p1", "slow ramp", string(settingsJSON), now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Save(context.Background(), p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestProfileGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewProfileSQLite(db)

	settingsJSON, _ := json.Marshal(testSettings())
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(selectProfileSQL)).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "settings", "created_at", "updated_at"}).
			AddRow("p1", "slow ramp", string(settingsJSON), now, now))

	p, err := repo.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "slow ramp" || p.Settings.StepSize != 0.5 {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestProfileGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewProfileSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta(selectProfileSQL)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "settings", "created_at", "updated_at"}))

	_, err = repo.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewProfileSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(deleteProfileSQL)).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestProfileList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewProfileSQLite(db)

	settingsJSON, _ := json.Marshal(testSettings())
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(listProfilesSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "settings", "created_at", "updated_at"}).
			AddRow("p1", "a", string(settingsJSON), now, now).
			AddRow("p2", "b", string(settingsJSON), now, now))

	profiles, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(profiles) != 2 || profiles[0].Name != "a" {
		t.Fatalf("unexpected profiles: %+v", profiles)
	}
}
