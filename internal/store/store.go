package store

import (
	"fmt"
	"log/slog"
	"time"

	"pointsmarket/internal/auth"
	"pointsmarket/internal/model"
	"pointsmarket/internal/tabular"
)

// Table identifiers.
const (
	TableUsers  = "users"
	TableEvents = "events"
	TableBets   = "bets"
)

// BootstrapAdmin is the username (and initial password) of the account
// seeded on first run.
const BootstrapAdmin = "admin"

// timeLayout is the persisted timestamp format.
const timeLayout = time.RFC3339Nano

// Store owns the three market tables.
type Store struct {
	tables *tabular.Store
	logger *slog.Logger
}

// Open creates the data directory if needed, initializes any missing
// table, and seeds the bootstrap administrator when the user table is
// created for the first time.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tables, err := tabular.New(dir)
	if err != nil {
		return nil, err
	}
	s := &Store{tables: tables, logger: logger}

	if !tables.Exists(TableUsers) {
		hash, salt, err := auth.HashPassword(BootstrapAdmin)
		if err != nil {
			return nil, fmt.Errorf("seed admin credentials: %w", err)
		}
		admin := model.Account{
			Username:     BootstrapAdmin,
			PasswordHash: hash,
			Salt:         salt,
			IsAdmin:      true,
			Points:       model.DefaultStartingPoints,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.SaveAccounts([]model.Account{admin}); err != nil {
			return nil, err
		}
		logger.Info("seeded bootstrap administrator",
			"username", BootstrapAdmin,
			"points", model.DefaultStartingPoints,
		)
	}

	if !tables.Exists(TableEvents) {
		if err := s.SaveEvents(nil); err != nil {
			return nil, err
		}
	}
	if !tables.Exists(TableBets) {
		if err := s.SaveWagers(nil); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
