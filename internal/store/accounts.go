package store

import (
	"fmt"
	"strconv"

	"pointsmarket/internal/model"
	"pointsmarket/internal/tabular"
)

var userHeader = []string{"username", "password_hash", "salt", "is_admin", "points", "created_at"}

// LoadAccounts reads the full account directory.
func (s *Store) LoadAccounts() ([]model.Account, error) {
	records, err := s.tables.Load(TableUsers)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	accounts := make([]model.Account, 0, len(records))
	for _, rec := range records {
		a, err := accountFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("load accounts: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// SaveAccounts replaces the full account directory.
func (s *Store) SaveAccounts(accounts []model.Account) error {
	records := make([]tabular.Record, 0, len(accounts))
	for _, a := range accounts {
		records = append(records, accountToRecord(a))
	}
	if err := s.tables.Save(TableUsers, userHeader, records); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

// FindAccount returns the account for a username, if present.
func FindAccount(accounts []model.Account, username string) (model.Account, bool) {
	for _, a := range accounts {
		if a.Username == username {
			return a, true
		}
	}
	return model.Account{}, false
}

func accountToRecord(a model.Account) tabular.Record {
	return tabular.Record{
		"username":      a.Username,
		"password_hash": a.PasswordHash,
		"salt":          a.Salt,
		"is_admin":      strconv.FormatBool(a.IsAdmin),
		"points":        strconv.Itoa(a.Points),
		"created_at":    formatTime(a.CreatedAt),
	}
}

func accountFromRecord(rec tabular.Record) (model.Account, error) {
	points, err := strconv.Atoi(rec["points"])
	if err != nil {
		return model.Account{}, fmt.Errorf("account %q: bad points %q: %w", rec["username"], rec["points"], err)
	}
	createdAt, err := parseTime(rec["created_at"])
	if err != nil {
		return model.Account{}, fmt.Errorf("account %q: %w", rec["username"], err)
	}
	return model.Account{
		Username:     rec["username"],
		PasswordHash: rec["password_hash"],
		Salt:         rec["salt"],
		IsAdmin:      rec["is_admin"] == "true",
		Points:       points,
		CreatedAt:    createdAt,
	}, nil
}
