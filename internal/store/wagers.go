package store

import (
	"fmt"
	"strconv"

	"pointsmarket/internal/model"
	"pointsmarket/internal/tabular"
)

var wagerHeader = []string{"id", "event_id", "username", "direction", "price", "created_at"}

// LoadWagers reads the full wager ledger.
func (s *Store) LoadWagers() ([]model.Wager, error) {
	records, err := s.tables.Load(TableBets)
	if err != nil {
		return nil, fmt.Errorf("load wagers: %w", err)
	}
	wagers := make([]model.Wager, 0, len(records))
	for _, rec := range records {
		w, err := wagerFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("load wagers: %w", err)
		}
		wagers = append(wagers, w)
	}
	return wagers, nil
}

// SaveWagers replaces the full wager ledger. The ledger is append-only
// in practice; existing rows are rewritten unchanged.
func (s *Store) SaveWagers(wagers []model.Wager) error {
	records := make([]tabular.Record, 0, len(wagers))
	for _, w := range wagers {
		records = append(records, wagerToRecord(w))
	}
	if err := s.tables.Save(TableBets, wagerHeader, records); err != nil {
		return fmt.Errorf("save wagers: %w", err)
	}
	return nil
}

func wagerToRecord(w model.Wager) tabular.Record {
	return tabular.Record{
		"id":         w.ID,
		"event_id":   w.EventID,
		"username":   w.Username,
		"direction":  string(w.Direction),
		"price":      strconv.Itoa(w.Price),
		"created_at": formatTime(w.CreatedAt),
	}
}

func wagerFromRecord(rec tabular.Record) (model.Wager, error) {
	price, err := strconv.Atoi(rec["price"])
	if err != nil {
		return model.Wager{}, fmt.Errorf("wager %q: bad price %q: %w", rec["id"], rec["price"], err)
	}
	createdAt, err := parseTime(rec["created_at"])
	if err != nil {
		return model.Wager{}, fmt.Errorf("wager %q: %w", rec["id"], err)
	}
	return model.Wager{
		ID:        rec["id"],
		EventID:   rec["event_id"],
		Username:  rec["username"],
		Direction: model.Direction(rec["direction"]),
		Price:     price,
		CreatedAt: createdAt,
	}, nil
}
