package store

import (
	"fmt"
	"strconv"

	"pointsmarket/internal/model"
	"pointsmarket/internal/tabular"
)

var eventHeader = []string{"id", "description", "base_yes_price", "base_no_price", "status", "outcome", "created_by", "created_at"}

// LoadEvents reads the full market catalog.
func (s *Store) LoadEvents() ([]model.Event, error) {
	records, err := s.tables.Load(TableEvents)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	events := make([]model.Event, 0, len(records))
	for _, rec := range records {
		ev, err := eventFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("load events: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// SaveEvents replaces the full market catalog.
func (s *Store) SaveEvents(events []model.Event) error {
	records := make([]tabular.Record, 0, len(events))
	for _, ev := range events {
		records = append(records, eventToRecord(ev))
	}
	if err := s.tables.Save(TableEvents, eventHeader, records); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

// FindEvent returns the event with the given id, if present.
func FindEvent(events []model.Event, id string) (model.Event, bool) {
	for _, ev := range events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

func eventToRecord(ev model.Event) tabular.Record {
	return tabular.Record{
		"id":             ev.ID,
		"description":    ev.Description,
		"base_yes_price": strconv.Itoa(ev.BaseYesPrice),
		"base_no_price":  strconv.Itoa(ev.BaseNoPrice),
		"status":         string(ev.Status),
		"outcome":        string(ev.Outcome),
		"created_by":     ev.CreatedBy,
		"created_at":     formatTime(ev.CreatedAt),
	}
}

func eventFromRecord(rec tabular.Record) (model.Event, error) {
	baseYes, err := strconv.Atoi(rec["base_yes_price"])
	if err != nil {
		return model.Event{}, fmt.Errorf("event %q: bad base_yes_price %q: %w", rec["id"], rec["base_yes_price"], err)
	}
	baseNo, err := strconv.Atoi(rec["base_no_price"])
	if err != nil {
		return model.Event{}, fmt.Errorf("event %q: bad base_no_price %q: %w", rec["id"], rec["base_no_price"], err)
	}
	createdAt, err := parseTime(rec["created_at"])
	if err != nil {
		return model.Event{}, fmt.Errorf("event %q: %w", rec["id"], err)
	}
	return model.Event{
		ID:           rec["id"],
		Description:  rec["description"],
		BaseYesPrice: baseYes,
		BaseNoPrice:  baseNo,
		Status:       model.Status(rec["status"]),
		Outcome:      model.Outcome(rec["outcome"]),
		CreatedBy:    rec["created_by"],
		CreatedAt:    createdAt,
	}, nil
}
