package engine

import (
	"time"

	"pointsmarket/internal/model"
	"pointsmarket/internal/pricing"
)

// PrincipalView is the authenticated account as exposed to callers.
type PrincipalView struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	Points   int    `json:"points"`
}

// NewPrincipalView converts an account, dropping credential fields.
func NewPrincipalView(a model.Account) PrincipalView {
	return PrincipalView{Username: a.Username, IsAdmin: a.IsAdmin, Points: a.Points}
}

// Bettors lists usernames backing each direction of an event.
type Bettors struct {
	Yes []string `json:"yes"`
	No  []string `json:"no"`
}

// EventView is an event enriched with computed prices and bettor lists.
type EventView struct {
	ID           string        `json:"id"`
	Description  string        `json:"description"`
	BaseYesPrice int           `json:"base_yes_price"`
	BaseNoPrice  int           `json:"base_no_price"`
	Status       model.Status  `json:"status"`
	Outcome      model.Outcome `json:"outcome"`
	CreatedBy    string        `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	Prices       pricing.Quote `json:"prices"`
	Bets         Bettors       `json:"bets"`
}

// WagerView is a wager as exposed to callers.
type WagerView struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Username  string          `json:"username"`
	Direction model.Direction `json:"direction"`
	Price     int             `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewWagerView converts a ledger wager.
func NewWagerView(w model.Wager) WagerView {
	return WagerView{
		ID:        w.ID,
		EventID:   w.EventID,
		Username:  w.Username,
		Direction: w.Direction,
		Price:     w.Price,
		CreatedAt: w.CreatedAt,
	}
}

// EventList is the full listing payload: every event enriched, plus the
// actor's own wagers.
type EventList struct {
	Events     []EventView `json:"events"`
	UserWagers []WagerView `json:"user_bets"`
}

// NewEventView enriches an event with computed prices and bettor lists
// derived from the wager ledger.
func NewEventView(ev model.Event, wagers []model.Wager) EventView {
	bettors := Bettors{Yes: []string{}, No: []string{}}
	for _, w := range wagers {
		if w.EventID != ev.ID {
			continue
		}
		switch w.Direction {
		case model.DirectionYes:
			bettors.Yes = append(bettors.Yes, w.Username)
		case model.DirectionNo:
			bettors.No = append(bettors.No, w.Username)
		}
	}
	return EventView{
		ID:           ev.ID,
		Description:  ev.Description,
		BaseYesPrice: ev.BaseYesPrice,
		BaseNoPrice:  ev.BaseNoPrice,
		Status:       ev.Status,
		Outcome:      ev.Outcome,
		CreatedBy:    ev.CreatedBy,
		CreatedAt:    ev.CreatedAt,
		Prices:       pricing.QuoteEvent(ev, wagers),
		Bets:         bettors,
	}
}
