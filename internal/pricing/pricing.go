// Package pricing derives current yes/no prices from an event's base
// prices and its wager history. It is pure computation: no cached price
// is ever stored, so quotes are always re-derivable from persisted data.
package pricing

import "pointsmarket/internal/model"

// Increment is the fixed price bump per same-direction wager.
const Increment = 5

// Quote is the current cost, in points, to back each direction.
type Quote struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// For returns the quoted price for one direction.
func (q Quote) For(d model.Direction) int {
	if d == model.DirectionYes {
		return q.Yes
	}
	return q.No
}

// QuoteEvent computes current prices for an event given all wagers.
// Wagers on other events are ignored, so callers may pass the full
// ledger unfiltered.
func QuoteEvent(ev model.Event, wagers []model.Wager) Quote {
	var yes, no int
	for _, w := range wagers {
		if w.EventID != ev.ID {
			continue
		}
		switch w.Direction {
		case model.DirectionYes:
			yes++
		case model.DirectionNo:
			no++
		}
	}
	return Quote{
		Yes: ev.BaseYesPrice + yes*Increment,
		No:  ev.BaseNoPrice + no*Increment,
	}
}
