package engine

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pointsmarket/internal/auth"
	"pointsmarket/internal/metrics"
	"pointsmarket/internal/model"
	"pointsmarket/internal/pricing"
	"pointsmarket/internal/session"
	"pointsmarket/internal/store"
)

// FlatPayout is the fixed credit per winning wager, independent of the
// locked price. Losing wagers forfeit their full stake.
const FlatPayout = 100

// Engine orchestrates the market tables. It is the sole writer: a
// single mutex serializes every mutating operation end to end,
// including its table writes.
type Engine struct {
	store    *store.Store
	sessions *session.Manager
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates an engine over an opened store.
func New(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    st,
		sessions: session.NewManager(),
		logger:   logger,
	}
}

func requireActor(actor model.Account) error {
	if actor.Username == "" {
		return errf(KindAuthentication, "missing principal")
	}
	return nil
}

func requireAdmin(actor model.Account) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin {
		return errf(KindAuthorization, "administrator only")
	}
	return nil
}

// Login verifies credentials and issues a session token.
func (e *Engine) Login(username, password string) (string, model.Account, error) {
	accounts, err := e.store.LoadAccounts()
	if err != nil {
		return "", model.Account{}, storageErr(err)
	}
	acct, ok := store.FindAccount(accounts, username)
	if !ok || !auth.Verify(password, acct.PasswordHash, acct.Salt) {
		return "", model.Account{}, errf(KindAuthentication, "invalid credentials")
	}

	token, err := e.sessions.Create(acct.Username)
	if err != nil {
		return "", model.Account{}, storageErr(err)
	}
	e.logger.Info("login", "username", acct.Username)
	return token, acct, nil
}

// Logout destroys a session. Best effort: succeeds even if the token
// was already absent.
func (e *Engine) Logout(token string) {
	e.sessions.Destroy(token)
}

// ResolveSession maps a bearer token to its live account record.
func (e *Engine) ResolveSession(token string) (model.Account, error) {
	username, ok := e.sessions.Resolve(token)
	if !ok {
		return model.Account{}, errf(KindAuthentication, "invalid session")
	}
	accounts, err := e.store.LoadAccounts()
	if err != nil {
		return model.Account{}, storageErr(err)
	}
	acct, ok := store.FindAccount(accounts, username)
	if !ok {
		return model.Account{}, errf(KindAuthentication, "invalid session")
	}
	return acct, nil
}

// ListEvents returns every event enriched with computed prices and
// bettor lists, plus the actor's own wagers.
func (e *Engine) ListEvents(actor model.Account) (EventList, error) {
	if err := requireActor(actor); err != nil {
		return EventList{}, err
	}

	events, err := e.store.LoadEvents()
	if err != nil {
		return EventList{}, storageErr(err)
	}
	wagers, err := e.store.LoadWagers()
	if err != nil {
		return EventList{}, storageErr(err)
	}

	list := EventList{
		Events:     make([]EventView, 0, len(events)),
		UserWagers: []WagerView{},
	}
	for _, ev := range events {
		list.Events = append(list.Events, NewEventView(ev, wagers))
	}
	for _, w := range wagers {
		if w.Username == actor.Username {
			list.UserWagers = append(list.UserWagers, NewWagerView(w))
		}
	}
	return list, nil
}

// CreateEvent opens a new market. Any authenticated user may create
// one; the initial YES price must be an integer in [1,99] and the NO
// price is derived as clamp(100-yes, 1, 99).
func (e *Engine) CreateEvent(actor model.Account, description string, initialYesPrice int) (model.Event, error) {
	if err := requireActor(actor); err != nil {
		return model.Event{}, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return model.Event{}, errf(KindValidation, "description required")
	}
	if initialYesPrice < 1 || initialYesPrice > 99 {
		return model.Event{}, errf(KindValidation, "initial price must be 1-99")
	}

	ev := model.Event{
		ID:           uuid.NewString(),
		Description:  description,
		BaseYesPrice: initialYesPrice,
		BaseNoPrice:  clampPrice(100 - initialYesPrice),
		Status:       model.StatusOpen,
		Outcome:      model.OutcomeNone,
		CreatedBy:    actor.Username,
		CreatedAt:    time.Now().UTC(),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.store.LoadEvents()
	if err != nil {
		return model.Event{}, storageErr(err)
	}
	events = append(events, ev)
	if err := e.store.SaveEvents(events); err != nil {
		return model.Event{}, storageErr(err)
	}

	metrics.EventsCreated.Inc()
	e.logger.Info("event created",
		"event_id", ev.ID,
		"created_by", ev.CreatedBy,
		"base_yes", ev.BaseYesPrice,
		"base_no", ev.BaseNoPrice,
	)
	return ev, nil
}

// PlaceBet locks in a wager at the currently quoted price and debits
// the actor's balance. The quote is recomputed from live wager counts;
// the server is authoritative over whatever price the caller last saw.
func (e *Engine) PlaceBet(actor model.Account, eventID, direction string) (model.Wager, error) {
	if err := requireActor(actor); err != nil {
		return model.Wager{}, err
	}
	dir, ok := model.ParseDirection(direction)
	if !ok {
		return model.Wager{}, errf(KindValidation, "invalid direction")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.store.LoadEvents()
	if err != nil {
		return model.Wager{}, storageErr(err)
	}
	ev, ok := store.FindEvent(events, eventID)
	if !ok {
		return model.Wager{}, errf(KindNotFound, "event not found")
	}
	if ev.Status != model.StatusOpen {
		return model.Wager{}, errf(KindConflict, "event is not open for betting")
	}

	wagers, err := e.store.LoadWagers()
	if err != nil {
		return model.Wager{}, storageErr(err)
	}
	for _, w := range wagers {
		if w.EventID == eventID && w.Username == actor.Username {
			return model.Wager{}, errf(KindConflict, "already bet on this event")
		}
	}

	price := pricing.QuoteEvent(ev, wagers).For(dir)

	accounts, err := e.store.LoadAccounts()
	if err != nil {
		return model.Wager{}, storageErr(err)
	}
	idx := -1
	for i := range accounts {
		if accounts[i].Username == actor.Username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Wager{}, errf(KindNotFound, "account not found")
	}
	if accounts[idx].Points < price {
		return model.Wager{}, errf(KindConflict, "insufficient points")
	}

	wager := model.Wager{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Username:  actor.Username,
		Direction: dir,
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}

	// Debit and wager append persist as one unit under the writer lock.
	before := accounts[idx].Points
	accounts[idx].Points = before - price
	if err := e.store.SaveAccounts(accounts); err != nil {
		return model.Wager{}, storageErr(err)
	}
	if err := e.store.SaveWagers(append(wagers, wager)); err != nil {
		// Undo the debit so the failed request leaves no partial state.
		accounts[idx].Points = before
		if rerr := e.store.SaveAccounts(accounts); rerr != nil {
			e.logger.Error("failed to restore balance after wager write failure",
				"username", actor.Username, "error", rerr)
		}
		return model.Wager{}, storageErr(err)
	}

	metrics.BetsPlaced.Inc()
	metrics.PointsWagered.Add(float64(price))
	e.logger.Info("bet placed",
		"event_id", eventID,
		"username", actor.Username,
		"direction", dir,
		"price", price,
	)
	return wager, nil
}

// CloseEvent stops further betting. Admin only; no financial effect.
func (e *Engine) CloseEvent(actor model.Account, eventID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.store.LoadEvents()
	if err != nil {
		return storageErr(err)
	}
	idx := eventIndex(events, eventID)
	if idx < 0 {
		return errf(KindNotFound, "event not found")
	}
	if events[idx].Status != model.StatusOpen {
		return errf(KindConflict, "event is not open")
	}

	events[idx].Status = model.StatusClosed
	if err := e.store.SaveEvents(events); err != nil {
		return storageErr(err)
	}

	e.logger.Info("event closed", "event_id", eventID, "closed_by", actor.Username)
	return nil
}

// ResolveEvent settles an event: every wager backing the winning
// outcome is credited the flat payout, losers forfeit their stake, and
// the event is frozen as resolved. Resolving from open or closed is
// both valid; resolved is terminal.
func (e *Engine) ResolveEvent(actor model.Account, eventID, outcome string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	out, ok := model.ParseOutcome(outcome)
	if !ok {
		return errf(KindValidation, "invalid outcome")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.store.LoadEvents()
	if err != nil {
		return storageErr(err)
	}
	idx := eventIndex(events, eventID)
	if idx < 0 {
		return errf(KindNotFound, "event not found")
	}
	if events[idx].Status == model.StatusResolved {
		return errf(KindConflict, "event already resolved")
	}

	wagers, err := e.store.LoadWagers()
	if err != nil {
		return storageErr(err)
	}
	accounts, err := e.store.LoadAccounts()
	if err != nil {
		return storageErr(err)
	}

	beforePoints := make([]int, len(accounts))
	for i := range accounts {
		beforePoints[i] = accounts[i].Points
	}

	winners := 0
	for _, w := range wagers {
		if w.EventID != eventID || w.Direction != model.Direction(out) {
			continue
		}
		for i := range accounts {
			if accounts[i].Username == w.Username {
				accounts[i].Points += FlatPayout
				winners++
				break
			}
		}
	}

	// Winner credits and the status change persist as one unit.
	if err := e.store.SaveAccounts(accounts); err != nil {
		return storageErr(err)
	}
	events[idx].Status = model.StatusResolved
	events[idx].Outcome = out
	if err := e.store.SaveEvents(events); err != nil {
		// Undo the credits so the failed request leaves no partial state.
		for i := range accounts {
			accounts[i].Points = beforePoints[i]
		}
		if rerr := e.store.SaveAccounts(accounts); rerr != nil {
			e.logger.Error("failed to restore balances after event write failure",
				"event_id", eventID, "error", rerr)
		}
		return storageErr(err)
	}

	metrics.EventsResolved.Inc()
	metrics.PointsPaidOut.Add(float64(winners * FlatPayout))
	e.logger.Info("event resolved",
		"event_id", eventID,
		"outcome", out,
		"winners", winners,
		"resolved_by", actor.Username,
	)
	return nil
}

// ChangePassword rewrites the actor's credential hash with a fresh
// salt after verifying the current password.
func (e *Engine) ChangePassword(actor model.Account, currentPassword, newPassword string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !auth.Verify(currentPassword, actor.PasswordHash, actor.Salt) {
		return errf(KindAuthentication, "current password incorrect")
	}
	if len(newPassword) < auth.MinPasswordLen {
		return errf(KindValidation, "new password too short")
	}

	hash, salt, err := auth.HashPassword(newPassword)
	if err != nil {
		return storageErr(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.store.LoadAccounts()
	if err != nil {
		return storageErr(err)
	}
	idx := -1
	for i := range accounts {
		if accounts[i].Username == actor.Username {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errf(KindNotFound, "account not found")
	}

	accounts[idx].PasswordHash = hash
	accounts[idx].Salt = salt
	if err := e.store.SaveAccounts(accounts); err != nil {
		return storageErr(err)
	}

	e.logger.Info("password changed", "username", actor.Username)
	return nil
}

// UpsertUser creates an account with the default starting balance, or
// rewrites an existing account's credentials and, only when explicitly
// provided, its admin flag. Points are never touched on update.
func (e *Engine) UpsertUser(actor model.Account, username, password string, isAdmin *bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if username == "" || password == "" {
		return errf(KindValidation, "username and password required")
	}

	hash, salt, err := auth.HashPassword(password)
	if err != nil {
		return storageErr(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.store.LoadAccounts()
	if err != nil {
		return storageErr(err)
	}

	idx := -1
	for i := range accounts {
		if accounts[i].Username == username {
			idx = i
			break
		}
	}
	if idx >= 0 {
		accounts[idx].PasswordHash = hash
		accounts[idx].Salt = salt
		if isAdmin != nil {
			accounts[idx].IsAdmin = *isAdmin
		}
	} else {
		accounts = append(accounts, model.Account{
			Username:     username,
			PasswordHash: hash,
			Salt:         salt,
			IsAdmin:      isAdmin != nil && *isAdmin,
			Points:       model.DefaultStartingPoints,
			CreatedAt:    time.Now().UTC(),
		})
	}

	if err := e.store.SaveAccounts(accounts); err != nil {
		return storageErr(err)
	}

	e.logger.Info("user upserted", "username", username, "created", idx < 0, "by", actor.Username)
	return nil
}

func eventIndex(events []model.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}

func clampPrice(p int) int {
	if p < 1 {
		return 1
	}
	if p > 99 {
		return 99
	}
	return p
}
