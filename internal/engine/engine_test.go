package engine

import (
	"os"
	"path/filepath"
	"testing"

	"pointsmarket/internal/model"
	"pointsmarket/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(dir, nil)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	return New(st, nil), st, dir
}

// actorFor loads the live account record for a username.
func actorFor(t *testing.T, st *store.Store, username string) model.Account {
	t.Helper()
	accounts, err := st.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts failed: %v", err)
	}
	acct, ok := store.FindAccount(accounts, username)
	if !ok {
		t.Fatalf("account %q not found", username)
	}
	return acct
}

// addUser creates a regular user through the admin upsert path.
func addUser(t *testing.T, e *Engine, st *store.Store, username string) model.Account {
	t.Helper()
	admin := actorFor(t, st, store.BootstrapAdmin)
	if err := e.UpsertUser(admin, username, "password", nil); err != nil {
		t.Fatalf("UpsertUser(%q) failed: %v", username, err)
	}
	return actorFor(t, st, username)
}

// tableSnapshot reads the raw bytes of all three table files.
func tableSnapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	snap := make(map[string]string)
	for _, name := range []string{"users.csv", "events.csv", "bets.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		snap[name] = string(data)
	}
	return snap
}

func assertUnchanged(t *testing.T, dir string, before map[string]string) {
	t.Helper()
	after := tableSnapshot(t, dir)
	for name, want := range before {
		if after[name] != want {
			t.Errorf("%s changed by a failed request:\nbefore: %q\nafter:  %q", name, want, after[name])
		}
	}
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("error kind = %q (%v), want %q", got, err, want)
	}
}

func TestCreateEvent(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)

	tests := []struct {
		name     string
		yesPrice int
		wantNo   int
	}{
		{"mid price", 40, 60},
		{"low clamps no", 1, 99},
		{"high clamps no", 99, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := e.CreateEvent(admin, "will it happen", tt.yesPrice)
			if err != nil {
				t.Fatalf("CreateEvent failed: %v", err)
			}
			if ev.BaseYesPrice != tt.yesPrice || ev.BaseNoPrice != tt.wantNo {
				t.Errorf("base prices = (%d, %d), want (%d, %d)", ev.BaseYesPrice, ev.BaseNoPrice, tt.yesPrice, tt.wantNo)
			}
			if ev.Status != model.StatusOpen || ev.Outcome != model.OutcomeNone {
				t.Errorf("new event status/outcome = (%s, %q), want (open, empty)", ev.Status, ev.Outcome)
			}
			if ev.CreatedBy != admin.Username {
				t.Errorf("CreatedBy = %q, want %q", ev.CreatedBy, admin.Username)
			}
			if ev.ID == "" {
				t.Error("event id is empty")
			}
		})
	}

	// Persisted.
	events, err := st.LoadEvents()
	if err != nil {
		t.Fatalf("LoadEvents failed: %v", err)
	}
	if len(events) != len(tests) {
		t.Errorf("catalog has %d events, want %d", len(events), len(tests))
	}
}

func TestCreateEventValidation(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)

	tests := []struct {
		name        string
		actor       model.Account
		description string
		yesPrice    int
		wantKind    Kind
	}{
		{"missing principal", model.Account{}, "x", 50, KindAuthentication},
		{"empty description", admin, "", 50, KindValidation},
		{"whitespace description", admin, "   ", 50, KindValidation},
		{"price zero", admin, "x", 0, KindValidation},
		{"price hundred", admin, "x", 100, KindValidation},
		{"price negative", admin, "x", -5, KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateEvent(tt.actor, tt.description, tt.yesPrice)
			assertKind(t, err, tt.wantKind)
		})
	}

	// Anyone authenticated may create, not just admins.
	bob := addUser(t, e, st, "bob")
	if _, err := e.CreateEvent(bob, "user-created market", 30); err != nil {
		t.Errorf("CreateEvent by non-admin failed: %v", err)
	}
}

func TestPlaceBetScenario(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")
	carol := addUser(t, e, st, "carol")
	dave := addUser(t, e, st, "dave")

	ev, err := e.CreateEvent(admin, "rain tomorrow", 40)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	// bob backs yes at the base price.
	w, err := e.PlaceBet(bob, ev.ID, "yes")
	if err != nil {
		t.Fatalf("bob PlaceBet failed: %v", err)
	}
	if w.Price != 40 {
		t.Errorf("bob's locked price = %d, want 40", w.Price)
	}
	if got := actorFor(t, st, "bob").Points; got != 960 {
		t.Errorf("bob's balance = %d, want 960", got)
	}

	// carol backs yes after demand moved the price.
	w, err = e.PlaceBet(carol, ev.ID, "yes")
	if err != nil {
		t.Fatalf("carol PlaceBet failed: %v", err)
	}
	if w.Price != 45 {
		t.Errorf("carol's locked price = %d, want 45", w.Price)
	}
	if got := actorFor(t, st, "carol").Points; got != 955 {
		t.Errorf("carol's balance = %d, want 955", got)
	}

	// dave backs no at its unmoved base price.
	w, err = e.PlaceBet(dave, ev.ID, "no")
	if err != nil {
		t.Fatalf("dave PlaceBet failed: %v", err)
	}
	if w.Price != 60 {
		t.Errorf("dave's locked price = %d, want 60", w.Price)
	}

	// Settlement: flat payout to yes backers, nothing refunded to dave.
	if err := e.ResolveEvent(admin, ev.ID, "yes"); err != nil {
		t.Fatalf("ResolveEvent failed: %v", err)
	}
	if got := actorFor(t, st, "bob").Points; got != 1060 {
		t.Errorf("bob's settled balance = %d, want 1060", got)
	}
	if got := actorFor(t, st, "carol").Points; got != 1055 {
		t.Errorf("carol's settled balance = %d, want 1055", got)
	}
	if got := actorFor(t, st, "dave").Points; got != 940 {
		t.Errorf("dave's settled balance = %d, want 940", got)
	}

	events, _ := st.LoadEvents()
	settled, _ := store.FindEvent(events, ev.ID)
	if settled.Status != model.StatusResolved || settled.Outcome != model.OutcomeYes {
		t.Errorf("settled event = (%s, %s), want (resolved, yes)", settled.Status, settled.Outcome)
	}
}

func TestPlaceBetDuplicate(t *testing.T) {
	e, st, dir := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")

	ev, _ := e.CreateEvent(admin, "x", 40)
	if _, err := e.PlaceBet(bob, ev.ID, "yes"); err != nil {
		t.Fatalf("first PlaceBet failed: %v", err)
	}

	before := tableSnapshot(t, dir)
	for i := 0; i < 3; i++ {
		_, err := e.PlaceBet(actorFor(t, st, "bob"), ev.ID, "yes")
		assertKind(t, err, KindConflict)
	}
	assertUnchanged(t, dir, before)

	wagers, _ := st.LoadWagers()
	if len(wagers) != 1 {
		t.Errorf("ledger has %d wagers, want 1", len(wagers))
	}
}

func TestPlaceBetInsufficientPoints(t *testing.T) {
	e, st, dir := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	addUser(t, e, st, "bob")

	// Drain bob close to zero.
	accounts, _ := st.LoadAccounts()
	for i := range accounts {
		if accounts[i].Username == "bob" {
			accounts[i].Points = 39
		}
	}
	if err := st.SaveAccounts(accounts); err != nil {
		t.Fatalf("SaveAccounts failed: %v", err)
	}

	ev, _ := e.CreateEvent(admin, "x", 40)
	before := tableSnapshot(t, dir)

	_, err := e.PlaceBet(actorFor(t, st, "bob"), ev.ID, "yes")
	assertKind(t, err, KindConflict)
	assertUnchanged(t, dir, before)

	if got := actorFor(t, st, "bob").Points; got != 39 {
		t.Errorf("bob's balance = %d, want 39 (unchanged, never negative)", got)
	}
}

func TestPlaceBetRejections(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")

	open, _ := e.CreateEvent(admin, "open", 40)
	closed, _ := e.CreateEvent(admin, "closed", 40)
	if err := e.CloseEvent(admin, closed.ID); err != nil {
		t.Fatalf("CloseEvent failed: %v", err)
	}

	tests := []struct {
		name      string
		actor     model.Account
		eventID   string
		direction string
		wantKind  Kind
	}{
		{"missing principal", model.Account{}, open.ID, "yes", KindAuthentication},
		{"bad direction", bob, open.ID, "maybe", KindValidation},
		{"unknown event", bob, "nope", "yes", KindNotFound},
		{"closed event", bob, closed.ID, "yes", KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.PlaceBet(tt.actor, tt.eventID, tt.direction)
			assertKind(t, err, tt.wantKind)
		})
	}
}

func TestCloseEvent(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")

	ev, _ := e.CreateEvent(admin, "x", 40)

	// Non-admin close is an authorization failure and leaves the
	// status untouched.
	err := e.CloseEvent(bob, ev.ID)
	assertKind(t, err, KindAuthorization)
	events, _ := st.LoadEvents()
	got, _ := store.FindEvent(events, ev.ID)
	if got.Status != model.StatusOpen {
		t.Errorf("status after non-admin close = %s, want open", got.Status)
	}

	if err := e.CloseEvent(admin, ev.ID); err != nil {
		t.Fatalf("CloseEvent failed: %v", err)
	}
	events, _ = st.LoadEvents()
	got, _ = store.FindEvent(events, ev.ID)
	if got.Status != model.StatusClosed {
		t.Errorf("status = %s, want closed", got.Status)
	}

	// Closing again conflicts; closing the unknown is not found.
	assertKind(t, e.CloseEvent(admin, ev.ID), KindConflict)
	assertKind(t, e.CloseEvent(admin, "nope"), KindNotFound)
}

func TestResolveEventFromClosed(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)

	ev, _ := e.CreateEvent(admin, "x", 40)
	if err := e.CloseEvent(admin, ev.ID); err != nil {
		t.Fatalf("CloseEvent failed: %v", err)
	}
	if err := e.ResolveEvent(admin, ev.ID, "no"); err != nil {
		t.Fatalf("ResolveEvent from closed failed: %v", err)
	}

	events, _ := st.LoadEvents()
	got, _ := store.FindEvent(events, ev.ID)
	if got.Status != model.StatusResolved || got.Outcome != model.OutcomeNo {
		t.Errorf("event = (%s, %s), want (resolved, no)", got.Status, got.Outcome)
	}
}

func TestResolveEventNotIdempotent(t *testing.T) {
	e, st, dir := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")

	ev, _ := e.CreateEvent(admin, "x", 40)
	if _, err := e.PlaceBet(bob, ev.ID, "yes"); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if err := e.ResolveEvent(admin, ev.ID, "yes"); err != nil {
		t.Fatalf("first ResolveEvent failed: %v", err)
	}

	settled := actorFor(t, st, "bob").Points
	before := tableSnapshot(t, dir)

	// A second resolve conflicts and credits nothing further.
	err := e.ResolveEvent(actorFor(t, st, store.BootstrapAdmin), ev.ID, "yes")
	assertKind(t, err, KindConflict)
	assertUnchanged(t, dir, before)
	if got := actorFor(t, st, "bob").Points; got != settled {
		t.Errorf("bob's balance after double resolve = %d, want %d", got, settled)
	}
}

func TestResolveEventRejections(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")
	ev, _ := e.CreateEvent(admin, "x", 40)

	tests := []struct {
		name     string
		actor    model.Account
		eventID  string
		outcome  string
		wantKind Kind
	}{
		{"missing principal", model.Account{}, ev.ID, "yes", KindAuthentication},
		{"non-admin", bob, ev.ID, "yes", KindAuthorization},
		{"bad outcome", admin, ev.ID, "tie", KindValidation},
		{"unknown event", admin, "nope", "yes", KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertKind(t, e.ResolveEvent(tt.actor, tt.eventID, tt.outcome), tt.wantKind)
		})
	}
}

func TestChangePassword(t *testing.T) {
	e, st, _ := newTestEngine(t)
	bob := addUser(t, e, st, "bob")

	assertKind(t, e.ChangePassword(bob, "wrong", "newpassword"), KindAuthentication)
	assertKind(t, e.ChangePassword(bob, "password", "abc"), KindValidation)
	assertKind(t, e.ChangePassword(model.Account{}, "password", "newpassword"), KindAuthentication)

	if err := e.ChangePassword(bob, "password", "newpassword"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, _, err := e.Login("bob", "password"); err == nil {
		t.Error("Login succeeded with the old password")
	}
	if _, _, err := e.Login("bob", "newpassword"); err != nil {
		t.Errorf("Login with the new password failed: %v", err)
	}
}

func TestUpsertUser(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)

	adminTrue := true
	if err := e.UpsertUser(admin, "carol", "secret", &adminTrue); err != nil {
		t.Fatalf("UpsertUser create failed: %v", err)
	}
	carol := actorFor(t, st, "carol")
	if !carol.IsAdmin {
		t.Error("carol should be an admin")
	}
	if carol.Points != model.DefaultStartingPoints {
		t.Errorf("carol's starting points = %d, want %d", carol.Points, model.DefaultStartingPoints)
	}

	// Spend some points, then rewrite credentials without the admin
	// flag: points and flag must be preserved.
	ev, _ := e.CreateEvent(admin, "x", 40)
	if _, err := e.PlaceBet(carol, ev.ID, "yes"); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	spent := actorFor(t, st, "carol").Points

	if err := e.UpsertUser(admin, "carol", "rotated", nil); err != nil {
		t.Fatalf("UpsertUser update failed: %v", err)
	}
	carol = actorFor(t, st, "carol")
	if carol.Points != spent {
		t.Errorf("points after update = %d, want %d (never touched)", carol.Points, spent)
	}
	if !carol.IsAdmin {
		t.Error("admin flag dropped on update without explicit flag")
	}
	if _, _, err := e.Login("carol", "rotated"); err != nil {
		t.Errorf("Login with rotated password failed: %v", err)
	}

	// Explicit flag flips it.
	adminFalse := false
	if err := e.UpsertUser(admin, "carol", "rotated", &adminFalse); err != nil {
		t.Fatalf("UpsertUser demote failed: %v", err)
	}
	if actorFor(t, st, "carol").IsAdmin {
		t.Error("carol still admin after explicit demotion")
	}

	assertKind(t, e.UpsertUser(actorFor(t, st, "carol"), "x", "y", nil), KindAuthorization)
	assertKind(t, e.UpsertUser(admin, "", "y", nil), KindValidation)
	assertKind(t, e.UpsertUser(admin, "x", "", nil), KindValidation)
}

func TestLoginAndSessions(t *testing.T) {
	e, st, _ := newTestEngine(t)

	if _, _, err := e.Login("admin", "wrong"); KindOf(err) != KindAuthentication {
		t.Errorf("Login with wrong password: kind = %q, want authentication", KindOf(err))
	}
	if _, _, err := e.Login("ghost", "whatever"); KindOf(err) != KindAuthentication {
		t.Errorf("Login with unknown user: kind = %q, want authentication", KindOf(err))
	}

	token, acct, err := e.Login(store.BootstrapAdmin, store.BootstrapAdmin)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if acct.Username != store.BootstrapAdmin || !acct.IsAdmin {
		t.Errorf("Login account = %+v, want bootstrap admin", acct)
	}

	resolved, err := e.ResolveSession(token)
	if err != nil {
		t.Fatalf("ResolveSession failed: %v", err)
	}
	if resolved.Username != store.BootstrapAdmin {
		t.Errorf("resolved username = %q, want %q", resolved.Username, store.BootstrapAdmin)
	}

	// Session reflects live table state, not a login-time snapshot.
	accounts, _ := st.LoadAccounts()
	for i := range accounts {
		accounts[i].Points = 777
	}
	if err := st.SaveAccounts(accounts); err != nil {
		t.Fatalf("SaveAccounts failed: %v", err)
	}
	resolved, _ = e.ResolveSession(token)
	if resolved.Points != 777 {
		t.Errorf("resolved points = %d, want live value 777", resolved.Points)
	}

	e.Logout(token)
	if _, err := e.ResolveSession(token); KindOf(err) != KindAuthentication {
		t.Error("ResolveSession succeeded after logout")
	}

	// Logout of an unknown token is still fine.
	e.Logout("bogus")

	if _, err := e.ResolveSession("bogus"); KindOf(err) != KindAuthentication {
		t.Error("ResolveSession accepted a bogus token")
	}
}

func TestListEvents(t *testing.T) {
	e, st, _ := newTestEngine(t)
	admin := actorFor(t, st, store.BootstrapAdmin)
	bob := addUser(t, e, st, "bob")
	carol := addUser(t, e, st, "carol")

	ev, _ := e.CreateEvent(admin, "x", 40)
	if _, err := e.PlaceBet(bob, ev.ID, "yes"); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}
	if _, err := e.PlaceBet(carol, ev.ID, "no"); err != nil {
		t.Fatalf("PlaceBet failed: %v", err)
	}

	list, err := e.ListEvents(actorFor(t, st, "bob"))
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(list.Events) != 1 {
		t.Fatalf("got %d events, want 1", len(list.Events))
	}

	view := list.Events[0]
	if view.Prices.Yes != 45 || view.Prices.No != 65 {
		t.Errorf("prices = %+v, want yes=45 no=65", view.Prices)
	}
	if len(view.Bets.Yes) != 1 || view.Bets.Yes[0] != "bob" {
		t.Errorf("yes bettors = %v, want [bob]", view.Bets.Yes)
	}
	if len(view.Bets.No) != 1 || view.Bets.No[0] != "carol" {
		t.Errorf("no bettors = %v, want [carol]", view.Bets.No)
	}

	if len(list.UserWagers) != 1 || list.UserWagers[0].Username != "bob" {
		t.Errorf("user wagers = %+v, want bob's single wager", list.UserWagers)
	}

	if _, err := e.ListEvents(model.Account{}); KindOf(err) != KindAuthentication {
		t.Error("ListEvents accepted a missing principal")
	}
}
