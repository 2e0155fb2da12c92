package policy

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/thewages75-crypto/idnon/internal/config"
	"github.com/thewages75-crypto/idnon/internal/db"
	"github.com/thewages75-crypto/idnon/internal/filter"
	"github.com/thewages75-crypto/idnon/internal/user"
)

const moderatorID = int64(999)

func testModeration() config.ModerationConfig {
	return config.ModerationConfig{
		ModeratorID:          moderatorID,
		RequireActivation:    true,
		ActivationThreshold:  12,
		RecoveryBaseline:     0,
		InactivityWindowSecs: 3600,
		SweepIntervalSecs:    30,
	}
}

func newTestEngine(t *testing.T, cfg config.ModerationConfig) (*Engine, *user.Repo, *filter.Repo, *sql.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	users := user.NewRepo(database.DB)
	words := filter.NewRepo(database.DB)
	return NewEngine(users, words, nil, cfg), users, words, database.DB
}

func mustCreate(t *testing.T, users *user.Repo, id int64) *user.User {
	t.Helper()
	u, err := users.Create(id)
	if err != nil {
		t.Fatalf("create user %d: %v", id, err)
	}
	return u
}

func mustGet(t *testing.T, users *user.Repo, id int64) *user.User {
	t.Helper()
	u, err := users.Get(id)
	if err != nil {
		t.Fatalf("get user %d: %v", id, err)
	}
	return u
}

func TestBannedTakesPrecedence(t *testing.T) {
	e, users, words, _ := newTestEngine(t, testModeration())
	u := mustCreate(t, users, 1)
	if err := users.SetBanned(1, true); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if _, err := users.ToggleShadow(1); err != nil {
		t.Fatalf("shadow: %v", err)
	}
	if err := words.Add("spam"); err != nil {
		t.Fatalf("add word: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, u.ID), Incoming{Text: "spam spam"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindRejected || d.Reason != ReasonBanned {
		t.Fatalf("expected banned rejection, got %+v", d)
	}
	if d.Relayable() {
		t.Fatalf("rejected decision must not be relayable")
	}
}

func TestActivationTextDoesNotCount(t *testing.T) {
	e, users, _, _ := newTestEngine(t, testModeration())
	u := mustCreate(t, users, 1)

	d, err := e.Evaluate(u, Incoming{Text: "hello"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindActivationPending || d.Remaining != 12 {
		t.Fatalf("expected pending with 12 remaining, got %+v", d)
	}
	if mustGet(t, users, 1).MediaCount != 0 {
		t.Fatalf("text must not bump the media counter")
	}
}

func TestActivationCreditsBatchCount(t *testing.T) {
	e, users, _, _ := newTestEngine(t, testModeration())
	u := mustCreate(t, users, 1)

	d, err := e.Evaluate(u, Incoming{Media: true, Items: 5})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindActivationProgress || d.Remaining != 7 {
		t.Fatalf("expected progress with 7 remaining, got %+v", d)
	}

	d, err = e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 7})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindActivated {
		t.Fatalf("expected activation at the threshold, got %+v", d)
	}

	// Activated users are past the quota from now on.
	d, err = e.Evaluate(mustGet(t, users, 1), Incoming{Text: "hello"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindAdmit {
		t.Fatalf("expected admit after activation, got %+v", d)
	}
}

func TestActivationSingleBatchReachesThreshold(t *testing.T) {
	e, users, _, _ := newTestEngine(t, testModeration())
	u := mustCreate(t, users, 1)

	d, err := e.Evaluate(u, Incoming{Media: true, Items: 12})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindActivated {
		t.Fatalf("expected one batch of 12 to activate, got %+v", d)
	}
}

func TestWhitelistedSkipsActivation(t *testing.T) {
	e, users, _, _ := newTestEngine(t, testModeration())
	mustCreate(t, users, 1)
	if err := users.SetWhitelisted(1, true); err != nil {
		t.Fatalf("whitelist: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Text: "hello"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindAdmit {
		t.Fatalf("whitelisted user should be admitted, got %+v", d)
	}
}

func TestModeratorSkipsActivation(t *testing.T) {
	e, users, _, _ := newTestEngine(t, testModeration())
	mustCreate(t, users, moderatorID)

	d, err := e.Evaluate(mustGet(t, users, moderatorID), Incoming{Text: "hello"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindAdmit {
		t.Fatalf("moderator should be admitted, got %+v", d)
	}
}

func TestShadowBanSilentAccept(t *testing.T) {
	cfg := testModeration()
	cfg.RequireActivation = false
	e, users, _, _ := newTestEngine(t, cfg)
	mustCreate(t, users, 1)
	if _, err := users.ToggleShadow(1); err != nil {
		t.Fatalf("shadow: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Text: "hello"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindSilentAccept {
		t.Fatalf("expected silent accept, got %+v", d)
	}
	if d.Relayable() {
		t.Fatalf("silently accepted message must not be relayed")
	}
}

func TestWordFilterOnTextOnly(t *testing.T) {
	cfg := testModeration()
	cfg.RequireActivation = false
	e, users, words, _ := newTestEngine(t, cfg)
	mustCreate(t, users, 1)
	if err := words.Add("spam"); err != nil {
		t.Fatalf("add word: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Text: "Buy SPAM today"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindFiltered || d.Word != "spam" {
		t.Fatalf("expected filtered on spam, got %+v", d)
	}

	// Media with no text body is not filtered.
	d, err = e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindAdmit {
		t.Fatalf("expected media admit, got %+v", d)
	}
}

func TestRecoveryWithoutActivationQuota(t *testing.T) {
	cfg := testModeration()
	cfg.RequireActivation = false
	e, users, _, _ := newTestEngine(t, cfg)
	mustCreate(t, users, 1)
	if _, err := users.MarkInactiveSince(time.Now().Add(time.Hour), moderatorID, 0); err != nil {
		t.Fatalf("mark inactive: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Text: "am I back?"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindRejected || d.Reason != ReasonInactive {
		t.Fatalf("expected inactive rejection for text, got %+v", d)
	}

	d, err = e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindReactivated {
		t.Fatalf("expected one media to reactivate, got %+v", d)
	}
	if mustGet(t, users, 1).AutoBanned {
		t.Fatalf("auto ban should be lifted")
	}
}

func TestRecoveryReEarnsThreshold(t *testing.T) {
	cfg := testModeration()
	cfg.RecoveryBaseline = 5
	e, users, _, _ := newTestEngine(t, cfg)
	mustCreate(t, users, 1)
	if _, err := users.RecordMediaActivity(1, 20); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := users.MarkInactiveSince(time.Now().Add(time.Hour), moderatorID, cfg.RecoveryBaseline); err != nil {
		t.Fatalf("mark inactive: %v", err)
	}
	if got := mustGet(t, users, 1).MediaCount; got != 5 {
		t.Fatalf("expected counter clamped to 5, got %d", got)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 3})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindRecoveryProgress || d.Remaining != 4 {
		t.Fatalf("expected recovery progress with 4 remaining, got %+v", d)
	}

	d, err = e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 4})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindReactivated {
		t.Fatalf("expected reactivation at the threshold, got %+v", d)
	}

	u := mustGet(t, users, 1)
	if u.AutoBanned {
		t.Fatalf("auto ban should be lifted")
	}
	if u.MediaCount != cfg.ActivationThreshold {
		t.Fatalf("counter should be clamped to the threshold, got %d", u.MediaCount)
	}
}

func TestSweepFlagsOnlyStaleUsers(t *testing.T) {
	e, users, _, sqlDB := newTestEngine(t, testModeration())
	mustCreate(t, users, 1)
	mustCreate(t, users, 2)

	stale := time.Now().Add(-2 * time.Hour)
	if _, err := sqlDB.Exec("UPDATE users SET last_media_at = ? WHERE id = 1", stale); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	n, err := e.Sweep(time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 user swept, got %d", n)
	}
	if !mustGet(t, users, 1).AutoBanned {
		t.Fatalf("stale user should be auto-banned")
	}
	if mustGet(t, users, 2).AutoBanned {
		t.Fatalf("fresh user should be untouched")
	}
}

func TestAdmitRefreshesActivity(t *testing.T) {
	cfg := testModeration()
	cfg.RequireActivation = false
	e, users, _, sqlDB := newTestEngine(t, cfg)
	mustCreate(t, users, 1)

	stale := time.Now().Add(-2 * time.Hour)
	if _, err := sqlDB.Exec("UPDATE users SET last_media_at = ? WHERE id = 1", stale); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindAdmit {
		t.Fatalf("expected admit, got %+v", d)
	}

	u := mustGet(t, users, 1)
	if u.LastMediaAt == nil || time.Since(*u.LastMediaAt) > time.Minute {
		t.Fatalf("activity timestamp should be refreshed, got %v", u.LastMediaAt)
	}
}

func TestStaleActiveSenderIsNotDemotedByOwnMessage(t *testing.T) {
	e, users, _, sqlDB := newTestEngine(t, testModeration())
	mustCreate(t, users, 1)
	if _, err := users.RecordMediaActivity(1, 20); err != nil {
		t.Fatalf("record: %v", err)
	}

	stale := time.Now().Add(-2 * time.Hour)
	if _, err := sqlDB.Exec("UPDATE users SET last_media_at = ? WHERE id = 1", stale); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	d, err := e.Evaluate(mustGet(t, users, 1), Incoming{Media: true, Items: 1})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Kind != KindAdmit {
		t.Fatalf("expected admit, got %+v", d)
	}

	// The message that was just admitted is the sender's activity; the
	// in-path sweep must not flag them or clamp their counter.
	u := mustGet(t, users, 1)
	if u.AutoBanned {
		t.Fatalf("sender's own admitted media must not auto-ban them")
	}
	if u.MediaCount != 21 {
		t.Fatalf("expected counter 21, got %d", u.MediaCount)
	}
}
