package policy

import (
	"log"
	"time"

	"github.com/thewages75-crypto/idnon/internal/config"
	"github.com/thewages75-crypto/idnon/internal/filter"
	"github.com/thewages75-crypto/idnon/internal/user"
)

// Incoming is the policy-relevant shape of an inbound message. Grouped media
// arrives here once per batch with Items set to the batch size.
type Incoming struct {
	Media bool
	Items int    // media item count, 1 for a single item
	Text  string // text body or caption
}

// Engine applies the layered admission policy: manual ban, activation quota,
// inactivity recovery, shadow ban, content filter. It consults and updates
// the user store as a side effect of evaluation.
type Engine struct {
	users  *user.Repo
	words  *filter.Repo
	script *filter.Script // optional, may be nil
	cfg    config.ModerationConfig
}

// NewEngine creates an admission policy engine. script may be nil.
func NewEngine(users *user.Repo, words *filter.Repo, script *filter.Script, cfg config.ModerationConfig) *Engine {
	return &Engine{users: users, words: words, script: script, cfg: cfg}
}

// Evaluate decides what happens to one inbound message. Checks run in
// priority order; the first match wins.
func (e *Engine) Evaluate(u *user.User, in Incoming) (Decision, error) {
	if u.Banned {
		return Decision{Kind: KindRejected, Reason: ReasonBanned}, nil
	}

	if e.needsActivation(u) {
		return e.evaluateActivation(u, in)
	}

	if u.AutoBanned {
		return e.evaluateRecovery(u, in)
	}

	if u.ShadowBanned {
		return Decision{Kind: KindSilentAccept}, nil
	}

	if in.Text != "" {
		word, matched, err := e.words.Match(in.Text)
		if err != nil {
			return Decision{}, err
		}
		if matched {
			return Decision{Kind: KindFiltered, Word: word}, nil
		}
		if e.script != nil && e.script.Check(in.Text) {
			return Decision{Kind: KindFiltered}, nil
		}
	}

	// Refresh the sender before sweeping so their own message counts as
	// activity and the sweep cannot flag them mid-admission.
	if in.Media {
		if _, err := e.users.RecordMediaActivity(u.ID, in.Items); err != nil {
			return Decision{}, err
		}
	} else if err := e.users.Touch(u.ID); err != nil {
		return Decision{}, err
	}

	if _, err := e.Sweep(time.Now()); err != nil {
		log.Printf("inactivity sweep: %v", err)
	}

	return Decision{Kind: KindAdmit}, nil
}

// needsActivation reports whether the user is still below the activation
// quota. Whitelisted users and the moderator skip activation entirely, and
// auto-banned users go through recovery instead.
func (e *Engine) needsActivation(u *user.User) bool {
	if !e.cfg.RequireActivation {
		return false
	}
	if u.Whitelisted || u.ID == e.cfg.ModeratorID {
		return false
	}
	return !u.AutoBanned && u.MediaCount < e.cfg.ActivationThreshold
}

func (e *Engine) evaluateActivation(u *user.User, in Incoming) (Decision, error) {
	if !in.Media {
		return Decision{Kind: KindActivationPending, Remaining: e.cfg.ActivationThreshold - u.MediaCount}, nil
	}

	updated, err := e.users.RecordMediaActivity(u.ID, in.Items)
	if err != nil {
		return Decision{}, err
	}
	if updated.MediaCount >= e.cfg.ActivationThreshold {
		return Decision{Kind: KindActivated}, nil
	}
	return Decision{Kind: KindActivationProgress, Remaining: e.cfg.ActivationThreshold - updated.MediaCount}, nil
}

func (e *Engine) evaluateRecovery(u *user.User, in Incoming) (Decision, error) {
	if !in.Media {
		return Decision{Kind: KindRejected, Reason: ReasonInactive}, nil
	}

	// Without the activation quota a single media item proves the user is
	// back; with it, recovery re-earns the threshold from the baseline.
	if !e.cfg.RequireActivation {
		if _, err := e.users.RecordMediaActivity(u.ID, in.Items); err != nil {
			return Decision{}, err
		}
		if err := e.users.ClearAutoBan(u.ID, e.cfg.ActivationThreshold); err != nil {
			return Decision{}, err
		}
		return Decision{Kind: KindReactivated}, nil
	}

	updated, err := e.users.RecordMediaActivity(u.ID, in.Items)
	if err != nil {
		return Decision{}, err
	}
	if updated.MediaCount >= e.cfg.ActivationThreshold {
		if err := e.users.ClearAutoBan(u.ID, e.cfg.ActivationThreshold); err != nil {
			return Decision{}, err
		}
		return Decision{Kind: KindReactivated}, nil
	}
	return Decision{Kind: KindRecoveryProgress, Remaining: e.cfg.ActivationThreshold - updated.MediaCount}, nil
}

// Sweep flags every user whose last activity predates the inactivity window
// as auto-banned. Coarse and idempotent; safe to run from a ticker and from
// the admit path.
func (e *Engine) Sweep(now time.Time) (int64, error) {
	cutoff := now.Add(-e.cfg.InactivityWindow())
	return e.users.MarkInactiveSince(cutoff, e.cfg.ModeratorID, e.cfg.RecoveryBaseline)
}
