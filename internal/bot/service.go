// Package bot wires transport updates into the admission policy and the
// relay pipeline: handle onboarding, moderator commands, and the relay path
// itself.
package bot

import (
	"fmt"
	"log"
	"sync"

	"github.com/thewages75-crypto/idnon/internal/config"
	"github.com/thewages75-crypto/idnon/internal/db"
	"github.com/thewages75-crypto/idnon/internal/delivery"
	"github.com/thewages75-crypto/idnon/internal/filter"
	"github.com/thewages75-crypto/idnon/internal/policy"
	"github.com/thewages75-crypto/idnon/internal/relay"
	"github.com/thewages75-crypto/idnon/internal/transport"
	"github.com/thewages75-crypto/idnon/internal/user"
)

// Service dispatches inbound messages. It is safe for concurrent use; the
// transport may deliver updates from multiple connections at once.
type Service struct {
	client     transport.Client
	db         *db.DB
	users      *user.Repo
	words      *filter.Repo
	deliveries *delivery.Repo
	engine     *policy.Engine
	aggregator *relay.Aggregator
	worker     *relay.Worker
	fanout     *relay.Fanout
	cfg        config.ModerationConfig

	mu            sync.Mutex
	pendingHandle map[int64]bool
}

// New creates the dispatch service. The aggregator is created here so its
// flush sink can re-enter admission with the batch's true item count.
func New(client transport.Client, database *db.DB, users *user.Repo, words *filter.Repo,
	deliveries *delivery.Repo, engine *policy.Engine, worker *relay.Worker,
	fanout *relay.Fanout, cfg *config.Config) *Service {

	s := &Service{
		client:        client,
		db:            database,
		users:         users,
		words:         words,
		deliveries:    deliveries,
		engine:        engine,
		worker:        worker,
		fanout:        fanout,
		cfg:           cfg.Moderation,
		pendingHandle: make(map[int64]bool),
	}
	s.aggregator = relay.NewAggregator(cfg.Relay.AlbumDebounce(), cfg.Relay.MaxAlbumSize, s.flushAlbum)
	return s
}

// Aggregator exposes the album aggregator for shutdown.
func (s *Service) Aggregator() *relay.Aggregator {
	return s.aggregator
}

// HandleUpdate processes one inbound message.
func (s *Service) HandleUpdate(msg transport.Message) {
	if msg.IsCommand() {
		s.handleCommand(msg)
		return
	}

	if s.takePendingHandle(msg.From) {
		s.claimHandle(msg)
		return
	}

	s.relayMessage(msg)
}

// relayMessage runs the admission policy and routes admitted content into
// the pipeline. Grouped media is buffered first so admission sees the whole
// batch at once.
func (s *Service) relayMessage(msg transport.Message) {
	if !s.users.Exists(msg.From) {
		s.reply(msg.From, "Send /start to join.")
		return
	}

	if msg.IsMedia() && msg.GroupID != "" {
		s.aggregator.Add(msg.GroupID, msg)
		return
	}

	u, err := s.users.Get(msg.From)
	if err != nil {
		log.Printf("bot: load user %d: %v", msg.From, err)
		s.reply(msg.From, "Something went wrong. Try again.")
		return
	}

	in := policy.Incoming{Media: msg.IsMedia(), Items: 1}
	if msg.Kind == transport.KindText {
		in.Text = msg.Text
	}

	decision, err := s.engine.Evaluate(u, in)
	if err != nil {
		log.Printf("bot: evaluate user %d: %v", msg.From, err)
		s.reply(msg.From, "Something went wrong. Try again.")
		return
	}

	s.sendFeedback(msg.From, decision)
	if decision.Relayable() && !s.worker.Submit(relay.NewSingle(msg)) {
		s.reply(msg.From, "The relay is busy. Try again later.")
	}
}

// flushAlbum is the aggregator sink: the batch is evaluated as one unit so
// activation accounting credits the batch's full item count.
func (s *Service) flushAlbum(groupID string, msgs []transport.Message) {
	origin := msgs[0].From

	u, err := s.users.Get(origin)
	if err != nil {
		log.Printf("bot: load user %d for album %s: %v", origin, groupID, err)
		return
	}

	decision, err := s.engine.Evaluate(u, policy.Incoming{Media: true, Items: len(msgs)})
	if err != nil {
		log.Printf("bot: evaluate album %s from %d: %v", groupID, origin, err)
		return
	}

	s.sendFeedback(origin, decision)
	if decision.Relayable() && !s.worker.Submit(relay.NewAlbum(msgs)) {
		s.reply(origin, "The relay is busy. Try again later.")
	}
}

// sendFeedback tells the sender what happened to their message. Admitted
// messages get no acknowledgment, matching the relay's silence for normal
// traffic.
func (s *Service) sendFeedback(to int64, d policy.Decision) {
	switch d.Kind {
	case policy.KindRejected:
		if d.Reason == policy.ReasonInactive {
			s.reply(to, "You are inactive. Send media to reactivate.")
		} else {
			s.reply(to, "You are banned.")
		}
	case policy.KindActivationPending:
		s.reply(to, fmt.Sprintf("Send %d media to activate your account.", d.Remaining))
	case policy.KindActivationProgress:
		s.reply(to, fmt.Sprintf("%d media left to activate.", d.Remaining))
	case policy.KindActivated:
		s.reply(to, "Your account is now activated.")
	case policy.KindRecoveryProgress:
		s.reply(to, fmt.Sprintf("%d media left to reactivate.", d.Remaining))
	case policy.KindReactivated:
		s.reply(to, "You are active again. Stay active!")
	case policy.KindSilentAccept:
		// The sender believes the message went out.
		s.reply(to, "Message sent.")
	case policy.KindFiltered:
		s.reply(to, "Message contains a banned word.")
	}
}

// claimHandle validates and stores a handle for a user in onboarding.
func (s *Service) claimHandle(msg transport.Message) {
	if msg.Kind != transport.KindText {
		s.setPendingHandle(msg.From)
		s.reply(msg.From, "Send your handle as text.")
		return
	}

	if err := s.users.SetHandle(msg.From, msg.Text); err != nil {
		s.setPendingHandle(msg.From)
		s.reply(msg.From, fmt.Sprintf("Cannot use that handle: %v. Try another.", err))
		return
	}

	u, err := s.users.Get(msg.From)
	if err != nil {
		log.Printf("bot: load user %d after handle claim: %v", msg.From, err)
		return
	}
	s.reply(msg.From, fmt.Sprintf("Handle set to #%s", u.Handle))
	if s.cfg.RequireActivation && u.ID != s.cfg.ModeratorID && !u.Whitelisted {
		s.reply(msg.From, fmt.Sprintf("Send %d media to activate your account.", s.cfg.ActivationThreshold))
	}
}

func (s *Service) reply(to int64, text string) {
	if _, err := s.client.SendText(to, text); err != nil {
		log.Printf("bot: reply to %d: %v", to, err)
	}
}

func (s *Service) setPendingHandle(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingHandle[id] = true
}

// takePendingHandle consumes the pending-handle mark for a user, if set.
func (s *Service) takePendingHandle(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pendingHandle[id] {
		return false
	}
	delete(s.pendingHandle, id)
	return true
}
