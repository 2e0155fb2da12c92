package policy

// Kind identifies the admission outcome for an inbound message.
type Kind int

const (
	// KindRejected blocks the message entirely; Reason says why.
	KindRejected Kind = iota
	// KindActivationPending tells a non-activated sender that only media
	// counts toward activation. Nothing is relayed and nothing mutates.
	KindActivationPending
	// KindActivationProgress credits media toward activation; Remaining says
	// how many items are still needed.
	KindActivationProgress
	// KindActivated is returned exactly once, when the activation threshold
	// is reached.
	KindActivated
	// KindRecoveryProgress credits media toward lifting an inactivity ban.
	KindRecoveryProgress
	// KindReactivated is returned when recovery reaches the threshold and
	// the inactivity ban is lifted.
	KindReactivated
	// KindSilentAccept acknowledges a shadow-banned sender without relaying.
	KindSilentAccept
	// KindFiltered blocks a message containing a banned word.
	KindFiltered
	// KindAdmit relays the message.
	KindAdmit
)

// Rejection reasons.
const (
	ReasonBanned   = "banned"
	ReasonInactive = "inactive"
)

// Decision is the outcome of evaluating one inbound message.
type Decision struct {
	Kind      Kind
	Reason    string // set for KindRejected
	Remaining int    // set for progress kinds
	Word      string // set for KindFiltered when a banned word matched
}

// Relayable reports whether the message should proceed to fan-out.
func (d Decision) Relayable() bool {
	return d.Kind == KindAdmit
}
