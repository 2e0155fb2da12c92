package relay

import "github.com/thewages75-crypto/idnon/internal/transport"

// Job is one unit of fan-out work: either a single message or an ordered
// album of grouped media. Jobs are immutable once submitted and consumed
// exactly once by the worker.
type Job struct {
	Single *transport.Message
	Album  []transport.Message
}

// NewSingle wraps one message as a job.
func NewSingle(msg transport.Message) Job {
	return Job{Single: &msg}
}

// NewAlbum wraps an ordered media batch as a job.
func NewAlbum(msgs []transport.Message) Job {
	return Job{Album: msgs}
}

// Origin returns the user id the job's content came from.
func (j Job) Origin() int64 {
	if j.Single != nil {
		return j.Single.From
	}
	if len(j.Album) > 0 {
		return j.Album[0].From
	}
	return 0
}
