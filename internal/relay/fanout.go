package relay

import (
	"log"
	"time"

	"github.com/thewages75-crypto/idnon/internal/delivery"
	"github.com/thewages75-crypto/idnon/internal/transport"
	"github.com/thewages75-crypto/idnon/internal/user"
)

// UnknownPrefix is shown when the origin never completed handle onboarding.
const UnknownPrefix = "Unknown:\n"

// Fanout sends an admitted job to every eligible recipient, recording each
// successful send for later origin lookup and targeted deletion.
type Fanout struct {
	client     transport.Client
	users      *user.Repo
	deliveries *delivery.Repo
	chunkSize  int
	sendDelay  time.Duration
}

// NewFanout creates a delivery fan-out. chunkSize is the transport's media
// batch limit; sendDelay is the pause between consecutive sends.
func NewFanout(client transport.Client, users *user.Repo, deliveries *delivery.Repo, chunkSize int, sendDelay time.Duration) *Fanout {
	return &Fanout{
		client:     client,
		users:      users,
		deliveries: deliveries,
		chunkSize:  chunkSize,
		sendDelay:  sendDelay,
	}
}

// Deliver fans the job out and returns how many recipients got at least one
// message. Per-recipient failures are logged and skipped.
func (f *Fanout) Deliver(j Job) int {
	if j.Single != nil {
		return f.deliverSingle(*j.Single)
	}
	if len(j.Album) > 0 {
		return f.deliverAlbum(j.Album)
	}
	return 0
}

func (f *Fanout) deliverSingle(msg transport.Message) int {
	recipients, err := f.users.Recipients(msg.From)
	if err != nil {
		log.Printf("relay: list recipients: %v", err)
		return 0
	}
	prefix := f.prefix(msg.From)

	delivered := 0
	for _, to := range recipients {
		var sentID int64
		var sendErr error

		switch msg.Kind {
		case transport.KindText:
			sentID, sendErr = f.client.SendText(to, prefix+msg.Text)
		case transport.KindPhoto:
			sentID, sendErr = f.client.SendPhoto(to, msg.Media, prefix+msg.Text)
		case transport.KindVideo:
			sentID, sendErr = f.client.SendVideo(to, msg.Media, prefix+msg.Text)
		default:
			continue
		}
		if sendErr != nil {
			log.Printf("relay: send to %d failed: %v", to, sendErr)
			continue
		}

		if err := f.deliveries.Save(sentID, msg.From, to); err != nil {
			log.Printf("relay: record delivery %d: %v", sentID, err)
		}
		delivered++
		time.Sleep(f.sendDelay)
	}
	return delivered
}

func (f *Fanout) deliverAlbum(msgs []transport.Message) int {
	origin := msgs[0].From
	recipients, err := f.users.Recipients(origin)
	if err != nil {
		log.Printf("relay: list recipients: %v", err)
		return 0
	}
	prefix := f.prefix(origin)

	items := make([]transport.MediaItem, 0, len(msgs))
	for i, m := range msgs {
		caption := m.Text
		// The handle appears once, on the first item of the first chunk.
		if i == 0 {
			caption = prefix + caption
		}
		items = append(items, transport.MediaItem{Kind: m.Kind, Ref: m.Media, Caption: caption})
	}
	chunks := chunkItems(items, f.chunkSize)

	delivered := 0
	for _, to := range recipients {
		sent := false
		for _, chunk := range chunks {
			ids, err := f.client.SendMediaGroup(to, chunk)
			if err != nil {
				log.Printf("relay: album chunk to %d failed: %v", to, err)
				continue
			}
			for _, id := range ids {
				if err := f.deliveries.Save(id, origin, to); err != nil {
					log.Printf("relay: record delivery %d: %v", id, err)
				}
			}
			sent = true
			time.Sleep(f.sendDelay)
		}
		if sent {
			delivered++
		}
	}
	return delivered
}

// Purge deletes every relayed copy of the user's messages at the transport
// and drops the bookkeeping records. Returns deleted and failed counts.
func (f *Fanout) Purge(originID int64) (deleted, failed int) {
	placements, err := f.deliveries.ByOrigin(originID)
	if err != nil {
		log.Printf("relay: purge lookup for %d: %v", originID, err)
		return 0, 0
	}

	for _, p := range placements {
		if err := f.client.DeleteMessage(p.RecipientID, p.MessageID); err != nil {
			log.Printf("relay: delete message %d in chat %d: %v", p.MessageID, p.RecipientID, err)
			failed++
			continue
		}
		deleted++
	}

	if err := f.deliveries.DeleteByOrigin(originID); err != nil {
		log.Printf("relay: purge records for %d: %v", originID, err)
	}
	return deleted, failed
}

func (f *Fanout) prefix(originID int64) string {
	u, err := f.users.Get(originID)
	if err != nil || !u.HasHandle() {
		return UnknownPrefix
	}
	return "#" + u.Handle + ":\n"
}

func chunkItems(items []transport.MediaItem, size int) [][]transport.MediaItem {
	var chunks [][]transport.MediaItem
	for len(items) > size {
		chunks = append(chunks, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}
