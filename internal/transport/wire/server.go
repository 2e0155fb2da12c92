package wire

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thewages75-crypto/idnon/internal/transport"
)

// UpdateHandler is called for each inbound message from any connected user.
// Handlers may run concurrently across connections; a single connection's
// messages arrive in order.
type UpdateHandler func(msg transport.Message)

// Server accepts relay client connections and implements transport.Client
// for the outbound side. Sends to users that are not connected fail, which
// the fan-out treats as "skip this recipient".
type Server struct {
	addr    string
	handler UpdateHandler

	// moderator guards: id 0 disables the passcode check entirely.
	moderatorID int64
	passHash    func() (string, error)

	mu    sync.RWMutex
	conns map[int64]*conn

	nextID atomic.Int64
}

// NewServer creates a wire transport server. passHash loads the current
// moderator passcode hash ("" means no passcode is required).
func NewServer(port int, moderatorID int64, passHash func() (string, error), handler UpdateHandler) *Server {
	s := &Server{
		addr:        fmt.Sprintf(":%d", port),
		handler:     handler,
		moderatorID: moderatorID,
		passHash:    passHash,
		conns:       make(map[int64]*conn),
	}
	// Seed ids off the clock so ids stay unique across restarts.
	s.nextID.Store(time.Now().UnixMilli() << 10)
	return s
}

// ListenAndServe starts accepting connections. Blocks until the listener is
// closed or a fatal error occurs.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	defer ln.Close()

	log.Printf("Relay transport listening on %s", s.addr)

	for {
		c, err := ln.Accept()
		if err != nil {
			log.Printf("Accept error: %v", err)
			continue
		}
		go s.serve(newConn(c))
	}
}

func (s *Server) serve(c *conn) {
	defer c.close()

	uid, err := s.handshake(c)
	if err != nil {
		c.send(verbErr + " " + escape(err.Error()))
		return
	}
	c.send(verbOK)

	s.register(uid, c)
	defer s.unregister(uid, c)

	for {
		line, err := c.readLine()
		if err != nil {
			return
		}
		msg, ok := s.parseFrame(uid, line)
		if !ok {
			c.send(verbErr + " bad frame")
			continue
		}
		s.handler(msg)
	}
}

// handshake reads HELLO and, for a passcode-guarded moderator, challenges
// for the passcode before admitting the connection.
func (s *Server) handshake(c *conn) (int64, error) {
	line, err := c.readLine()
	if err != nil {
		return 0, fmt.Errorf("closed before hello")
	}
	verb, rest := splitVerb(line)
	if verb != verbHello {
		return 0, fmt.Errorf("expected HELLO")
	}
	uid, err := parseID(rest)
	if err != nil {
		return 0, fmt.Errorf("bad user id")
	}

	if s.moderatorID != 0 && uid == s.moderatorID {
		hash, err := s.passHash()
		if err != nil {
			return 0, fmt.Errorf("passcode unavailable")
		}
		if hash != "" {
			c.send(verbAsk)
			line, err := c.readLine()
			if err != nil {
				return 0, fmt.Errorf("closed during auth")
			}
			verb, code := splitVerb(line)
			if verb != verbPass || !CheckPasscode(unescape(code), hash) {
				return 0, fmt.Errorf("bad passcode")
			}
		}
	}

	return uid, nil
}

// parseFrame turns one inbound line into a transport message.
func (s *Server) parseFrame(from int64, line string) (transport.Message, bool) {
	verb, rest := splitVerb(line)
	msg := transport.Message{ID: s.mintID(), From: from}

	switch verb {
	case verbText:
		msg.Kind = transport.KindText
		msg.Text = unescape(rest)
	case verbReply:
		ref, text := splitVerb(rest)
		replyTo, err := parseID(ref)
		if err != nil {
			return transport.Message{}, false
		}
		msg.Kind = transport.KindText
		msg.ReplyTo = replyTo
		msg.Text = unescape(text)
	case verbPhoto, verbVideo:
		ref, caption := splitVerb(rest)
		if ref == "" {
			return transport.Message{}, false
		}
		msg.Kind = kindOf(verb)
		msg.Media = ref
		msg.Text = unescape(caption)
	case verbGPhoto, verbGVideo:
		group, rest2 := splitVerb(rest)
		ref, caption := splitVerb(rest2)
		if group == "" || ref == "" {
			return transport.Message{}, false
		}
		if verb == verbGPhoto {
			msg.Kind = transport.KindPhoto
		} else {
			msg.Kind = transport.KindVideo
		}
		msg.GroupID = group
		msg.Media = ref
		msg.Text = unescape(caption)
	default:
		return transport.Message{}, false
	}

	return msg, true
}

// SendText delivers a text frame to a connected user.
func (s *Server) SendText(to int64, text string) (int64, error) {
	c, err := s.conn(to)
	if err != nil {
		return 0, err
	}
	id := s.mintID()
	if err := c.send(fmt.Sprintf("%s %d %s", verbMsg, id, escape(text))); err != nil {
		return 0, err
	}
	return id, nil
}

// SendPhoto delivers a photo frame to a connected user.
func (s *Server) SendPhoto(to int64, ref, caption string) (int64, error) {
	return s.sendMedia(to, verbPhoto, ref, caption)
}

// SendVideo delivers a video frame to a connected user.
func (s *Server) SendVideo(to int64, ref, caption string) (int64, error) {
	return s.sendMedia(to, verbVideo, ref, caption)
}

// SendMediaGroup delivers a batch of media frames and returns the id minted
// for each item.
func (s *Server) SendMediaGroup(to int64, items []transport.MediaItem) ([]int64, error) {
	c, err := s.conn(to)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		verb := verbPhoto
		if item.Kind == transport.KindVideo {
			verb = verbVideo
		}
		id := s.mintID()
		if err := c.send(fmt.Sprintf("%s %d %s %s", verb, id, item.Ref, escape(item.Caption))); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteMessage tells a user's client to drop a delivered message.
func (s *Server) DeleteMessage(chat, messageID int64) error {
	c, err := s.conn(chat)
	if err != nil {
		return err
	}
	return c.send(fmt.Sprintf("%s %d", verbDelete, messageID))
}

func (s *Server) sendMedia(to int64, verb, ref, caption string) (int64, error) {
	c, err := s.conn(to)
	if err != nil {
		return 0, err
	}
	id := s.mintID()
	if err := c.send(fmt.Sprintf("%s %d %s %s", verb, id, ref, escape(caption))); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Server) conn(uid int64) (*conn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[uid]
	if !ok {
		return nil, fmt.Errorf("user %d not connected", uid)
	}
	return c, nil
}

func (s *Server) register(uid int64, c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A reconnect displaces the old connection.
	if old, ok := s.conns[uid]; ok {
		old.close()
	}
	s.conns[uid] = c
}

func (s *Server) unregister(uid int64, c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[uid] == c {
		delete(s.conns, uid)
	}
}

func (s *Server) mintID() int64 {
	return s.nextID.Add(1)
}

func kindOf(verb string) transport.Kind {
	if verb == verbVideo {
		return transport.KindVideo
	}
	return transport.KindPhoto
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("bad id %q", s)
	}
	return id, nil
}
