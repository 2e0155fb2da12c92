package bot

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/thewages75-crypto/idnon/internal/transport"
)

func (s *Service) handleCommand(msg transport.Message) {
	name, args := msg.Command()

	if name == "start" {
		s.handleStart(msg)
		return
	}

	// Everything below is moderator-only.
	if msg.From != s.cfg.ModeratorID {
		return
	}

	switch name {
	case "stats":
		s.cmdStats(msg)
	case "info":
		s.cmdInfo(msg, args)
	case "ban":
		s.cmdSetBanned(msg, args, true)
	case "unban":
		s.cmdSetBanned(msg, args, false)
	case "shadow":
		s.cmdShadow(msg, args)
	case "whitelist":
		s.cmdSetWhitelisted(msg, args, true)
	case "unwhitelist":
		s.cmdSetWhitelisted(msg, args, false)
	case "purge", "del":
		s.cmdPurge(msg, args)
	case "addword":
		s.cmdAddWord(msg, args)
	case "removeword":
		s.cmdRemoveWord(msg, args)
	case "words":
		s.cmdListWords(msg)
	case "openjoin":
		s.cmdSetJoin(msg, true)
	case "closejoin":
		s.cmdSetJoin(msg, false)
	}
}

// handleStart joins a new user (when joining is open) and begins handle
// onboarding.
func (s *Service) handleStart(msg transport.Message) {
	uid := msg.From

	if !s.users.Exists(uid) {
		open, err := s.db.JoinOpen()
		if err != nil {
			log.Printf("bot: join flag: %v", err)
			return
		}
		if !open {
			s.reply(uid, "Joining is closed by the moderator.")
			return
		}
		if _, err := s.users.Create(uid); err != nil {
			log.Printf("bot: create user %d: %v", uid, err)
			return
		}
		s.setPendingHandle(uid)
		s.reply(uid, "Welcome! Send your handle.")
		return
	}

	u, err := s.users.Get(uid)
	if err != nil {
		log.Printf("bot: load user %d: %v", uid, err)
		return
	}
	if u.Banned {
		s.reply(uid, "You are banned.")
		return
	}
	if !u.HasHandle() {
		s.setPendingHandle(uid)
		s.reply(uid, "Send your handle.")
		return
	}
	s.reply(uid, "Welcome back!")
}

func (s *Service) cmdStats(msg transport.Message) {
	stats, err := s.users.Stats()
	if err != nil {
		log.Printf("bot: stats: %v", err)
		return
	}
	tracked, err := s.deliveries.Count()
	if err != nil {
		log.Printf("bot: stats: %v", err)
		return
	}
	s.reply(msg.From, fmt.Sprintf(
		"Total users: %d\nBanned: %d\nAuto-banned: %d\nShadow-banned: %d\nWhitelisted: %d\nTracked deliveries: %d",
		stats.Total, stats.Banned, stats.AutoBanned, stats.ShadowBanned, stats.Whitelisted, tracked))
}

func (s *Service) cmdInfo(msg transport.Message, args string) {
	uid, ok := s.resolveTarget(msg, args)
	if !ok {
		s.reply(msg.From, "Usage: /info USER_ID, or reply to a relayed message.")
		return
	}

	u, err := s.users.Get(uid)
	if err != nil {
		s.reply(msg.From, "User not found.")
		return
	}

	handle := u.Handle
	if handle == "" {
		handle = "(none)"
	}
	s.reply(msg.From, fmt.Sprintf(
		"ID: %d\nHandle: %s\nBanned: %v\nAuto-banned: %v\nShadow-banned: %v\nWhitelisted: %v\nMedia sent: %d",
		u.ID, handle, u.Banned, u.AutoBanned, u.ShadowBanned, u.Whitelisted, u.MediaCount))
}

func (s *Service) cmdSetBanned(msg transport.Message, args string, banned bool) {
	uid, ok := s.resolveTarget(msg, args)
	if !ok {
		s.reply(msg.From, "Reply to a relayed message or pass a user id.")
		return
	}
	if err := s.users.SetBanned(uid, banned); err != nil {
		log.Printf("bot: set banned: %v", err)
		return
	}
	if banned {
		s.reply(msg.From, fmt.Sprintf("User %d banned.", uid))
	} else {
		s.reply(msg.From, fmt.Sprintf("User %d unbanned.", uid))
	}
}

func (s *Service) cmdShadow(msg transport.Message, args string) {
	uid, ok := s.resolveTarget(msg, args)
	if !ok {
		s.reply(msg.From, "Reply to a relayed message or pass a user id.")
		return
	}
	shadow, err := s.users.ToggleShadow(uid)
	if err != nil {
		log.Printf("bot: toggle shadow: %v", err)
		return
	}
	s.reply(msg.From, fmt.Sprintf("User %d shadow-ban: %v", uid, shadow))
}

func (s *Service) cmdSetWhitelisted(msg transport.Message, args string, whitelisted bool) {
	uid, ok := s.resolveTarget(msg, args)
	if !ok {
		s.reply(msg.From, "Reply to a relayed message or pass a user id.")
		return
	}
	if err := s.users.SetWhitelisted(uid, whitelisted); err != nil {
		log.Printf("bot: set whitelisted: %v", err)
		return
	}
	s.reply(msg.From, fmt.Sprintf("User %d whitelisted: %v", uid, whitelisted))
}

func (s *Service) cmdPurge(msg transport.Message, args string) {
	uid, ok := s.resolveTarget(msg, args)
	if !ok {
		s.reply(msg.From, "Reply to a relayed message to purge its sender.")
		return
	}
	deleted, failed := s.fanout.Purge(uid)
	s.reply(msg.From, fmt.Sprintf("Purged %d messages (%d failed).", deleted, failed))
}

func (s *Service) cmdAddWord(msg transport.Message, args string) {
	if strings.TrimSpace(args) == "" {
		s.reply(msg.From, "Usage: /addword word")
		return
	}
	if err := s.words.Add(args); err != nil {
		s.reply(msg.From, fmt.Sprintf("Cannot add word: %v", err))
		return
	}
	s.reply(msg.From, "Word added.")
}

func (s *Service) cmdRemoveWord(msg transport.Message, args string) {
	if strings.TrimSpace(args) == "" {
		s.reply(msg.From, "Usage: /removeword word")
		return
	}
	if err := s.words.Remove(args); err != nil {
		s.reply(msg.From, fmt.Sprintf("Cannot remove word: %v", err))
		return
	}
	s.reply(msg.From, "Word removed.")
}

func (s *Service) cmdListWords(msg transport.Message) {
	words, err := s.words.Words()
	if err != nil {
		log.Printf("bot: list words: %v", err)
		return
	}
	if len(words) == 0 {
		s.reply(msg.From, "No banned words set.")
		return
	}
	s.reply(msg.From, "Banned words:\n"+strings.Join(words, "\n"))
}

func (s *Service) cmdSetJoin(msg transport.Message, open bool) {
	if err := s.db.SetJoinOpen(open); err != nil {
		log.Printf("bot: set join flag: %v", err)
		return
	}
	if open {
		s.reply(msg.From, "Joining opened.")
	} else {
		s.reply(msg.From, "Joining closed.")
	}
}

// resolveTarget finds the user a moderator command refers to: the origin of
// the replied-to relayed message, a numeric id argument, or a handle
// (with or without the # prefix).
func (s *Service) resolveTarget(msg transport.Message, args string) (int64, bool) {
	if msg.ReplyTo != 0 {
		origin, found, err := s.deliveries.Origin(msg.ReplyTo)
		if err != nil {
			log.Printf("bot: resolve reply target: %v", err)
			return 0, false
		}
		if found {
			return origin, true
		}
		return 0, false
	}

	args = strings.TrimSpace(args)
	if args == "" {
		return 0, false
	}
	target := strings.Fields(args)[0]

	if uid, err := strconv.ParseInt(target, 10, 64); err == nil {
		return uid, true
	}

	u, err := s.users.GetByHandle(strings.TrimPrefix(target, "#"))
	if err != nil {
		return 0, false
	}
	return u.ID, true
}
