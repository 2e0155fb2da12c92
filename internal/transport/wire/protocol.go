// Package wire implements the relay transport over a plain TCP line
// protocol. Each frame is one line; clients identify with HELLO and then
// exchange text and media frames. Message ids are minted by the server so
// reply targeting works the same way in both directions.
package wire

import "strings"

// Inbound frame verbs.
const (
	verbHello  = "HELLO"
	verbPass   = "PASS"
	verbText   = "TEXT"
	verbReply  = "RE"
	verbPhoto  = "PHOTO"
	verbVideo  = "VIDEO"
	verbGPhoto = "GPHOTO"
	verbGVideo = "GVIDEO"
)

// Outbound frame verbs (PHOTO and VIDEO are shared).
const (
	verbOK     = "OK"
	verbErr    = "ERR"
	verbAsk    = "PASS?"
	verbMsg    = "MSG"
	verbDelete = "DEL"
)

var payloadEscaper = strings.NewReplacer("\\", "\\\\", "\n", "\\n")

// escape flattens a payload onto one line.
func escape(s string) string {
	return payloadEscaper.Replace(s)
}

// unescape restores newlines and backslashes in a payload.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i == len(s)-1 {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// splitVerb separates a frame into its verb and argument string.
func splitVerb(line string) (verb, rest string) {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], line[i+1:]
	}
	return line, ""
}
