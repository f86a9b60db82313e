package chat

import (
	"strconv"
	"strings"
)

// Protocols recognized in message text.
const (
	ProtocolHTTP        = "http://"
	ProtocolHTTPS       = "https://"
	ProtocolGame        = "osu://"
	ProtocolMultiplayer = "osump://"
)

var knownProtocols = []string{ProtocolHTTP, ProtocolHTTPS, ProtocolGame, ProtocolMultiplayer}

// LinkType is the protocol class of an extracted link.
type LinkType int

const (
	LinkHTTP LinkType = iota
	LinkHTTPS
	LinkChannel
	LinkGame
)

// ActionKind enumerates in-game actions encoded in game protocol links.
type ActionKind int

const (
	ActionChat ActionKind = iota
	ActionOpenBeatmap
	ActionOpenDifficulty
	ActionMultiplayer
)

// Action is the decoded payload of a game protocol link.
type Action struct {
	Kind    ActionKind
	Channel string // ActionChat only
	ID      uint64 // beatmap, difficulty or lobby id
}

// ChunkKind tells text chunks apart from links.
type ChunkKind int

const (
	ChunkText ChunkKind = iota
	ChunkLink
)

// MessageChunk is a fragment of message text: either plain text or a link
// with a display title.
type MessageChunk struct {
	Kind     ChunkKind
	Text     string // text content, or the link's display title
	Location string // link target, links only
	Link     LinkType
	Action   Action // meaningful when Link == LinkGame
}

// TextChunk wraps plain text.
func TextChunk(s string) MessageChunk {
	return MessageChunk{Kind: ChunkText, Text: s}
}

// LinkChunk builds a link fragment.
func LinkChunk(title, location string, lt LinkType) MessageChunk {
	return MessageChunk{Kind: ChunkLink, Text: title, Location: location, Link: lt}
}

// GameChunk builds a game protocol link fragment.
func GameChunk(title, location string, action Action) MessageChunk {
	return MessageChunk{Kind: ChunkLink, Text: title, Location: location, Link: LinkGame, Action: action}
}

// linkTypeFrom classifies a candidate link location.
func linkTypeFrom(value string) (LinkType, Action, bool) {
	if strings.HasPrefix(value, ProtocolHTTP) {
		return LinkHTTP, Action{}, true
	}
	if strings.HasPrefix(value, ProtocolHTTPS) {
		return LinkHTTPS, Action{}, true
	}

	// The game client doesn't recognize multiplayer links without a trailing
	// slash, but we do. The rest of the actions work either way.
	value = strings.TrimSuffix(value, "/")

	if strings.HasPrefix(value, ProtocolGame) {
		if a, ok := extractGameAction(value); ok {
			return LinkGame, a, true
		}
		return 0, Action{}, false
	}
	if strings.HasPrefix(value, ProtocolMultiplayer) {
		if a, ok := extractMultiplayerAction(value); ok {
			return LinkGame, a, true
		}
	}
	return 0, Action{}, false
}

func extractGameAction(s string) (Action, bool) {
	rest := s[len(ProtocolGame):]
	switch {
	case strings.HasPrefix(rest, "chan/"):
		return Action{Kind: ActionChat, Channel: rest[5:]}, true
	case strings.HasPrefix(rest, "dl/s/"):
		return parseIDAction(ActionOpenBeatmap, rest[5:], 64)
	case strings.HasPrefix(rest, "dl/b/"):
		return parseIDAction(ActionOpenDifficulty, rest[5:], 64)
	case strings.HasPrefix(rest, "dl/"):
		return parseIDAction(ActionOpenBeatmap, rest[3:], 64)
	case strings.HasPrefix(rest, "b/"):
		return parseIDAction(ActionOpenDifficulty, rest[2:], 64)
	}
	return Action{}, false
}

// Lobby ids are 32-bit; beatmap and difficulty ids get the full range.
func extractMultiplayerAction(s string) (Action, bool) {
	return parseIDAction(ActionMultiplayer, s[len(ProtocolMultiplayer):], 32)
}

func parseIDAction(kind ActionKind, s string, bits int) (Action, bool) {
	id, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return Action{}, false
	}
	return Action{Kind: kind, ID: id}, true
}

// linkLocation marks a link found in the raw text, with byte offsets into it.
type linkLocation struct {
	pos      [2]int
	title    [2]int // markdown and wiki links only
	location [2]int // markdown links only
	style    linkStyle
	linkType LinkType
	action   Action
}

type linkStyle int

const (
	styleRaw linkStyle = iota
	styleMarkdown
	styleWiki
)

const wikiBase = "https://osu.ppy.sh/wiki/"

func (l linkLocation) titleText(s string) string {
	switch l.style {
	case styleWiki:
		return "wiki:" + s[l.title[0]:l.title[1]]
	case styleMarkdown:
		return s[l.title[0]:l.title[1]]
	default:
		return s[l.pos[0]:l.pos[1]]
	}
}

func (l linkLocation) locationText(s string) string {
	switch l.style {
	case styleWiki:
		return wikiBase + s[l.title[0]:l.title[1]]
	case styleMarkdown:
		return s[l.location[0]:l.location[1]]
	default:
		return s[l.pos[0]:l.pos[1]]
	}
}

// ParseForLinks splits the message text into text and link chunks. Only
// http(s), game protocols, #channel names, [[wiki]] and "[location title]"
// markdown forms are considered.
func (m *Message) ParseForLinks() {
	bs := m.Text
	var links []linkLocation

	protocolLookahead := func(pos int) bool {
		for _, protocol := range knownProtocols {
			if pos+len(protocol) < len(bs) && bs[pos:pos+len(protocol)] == protocol {
				return true
			}
		}
		return false
	}

	i := 0
	for i < len(bs) {
		for i < len(bs) && bs[i] != '[' && bs[i] != 'h' && bs[i] != 'o' && bs[i] != '#' {
			i++
		}
		if i == len(bs) {
			break
		}

		start := i

		// Plain link starting with a protocol, no title.
		if protocolLookahead(i) {
			for i < len(bs) && bs[i] != ' ' {
				i++
			}
			if lt, action, ok := linkTypeFrom(bs[start:i]); ok {
				links = append(links, linkLocation{
					pos: [2]int{start, i}, style: styleRaw, linkType: lt, action: action,
				})
			}
			continue
		}

		// Channel name.
		if bs[i] == '#' {
			i++
			for i < len(bs) && (bs[i] == '_' || (bs[i] >= 'a' && bs[i] <= 'z') || (bs[i] >= '0' && bs[i] <= '9')) {
				i++
			}
			// A lone '#' is not a channel name.
			if i > start+1 {
				links = append(links, linkLocation{
					pos: [2]int{start, i}, style: styleRaw, linkType: LinkChannel,
				})
			}
			continue
		}

		// Wiki link.
		if i+1 < len(bs) && bs[i+1] == '[' {
			for i < len(bs) && bs[i] != ']' {
				i++
			}
			if i+1 < len(bs) && bs[i+1] == ']' {
				links = append(links, linkLocation{
					pos:   [2]int{start, i + 2},
					title: [2]int{start + 2, i},
					style: styleWiki, linkType: LinkHTTPS,
				})
			} else {
				// Backtrack and let the next iteration reconsider.
				i = start + 1
			}
			continue
		}

		// Link with a title.
		if protocolLookahead(i + 1) {
			locationStart := i + 1
			for i < len(bs) && bs[i] != ' ' {
				i++
			}
			locationEnd := i
			if i < len(bs) && bs[i] == ' ' {
				i++
				titleStart := i
				for i < len(bs) && bs[i] != ']' {
					i++
				}
				if i < len(bs) {
					// Swallow trailing closing brackets, accounting for
					// difficulty names in /np.
					for i < len(bs) && bs[i] == ']' {
						i++
					}
					titleEnd := i - 1
					end := i

					if lt, action, ok := linkTypeFrom(bs[locationStart:locationEnd]); ok {
						links = append(links, linkLocation{
							pos:      [2]int{start, end},
							title:    [2]int{titleStart, titleEnd},
							location: [2]int{locationStart, locationEnd},
							style:    styleMarkdown, linkType: lt, action: action,
						})
					}
					continue
				}
				i = start + 1
			} else {
				i = start + 1
			}
			continue
		}

		i++
	}

	if len(links) == 0 {
		m.Chunks = []MessageChunk{TextChunk(m.Text)}
		return
	}

	var chunks []MessageChunk
	for idx, link := range links {
		if idx == 0 && link.pos[0] > 0 {
			chunks = append(chunks, TextChunk(bs[:link.pos[0]]))
		}

		chunks = append(chunks, MessageChunk{
			Kind:     ChunkLink,
			Text:     link.titleText(bs),
			Location: link.locationText(bs),
			Link:     link.linkType,
			Action:   link.action,
		})

		if idx+1 < len(links) {
			next := links[idx+1]
			if link.pos[1] < next.pos[0] {
				chunks = append(chunks, TextChunk(bs[link.pos[1]:next.pos[0]]))
			}
		}
	}
	last := links[len(links)-1]
	if last.pos[1] < len(bs) {
		chunks = append(chunks, TextChunk(bs[last.pos[1]:]))
	}
	m.Chunks = chunks
}
