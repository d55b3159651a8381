// Package audit defines the events written to the audit journal.
package audit

import "time"

// Kind names what happened.
type Kind string

// Event kinds.
const (
	KindIngest      Kind = "ingest"
	KindQuery       Kind = "query"
	KindSwarmQuery  Kind = "swarm_query"
	KindEthicsBlock Kind = "ethics_block"
)

// PreviewLen is how many runes of query text an event keeps.
const PreviewLen = 120

// Event is one journal entry.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Kind      Kind           `json:"event"`
	Agent     string         `json:"agent"`
	Payload   map[string]any `json:"payload"`
}

// Preview truncates text to PreviewLen runes.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= PreviewLen {
		return text
	}
	return string(r[:PreviewLen])
}
