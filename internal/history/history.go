// Package history provides the per-chat conversation transcript store.
//
// A transcript is an ordered sequence of "User: <text>" / "Agent: <text>"
// lines, capped at [MaxLines]; the oldest lines are evicted first whenever the
// cap is exceeded. Transcripts are created implicitly on first append and
// keyed by an opaque chat identifier.
//
// Two [Store] implementations exist: [MemStore] for single-process
// deployments and [PostgresStore] for deployments whose history must outlive
// a process.
package history

import (
	"context"
	"strings"
)

// MaxLines is the transcript cap: 20 lines, i.e. the 10 most recent
// user/agent exchanges.
const MaxLines = 20

// Line prefixes marking who said what. Consumers that turn transcripts back
// into role-tagged messages match on these.
const (
	UserPrefix  = "User: "
	AgentPrefix = "Agent: "
)

// Transcript is the bounded textual exchange log for one chat identifier.
// The zero value is an empty transcript ready for use.
type Transcript struct {
	// Lines holds the "User:"/"Agent:" lines, oldest first.
	Lines []string
}

// String renders the transcript as newline-joined lines, the form injected
// into conversational prompts.
func (t Transcript) String() string {
	return strings.Join(t.Lines, "\n")
}

// Len returns the number of lines.
func (t Transcript) Len() int {
	return len(t.Lines)
}

// appendExchange adds one user/agent pair to lines and truncates to the most
// recent [MaxLines]. Shared by every Store implementation so the bound is
// enforced identically everywhere.
func appendExchange(lines []string, userText, agentText string) []string {
	lines = append(lines, UserPrefix+userText, AgentPrefix+agentText)
	if len(lines) > MaxLines {
		lines = lines[len(lines)-MaxLines:]
	}
	return lines
}

// Store is the conversation history service.
//
// Implementations must be safe for concurrent use and must serialise
// mutations per chat identifier: concurrent Append calls for the same chat
// may interleave in either order, but no exchange may be lost and the
// [MaxLines] bound must hold after every update.
type Store interface {
	// Get returns the transcript for chatID, or an empty transcript when the
	// chat has never been seen. A miss is not an error.
	Get(ctx context.Context, chatID string) (Transcript, error)

	// Append records one user/agent exchange for chatID, creating the
	// transcript if absent and truncating it to the most recent [MaxLines]
	// lines.
	Append(ctx context.Context, chatID, userText, agentText string) error
}
