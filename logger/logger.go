// Package logger keeps a single central log of emulator events. Entries are
// tagged with the name of the component that created them ("cpu", "floppy",
// "ide" and so on) and repeated entries are folded into one.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// maximum number of entries kept by the central log.
const maxEntries = 512

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	repeated  int
}

func (e Entry) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%s: %s", e.Tag, e.Detail)
	if e.repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

type log struct {
	mu      sync.Mutex
	entries []Entry
	echo    io.Writer
}

// the emulation goroutine and the host side both log, so every access goes
// through the mutex.
var central = &log{}

func (l *log) add(tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	now := time.Now()
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		l.entries[n-1].repeated++
		l.entries[n-1].Timestamp = now
	} else {
		l.entries = append(l.entries, Entry{Timestamp: now, Tag: tag, Detail: detail})
	}
	if len(l.entries) > maxEntries {
		l.entries = l.entries[len(l.entries)-maxEntries:]
	}
	if l.echo != nil {
		io.WriteString(l.echo, l.entries[len(l.entries)-1].String())
	}
}

// Log adds an entry to the central log.
func Log(tag, detail string) {
	central.add(tag, detail)
}

// Logf adds a formatted entry to the central log.
func Logf(tag, format string, args ...interface{}) {
	central.add(tag, fmt.Sprintf(format, args...))
}

// Clear removes every entry.
func Clear() {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.entries = central.entries[:0]
}

// Write writes the whole log to output.
func Write(output io.Writer) {
	Tail(output, maxEntries)
}

// Tail writes the last number entries to output.
func Tail(output io.Writer, number int) {
	central.mu.Lock()
	defer central.mu.Unlock()
	if number > len(central.entries) {
		number = len(central.entries)
	}
	if number <= 0 {
		return
	}
	for _, e := range central.entries[len(central.entries)-number:] {
		io.WriteString(output, e.String())
	}
}

// Entries returns a copy of the current log.
func Entries() []Entry {
	central.mu.Lock()
	defer central.mu.Unlock()
	c := make([]Entry, len(central.entries))
	copy(c, central.entries)
	return c
}

// SetEcho writes every new entry to output as well. A nil output stops the
// echo.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = output
}
