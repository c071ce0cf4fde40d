package hub

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// WriterMessenger renders hub notices as lines on a writer
type WriterMessenger struct {
	mu        sync.Mutex
	w         io.Writer
	nickColor *color.Color
	allColor  *color.Color
}

// NewWriterMessenger creates a messenger writing to w. Colors are used only
// when colored is set.
func NewWriterMessenger(w io.Writer, colored bool) *WriterMessenger {
	m := &WriterMessenger{
		w:         w,
		nickColor: color.New(color.FgCyan, color.Bold),
		allColor:  color.New(color.FgYellow, color.Bold),
	}
	if colored {
		m.nickColor.EnableColor()
		m.allColor.EnableColor()
	} else {
		m.nickColor.DisableColor()
		m.allColor.DisableColor()
	}
	return m
}

// SendPM writes "[PM to <nick>] <message>"
func (m *WriterMessenger) SendPM(nick, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.nickColor.Fprintf(m.w, "[PM to %s]", nick)
	if err == nil {
		_, err = io.WriteString(m.w, " "+message+"\n")
	}
	return err
}

// SendToAll writes "[ALL] <message>"
func (m *WriterMessenger) SendToAll(message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.allColor.Fprint(m.w, "[ALL]")
	if err == nil {
		_, err = io.WriteString(m.w, " "+message+"\n")
	}
	return err
}
