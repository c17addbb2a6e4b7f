// Package mail defines the outbound email boundary used by onboarding
// activities. The engine only formats and hands off messages; delivery
// is the responsibility of the injected Sender.
package mail

import (
	"context"
	"log/slog"
	"sync"
)

// Message is one outbound email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Sender delivers messages. Implementations wrap whatever transport the
// host application uses (SES, SMTP, an internal mail service).
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// LogSender logs messages instead of delivering them. Useful as a
// default in development environments.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg *Message) error {
	s.Logger.Info("mail send (log only)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// MemorySender collects messages in memory. Test double.
type MemorySender struct {
	mu   sync.Mutex
	sent []*Message
}

func (s *MemorySender) Send(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of all messages delivered so far.
func (s *MemorySender) Sent() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.sent))
	copy(out, s.sent)
	return out
}
