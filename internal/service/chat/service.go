// Package chat relays authenticated chat messages to the external answering service.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 15 * time.Second

const maxReplyBytes = 1 << 20

var (
	// ErrEmptyMessage is returned for blank chat messages.
	ErrEmptyMessage = errors.New("chat: message required")
	// ErrUnavailable is returned when no answering service is configured.
	ErrUnavailable = errors.New("chat: answering service not configured")
	// ErrUpstream is returned when the answering service fails or replies with garbage.
	ErrUpstream = errors.New("chat: answering service failed")
)

// Reply is the answer returned to the client.
type Reply struct {
	Message           string  `json:"message"`
	FromKnowledgeBase bool    `json:"from_knowledge_base"`
	Source            *string `json:"source"`
}

type upstreamRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// Service forwards messages to the answering service.
type Service struct {
	upstream string
	client   *http.Client
	logger   *slog.Logger
}

// New constructs a Service. An empty upstreamURL disables the relay.
func New(upstreamURL string, timeout time.Duration, logger *slog.Logger) Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Service{
		upstream: strings.TrimSpace(upstreamURL),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Enabled reports whether an answering service is configured.
func (s Service) Enabled() bool {
	return s.upstream != ""
}

// Ask sends message on behalf of userID and returns the answer.
func (s Service) Ask(ctx context.Context, userID, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if !s.Enabled() {
		return Reply{}, ErrUnavailable
	}

	payload, err := json.Marshal(upstreamRequest{Message: message, UserID: userID})
	if err != nil {
		return Reply{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.upstream, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, oops.Code("CHAT_UPSTREAM").With("upstream", s.upstream).Wrap(errors.Join(ErrUpstream, err))
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return Reply{}, oops.Code("CHAT_UPSTREAM").With("upstream", s.upstream).Wrap(errors.Join(ErrUpstream, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, oops.Code("CHAT_UPSTREAM").Wrap(errors.Join(ErrUpstream, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Reply{}, oops.Code("CHAT_UPSTREAM").
			With("status", resp.StatusCode).
			Wrap(errors.Join(ErrUpstream, fmt.Errorf("upstream status %d", resp.StatusCode)))
	}
	var reply Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return Reply{}, oops.Code("CHAT_UPSTREAM").Wrap(errors.Join(ErrUpstream, err))
	}
	s.logger.DebugContext(ctx, "chat answered", "user_id", userID, "duration", time.Since(started), "from_knowledge_base", reply.FromKnowledgeBase)
	return reply, nil
}
