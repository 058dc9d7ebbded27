// Package notify defines how finalized lineups reach players.
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/pkg/logger"
)

// ErrNotFinalized is returned when asked to fan out an unbalanced match.
var ErrNotFinalized = errors.New("match has no partition to announce")

// Notifier delivers one notification. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

// FanOut builds one notification per rostered player of m.
func FanOut(m *model.Match, now time.Time) ([]model.Notification, error) {
	if m.Partition == nil {
		return nil, ErrNotFinalized
	}
	var out []model.Notification
	for i, team := range m.Partition.Teams {
		side := balance.SideA
		if i == 1 {
			side = balance.SideB
		}
		for _, key := range team.Players {
			mates := make([]string, 0, len(team.Players)-1)
			for _, other := range team.Players {
				if other != key {
					mates = append(mates, other)
				}
			}
			out = append(out, model.Notification{
				ID:        uuid.NewString(),
				MatchID:   m.ID,
				MatchName: m.Name,
				Revision:  m.Revision,
				PlayerKey: key,
				Side:      side,
				TeamName:  team.Name,
				Teammates: mates,
				CreatedAt: now,
			})
		}
	}
	return out, nil
}

// LogNotifier writes each delivery to the structured log. It stands in
// for push/in-app delivery, which lives outside this service.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	return &LogNotifier{log: l}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, msg model.Notification) error {
	n.log.Info(ctx, "lineup notification",
		logger.String("match", msg.MatchID),
		logger.Int("revision", msg.Revision),
		logger.String("player", msg.PlayerKey),
		logger.String("side", string(msg.Side)),
		logger.String("team", msg.TeamName),
		logger.String("teammates", strings.Join(msg.Teammates, ",")),
	)
	return nil
}

// Recorder keeps every delivered notification in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []model.Notification
	fail map[string]error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[string]error)}
}

// FailFor makes deliveries to player return err until cleared with nil.
func (r *Recorder) FailFor(player string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, player)
		return
	}
	r.fail[player] = err
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[n.PlayerKey]; err != nil {
		return err
	}
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of what has been delivered so far.
func (r *Recorder) Sent() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}
