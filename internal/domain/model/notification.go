package model

import (
	"fmt"
	"time"

	"github.com/okian/kickoff/internal/domain/balance"
)

// Notification tells one player which team they ended up on.
type Notification struct {
	ID        string       // unique id
	MatchID   string       // match the lineup belongs to
	MatchName string       // display name of the match
	Revision  int          // match revision that was finalized
	PlayerKey string       // recipient
	Side      balance.Side // side the player is on
	TeamName  string       // display name of that side
	Teammates []string     // other players on the same side
	CreatedAt time.Time
}

// DedupeKey identifies a delivery: one per player per finalized revision.
func (n Notification) DedupeKey() string {
	return fmt.Sprintf("%s/%d/%s", n.MatchID, n.Revision, n.PlayerKey)
}
