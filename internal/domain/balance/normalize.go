package balance

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// nameKeyPrefix marks keys derived from a display name rather than an id.
const nameKeyPrefix = "name:"

// Accessors extract identity and score from an arbitrary record type.
// Any accessor may be nil.
type Accessors[T any] struct {
	Key   func(T) string
	Score func(T) any
	Name  func(T) string
}

// Normalize turns raw records into unique players. Records with neither a
// key nor a name are dropped; the first record for a key wins. Scores that
// do not parse, or parse to NaN/Inf, become 0. Normalize never fails.
func Normalize[T any](records []T, acc Accessors[T]) []Player {
	out := make([]Player, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := resolveKey(rec, acc)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		var raw any
		if acc.Score != nil {
			raw = acc.Score(rec)
		}
		out = append(out, Player{Key: key, Score: CoerceScore(raw)})
	}
	return out
}

// NormalizePlayers runs Normalize over players that already carry a key.
func NormalizePlayers(players []Player) []Player {
	return Normalize(players, Accessors[Player]{
		Key:   func(p Player) string { return p.Key },
		Score: func(p Player) any { return p.Score },
	})
}

func resolveKey[T any](rec T, acc Accessors[T]) string {
	if acc.Key != nil {
		if k := strings.TrimSpace(acc.Key(rec)); k != "" {
			return k
		}
	}
	if acc.Name != nil {
		if n := NameKey(acc.Name(rec)); n != "" {
			return n
		}
	}
	return ""
}

// NameKey is the fallback identity for a record without an id: the name
// lowercased with runs of whitespace collapsed. Empty names yield "".
func NameKey(name string) string {
	n := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if n == "" {
		return ""
	}
	return nameKeyPrefix + n
}

// CoerceScore converts v to a finite float64, or 0.
func CoerceScore(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
