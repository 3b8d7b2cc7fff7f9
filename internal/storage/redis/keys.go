package redis

import (
	"fmt"

	"github.com/mcoot/blockfall/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "blockfall"

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// scoresKey returns the Redis key for the ZSET of game IDs ranked by points
func scoresKey() string {
	return fmt.Sprintf("%s:scores", keyPrefix)
}

// scoreEntriesKey returns the Redis key for the HASH of game ID -> ScoreEntry JSON
func scoreEntriesKey() string {
	return fmt.Sprintf("%s:score_entries", keyPrefix)
}
