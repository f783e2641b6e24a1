package leaderboard

import "github.com/mwork/community-engine/internal/domain/gamification"

// Entry is one ranked row. It is derived from stats on every read.
type Entry struct {
	UserID     string                 `json:"userId"`
	UserName   string                 `json:"userName"`
	UserAvatar string                 `json:"userAvatar"`
	Points     int                    `json:"points"`
	Streak     int                    `json:"streak"`
	Badges     []gamification.BadgeID `json:"badges"`
	Rank       int                    `json:"rank"`
}
