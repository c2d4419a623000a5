package sro

import "time"

// NewQuotaKey builds the [QuotaKey] for scope, userID, and guildID (ignored
// unless scope is [ScopeGuildUser]), using now converted into loc to compute
// the local calendar date.
func NewQuotaKey(scope QuotaScope, userID, guildID string, loc *time.Location, now time.Time) QuotaKey {
	local := now.In(loc)
	k := QuotaKey{
		Date:   local.Format("20060102"),
		Scope:  scope,
		UserID: userID,
	}
	if scope == ScopeGuildUser {
		k.GuildID = guildID
	}
	return k
}

// SecondsUntilLocalMidnight returns how many seconds remain until the next
// local midnight in loc, as measured from now.
func SecondsUntilLocalMidnight(loc *time.Location, now time.Time) int {
	local := now.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	secs := int(midnight.Sub(local).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}
