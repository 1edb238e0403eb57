// Package occupancy classifies who shares the bot's voice channel. The
// classification drives automatic leave, pause, and resume decisions.
package occupancy

// Classification buckets the channel population, bot included.
type Classification int

const (
	// Empty means the bot itself is not in a voice channel.
	Empty Classification = iota
	// Alone means the bot is the only occupant.
	Alone
	// BotPlusOne means exactly one user shares the channel with the bot.
	BotPlusOne
	// BotPlusMany means two or more users share the channel with the bot.
	BotPlusMany
)

func (c Classification) String() string {
	switch c {
	case Alone:
		return "alone"
	case BotPlusOne:
		return "bot-plus-one"
	case BotPlusMany:
		return "bot-plus-many"
	default:
		return "empty"
	}
}

// DeafenTransition describes how the changed user's self-deafen flag moved.
type DeafenTransition int

const (
	DeafenUnchanged DeafenTransition = iota
	DeafenStarted
	DeafenEnded
)

// Member is one (user, channel) pair in the guild's voice channels.
type Member struct {
	UserID    string
	ChannelID string
}

// Snapshot is the transient view delivered with a voice-presence event:
// the changed user's state plus all voice members at evaluation time.
type Snapshot struct {
	UserID    string
	ChannelID string
	SelfDeaf  bool
	Members   []Member
}

// Result pairs the channel classification with the deafen transition of the
// user whose state changed.
type Result struct {
	Classification Classification
	Deafen         DeafenTransition
}

// Evaluate is a pure function over the previous and current snapshots.
// Counting is scoped to the channel the bot currently occupies; users in
// other channels of the same guild are ignored, for the deafen transition
// as much as for the population count. The bot itself is excluded from the
// user count and folded back in by the classification thresholds.
func Evaluate(prev, cur Snapshot, botID, botChannelID string) Result {
	res := Result{Deafen: deafenTransition(prev, cur, botID, botChannelID)}

	if botChannelID == "" {
		res.Classification = Empty
		return res
	}

	others := 0
	seen := make(map[string]bool)
	for _, m := range cur.Members {
		if m.UserID == botID || m.ChannelID != botChannelID || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		others++
	}

	switch {
	case others == 0:
		res.Classification = Alone
	case others == 1:
		res.Classification = BotPlusOne
	default:
		res.Classification = BotPlusMany
	}
	return res
}

func deafenTransition(prev, cur Snapshot, botID, botChannelID string) DeafenTransition {
	// Only a user sitting in the bot's channel can pause or resume it.
	if cur.UserID == botID || cur.ChannelID != botChannelID {
		return DeafenUnchanged
	}
	switch {
	case !prev.SelfDeaf && cur.SelfDeaf:
		return DeafenStarted
	case prev.SelfDeaf && !cur.SelfDeaf:
		return DeafenEnded
	default:
		return DeafenUnchanged
	}
}
