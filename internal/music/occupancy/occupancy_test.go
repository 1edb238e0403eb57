package occupancy_test

import (
	"fmt"
	"testing"

	"github.com/xuanbachtran02/MusicCat/internal/music/occupancy"

	"github.com/stretchr/testify/assert"
)

const (
	botID      = "bot"
	botChannel = "vc-1"
)

func snapshotWithUsers(n int) occupancy.Snapshot {
	members := []occupancy.Member{{UserID: botID, ChannelID: botChannel}}
	for i := 0; i < n; i++ {
		members = append(members, occupancy.Member{
			UserID:    fmt.Sprintf("user-%d", i),
			ChannelID: botChannel,
		})
	}
	return occupancy.Snapshot{Members: members}
}

func TestEvaluateUserCountTable(t *testing.T) {
	want := map[int]occupancy.Classification{
		0: occupancy.Alone,
		1: occupancy.BotPlusOne,
		2: occupancy.BotPlusMany,
		3: occupancy.BotPlusMany,
		4: occupancy.BotPlusMany,
		5: occupancy.BotPlusMany,
	}

	for users := 0; users <= 5; users++ {
		t.Run(fmt.Sprintf("%d users", users), func(t *testing.T) {
			cur := snapshotWithUsers(users)
			res := occupancy.Evaluate(occupancy.Snapshot{}, cur, botID, botChannel)
			assert.Equal(t, want[users], res.Classification)
		})
	}
}

func TestEvaluateBotNotInVoice(t *testing.T) {
	res := occupancy.Evaluate(occupancy.Snapshot{}, snapshotWithUsers(2), botID, "")
	assert.Equal(t, occupancy.Empty, res.Classification)
}

func TestEvaluateIgnoresOtherChannels(t *testing.T) {
	cur := snapshotWithUsers(1)
	cur.Members = append(cur.Members,
		occupancy.Member{UserID: "elsewhere-1", ChannelID: "vc-2"},
		occupancy.Member{UserID: "elsewhere-2", ChannelID: "vc-2"},
	)

	res := occupancy.Evaluate(occupancy.Snapshot{}, cur, botID, botChannel)
	assert.Equal(t, occupancy.BotPlusOne, res.Classification)
}

func TestEvaluateCountsDistinctUsers(t *testing.T) {
	cur := snapshotWithUsers(1)
	// Duplicate entry for the same user must not bump the count.
	cur.Members = append(cur.Members, occupancy.Member{UserID: "user-0", ChannelID: botChannel})

	res := occupancy.Evaluate(occupancy.Snapshot{}, cur, botID, botChannel)
	assert.Equal(t, occupancy.BotPlusOne, res.Classification)
}

func TestEvaluateDeafenTransitions(t *testing.T) {
	tests := []struct {
		name     string
		prevDeaf bool
		curDeaf  bool
		want     occupancy.DeafenTransition
	}{
		{"deafen started", false, true, occupancy.DeafenStarted},
		{"deafen ended", true, false, occupancy.DeafenEnded},
		{"still deafened", true, true, occupancy.DeafenUnchanged},
		{"never deafened", false, false, occupancy.DeafenUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := occupancy.Snapshot{UserID: "user-0", ChannelID: botChannel, SelfDeaf: tt.prevDeaf}
			cur := snapshotWithUsers(1)
			cur.UserID = "user-0"
			cur.ChannelID = botChannel
			cur.SelfDeaf = tt.curDeaf

			res := occupancy.Evaluate(prev, cur, botID, botChannel)
			assert.Equal(t, tt.want, res.Deafen)
		})
	}
}

func TestEvaluateDeafenScopedToBotChannel(t *testing.T) {
	t.Run("other channel", func(t *testing.T) {
		// A user deafening elsewhere in the guild must not touch playback.
		prev := occupancy.Snapshot{UserID: "elsewhere", ChannelID: "vc-2", SelfDeaf: false}
		cur := snapshotWithUsers(1)
		cur.UserID = "elsewhere"
		cur.ChannelID = "vc-2"
		cur.SelfDeaf = true
		cur.Members = append(cur.Members, occupancy.Member{UserID: "elsewhere", ChannelID: "vc-2"})

		res := occupancy.Evaluate(prev, cur, botID, botChannel)
		assert.Equal(t, occupancy.BotPlusOne, res.Classification)
		assert.Equal(t, occupancy.DeafenUnchanged, res.Deafen)
	})

	t.Run("bot's own state", func(t *testing.T) {
		prev := occupancy.Snapshot{UserID: botID, ChannelID: botChannel, SelfDeaf: false}
		cur := snapshotWithUsers(1)
		cur.UserID = botID
		cur.ChannelID = botChannel
		cur.SelfDeaf = true

		res := occupancy.Evaluate(prev, cur, botID, botChannel)
		assert.Equal(t, occupancy.DeafenUnchanged, res.Deafen)
	})
}
