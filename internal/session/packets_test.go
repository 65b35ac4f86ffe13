package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobancho-project/gobancho/internal/packet"
)

func TestPresencePacket(t *testing.T) {
	var stats [ModeCount]ModeStats
	stats[ModeStd].GlobalRank = 1

	s := New(Params{
		ID:          42,
		Username:    "cookiezi",
		Privileges:  PrivPublic | PrivNormal,
		UTCOffset:   9,
		CountryCode: 111,
		Longitude:   139.69,
		Latitude:    35.68,
		Stats:       stats,
	})

	r := packet.NewReader(s.PresencePacket())
	id, _, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, packet.ChoUserPresence, id)

	userID, _ := r.ReadInt32()
	assert.Equal(t, int32(42), userID)

	name, _ := r.ReadString()
	assert.Equal(t, "cookiezi", name)

	offset, _ := r.ReadUint8()
	assert.Equal(t, uint8(9+24), offset)

	country, _ := r.ReadUint8()
	assert.Equal(t, uint8(111), country)

	// Low 5 bits client privileges, high 3 bits current mode.
	packed, _ := r.ReadUint8()
	assert.Equal(t, uint8(BanchoPlayer), packed&0x1f)
	assert.Equal(t, uint8(ModeStd), packed>>5)

	long, _ := r.ReadFloat32()
	assert.InDelta(t, 139.69, long, 1e-4)

	lat, _ := r.ReadFloat32()
	assert.InDelta(t, 35.68, lat, 1e-4)

	rank, _ := r.ReadInt32()
	assert.Equal(t, int32(1), rank)

	assert.True(t, r.Empty())
}

func TestStatsPacket(t *testing.T) {
	var stats [ModeCount]ModeStats
	stats[ModeTaikoRelax] = ModeStats{
		RankedScore: 123456789,
		TotalScore:  987654321,
		Accuracy:    98.76,
		Playcount:   5000,
		PP:          7331,
		GlobalRank:  12,
	}

	s := New(Params{ID: 7, Username: "p", Privileges: PrivPublic, Stats: stats})
	s.SetStatus(Status{
		Action:   ActionPlaying,
		InfoText: "some map",
		MapMD5:   "d41d8cd98f00b204e9800998ecf8427e",
		Mods:     ModRelax,
		Mode:     ModeTaikoRelax,
		MapID:    7777,
	})

	r := packet.NewReader(s.StatsPacket())
	id, _, err := r.ReadHeader()
	require.NoError(t, err)
	assert.Equal(t, packet.ChoUserStats, id)

	userID, _ := r.ReadInt32()
	assert.Equal(t, int32(7), userID)

	action, _ := r.ReadUint8()
	assert.Equal(t, uint8(ActionPlaying), action)

	info, _ := r.ReadString()
	assert.Equal(t, "some map", info)

	md5, _ := r.ReadString()
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", md5)

	mods, _ := r.ReadInt32()
	assert.Equal(t, int32(ModRelax), mods)

	mode, _ := r.ReadUint8()
	assert.Equal(t, uint8(ModeTaikoRelax), mode)

	mapID, _ := r.ReadInt32()
	assert.Equal(t, int32(7777), mapID)

	ranked, _ := r.ReadInt64()
	assert.Equal(t, int64(123456789), ranked)

	// Accuracy ships divided by 100.
	acc, _ := r.ReadFloat32()
	assert.InDelta(t, 0.9876, acc, 1e-4)

	playcount, _ := r.ReadInt32()
	assert.Equal(t, int32(5000), playcount)

	total, _ := r.ReadInt64()
	assert.Equal(t, int64(987654321), total)

	rank, _ := r.ReadInt32()
	assert.Equal(t, int32(12), rank)

	pp, _ := r.ReadInt16()
	assert.Equal(t, int16(7331), pp)

	assert.True(t, r.Empty())
}
