package bot

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// channelDirectory maps each guild to its monitored and moderator channels,
// resolved from the group naming convention when the guild becomes ready.
type channelDirectory struct {
	mu        sync.RWMutex
	monitored map[snowflake.ID]snowflake.ID
	moderator map[snowflake.ID]snowflake.ID
}

func newChannelDirectory() *channelDirectory {
	return &channelDirectory{
		monitored: make(map[snowflake.ID]snowflake.ID),
		moderator: make(map[snowflake.ID]snowflake.ID),
	}
}

// register binds a guild to its resolved channel pair.
func (d *channelDirectory) register(guildID, monitoredID, moderatorID snowflake.ID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.monitored[guildID] = monitoredID
	d.moderator[guildID] = moderatorID
}

// isMonitored reports whether the channel is the guild's screened channel.
func (d *channelDirectory) isMonitored(guildID, channelID snowflake.ID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.monitored[guildID] == channelID
}

// isModerator reports whether the channel is the guild's review channel.
func (d *channelDirectory) isModerator(guildID, channelID snowflake.ID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.moderator[guildID] == channelID
}

// monitoredChannel returns the guild's screened channel.
func (d *channelDirectory) monitoredChannel(guildID snowflake.ID) (snowflake.ID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.monitored[guildID]

	return id, ok
}

// moderatorChannel returns the guild's review channel.
func (d *channelDirectory) moderatorChannel(guildID snowflake.ID) (snowflake.ID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.moderator[guildID]

	return id, ok
}

// registeredGuilds returns how many guilds have a resolved channel pair.
func (d *channelDirectory) registeredGuilds() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.moderator)
}
