package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelDirectory(t *testing.T) {
	t.Parallel()

	d := newChannelDirectory()

	// Unregistered guilds route nothing
	assert.False(t, d.isMonitored(1, 10))
	assert.False(t, d.isModerator(1, 11))
	assert.Zero(t, d.registeredGuilds())

	d.register(1, 10, 11)

	assert.True(t, d.isMonitored(1, 10))
	assert.False(t, d.isMonitored(1, 11))
	assert.True(t, d.isModerator(1, 11))
	assert.False(t, d.isModerator(1, 10))
	assert.Equal(t, 1, d.registeredGuilds())

	monitored, ok := d.monitoredChannel(1)
	assert.True(t, ok)
	assert.EqualValues(t, 10, monitored)

	moderator, ok := d.moderatorChannel(1)
	assert.True(t, ok)
	assert.EqualValues(t, 11, moderator)

	_, ok = d.moderatorChannel(2)
	assert.False(t, ok)
}

func TestGroupNamePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		group    string
		matches  bool
	}{
		{name: "standard", username: "Group 14 Bot", group: "14", matches: true},
		{name: "lowercase", username: "group 3 bot", group: "3", matches: true},
		{name: "no number", username: "Moderator Bot", matches: false},
		{name: "unrelated", username: "vigil", matches: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := groupNamePattern.FindStringSubmatch(tt.username)
			if !tt.matches {
				assert.Nil(t, m)
				return
			}

			assert.Equal(t, tt.group, m[1])
		})
	}
}
