package constants

import "fmt"

// Moderator action emojis. Reacting with one of these on a moderator-channel
// post that carries a reference tag dispatches the bound action.
const (
	DeleteActionEmoji  = "🗑️"
	SuspendActionEmoji = "🔨"
	AnalyzeActionEmoji = "📊"
)

// Channel naming convention binding a deployment instance to its channels.
// A deployment with group number N screens #group-N and reports to
// #group-N-mod.
const (
	MonitoredChannelFormat = "group-%d"
	ModeratorChannelFormat = "group-%d-mod"
)

// MonitoredChannelName returns the screened channel name for a group number.
func MonitoredChannelName(groupNumber int) string {
	return fmt.Sprintf(MonitoredChannelFormat, groupNumber)
}

// ModeratorChannelName returns the review channel name for a group number.
func ModeratorChannelName(groupNumber int) string {
	return fmt.Sprintf(ModeratorChannelFormat, groupNumber)
}
