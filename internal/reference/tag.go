// Package reference encodes the back-reference that ties a moderator-channel
// post to the message it is about. The tag is embedded in otherwise free-form
// prompt text, so it carries a version marker and explicit brackets instead of
// relying on surrounding punctuation to find its boundaries.
package reference

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/disgoorg/snowflake/v2"
)

// ErrNoTag is returned when the scanned text carries no valid reference tag.
// Posts that predate the tag scheme or were written by hand decode to this.
var ErrNoTag = errors.New("no reference tag found")

// tagPattern matches exactly one versioned tag token. The brackets and
// version prefix bound the token, so digit runs in the surrounding prose can
// never shift how the two identities are split.
var tagPattern = regexp.MustCompile(`\[mr1:(\d{1,20}):(\d{1,20})\]`)

// Tag identifies the author and message a moderator post refers to.
type Tag struct {
	AuthorID  snowflake.ID
	MessageID snowflake.ID
}

// Encode renders the tag as its wire token.
func (t Tag) Encode() string {
	return fmt.Sprintf("[mr1:%s:%s]", t.AuthorID, t.MessageID)
}

// Spoiler renders the tag inside a spoiler span so it does not clutter the
// readable part of a moderator prompt.
func (t Tag) Spoiler() string {
	return "||" + t.Encode() + "||"
}

// Decode recovers the tag embedded anywhere in the given text.
// Decode(t.Encode()) returns t for every valid identity pair.
func Decode(text string) (Tag, error) {
	m := tagPattern.FindStringSubmatch(text)
	if m == nil {
		return Tag{}, ErrNoTag
	}

	authorID, err := snowflake.Parse(m[1])
	if err != nil {
		return Tag{}, fmt.Errorf("%w: invalid author id %q", ErrNoTag, m[1])
	}

	messageID, err := snowflake.Parse(m[2])
	if err != nil {
		return Tag{}, fmt.Errorf("%w: invalid message id %q", ErrNoTag, m[2])
	}

	return Tag{AuthorID: authorID, MessageID: messageID}, nil
}
