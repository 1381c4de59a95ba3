package reference_test

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/robalyx/vigil/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		authorID  snowflake.ID
		messageID snowflake.ID
	}{
		{
			name:      "distinct identities",
			authorID:  123456789012345678,
			messageID: 987654321098765432,
		},
		{
			name:      "author id is substring of message id",
			authorID:  12345,
			messageID: 123456789,
		},
		{
			name:      "message id is substring of author id",
			authorID:  123456789,
			messageID: 12345,
		},
		{
			name:      "identical identities",
			authorID:  42,
			messageID: 42,
		},
		{
			name:      "maximum identity values",
			authorID:  snowflake.ID(^uint64(0)),
			messageID: snowflake.ID(^uint64(0) - 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tag := reference.Tag{AuthorID: tt.authorID, MessageID: tt.messageID}

			decoded, err := reference.Decode(tag.Encode())
			require.NoError(t, err)
			assert.Equal(t, tag, decoded)
		})
	}
}

func TestDecodeIgnoresSurroundingProse(t *testing.T) {
	t.Parallel()

	tag := reference.Tag{AuthorID: 111222333, MessageID: 444555666}

	// Digit runs and colons in the surrounding text must not shift the split
	text := "Flagged message from user 999888777:\n" +
		"```someone: \"call me at 123:456\"```\n" +
		"React with an emoji below: " + tag.Spoiler() + " trailing 42:43 digits"

	decoded, err := reference.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, tag, decoded)
}

func TestDecodeNoTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{
			name: "plain prose",
			text: "just a regular moderator message",
		},
		{
			name: "digit runs without a tag",
			text: "messageId: 123456789, sender: 987654321",
		},
		{
			name: "old style colon suffix",
			text: "please delete the message 'spam':123456789",
		},
		{
			name: "unknown tag version",
			text: "||[mr2:123:456]||",
		},
		{
			name: "empty identity",
			text: "[mr1::123]",
		},
		{
			name: "empty text",
			text: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := reference.Decode(tt.text)
			require.ErrorIs(t, err, reference.ErrNoTag)
		})
	}
}

func TestDecodeOverflowingIdentity(t *testing.T) {
	t.Parallel()

	// 20 digits, larger than any valid 64-bit identity
	_, err := reference.Decode("[mr1:99999999999999999999:1]")
	require.ErrorIs(t, err, reference.ErrNoTag)
}
