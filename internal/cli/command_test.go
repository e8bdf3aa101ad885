package cli

import (
	"testing"

	"github.com/humanbelnik/storypoker/internal/client/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tt := []struct {
		name string
		line string
		want command
	}{
		{name: "points", line: "vote 8", want: command{kind: cmdVote, card: state.Points(8)}},
		{name: "zero", line: "v 0", want: command{kind: cmdVote, card: state.Points(0)}},
		{name: "abstain", line: "vote ?", want: command{kind: cmdVote, card: state.Abstain()}},
		{name: "reveal", line: "  reveal ", want: command{kind: cmdReveal}},
		{name: "goto is one based", line: "goto 2", want: command{kind: cmdGoto, index: 1}},
		{name: "add with description", line: "add Login page: with SSO", want: command{kind: cmdAdd, title: "Login page", desc: "with SSO"}},
		{name: "quit", line: "QUIT", want: command{kind: cmdQuit}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseCommand(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandRejects(t *testing.T) {
	for _, line := range []string{"vote", "vote 101", "vote -1", "vote five", "goto 0", "add", "dance"} {
		_, err := parseCommand(line)
		assert.Error(t, err, line)
	}

	_, err := parseCommand("   ")
	assert.ErrorIs(t, err, errEmptyCommand)
}
