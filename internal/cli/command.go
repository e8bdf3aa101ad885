package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/humanbelnik/storypoker/internal/client/state"
)

type commandKind int

const (
	cmdVote commandKind = iota
	cmdReveal
	cmdReopen
	cmdNext
	cmdGoto
	cmdAdd
	cmdRefresh
	cmdHelp
	cmdQuit
)

type command struct {
	kind  commandKind
	card  state.Card
	index int
	title string
	desc  string
}

var errEmptyCommand = errors.New("empty command")

const usage = `commands:
  vote <0-100>      pick a card
  vote ?            abstain
  reveal            reveal the active story
  reopen            hide votes of the active story again
  next              move everyone to the next open story
  goto <n>          look at story n
  add <title>[: description]
  refresh           reload the room
  help
  quit`

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errEmptyCommand
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch strings.ToLower(fields[0]) {
	case "vote", "v":
		if len(fields) != 2 {
			return command{}, errors.New("usage: vote <0-100> or vote ?")
		}
		if fields[1] == "?" {
			return command{kind: cmdVote, card: state.Abstain()}, nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 || n > 100 {
			return command{}, fmt.Errorf("invalid card %q: want 0..100 or ?", fields[1])
		}
		return command{kind: cmdVote, card: state.Points(n)}, nil
	case "reveal":
		return command{kind: cmdReveal}, nil
	case "reopen":
		return command{kind: cmdReopen}, nil
	case "next":
		return command{kind: cmdNext}, nil
	case "goto":
		if len(fields) != 2 {
			return command{}, errors.New("usage: goto <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return command{}, fmt.Errorf("invalid story number %q", fields[1])
		}
		return command{kind: cmdGoto, index: n - 1}, nil
	case "add":
		draft := parseStoryDraft(rest)
		if draft.Title == "" {
			return command{}, errors.New("usage: add <title>[: description]")
		}
		return command{kind: cmdAdd, title: draft.Title, desc: draft.Description}, nil
	case "refresh":
		return command{kind: cmdRefresh}, nil
	case "help", "h":
		return command{kind: cmdHelp}, nil
	case "quit", "exit", "q":
		return command{kind: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q, try help", fields[0])
}
