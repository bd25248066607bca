package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter map[string]int

func (c counter) action(name string) Action {
	return func(context.Context) error {
		c[name]++
		return nil
	}
}

func testMenu(calls counter) *Menu {
	return &Menu{
		Title: "Main",
		Items: []Item{
			{Key: "1", Label: "Chat", Action: calls.action("chat")},
			{Key: "2", Label: "Copilot", Aliases: []string{"copilot::"}, Action: calls.action("copilot")},
			{Key: "e", Label: "Fail", Action: func(context.Context) error { return errors.New("disk full") }},
			{Key: "x", Label: "Exit", Action: func(context.Context) error { return ErrExit }},
		},
	}
}

func TestConsolePrompt(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("  first \r\nlast"), &out)

	line, err := c.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "first", line)

	line, err = c.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.Prompt("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > \n", out.String())
}

func TestDispatchRunsExactlyOneAction(t *testing.T) {
	calls := counter{}
	m := testMenu(calls)
	require.NoError(t, m.Validate())

	require.NoError(t, m.Dispatch(context.Background(), "1"))
	require.NoError(t, m.Dispatch(context.Background(), " copilot:: "))
	assert.Equal(t, counter{"chat": 1, "copilot": 1}, calls)

	err := m.Dispatch(context.Background(), "CHAT")
	assert.ErrorIs(t, err, ErrUnknownChoice)
	assert.Equal(t, counter{"chat": 1, "copilot": 1}, calls)
}

func TestValidateRejectsDuplicates(t *testing.T) {
	noop := func(context.Context) error { return nil }

	dup := &Menu{Items: []Item{{Key: "1", Label: "a", Action: noop}, {Key: "1", Label: "b", Action: noop}}}
	assert.ErrorContains(t, dup.Validate(), `key "1"`)

	aliasClash := &Menu{Items: []Item{{Key: "1", Label: "a", Action: noop}, {Key: "2", Label: "b", Aliases: []string{"1"}, Action: noop}}}
	assert.Error(t, aliasClash.Validate())

	noAction := &Menu{Items: []Item{{Key: "1", Label: "a"}}}
	assert.Error(t, noAction.Validate())

	blank := &Menu{Items: []Item{{Key: " ", Label: "a", Action: noop}}}
	assert.Error(t, blank.Validate())
}

func TestRunSurvivesBadInputAndErrors(t *testing.T) {
	calls := counter{}
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("9\n\nhello\ne\n1\nx\n1\n"), &out)

	err := testMenu(calls).Run(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, counter{"chat": 1}, calls, "input after exit is not read")
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid choice. Please try again."))
	assert.Contains(t, out.String(), "Error: disk full")
	assert.Contains(t, out.String(), "2. Copilot")
}

func TestRunStopsAtEndOfInput(t *testing.T) {
	calls := counter{}
	c := NewConsole(strings.NewReader("1\n1"), io.Discard)
	require.NoError(t, testMenu(calls).Run(context.Background(), c))
	assert.Equal(t, 2, calls["chat"])
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Menu{Items: []Item{{Key: "c", Label: "Cancel", Action: func(context.Context) error {
		cancel()
		return context.Canceled
	}}}}

	err := m.Run(ctx, NewConsole(strings.NewReader("c\nc\n"), io.Discard))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHelpLines(t *testing.T) {
	m := &Menu{Items: []Item{
		{Key: "1", Label: "Chat", Help: "Talk to the model.", Action: counter{}.action("x")},
		{Key: "x", Label: "Exit", Action: counter{}.action("x")},
	}}
	assert.Equal(t, []string{"1. Chat: Talk to the model.", "x. Exit: Exit"}, m.HelpLines())
}
