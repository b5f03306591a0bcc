package conversation

import (
	"fmt"
	"strings"
)

// Command is a reserved keyword that bypasses stage dispatch
type Command string

const (
	CommandHelp    Command = "help"
	CommandStatus  Command = "status"
	CommandRestart Command = "restart"
	CommandBack    Command = "back"
)

// Commands returns the global commands in match priority order
func Commands() []Command {
	return []Command{CommandHelp, CommandStatus, CommandRestart, CommandBack}
}

// MatchCommand scans the lowercased input for each command as a substring, in
// priority order, and returns the first hit. Any sentence containing "help"
// therefore triggers the help command.
func MatchCommand(input string) (Command, bool) {
	lower := strings.ToLower(input)
	for _, cmd := range Commands() {
		if strings.Contains(lower, string(cmd)) {
			return cmd, true
		}
	}
	return "", false
}

const (
	helpMessage = "I can help you form your LLC! Here are some things you can ask me:\n\n" +
		"• How do I form an LLC?\n" +
		"• What are the requirements for my state?\n" +
		"• How much does it cost to form an LLC?\n" +
		"• What documents do I need?\n" +
		"• How long does it take?\n\n" +
		"You can also use these commands:\n" +
		"• 'status' - Check your progress\n" +
		"• 'back' - Go to previous step\n" +
		"• 'restart' - Start over"

	restartMessage = "Let's start fresh! How can I help you form your LLC today? " +
		"Feel free to ask me anything about the process."

	atBeginningMessage = "We're already at the beginning! What would you like to know about forming an LLC?"
)

func (e *Engine) helpResponse() *Response {
	return &Response{Message: helpMessage}
}

func (e *Engine) statusResponse(stage Stage, info Info) (*Response, error) {
	current, err := e.flow.Index(stage)
	if err != nil {
		return nil, err
	}

	stages := e.flow.Stages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.String()
	}

	msg := fmt.Sprintf(
		"You're currently at the %s stage.\n"+
			"We've collected %d out of %d required pieces of information.\n\n"+
			"Need help? Just ask me anything about forming your LLC!",
		stage.Title(), len(info), e.flow.TotalRequired(),
	)

	return &Response{
		Message: msg,
		Visual: &Visual{
			Progress: &Progress{
				Stages:  names,
				Current: current,
				Total:   len(stages),
			},
		},
	}, nil
}

// backResponse moves st to the stage preceding its current one in table
// order. This is positional navigation, not an undo of the path taken.
func (e *Engine) backResponse(st *State, info Info) (*Response, error) {
	prev, ok, err := e.flow.Previous(st.stage)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Response{Message: atBeginningMessage}, nil
	}

	entry, err := e.flow.Lookup(prev)
	if err != nil {
		return nil, err
	}
	st.moveTo(prev, entry.Agent)

	return &Response{
		Message: fmt.Sprintf(
			"I've taken you back to the %s stage. What would you like to know?",
			prev.Title(),
		),
		DelegateTo: entry.Agent,
		Context:    info.Clone(),
	}, nil
}
