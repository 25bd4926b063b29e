package debugcmd

import (
	"strings"
	"unicode"

	"github.com/compozy/overlay/pkg/overrides"
)

// Token is the command prefix, matched case-insensitively.
const Token = "/debug"

const (
	usageAll   = "Usage: /debug show|set|unset|reset"
	usageSet   = "Usage: /debug set path=value"
	usageUnset = "Usage: /debug unset path"
	msgSyntax  = "Invalid /debug syntax."
)

type Action string

const (
	ActionShow  Action = "show"
	ActionReset Action = "reset"
	ActionSet   Action = "set"
	ActionUnset Action = "unset"
	ActionError Action = "error"
)

// Command is one parsed input line. Path is set for set and unset, Value for
// set and Message for error.
type Command struct {
	Action  Action
	Path    string
	Value   overrides.Value
	Message string
}

func (c Command) String() string {
	switch c.Action {
	case ActionSet:
		return Token + " set " + c.Path + "=" + c.Value.String()
	case ActionUnset:
		return Token + " unset " + c.Path
	case ActionError:
		return "error: " + c.Message
	default:
		return Token + " " + string(c.Action)
	}
}

func errorCommand(msg string) Command {
	return Command{Action: ActionError, Message: msg}
}

// Parse reads one line. It reports false when the line is not a /debug
// command at all.
func Parse(raw string) (Command, bool) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < len(Token) || !strings.EqualFold(trimmed[:len(Token)], Token) {
		return Command{}, false
	}
	rest := strings.TrimSpace(trimmed[len(Token):])
	if rest == "" {
		return Command{Action: ActionShow}, true
	}

	word, args, ok := splitAction(rest)
	if !ok {
		return errorCommand(msgSyntax), true
	}

	switch strings.ToLower(word) {
	case "show":
		return Command{Action: ActionShow}, true
	case "reset":
		return Command{Action: ActionReset}, true
	case "unset":
		if args == "" {
			return errorCommand(usageUnset), true
		}
		return Command{Action: ActionUnset, Path: args}, true
	case "set":
		return parseSet(args), true
	default:
		return errorCommand(usageAll), true
	}
}

// splitAction splits "word<spaces>tail" at the first whitespace run.
func splitAction(rest string) (string, string, bool) {
	idx := strings.IndexFunc(rest, unicode.IsSpace)
	if idx < 0 {
		return rest, "", rest != ""
	}
	word := rest[:idx]
	args := strings.TrimSpace(rest[idx:])
	return word, args, word != ""
}

func parseSet(args string) Command {
	eq := strings.Index(args, "=")
	if args == "" || eq <= 0 {
		return errorCommand(usageSet)
	}
	path := strings.TrimSpace(args[:eq])
	if path == "" {
		return errorCommand(usageSet)
	}
	value, err := overrides.ParseLiteral(args[eq+1:])
	if err != nil {
		return errorCommand(err.Error())
	}
	return Command{Action: ActionSet, Path: path, Value: value}
}
