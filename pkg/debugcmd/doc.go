// Package debugcmd parses "/debug" operator commands and applies them to an
// override store.
//
// Grammar:
//
//	/debug                    show the current overrides
//	/debug show               same
//	/debug reset              drop every override
//	/debug set <path>=<value> set one override; value uses the literal grammar of overrides.ParseLiteral
//	/debug unset <path>       remove one override and prune empty parents
//
// Malformed input never fails: [Parse] turns it into a command whose action is
// [ActionError] and whose message is meant for the operator.
package debugcmd
