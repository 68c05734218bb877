// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult is the outcome of parsing one line of user input. Plain chat
// text yields IsCommand=false and nothing else; a slash command yields the
// resolved Command (nil when unknown) plus its tokenized arguments.
type ParseResult struct {
	IsCommand   bool
	Command     *Command // nil when the name matched no registered command
	CommandName string   // as typed, e.g. "/sessions"
	Args        []string
	RawInput    string
	RawArgs     string // argument portion before tokenization
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands and their arguments.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the input doesn't start with /
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)

	result := ParseResult{
		RawInput: input,
	}

	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return result
	}

	result.CommandName = parts[0]
	if len(parts) > 1 {
		result.Args = parts[1:]
		result.RawArgs = strings.TrimSpace(strings.TrimPrefix(input, result.CommandName))
	}

	result.Command = p.registry.Get(result.CommandName)
	return result
}

// ParseArgs parses a raw argument string into individual arguments.
// Handles quoted strings with spaces.
func ParseArgs(input string) []string {
	return splitCommandLine(input)
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// splitCommandLine splits a command line into tokens, respecting single and
// double quotes so paths and titles with spaces survive as one argument.
// UNICODE: iterates runes, not bytes, so quoted non-ASCII titles tokenize
// correctly.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case r == '\'' && !inDoubleQuote:
			inSingleQuote = !inSingleQuote

		case r == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote

		case r == '\\' && i+1 < len(runes) && (inDoubleQuote || inSingleQuote):
			// Escapes inside quotes: \" \' \\
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++
			} else {
				current.WriteRune(r)
			}

		case unicode.IsSpace(r) && !inSingleQuote && !inDoubleQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName extracts just the command name from input.
// e.g., "/switch a1b2c3" -> "/switch"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}

	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return input
	}
	return input[:end]
}

// GetPartialCommand returns the command name still being typed, or empty
// once a space ends the name.
func GetPartialCommand(input string) string {
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	if strings.IndexFunc(input, unicode.IsSpace) == -1 {
		return input
	}
	return ""
}

// GetPartialArg returns the index and text of the argument being typed.
func GetPartialArg(input string) (int, string) {
	parts := splitCommandLine(input)
	if len(parts) <= 1 {
		return 0, ""
	}

	// Trailing space (or a just-closed quote) means a new argument starts.
	trimmed := strings.TrimSpace(input)
	if strings.HasSuffix(input, " ") || strings.HasSuffix(trimmed, "\"") || strings.HasSuffix(trimmed, "'") {
		return len(parts) - 1, ""
	}

	return len(parts) - 2, parts[len(parts)-1]
}

// ValidateArgs checks the parsed arguments against the command's argument
// definitions: required arguments must be present, and enum arguments must
// match one of the declared values (case-insensitively).
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	for i, def := range cmd.Args {
		if i >= len(args) {
			if def.Required {
				return &ValidationError{
					Command:  cmd.Name,
					Arg:      def.Name,
					Message:  "required argument missing",
					Expected: def.Description,
				}
			}
			continue
		}

		if def.Type == ArgTypeEnum && len(def.Values) > 0 && !matchesEnum(args[i], def.Values) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "invalid value",
				Got:      args[i],
				Expected: strings.Join(def.Values, ", "),
			}
		}
	}

	return nil
}

func matchesEnum(got string, values []string) bool {
	for _, v := range values {
		if strings.EqualFold(got, v) {
			return true
		}
	}
	return false
}

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError represents an argument validation error.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := e.Command + ": " + e.Message
	if e.Arg != "" {
		msg += " for argument '" + e.Arg + "'"
	}
	if e.Got != "" {
		msg += " (got: " + e.Got + ")"
	}
	if e.Expected != "" {
		msg += " - expected: " + e.Expected
	}
	return msg
}
