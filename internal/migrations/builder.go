package migrations

import "strings"

// Command is one batch of SQL sent to the server as a unit.
type Command struct {
	SQL                 string
	SuppressTransaction bool
}

// CommandBuilder accumulates SQL text and cuts it into commands.
type CommandBuilder struct {
	current  strings.Builder
	commands []Command
}

// Append writes raw text to the current command.
func (b *CommandBuilder) Append(s string) *CommandBuilder {
	b.current.WriteString(s)
	return b
}

// AppendLine writes s followed by a line break.
func (b *CommandBuilder) AppendLine(s string) *CommandBuilder {
	b.current.WriteString(s)
	b.current.WriteByte('\n')
	return b
}

// EndCommand closes the current command. Nothing is recorded when no text was
// written since the previous EndCommand.
func (b *CommandBuilder) EndCommand(suppressTransaction bool) *CommandBuilder {
	if strings.TrimSpace(b.current.String()) == "" {
		b.current.Reset()
		return b
	}
	b.commands = append(b.commands, Command{
		SQL:                 b.current.String(),
		SuppressTransaction: suppressTransaction,
	})
	b.current.Reset()
	return b
}

// Commands returns the commands ended so far.
func (b *CommandBuilder) Commands() []Command {
	return b.commands
}
