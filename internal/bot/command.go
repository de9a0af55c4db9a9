package bot

import "strings"

// Command is one parsed slash command from a chat message.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits a message into the command name and its arguments.
// The "@botname" suffix Telegram appends in group chats is stripped. Returns
// false for messages that are not commands.
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{}, false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	name = strings.ToLower(name)
	if name == "" {
		return Command{}, false
	}

	return Command{Name: name, Args: fields[1:]}, true
}
