package core

import (
	"strings"
)

func (m *CommandManager) helpText(args []string) string {
	if len(args) == 0 {
		lines := []string{"📚 *Commands* (use /help <cmd> for details):"}
		for _, name := range m.commandNames() {
			c, _ := m.lookup(name)
			if c != nil && c.Description != "" {
				lines = append(lines, "- /"+name+" — "+c.Description)
			} else {
				lines = append(lines, "- /"+name)
			}
		}
		return strings.Join(lines, "\n")
	}

	word := strings.ToLower(strings.TrimSpace(args[0]))
	c, ok := m.lookup(word)
	if !ok {
		return "command not found. try /help"
	}

	lines := []string{"📌 *" + c.Name + "*", c.Description}
	if c.Usage != "" {
		lines = append(lines, "Usage: `"+c.Usage+"`")
	}
	if len(c.Aliases) > 0 {
		lines = append(lines, "Aliases: /"+strings.Join(c.Aliases, ", /"))
	}
	out := make([]string, 0, len(lines))
	for _, s := range lines {
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return strings.Join(out, "\n")
}
