package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"vira/jira"
)

// selectProject resolves the session's project: validate an explicit -project
// flag against the tracker's list, or run an interactive picker. The chosen
// key is read-only for the rest of the session.
func selectProject(gateway *jira.Client, flagKey string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	projects, err := gateway.Projects(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching projects: %w", err)
	}
	if len(projects) == 0 {
		return "", fmt.Errorf("tracker returned no projects")
	}

	if flagKey != "" {
		for _, p := range projects {
			if p.Key == flagKey {
				return p.Key, nil
			}
		}
		return "", fmt.Errorf("project %q not found on tracker", flagKey)
	}

	if len(projects) == 1 {
		fmt.Printf("Using project: %s (%s)\n", projects[0].Key, projects[0].Name)
		return projects[0].Key, nil
	}

	return pickProject(projects)
}

func pickProject(projects []jira.Project) (string, error) {
	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	renderList := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select project (↑/↓, Enter to confirm):\r\n\r\n")
		for i, p := range projects {
			line := fmt.Sprintf("%-10s %s", p.Key, p.Name)
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", line)
			} else {
				fmt.Printf("    %s\r\n", line)
			}
		}
	}

	renderList()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				return projects[cursor].Key, nil
			case 3: // Ctrl+C
				fmt.Print("\r\n")
				term.Restore(fd, oldState)
				os.Exit(130)
			case 'j':
				if cursor < len(projects)-1 {
					cursor++
				}
			case 'k':
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // up
				if cursor > 0 {
					cursor--
				}
			case 'B': // down
				if cursor < len(projects)-1 {
					cursor++
				}
			}
		}

		lines := len(projects) + 2
		fmt.Printf("\x1b[%dA", lines)
		renderList()
	}
}
