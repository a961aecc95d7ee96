package clients

import "fmt"

// splitCommand splits a command string into an argv slice, honoring single
// and double quotes and backslash escapes. Definitions may embed fixed
// arguments in the command itself, e.g. `nu -c "my-agent --json"`.
func splitCommand(s string) ([]string, error) {
	var (
		args    []string
		current []rune
		inWord  bool
		quote   rune
	)

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				current = append(current, r)
			}

		case quote == '"':
			switch r {
			case '"':
				quote = 0
			case '\\':
				if i+1 < len(runes) {
					i++
					current = append(current, runes[i])
				} else {
					current = append(current, r)
				}
			default:
				current = append(current, r)
			}

		case r == '\'' || r == '"':
			quote = r
			inWord = true

		case r == '\\':
			if i+1 < len(runes) {
				i++
				current = append(current, runes[i])
				inWord = true
			}

		case r == ' ' || r == '\t' || r == '\n':
			if inWord {
				args = append(args, string(current))
				current = current[:0]
				inWord = false
			}

		default:
			current = append(current, r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in command %q", quote, s)
	}
	if inWord {
		args = append(args, string(current))
	}
	return args, nil
}
