package messaging

import "strings"

// Render substitutes {key} tokens in template with values from vars.
// Tokens without a matching key stay verbatim and substituted values are not
// scanned again.
func Render(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}

		end := i + 1
		for end < len(template) && isTokenChar(template[end]) {
			end++
		}
		if end == i+1 || end >= len(template) || template[end] != '}' {
			b.WriteByte(c)
			i++
			continue
		}

		key := template[i+1 : end]
		if v, ok := vars[key]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(template[i : end+1])
		}
		i = end + 1
	}
	return b.String()
}

func isTokenChar(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
