package agent

import (
	"regexp"
	"strings"
)

var actionPattern = regexp.MustCompile(`^Action: (\w+): (.*)$`)

// Directive is a tool invocation requested by the model.
type Directive struct {
	Name     string
	Argument string
}

// ParseDirective returns the first line of text that requests an action.
// Later directives in the same completion are ignored.
func ParseDirective(text string) (Directive, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		m := actionPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return Directive{Name: m[1], Argument: m[2]}, true
	}
	return Directive{}, false
}
