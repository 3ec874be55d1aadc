package directive

import (
	"fmt"
	"strings"
	"unicode"
)

// SyntaxError points at the offending byte of a directive script.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("directive script: %s at offset %d", e.Msg, e.Pos)
}

var arity = map[string]int{
	"ADD":    1,
	"ADDIF":  1,
	"ATTR":   2,
	"SET":    1,
	"UP":     0,
	"REMOVE": 0,
	"XPATH":  1,
}

// Parse reads a directive script, e.g.
//
//	XPATH '/talk'; ADD 'request'; ATTR 'id', '7'; ADD 'type'; SET 'deploy'; UP; UP;
//
// Verbs are case-insensitive. Arguments are single- or double-quoted
// strings where a backslash escapes the next character.
func Parse(script string) (Directives, error) {
	p := &parser{src: script}
	var out []Directive
	for {
		p.skipSpace()
		if p.eof() {
			return Directives{list: out}, nil
		}
		dir, err := p.directive()
		if err != nil {
			return Directives{}, err
		}
		out = append(out, dir)
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *parser) fail(format string, args ...any) error {
	return &SyntaxError{Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) directive() (Directive, error) {
	start := p.pos
	for !p.eof() && unicode.IsLetter(rune(p.src[p.pos])) {
		p.pos++
	}
	verb := strings.ToUpper(p.src[start:p.pos])
	n, ok := arity[verb]
	if !ok {
		p.pos = start
		return nil, p.fail("unknown verb %q", verb)
	}

	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		p.skipSpace()
		if i > 0 {
			if p.eof() || p.src[p.pos] != ',' {
				return nil, p.fail("%s expects %d arguments", verb, n)
			}
			p.pos++
			p.skipSpace()
		}
		arg, err := p.quoted()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	p.skipSpace()
	if p.eof() || p.src[p.pos] != ';' {
		return nil, p.fail("expected ';' after %s", verb)
	}
	p.pos++

	switch verb {
	case "ADD":
		return add{tag: args[0]}, nil
	case "ADDIF":
		return addIf{tag: args[0]}, nil
	case "ATTR":
		return attr{name: args[0], value: args[1]}, nil
	case "SET":
		return set{text: args[0]}, nil
	case "UP":
		return up{}, nil
	case "REMOVE":
		return remove{}, nil
	default:
		return xpath{path: args[0]}, nil
	}
}

func (p *parser) quoted() (string, error) {
	if p.eof() || (p.src[p.pos] != '\'' && p.src[p.pos] != '"') {
		return "", p.fail("expected quoted argument")
	}
	q := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		switch {
		case c == '\\':
			p.pos++
			if p.eof() {
				return "", p.fail("dangling escape")
			}
			b.WriteByte(p.src[p.pos])
		case c == q:
			p.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
		}
		p.pos++
	}
	return "", p.fail("unterminated string")
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
