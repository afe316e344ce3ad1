// Package transform parses pipeline specification strings into transform
// chains and applies them to records.
//
// The minilanguage is a sequence of segments separated by "|", where each
// segment is a bare transform name or a call with literal-only arguments:
//
//	decode|resize(128)|onehot(25, on=1, off=-1)
//
// Arguments are restricted to a whitelisted literal grammar (numbers,
// strings, booleans, null, lists, tuples, dicts). Nothing is ever
// evaluated as code.
package transform

import (
	"fmt"
	"strconv"
	"strings"

	sferrors "github.com/shardfeed/shardfeed/pkg/common/errors"
)

var (
	// ErrEmptyPipeline is returned for a pipeline string with no segments.
	ErrEmptyPipeline = fmt.Errorf("%w: empty pipeline specification", sferrors.ErrConfiguration)

	// ErrSyntax is returned when a segment is not a bare identifier or a
	// call expression.
	ErrSyntax = fmt.Errorf("%w: pipeline syntax error", sferrors.ErrConfiguration)

	// ErrUnsupportedExpression is returned when a callee is not a simple
	// identifier or an argument is not a literal.
	ErrUnsupportedExpression = fmt.Errorf("%w: unsupported pipeline expression", sferrors.ErrConfiguration)
)

// Spec describes one parsed pipeline segment: the transform name plus its
// positional and keyword literal arguments. Specs are immutable and are
// consumed immediately to instantiate transforms via a Registry.
type Spec struct {
	Name   string
	Args   []interface{}
	Kwargs map[string]interface{}
}

// ParsePipeline splits a pipeline specification on "|" and parses each
// segment in order.
func ParsePipeline(spec string) ([]Spec, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, ErrEmptyPipeline
	}
	segments := strings.Split(spec, "|")
	specs := make([]Spec, 0, len(segments))
	for _, segment := range segments {
		s, err := Parse(segment)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}

// Parse parses a single pipeline segment.
//
//	"flip_lr"                  -> Spec{Name: "flip_lr"}
//	"onehot(25, on=1, off=-1)" -> Spec{Name: "onehot", Args: [25], Kwargs: {on: 1, off: -1}}
func Parse(segment string) (Spec, error) {
	p := &parser{input: segment}
	return p.parseSegment()
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseSegment() (Spec, error) {
	p.skipSpace()
	name, ok := p.ident()
	if !ok {
		return Spec{}, p.errSyntax("expected transform name")
	}
	spec := Spec{Name: name, Kwargs: map[string]interface{}{}}

	p.skipSpace()
	if p.eof() {
		return spec, nil
	}
	switch p.peek() {
	case '.':
		return Spec{}, p.errUnsupported("attribute-qualified name %q", name)
	case '(':
		p.pos++
		if err := p.parseArgs(&spec); err != nil {
			return Spec{}, err
		}
		p.skipSpace()
		if !p.eof() {
			return Spec{}, p.errSyntax("trailing characters after call")
		}
		return spec, nil
	default:
		return Spec{}, p.errSyntax("unexpected character %q", p.peek())
	}
}

func (p *parser) parseArgs(spec *Spec) error {
	p.skipSpace()
	if !p.eof() && p.peek() == ')' {
		p.pos++
		return nil
	}

	seenKwarg := false
	for {
		p.skipSpace()
		if name, ok := p.tryKwargName(); ok {
			value, err := p.parseLiteral()
			if err != nil {
				return err
			}
			spec.Kwargs[name] = value
			seenKwarg = true
		} else {
			if seenKwarg {
				return p.errSyntax("positional argument after keyword argument")
			}
			value, err := p.parseLiteral()
			if err != nil {
				return err
			}
			spec.Args = append(spec.Args, value)
		}

		p.skipSpace()
		if p.eof() {
			return p.errSyntax("unterminated call")
		}
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			// Trailing comma before the closing parenthesis.
			if !p.eof() && p.peek() == ')' {
				p.pos++
				return nil
			}
		case ')':
			p.pos++
			return nil
		default:
			return p.errSyntax("expected ',' or ')', got %q", p.peek())
		}
	}
}

// tryKwargName consumes "name=" and returns the name, or rewinds and
// reports false when the upcoming tokens are not a keyword argument.
func (p *parser) tryKwargName() (string, bool) {
	saved := p.pos
	name, ok := p.ident()
	if !ok {
		p.pos = saved
		return "", false
	}
	p.skipSpace()
	if p.eof() || p.peek() != '=' {
		p.pos = saved
		return "", false
	}
	p.pos++
	return name, true
}

func (p *parser) parseLiteral() (interface{}, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errSyntax("expected a value")
	}
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '[':
		return p.parseSequence('[', ']')
	case c == '(':
		return p.parseSequence('(', ')')
	case c == '{':
		return p.parseDict()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return p.parseNumber()
	default:
		name, ok := p.ident()
		if !ok {
			return nil, p.errSyntax("unexpected character %q", c)
		}
		switch name {
		case "true", "True":
			return true, nil
		case "false", "False":
			return false, nil
		case "null", "None":
			return nil, nil
		}
		return nil, p.errUnsupported("non-literal argument %q", name)
	}
}

func (p *parser) parseString() (string, error) {
	quote := p.peek()
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		p.pos++
		switch c {
		case quote:
			return sb.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errSyntax("unterminated escape sequence")
			}
			esc := p.input[p.pos]
			p.pos++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(esc)
			default:
				return "", p.errSyntax("unknown escape sequence %q", esc)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", p.errSyntax("unterminated string")
}

func (p *parser) parseNumber() (interface{}, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for !p.eof() {
		c := p.peek()
		switch {
		case isDigit(c):
			p.pos++
		case c == '.':
			isFloat = true
			p.pos++
		case c == 'e' || c == 'E':
			isFloat = true
			p.pos++
			if !p.eof() && (p.peek() == '-' || p.peek() == '+') {
				p.pos++
			}
		default:
			goto done
		}
	}
done:
	text := p.input[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errSyntax("bad number %q", text)
		}
		return f, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, p.errSyntax("bad number %q", text)
	}
	return n, nil
}

// parseSequence parses a list or tuple literal into a []interface{}.
func (p *parser) parseSequence(opener, closer byte) ([]interface{}, error) {
	p.pos++ // consume opener
	items := []interface{}{}
	p.skipSpace()
	if !p.eof() && p.peek() == closer {
		p.pos++
		return items, nil
	}
	for {
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		items = append(items, value)

		p.skipSpace()
		if p.eof() {
			return nil, p.errSyntax("unterminated %q literal", opener)
		}
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if !p.eof() && p.peek() == closer {
				p.pos++
				return items, nil
			}
		case closer:
			p.pos++
			return items, nil
		default:
			return nil, p.errSyntax("expected ',' or %q, got %q", closer, p.peek())
		}
	}
}

func (p *parser) parseDict() (map[string]interface{}, error) {
	p.pos++ // consume '{'
	out := map[string]interface{}{}
	p.skipSpace()
	if !p.eof() && p.peek() == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		if p.eof() {
			return nil, p.errSyntax("unterminated dict literal")
		}
		if c := p.peek(); c != '\'' && c != '"' {
			return nil, p.errUnsupported("dict keys must be string literals")
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eof() || p.peek() != ':' {
			return nil, p.errSyntax("expected ':' after dict key %q", key)
		}
		p.pos++
		value, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		out[key] = value

		p.skipSpace()
		if p.eof() {
			return nil, p.errSyntax("unterminated dict literal")
		}
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if !p.eof() && p.peek() == '}' {
				p.pos++
				return out, nil
			}
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errSyntax("expected ',' or '}', got %q", p.peek())
		}
	}
}

// ident consumes an identifier ([A-Za-z_][A-Za-z0-9_]*).
func (p *parser) ident() (string, bool) {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		if isLetter(c) || c == '_' || (p.pos > start && isDigit(c)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", false
	}
	return p.input[start:p.pos], true
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	return p.input[p.pos]
}

func (p *parser) errSyntax(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s in %q at offset %d",
		ErrSyntax, fmt.Sprintf(format, args...), p.input, p.pos)
}

func (p *parser) errUnsupported(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s in %q",
		ErrUnsupportedExpression, fmt.Sprintf(format, args...), p.input)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
