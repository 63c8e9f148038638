// Copyright 2026 The mdxair Authors
// Licensed under Apache 2.0, see LICENCE file for details.

package compile

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mdxair/mdxair/olap"
)

// The parser walks the statement text once and produces a raw query: axis
// sets, the cube name, the slicer tuple and the parameter declarations,
// all still by name. Name resolution against the catalog happens in the
// resolve stage (compile.go).

type parser struct {
	input string
	pos   int
	// nextPos is the start of the next char.
	nextPos int
	// char is the rune starting at pos. char is set to 0 when pos reaches
	// the end of the input.
	char rune
	// lineNum is the number of the current line of the input.
	lineNum int
	// lineStart is the position of the first char of the current line.
	lineStart int
	// params collects parameter declarations in textual order. The next
	// parameter gets index len(params)+1.
	params []rawParam
}

// rawQuery is the parse stage output.
type rawQuery struct {
	axes   []rawAxis
	cube   string
	slicer []rawTerm
	params []rawParam
}

type rawAxis struct {
	name string
	set  rawSet
}

type rawSet interface {
	rawSet()
}

// rawEnum is an explicit term set: {a, b, c}.
type rawEnum struct {
	terms []rawTerm
}

// rawAll is a full hierarchy set: [Hier].Members.
type rawAll struct {
	hierarchy string
}

// rawHead is Head(set, count).
type rawHead struct {
	set   rawSet
	count rawNum
}

func (rawEnum) rawSet() {}
func (rawAll) rawSet()  {}
func (rawHead) rawSet() {}

// rawTerm is a member path or a parameter reference.
type rawTerm struct {
	path  []string
	param int
}

// rawNum is a numeric literal or a parameter reference.
type rawNum struct {
	literal float64
	param   int
}

// rawParam is one Param(...) occurrence.
type rawParam struct {
	index     int
	name      string
	typeName  string
	hierarchy string
	def       string
}

func newParser() *parser {
	return &parser{}
}

// init resets the state of the parser and sets the input string.
func (p *parser) init(input string) {
	p.input = input
	p.pos = 0
	p.nextPos = 0
	p.char = 0
	p.lineNum = 1
	p.lineStart = 0
	p.params = nil
	p.advanceChar()
}

// colNum calculates the current column number taking into account line
// breaks.
func (p *parser) colNum() int {
	return p.pos - p.lineStart + 1
}

// advanceChar moves the parser to the next character in the input. It also
// takes care of updating the line and column numbers if it encounters line
// breaks.
func (p *parser) advanceChar() bool {
	if p.nextPos >= len(p.input) {
		p.char = 0
		p.pos = p.nextPos
		return false
	}
	if p.char == '\n' {
		p.lineStart = p.nextPos
		p.lineNum++
	}
	var size int
	p.char, size = utf8.DecodeRuneInString(p.input[p.nextPos:])
	p.pos = p.nextPos
	p.nextPos += size
	return true
}

// checkpoint saves parser state so an attempted parse of an alternative
// can be rolled back.
type checkpoint struct {
	parser    *parser
	pos       int
	nextPos   int
	char      rune
	lineNum   int
	lineStart int
	numParams int
}

func (p *parser) save() *checkpoint {
	return &checkpoint{
		parser:    p,
		pos:       p.pos,
		nextPos:   p.nextPos,
		char:      p.char,
		lineNum:   p.lineNum,
		lineStart: p.lineStart,
		numParams: len(p.params),
	}
}

func (cp *checkpoint) restore() {
	cp.parser.pos = cp.pos
	cp.parser.nextPos = cp.nextPos
	cp.parser.char = cp.char
	cp.parser.lineNum = cp.lineNum
	cp.parser.lineStart = cp.lineStart
	cp.parser.params = cp.parser.params[:cp.numParams]
}

// errorf builds a CompileError at the current parser position.
func (p *parser) errorf(format string, args ...any) error {
	return &olap.CompileError{
		Message: fmt.Sprintf(format, args...),
		Line:    p.lineNum,
		Column:  p.colNum(),
	}
}

func (p *parser) skipBlanks() {
	for p.pos < len(p.input) {
		if !unicode.IsSpace(p.char) {
			return
		}
		p.advanceChar()
	}
}

// skipChar jumps over c if it is the current character.
func (p *parser) skipChar(c rune) bool {
	if p.pos < len(p.input) && p.char == c {
		p.advanceChar()
		return true
	}
	return false
}

func isNameChar(c rune) bool {
	return isInitialNameChar(c) || ('0' <= c && c <= '9')
}

func isInitialNameChar(c rune) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || c == '_'
}

// parseWord reads an unbracketed identifier or keyword.
func (p *parser) parseWord() (string, bool) {
	if p.pos >= len(p.input) || !isInitialNameChar(p.char) {
		return "", false
	}
	start := p.pos
	for p.pos < len(p.input) && isNameChar(p.char) {
		p.advanceChar()
	}
	return p.input[start:p.pos], true
}

// skipKeyword jumps over the given keyword, matched case insensitively as
// a whole word. The parser state is left unchanged if the keyword is not
// found.
func (p *parser) skipKeyword(keyword string) bool {
	cp := p.save()
	word, ok := p.parseWord()
	if ok && strings.EqualFold(word, keyword) {
		return true
	}
	cp.restore()
	return false
}

// parseBracketedName reads a [bracketed] name.
func (p *parser) parseBracketedName() (string, error) {
	if !p.skipChar('[') {
		return "", p.errorf("expected bracketed name")
	}
	start := p.pos
	for p.pos < len(p.input) && p.char != ']' {
		if p.char == '\n' {
			return "", p.errorf("missing closing bracket")
		}
		p.advanceChar()
	}
	if p.pos >= len(p.input) {
		return "", p.errorf("missing closing bracket")
	}
	name := p.input[start:p.pos]
	p.advanceChar()
	if name == "" {
		return "", p.errorf("empty bracketed name")
	}
	return name, nil
}

// parseQuotedString reads a "double quoted" string literal.
func (p *parser) parseQuotedString() (string, error) {
	if !p.skipChar('"') {
		return "", p.errorf("expected string literal")
	}
	start := p.pos
	for p.pos < len(p.input) && p.char != '"' {
		p.advanceChar()
	}
	if p.pos >= len(p.input) {
		return "", p.errorf("missing closing quote in string literal")
	}
	s := p.input[start:p.pos]
	p.advanceChar()
	return s, nil
}

func (p *parser) parseNumberLiteral() (float64, bool) {
	cp := p.save()
	start := p.pos
	for p.pos < len(p.input) && (p.char == '.' || p.char == '-' || ('0' <= p.char && p.char <= '9')) {
		p.advanceChar()
	}
	if start == p.pos {
		return 0, false
	}
	n, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		cp.restore()
		return 0, false
	}
	return n, true
}

// parse walks a full statement:
//
//	SELECT <set> ON COLUMNS [, <set> ON ROWS] FROM [Cube] [WHERE <tuple>]
func (p *parser) parse(input string) (*rawQuery, error) {
	p.init(input)
	q := &rawQuery{}

	p.skipBlanks()
	if !p.skipKeyword("SELECT") {
		return nil, p.errorf("statement must start with SELECT")
	}

	for {
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		p.skipBlanks()
		if !p.skipKeyword("ON") {
			return nil, p.errorf("expected ON after axis set")
		}
		p.skipBlanks()
		name, ok := p.parseWord()
		if !ok {
			return nil, p.errorf("expected axis name after ON")
		}
		q.axes = append(q.axes, rawAxis{name: strings.ToUpper(name), set: set})
		p.skipBlanks()
		if !p.skipChar(',') {
			break
		}
	}

	p.skipBlanks()
	if !p.skipKeyword("FROM") {
		return nil, p.errorf("expected FROM after axis list")
	}
	p.skipBlanks()
	cube, err := p.parseBracketedName()
	if err != nil {
		return nil, err
	}
	q.cube = cube

	p.skipBlanks()
	if p.skipKeyword("WHERE") {
		slicer, err := p.parseSlicer()
		if err != nil {
			return nil, err
		}
		q.slicer = slicer
	}

	p.skipBlanks()
	if p.pos < len(p.input) {
		return nil, p.errorf("unexpected input after statement")
	}
	q.params = p.params
	return q, nil
}

// parseSet reads a set expression: an explicit {a, b} set, Head(set, n),
// or [Hier].Members. A lone term is accepted as a one element set.
func (p *parser) parseSet() (rawSet, error) {
	p.skipBlanks()

	if p.skipChar('{') {
		var terms []rawTerm
		for {
			term, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
			p.skipBlanks()
			if p.skipChar(',') {
				continue
			}
			if p.skipChar('}') {
				return rawEnum{terms: terms}, nil
			}
			return nil, p.errorf("expected , or } in set")
		}
	}

	if p.skipKeyword("Head") {
		p.skipBlanks()
		if !p.skipChar('(') {
			return nil, p.errorf("expected ( after Head")
		}
		set, err := p.parseSet()
		if err != nil {
			return nil, err
		}
		p.skipBlanks()
		if !p.skipChar(',') {
			return nil, p.errorf("expected , after Head set argument")
		}
		count, err := p.parseNumArg()
		if err != nil {
			return nil, err
		}
		p.skipBlanks()
		if !p.skipChar(')') {
			return nil, p.errorf("expected ) to close Head")
		}
		return rawHead{set: set, count: count}, nil
	}

	// [Hier].Members, or a lone term.
	if p.char == '[' {
		cp := p.save()
		name, err := p.parseBracketedName()
		if err != nil {
			return nil, err
		}
		if p.skipChar('.') && p.skipKeyword("Members") {
			return rawAll{hierarchy: name}, nil
		}
		cp.restore()
	}

	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return rawEnum{terms: []rawTerm{term}}, nil
}

// parseTerm reads a member path or a Param reference.
func (p *parser) parseTerm() (rawTerm, error) {
	p.skipBlanks()
	if p.char == '[' {
		path, err := p.parseMemberPath()
		if err != nil {
			return rawTerm{}, err
		}
		return rawTerm{path: path}, nil
	}
	if param, ok, err := p.parseParam(); err != nil {
		return rawTerm{}, err
	} else if ok {
		return rawTerm{param: param.index}, nil
	}
	return rawTerm{}, p.errorf("expected member or Param reference")
}

// parseMemberPath reads a dotted path of bracketed names.
func (p *parser) parseMemberPath() ([]string, error) {
	var path []string
	for {
		name, err := p.parseBracketedName()
		if err != nil {
			return nil, err
		}
		path = append(path, name)
		cp := p.save()
		if p.skipChar('.') && p.char == '[' {
			continue
		}
		cp.restore()
		return path, nil
	}
}

// parseNumArg reads a numeric literal or a Param reference.
func (p *parser) parseNumArg() (rawNum, error) {
	p.skipBlanks()
	if n, ok := p.parseNumberLiteral(); ok {
		return rawNum{literal: n}, nil
	}
	if param, ok, err := p.parseParam(); err != nil {
		return rawNum{}, err
	} else if ok {
		return rawNum{param: param.index}, nil
	}
	return rawNum{}, p.errorf("expected number or Param reference")
}

// parseSlicer reads the WHERE tuple: a parenthesised term list or a single
// term.
func (p *parser) parseSlicer() ([]rawTerm, error) {
	p.skipBlanks()
	if p.skipChar('(') {
		var terms []rawTerm
		for {
			term, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, term)
			p.skipBlanks()
			if p.skipChar(',') {
				continue
			}
			if p.skipChar(')') {
				return terms, nil
			}
			return nil, p.errorf("expected , or ) in slicer tuple")
		}
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return []rawTerm{term}, nil
}

// parseParam reads a parameter declaration:
//
//	Param("name", NUMERIC|STRING|BOOLEAN|[Hierarchy], <default>)
//
// Each occurrence declares a new parameter; indices are assigned in
// textual order. The default expression is captured verbatim and only
// evaluated when an execution snapshots the parameter unset.
func (p *parser) parseParam() (rawParam, bool, error) {
	cp := p.save()
	p.skipBlanks()
	if !p.skipKeyword("Param") {
		return rawParam{}, false, nil
	}
	p.skipBlanks()
	if !p.skipChar('(') {
		cp.restore()
		return rawParam{}, false, nil
	}
	p.skipBlanks()
	name, err := p.parseQuotedString()
	if err != nil {
		return rawParam{}, false, err
	}
	p.skipBlanks()
	if !p.skipChar(',') {
		return rawParam{}, false, p.errorf("expected , after parameter name")
	}
	p.skipBlanks()

	param := rawParam{name: name}
	if p.char == '[' {
		hierarchy, err := p.parseBracketedName()
		if err != nil {
			return rawParam{}, false, err
		}
		param.hierarchy = hierarchy
	} else {
		typeName, ok := p.parseWord()
		if !ok {
			return rawParam{}, false, p.errorf("expected parameter type")
		}
		param.typeName = strings.ToUpper(typeName)
	}

	p.skipBlanks()
	if !p.skipChar(',') {
		return rawParam{}, false, p.errorf("expected , after parameter type")
	}
	def, err := p.parseDefaultExpr()
	if err != nil {
		return rawParam{}, false, err
	}
	param.def = def

	param.index = len(p.params) + 1
	p.params = append(p.params, param)
	return param, true, nil
}

// parseDefaultExpr captures the raw default expression text up to the
// closing parenthesis of the Param call, tracking nested parentheses,
// brackets and string literals.
func (p *parser) parseDefaultExpr() (string, error) {
	p.skipBlanks()
	start := p.pos
	depth := 0
	for p.pos < len(p.input) {
		switch p.char {
		case '"':
			if _, err := p.parseQuotedString(); err != nil {
				return "", err
			}
			continue
		case '[':
			if _, err := p.parseBracketedName(); err != nil {
				return "", err
			}
			continue
		case '(':
			depth++
		case ')':
			if depth == 0 {
				def := strings.TrimSpace(p.input[start:p.pos])
				if def == "" {
					return "", p.errorf("empty parameter default expression")
				}
				p.advanceChar()
				return def, nil
			}
			depth--
		}
		p.advanceChar()
	}
	return "", p.errorf("missing ) to close Param")
}
