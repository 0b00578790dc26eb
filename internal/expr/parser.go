// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package expr

// Parser turns a token stream into a lambda syntax tree. The grammar, from
// loosest to tightest binding:
//
//	assignment   = conditional [ ("=" | "+=" | "-=" | "*=" | "/=" | "%=" | "&=" | "|=" | "^=") assignment ]
//	conditional  = coalesce [ "?" assignment ":" assignment ]
//	coalesce     = xor [ "??" coalesce ]
//	xor          = or { "^" or }
//	or           = and { "||" and }
//	and          = equality { "&&" equality }
//	equality     = relational { ("==" | "!=") relational }
//	relational   = additive { ("<" | "<=" | ">" | ">=") additive }
//	additive     = multiplicative { ("+" | "-") multiplicative }
//	multiplicative = unary { ("*" | "/" | "%") unary }
//	unary        = ("!" | "-" | "+") unary | "(" type ")" unary | postfix
//	postfix      = primary { "." name | "[" expr "]" | "?." name | "?[" expr "]" } [ "++" | "--" ]
//	primary      = literal | identifier | "(" expr ")"
type Parser struct {
	input  string
	tokens []Token
	pos    int
}

// NewParser returns a parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse tokenizes and parses the input into a lambda whose parameter count
// must equal paramCount.
func (p *Parser) Parse(input string, paramCount int) (*LambdaNode, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return p.ParseTokens(input, tokens, paramCount)
}

// ParseTokens parses a token stream produced by Tokenize from input.
func (p *Parser) ParseTokens(input string, tokens []Token, paramCount int) (*LambdaNode, error) {
	p.init(input, tokens)

	if p.peek().kind == tokEOF {
		return nil, p.errorf(KindParse, p.peek(), "empty expression")
	}
	lambda, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	if len(lambda.Params) != paramCount {
		return nil, errorAt(KindParse, p.input, lambda.pos, "",
			"parameter count mismatch: lambda has %d, signature has %d", len(lambda.Params), paramCount)
	}
	return lambda, nil
}

// init resets the state of the parser.
func (p *Parser) init(input string, tokens []Token) {
	p.input = input
	p.tokens = tokens
	p.pos = 0
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// skipOp jumps over the current token if it is the operator op.
func (p *Parser) skipOp(op string) bool {
	if p.peek().is(op) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(kind Kind, t Token, format string, args ...any) error {
	text := t.text
	if t.kind == tokEOF {
		text = ""
	}
	return errorAt(kind, p.input, t.pos, text, format, args...)
}

// unexpected reports the token t as out of place. Tokens that start a
// construct outside the supported grammar are reported as unsupported.
func (p *Parser) unexpected(t Token) error {
	switch {
	case t.kind == tokEOF:
		return p.errorf(KindParse, t, "unexpected end of expression")
	case t.kind == tokIdent && !t.escaped && reservedWords[t.text]:
		return p.errorf(KindUnsupported, t, "%q expressions are not supported", t.text)
	case t.is("{"):
		return p.errorf(KindUnsupported, t, "block bodies are not supported")
	case t.is("=>"):
		return p.errorf(KindUnsupported, t, "nested lambdas are not supported")
	case t.is("++") || t.is("--"):
		return p.errorf(KindUnsupported, t, "prefix %s is not supported", t.text)
	case t.is("~"), t.is("&"), t.is("|"), t.is("<<"), t.is(">>"), t.is("<<="), t.is(">>="),
		t.is("??="), t.is("->"), t.is("::"):
		return p.errorf(KindUnsupported, t, "operator %s is not supported", t.text)
	case t.is(";"):
		return p.errorf(KindUnsupported, t, "multiple statements are not supported")
	}
	return p.errorf(KindParse, t, "unexpected %s", t.kind)
}

// parseLambda parses "x => body", "(x, y) => body" or "() => body".
func (p *Parser) parseLambda() (*LambdaNode, error) {
	start := p.peek()
	var params []string
	switch {
	case start.kind == tokIdent:
		if err := p.checkParamName(start); err != nil {
			return nil, err
		}
		p.advance()
		params = []string{start.text}
	case start.is("("):
		p.advance()
		for i := 0; !p.skipOp(")"); i++ {
			if i > 0 && !p.skipOp(",") {
				return nil, p.errorf(KindParse, p.peek(), `expected "," or ")" in lambda parameter list`)
			}
			t := p.peek()
			if t.kind != tokIdent {
				return nil, p.errorf(KindParse, t, "expected lambda parameter name")
			}
			// Explicitly typed parameters, "(Student x) => ...".
			if p.peekAt(1).kind == tokIdent {
				return nil, p.errorf(KindUnsupported, t, "explicitly typed lambda parameters are not supported")
			}
			if err := p.checkParamName(t); err != nil {
				return nil, err
			}
			for _, name := range params {
				if name == t.text {
					return nil, p.errorf(KindParse, t, "duplicate lambda parameter %q", t.text)
				}
			}
			p.advance()
			params = append(params, t.text)
		}
	default:
		return nil, p.errorf(KindParse, start, `expected lambda parameter list before "=>"`)
	}

	if !p.skipOp("=>") {
		return nil, p.errorf(KindParse, p.peek(), `missing "=>" after lambda parameters`)
	}
	if p.peek().is("{") {
		return nil, p.unexpected(p.peek())
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.unexpected(t)
	}
	if params == nil {
		params = []string{}
	}
	return &LambdaNode{pos: start.pos, Params: params, Body: body}, nil
}

func (p *Parser) checkParamName(t Token) error {
	if !t.escaped && (reservedWords[t.text] || aliasTypes[t.text] != nil) {
		return p.errorf(KindParse, t, "keyword %q cannot be a parameter name", t.text)
	}
	return nil
}

// parseExpr parses a full expression.
func (p *Parser) parseExpr() (Node, error) {
	return p.parseAssignment()
}

var assignmentOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true,
}

// parseAssignment parses the right associative assignment operators.
func (p *Parser) parseAssignment() (Node, error) {
	target, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp && assignmentOps[t.text] {
		p.advance()
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &AssignmentNode{pos: t.pos, Op: t.text, Target: target, Value: value}, nil
	}
	return target, nil
}

// parseConditional parses the right associative "?:" operator.
func (p *Parser) parseConditional() (Node, error) {
	cond, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if !p.skipOp("?") {
		return cond, nil
	}
	whenTrue, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if !p.skipOp(":") {
		return nil, p.errorf(KindParse, p.peek(), `expected ":" in conditional expression`)
	}
	whenFalse, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ConditionalNode{pos: t.pos, Cond: cond, WhenTrue: whenTrue, WhenFalse: whenFalse}, nil
}

// parseCoalesce parses the right associative "??" operator.
func (p *Parser) parseCoalesce() (Node, error) {
	left, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if !p.skipOp("??") {
		return left, nil
	}
	right, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}
	return &CoalesceNode{pos: t.pos, Left: left, Right: right}, nil
}

// binaryLevels lists the left associative binary operators, loosest first.
var binaryLevels = [][]string{
	{"^"},
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

// parseBinary parses the left associative operators of binaryLevels[level]
// and tighter.
func (p *Parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.isOneOf(binaryLevels[level]) {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryNode{pos: t.pos, Op: t.text, Left: left, Right: right}
	}
}

func (t Token) isOneOf(ops []string) bool {
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

// parseUnary parses prefix operators and casts.
func (p *Parser) parseUnary() (Node, error) {
	t := p.peek()
	switch {
	case t.is("!"), t.is("-"), t.is("+"):
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNode{pos: t.pos, Op: t.text, Operand: operand}, nil
	case t.is("("):
		if typeName, n, ok, err := p.lookaheadCast(); err != nil {
			return nil, err
		} else if ok {
			p.pos += n
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &CastNode{pos: t.pos, TypeName: typeName, Operand: operand}, nil
		}
	}
	return p.parsePostfix()
}

// lookaheadCast decides whether the "(" under the cursor starts a cast. It
// returns the type name and the number of tokens it spans, without moving the
// parser.
func (p *Parser) lookaheadCast() (typeName string, n int, ok bool, err error) {
	name := p.peekAt(1)
	if name.kind != tokIdent {
		return "", 0, false, nil
	}
	_, keyword := aliasTypes[name.text]
	keyword = keyword && !name.escaped
	i := 2
	qualified := false
	for p.peekAt(i).is(".") && p.peekAt(i+1).kind == tokIdent {
		qualified = true
		i += 2
	}
	generic := false
	if p.peekAt(i).is("<") && !keyword {
		// Only a closing ">)" sequence makes this a generic type.
		for j := i + 1; p.peekAt(j).kind != tokEOF; j++ {
			if p.peekAt(j).is(">") && p.peekAt(j+1).is(")") {
				generic = true
				i = j + 1
				break
			}
			if p.peekAt(j).is("(") || p.peekAt(j).is(")") {
				break
			}
		}
	}
	nullable := false
	if p.peekAt(i).is("?") && p.peekAt(i+1).is(")") {
		nullable = true
		i++
	}
	if !p.peekAt(i).is(")") {
		return "", 0, false, nil
	}
	follow := p.peekAt(i + 1)
	startsOperand := follow.kind == tokIdent || follow.kind == tokLiteral || follow.is("(") || follow.is("!")
	if !keyword {
		// "(x) - 1" is a subtraction, only a keyword cast may be followed by a
		// sign.
		if !startsOperand {
			return "", 0, false, nil
		}
	} else if !startsOperand && !follow.is("-") && !follow.is("+") {
		return "", 0, false, p.errorf(KindParse, follow, "expected expression after cast to %q", name.text)
	}
	if generic || qualified {
		return "", 0, false, p.errorf(KindUnsupported, name, "cast to generic or qualified type is not supported")
	}
	typeName = name.text
	if nullable {
		typeName += "?"
	}
	return typeName, i + 1, true, nil
}

// parsePostfix parses a primary expression followed by a chain of member and
// index accesses and an optional ++ or --.
func (p *Parser) parsePostfix() (Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.is("."), t.is("?."):
			p.advance()
			name := p.peek()
			if name.kind != tokIdent {
				return nil, p.errorf(KindParse, name, "expected member name after %q", t.text)
			}
			p.advance()
			if t.is(".") {
				expr = &MemberAccessNode{pos: name.pos, Target: expr, Name: name.text}
			} else {
				expr = &NullConditionalMemberNode{pos: name.pos, Target: expr, Name: name.text}
			}
		case t.is("["), t.is("?["):
			p.advance()
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.peek().is(",") {
				return nil, p.errorf(KindUnsupported, p.peek(), "multi-dimensional indexing is not supported")
			}
			if !p.skipOp("]") {
				return nil, p.errorf(KindParse, p.peek(), `expected "]"`)
			}
			if t.is("[") {
				expr = &IndexNode{pos: t.pos, Target: expr, Index: index}
			} else {
				expr = &NullConditionalIndexNode{pos: t.pos, Target: expr, Index: index}
			}
		case t.is("("):
			return nil, p.errorf(KindUnsupported, t, "method invocation is not supported")
		case t.is("<") && p.looksLikeGenericInvocation():
			return nil, p.errorf(KindUnsupported, t, "generic method invocation is not supported")
		case t.is("++"), t.is("--"):
			p.advance()
			return &PostfixIncDecNode{pos: t.pos, Op: t.text, Operand: expr}, nil
		case t.is("!") && p.peekAt(1).is("."):
			return nil, p.errorf(KindUnsupported, t, "null-forgiving operator is not supported")
		case t.isKeyword("as"), t.isKeyword("is"), t.isKeyword("switch"), t.isKeyword("with"):
			return nil, p.unexpected(t)
		default:
			return expr, nil
		}
	}
}

// looksLikeGenericInvocation reports whether the "<" under the cursor opens a
// type argument list followed by an invocation, as in "x.Get<int>()".
func (p *Parser) looksLikeGenericInvocation() bool {
	for j := 1; p.peekAt(j).kind != tokEOF; j++ {
		t := p.peekAt(j)
		if t.is(">") {
			return p.peekAt(j + 1).is("(")
		}
		if t.kind != tokIdent && !t.is(",") && !t.is(".") && !t.is("?") {
			return false
		}
	}
	return false
}

// parsePrimary parses literals, identifiers and parenthesized expressions.
func (p *Parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch {
	case t.kind == tokLiteral:
		p.advance()
		return &LiteralNode{pos: t.pos, Raw: t.text, Value: t.value}, nil
	case t.kind == tokIdent:
		if !t.escaped && aliasTypes[t.text] != nil {
			return nil, p.errorf(KindUnsupported, t, "type %q cannot be used as a value", t.text)
		}
		if !t.escaped && reservedWords[t.text] {
			return nil, p.unexpected(t)
		}
		if p.peekAt(1).is("=>") {
			return nil, p.errorf(KindUnsupported, t, "nested lambdas are not supported")
		}
		p.advance()
		return &IdentifierNode{pos: t.pos, Name: t.text}, nil
	case t.is("("):
		if p.isNestedLambda() {
			return nil, p.errorf(KindUnsupported, t, "nested lambdas are not supported")
		}
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.skipOp(")") {
			if p.peek().is(",") {
				return nil, p.errorf(KindUnsupported, p.peek(), "tuples are not supported")
			}
			return nil, p.errorf(KindParse, p.peek(), `missing closing parenthesis`)
		}
		return &ParenthesizedNode{pos: t.pos, Inner: inner}, nil
	}
	return nil, p.unexpected(t)
}

// isNestedLambda reports whether the "(" under the cursor opens a lambda
// parameter list, as in "(a, b) => a".
func (p *Parser) isNestedLambda() bool {
	for j := 1; ; j++ {
		t := p.peekAt(j)
		switch {
		case t.is(")"):
			return p.peekAt(j + 1).is("=>")
		case t.kind == tokIdent || t.is(","):
			continue
		}
		return false
	}
}
