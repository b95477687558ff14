package expressions

// Parse compiles an expression into an immutable AST.
//
// Grammar, lowest precedence first:
//
//	conditional := or { "if" or "else" conditional }
//	or          := and { "or" and }
//	and         := not { "and" not }
//	not         := "not" not | comparison
//	comparison  := additive { cmpOp additive | ["not"] "in" additive | "is" ["not"] "defined" }
//	additive    := multiplicative { ("+"|"-") multiplicative }
//	multiplicative := unary { ("*"|"/") unary }
//	unary       := "-" unary | pipeline
//	pipeline    := primary { "|" IDENT ["(" args ")"] }
//	primary     := literal | list | path | "(" conditional ")"
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	node, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, syntaxError(src, p.peek().pos, "unexpected %q", p.peek().text)
	}
	return node, nil
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }
func (p *parser) next() token { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) atEOF() bool { return p.peek().kind == tokEOF }

// acceptOp consumes the token if it is the given operator.
func (p *parser) acceptOp(op string) bool {
	if t := p.peek(); t.kind == tokOp && t.text == op {
		p.pos++
		return true
	}
	return false
}

// acceptWord consumes the token if it is the given keyword/identifier.
func (p *parser) acceptWord(word string) bool {
	if t := p.peek(); t.kind == tokIdent && t.text == word {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectOp(op string) error {
	if !p.acceptOp(op) {
		return syntaxError(p.src, p.peek().pos, "expected %q", op)
	}
	return nil
}

func (p *parser) parseConditional() (Node, error) {
	value, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.acceptWord("if") {
		return value, nil
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.acceptWord("else") {
		return nil, syntaxError(p.src, p.peek().pos, `conditional expression requires "else"`)
	}
	alt, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &condNode{value: value, cond: cond, alt: alt}, nil
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptWord("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptWord("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	// "not in" is handled in parseComparison; only treat "not" as a prefix
	// when it does not immediately precede "in".
	if t := p.peek(); t.kind == tokIdent && t.text == "not" {
		if nt := p.toks[p.pos+1]; !(nt.kind == tokIdent && nt.text == "in") {
			p.pos++
			operand, err := p.parseNot()
			if err != nil {
				return nil, err
			}
			return &notNode{operand: operand}, nil
		}
	}
	return p.parseComparison()
}

var comparisonOps = []string{"==", "!=", "<=", ">=", "<", ">"}

func (p *parser) parseComparison() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	for {
		matched := false
		for _, op := range comparisonOps {
			if p.acceptOp(op) {
				right, err := p.parseAdditive()
				if err != nil {
					return nil, err
				}
				left = &binaryNode{op: op, left: left, right: right}
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if p.acceptWord("in") {
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &binaryNode{op: "in", left: left, right: right}
			continue
		}

		if t := p.peek(); t.kind == tokIdent && t.text == "not" {
			if nt := p.toks[p.pos+1]; nt.kind == tokIdent && nt.text == "in" {
				p.pos += 2
				right, err := p.parseAdditive()
				if err != nil {
					return nil, err
				}
				left = &binaryNode{op: "not in", left: left, right: right}
				continue
			}
		}

		if p.acceptWord("is") {
			negate := p.acceptWord("not")
			if !p.acceptWord("defined") {
				return nil, syntaxError(p.src, p.peek().pos, `expected "defined" after "is"`)
			}
			path, ok := left.(*pathNode)
			if !ok {
				return nil, syntaxError(p.src, p.peek().pos, `"is defined" requires a variable path`)
			}
			left = &definedNode{path: path, negate: negate}
			continue
		}

		return left, nil
	}
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.acceptOp("+"):
			op = "+"
		case p.acceptOp("-"):
			op = "-"
		default:
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.acceptOp("*"):
			op = "*"
		case p.acceptOp("/"):
			op = "/"
		default:
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (Node, error) {
	if p.acceptOp("-") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negNode{operand: operand}, nil
	}
	return p.parsePipeline()
}

func (p *parser) parsePipeline() (Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.acceptOp("|") {
		name := p.peek()
		if name.kind != tokIdent || keywords[name.text] {
			return nil, syntaxError(p.src, name.pos, "expected filter name after |")
		}
		p.pos++

		fn, ok := Filter(name.text)
		if !ok {
			return nil, syntaxError(p.src, name.pos, "unknown filter %q", name.text)
		}

		var args []Node
		if p.acceptOp("(") {
			args, err = p.parseArgs()
			if err != nil {
				return nil, err
			}
		}
		node = &filterNode{recv: node, name: name.text, fn: fn, args: args}
	}
	return node, nil
}

// parseArgs parses a possibly empty argument list; the opening paren is
// already consumed.
func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.acceptOp(")") {
		return args, nil
	}
	for {
		arg, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.acceptOp(",") {
			continue
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.pos++
		return &literalNode{value: t.num}, nil

	case tokString:
		p.pos++
		return &literalNode{value: t.text}, nil

	case tokIdent:
		switch t.text {
		case "true":
			p.pos++
			return &literalNode{value: true}, nil
		case "false":
			p.pos++
			return &literalNode{value: false}, nil
		case "null":
			p.pos++
			return &literalNode{value: nil}, nil
		}
		if keywords[t.text] {
			return nil, syntaxError(p.src, t.pos, "unexpected keyword %q", t.text)
		}
		return p.parsePath()

	case tokOp:
		switch t.text {
		case "(":
			p.pos++
			node, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return node, nil
		case "[":
			return p.parseList()
		}
	}
	return nil, syntaxError(p.src, t.pos, "unexpected %q", t.text)
}

func (p *parser) parseList() (Node, error) {
	p.pos++ // consume "["
	var elems []Node
	if p.acceptOp("]") {
		return &listNode{}, nil
	}
	for {
		el, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		if p.acceptOp(",") {
			continue
		}
		if err := p.expectOp("]"); err != nil {
			return nil, err
		}
		return &listNode{elems: elems}, nil
	}
}

func (p *parser) parsePath() (Node, error) {
	segs := []string{p.next().text}
	for p.acceptOp(".") {
		seg := p.peek()
		if seg.kind != tokIdent || keywords[seg.text] {
			return nil, syntaxError(p.src, seg.pos, "expected identifier after .")
		}
		p.pos++
		segs = append(segs, seg.text)
	}
	return &pathNode{segments: segs}, nil
}
