package ast

import (
	"fmt"

	"github.com/cs444-joos/joosc/internal/cst"
	"github.com/cs444-joos/joosc/internal/types"
)

// Build collapses a concrete parse tree for a single compilation unit into a
// typed AST. It trusts the parse tree to
// already conform to the Joos grammar — any cst.Kind this builder does not
// recognize in a given position is an internal error, not a user-facing
// diagnostic, since the external parser should never hand one of those to a
// well-formed unit.
func Build(fileName string, unit cst.Node) (*CompilationUnit, error) {
	if unit.Kind() != cst.KindCompilationUnit {
		return nil, fmt.Errorf("ast.Build: expected compilation unit, got %v", unit.Kind())
	}
	b := &builder{fileName: fileName}
	return b.buildUnit(unit)
}

type builder struct{ fileName string }

func (b *builder) buildUnit(n cst.Node) (*CompilationUnit, error) {
	pkg := ""
	cu := NewCompilationUnit(n.Span(), b.fileName, "")
	for _, c := range n.Children() {
		switch c.Kind() {
		case cst.KindPackageDecl:
			pkg = c.Text()
		case cst.KindSingleTypeImport:
			cu.SingleImports = append(cu.SingleImports, SingleTypeImport{
				Span:          c.Span(),
				CanonicalName: c.Text(),
				SimpleName:    simpleNameOf(c.Text()),
			})
		case cst.KindOnDemandImport:
			cu.OnDemandImports = append(cu.OnDemandImports, c.Text())
		case cst.KindClassDecl:
			td, err := b.buildClass(c, pkg)
			if err != nil {
				return nil, err
			}
			cu.Type = td
		case cst.KindInterfaceDecl:
			td, err := b.buildInterface(c, pkg)
			if err != nil {
				return nil, err
			}
			cu.Type = td
		default:
			return nil, fmt.Errorf("ast.Build: unexpected node %v at compilation-unit level", c.Kind())
		}
	}
	cu.PackageName = pkg
	return cu, nil
}

func simpleNameOf(canonical string) string {
	last := canonical
	for i := len(canonical) - 1; i >= 0; i-- {
		if canonical[i] == '.' {
			last = canonical[i+1:]
			break
		}
	}
	return last
}

func (b *builder) buildModifiers(n cst.Node) Modifiers {
	mods := Modifiers{}
	if n == nil || n.Kind() != cst.KindModifierList {
		return mods
	}
	for _, c := range n.Children() {
		switch c.Text() {
		case "public":
			mods[ModPublic] = true
		case "protected":
			mods[ModProtected] = true
		case "abstract":
			mods[ModAbstract] = true
		case "final":
			mods[ModFinal] = true
		case "static":
			mods[ModStatic] = true
		case "native":
			mods[ModNative] = true
		}
	}
	return mods
}

func (b *builder) buildClass(n cst.Node, pkg string) (*ClassDecl, error) {
	children := n.Children()
	cd := NewClassDecl(n.Span(), pkg, n.Text(), Modifiers{})
	for _, c := range children {
		switch c.Kind() {
		case cst.KindModifierList:
			cd.Mods = b.buildModifiers(c)
		case cst.KindExtendsClause:
			te, err := b.buildTypeExprFromName(c.Children()[0])
			if err != nil {
				return nil, err
			}
			cd.Super = te
		case cst.KindImplementsClause:
			for _, ifaceNode := range c.Children() {
				te, err := b.buildTypeExprFromName(ifaceNode)
				if err != nil {
					return nil, err
				}
				cd.Interfaces = append(cd.Interfaces, te)
			}
		case cst.KindFieldDecl:
			fd, err := b.buildField(c, len(cd.FieldDecls))
			if err != nil {
				return nil, err
			}
			fd.Owner = cd
			cd.FieldDecls = append(cd.FieldDecls, fd)
		case cst.KindMethodDecl:
			md, err := b.buildMethod(c)
			if err != nil {
				return nil, err
			}
			md.Owner = cd
			cd.MethodDecls = append(cd.MethodDecls, md)
		case cst.KindConstructorDecl:
			ctor, err := b.buildConstructor(c)
			if err != nil {
				return nil, err
			}
			ctor.Owner = cd
			cd.Constructors = append(cd.Constructors, ctor)
		}
	}
	return cd, nil
}

func (b *builder) buildInterface(n cst.Node, pkg string) (*InterfaceDecl, error) {
	id := NewInterfaceDecl(n.Span(), pkg, n.Text(), Modifiers{})
	for _, c := range n.Children() {
		switch c.Kind() {
		case cst.KindModifierList:
			id.Mods = b.buildModifiers(c)
		case cst.KindExtendsClause:
			for _, extNode := range c.Children() {
				te, err := b.buildTypeExprFromName(extNode)
				if err != nil {
					return nil, err
				}
				id.Extends = append(id.Extends, te)
			}
		case cst.KindMethodDecl:
			md, err := b.buildMethod(c)
			if err != nil {
				return nil, err
			}
			md.Owner = id
			id.MethodDecls = append(id.MethodDecls, md)
		}
	}
	return id, nil
}

func (b *builder) buildField(n cst.Node, order int) (*FieldDecl, error) {
	children := n.Children()
	if len(children) < 2 {
		return nil, fmt.Errorf("ast.Build: malformed field declaration")
	}
	mods := b.buildModifiers(firstOfKind(children, cst.KindModifierList))
	t, err := b.buildTypeExpr(children[len(children)-2])
	if err != nil {
		return nil, err
	}
	nameNode := children[len(children)-1]
	var init Expression
	if len(nameNode.Children()) > 0 {
		init, err = b.buildExpr(nameNode.Children()[0])
		if err != nil {
			return nil, err
		}
	}
	return NewFieldDecl(n.Span(), nameNode.Text(), mods, t, init, order), nil
}

func (b *builder) buildParams(n cst.Node) ([]Param, error) {
	var params []Param
	for _, c := range n.Children() {
		if c.Kind() != cst.KindFormalParam {
			continue
		}
		pc := c.Children()
		if len(pc) != 2 {
			return nil, fmt.Errorf("ast.Build: malformed formal parameter")
		}
		t, err := b.buildTypeExpr(pc[0])
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Span: c.Span(), Name: pc[1].Text(), T: t})
	}
	return params, nil
}

func (b *builder) buildMethod(n cst.Node) (*MethodDecl, error) {
	children := n.Children()
	mods := b.buildModifiers(firstOfKind(children, cst.KindModifierList))
	var ret TypeExpr
	var err error
	if rt := firstOfKind(children, cst.KindPrimitiveType, cst.KindArrayType, cst.KindQualifiedName, cst.KindName); rt != nil {
		ret, err = b.buildTypeExpr(rt)
		if err != nil {
			return nil, err
		}
	} else {
		ret = NewVoidTypeExpr(n.Span())
	}
	var params []Param
	var body *Block
	for _, c := range children {
		switch c.Kind() {
		case cst.KindFormalParam:
			p, err := b.buildParams(n)
			if err != nil {
				return nil, err
			}
			params = p
		case cst.KindBlock:
			body, err = b.buildBlock(c)
			if err != nil {
				return nil, err
			}
		}
	}
	return NewMethodDecl(n.Span(), n.Text(), mods, ret, params, body), nil
}

func (b *builder) buildConstructor(n cst.Node) (*ConstructorDecl, error) {
	params, err := b.buildParams(n)
	if err != nil {
		return nil, err
	}
	var body *Block
	if bl := firstOfKind(n.Children(), cst.KindBlock); bl != nil {
		body, err = b.buildBlock(bl)
		if err != nil {
			return nil, err
		}
	}
	return NewConstructorDecl(n.Span(), params, body), nil
}

func (b *builder) buildBlock(n cst.Node) (*Block, error) {
	var stmts []Statement
	for _, c := range n.Children() {
		s, err := b.buildStmt(c)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return NewBlock(n.Span(), stmts), nil
}

func (b *builder) buildStmt(n cst.Node) (Statement, error) {
	switch n.Kind() {
	case cst.KindBlock:
		return b.buildBlock(n)
	case cst.KindLocalVarDecl:
		children := n.Children()
		t, err := b.buildTypeExpr(children[0])
		if err != nil {
			return nil, err
		}
		var init Expression
		if len(children) > 2 {
			init, err = b.buildExpr(children[2])
			if err != nil {
				return nil, err
			}
		}
		return NewLocalVarDecl(n.Span(), children[1].Text(), t, init), nil
	case cst.KindIfStmt:
		children := n.Children()
		cond, err := b.buildExpr(children[0])
		if err != nil {
			return nil, err
		}
		then, err := b.buildStmt(children[1])
		if err != nil {
			return nil, err
		}
		var els Statement
		if len(children) > 2 {
			els, err = b.buildStmt(children[2])
			if err != nil {
				return nil, err
			}
		}
		return NewIfStmt(n.Span(), cond, then, els), nil
	case cst.KindWhileStmt:
		children := n.Children()
		cond, err := b.buildExpr(children[0])
		if err != nil {
			return nil, err
		}
		body, err := b.buildStmt(children[1])
		if err != nil {
			return nil, err
		}
		return NewWhileStmt(n.Span(), cond, body), nil
	case cst.KindForStmt:
		children := n.Children()
		var init Statement
		var cond Expression
		var update Statement
		var err error
		if children[0] != nil {
			init, err = b.buildStmt(children[0])
			if err != nil {
				return nil, err
			}
		}
		if children[1] != nil {
			cond, err = b.buildExpr(children[1])
			if err != nil {
				return nil, err
			}
		}
		if children[2] != nil {
			update, err = b.buildStmt(children[2])
			if err != nil {
				return nil, err
			}
		}
		body, err := b.buildStmt(children[3])
		if err != nil {
			return nil, err
		}
		return NewForStmt(n.Span(), init, cond, update, body), nil
	case cst.KindReturnStmt:
		if len(n.Children()) == 0 {
			return NewReturnStmt(n.Span(), nil), nil
		}
		v, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return NewReturnStmt(n.Span(), v), nil
	case cst.KindExprStmt:
		e, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return NewExprStmt(n.Span(), e), nil
	default:
		return nil, fmt.Errorf("ast.Build: unexpected statement node %v", n.Kind())
	}
}

func (b *builder) buildExpr(n cst.Node) (Expression, error) {
	switch n.Kind() {
	case cst.KindLiteral:
		return NewLiteral(n.Span(), literalKindOf(n.Text()), n.Text()), nil
	case cst.KindName, cst.KindQualifiedName:
		return NewName(n.Span(), splitDots(n.Text())...), nil
	case cst.KindThis:
		return NewThis(n.Span()), nil
	case cst.KindBinaryExpr:
		l, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		r, err := b.buildExpr(n.Children()[1])
		if err != nil {
			return nil, err
		}
		return NewBinary(n.Span(), n.Text(), l, r), nil
	case cst.KindUnaryExpr:
		operand, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return NewUnary(n.Span(), n.Text(), operand), nil
	case cst.KindAssignExpr:
		target, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		value, err := b.buildExpr(n.Children()[1])
		if err != nil {
			return nil, err
		}
		return NewAssign(n.Span(), target, value), nil
	case cst.KindCastExpr:
		t, err := b.buildTypeExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		e, err := b.buildExpr(n.Children()[1])
		if err != nil {
			return nil, err
		}
		return NewCast(n.Span(), t, e), nil
	case cst.KindInstanceofExpr:
		e, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		t, err := b.buildTypeExpr(n.Children()[1])
		if err != nil {
			return nil, err
		}
		return NewInstanceof(n.Span(), e, t), nil
	case cst.KindNewObjectExpr:
		t, err := b.buildTypeExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		args, err := b.buildExprList(n.Children()[1:])
		if err != nil {
			return nil, err
		}
		return NewNewObject(n.Span(), t, args), nil
	case cst.KindNewArrayExpr:
		elem, err := b.buildTypeExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		dim, err := b.buildExpr(n.Children()[1])
		if err != nil {
			return nil, err
		}
		return NewNewArray(n.Span(), elem, dim), nil
	case cst.KindFieldAccessExpr:
		recv, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return NewFieldAccess(n.Span(), recv, n.Text()), nil
	case cst.KindMethodCallExpr:
		children := n.Children()
		var recv Expression
		var err error
		argStart := 0
		if len(children) > 0 && children[0].Kind() != cst.KindLiteral && children[0].Text() != n.Text() {
			recv, err = b.buildExpr(children[0])
			if err != nil {
				return nil, err
			}
			argStart = 1
		}
		args, err := b.buildExprList(children[argStart:])
		if err != nil {
			return nil, err
		}
		return NewMethodCall(n.Span(), recv, n.Text(), args), nil
	case cst.KindArrayAccessExpr:
		arr, err := b.buildExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		idx, err := b.buildExpr(n.Children()[1])
		if err != nil {
			return nil, err
		}
		return NewArrayAccess(n.Span(), arr, idx), nil
	default:
		return nil, fmt.Errorf("ast.Build: unexpected expression node %v", n.Kind())
	}
}

func (b *builder) buildExprList(nodes []cst.Node) ([]Expression, error) {
	exprs := make([]Expression, 0, len(nodes))
	for _, n := range nodes {
		e, err := b.buildExpr(n)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

func (b *builder) buildTypeExpr(n cst.Node) (TypeExpr, error) {
	switch n.Kind() {
	case cst.KindPrimitiveType:
		p, ok := primitiveOf(n.Text())
		if !ok {
			return nil, fmt.Errorf("ast.Build: unknown primitive type %q", n.Text())
		}
		return NewPrimitiveTypeExpr(n.Span(), p), nil
	case cst.KindArrayType:
		elem, err := b.buildTypeExpr(n.Children()[0])
		if err != nil {
			return nil, err
		}
		return NewArrayTypeExpr(n.Span(), elem), nil
	case cst.KindName, cst.KindQualifiedName:
		return NewNamedTypeExpr(n.Span(), n.Text()), nil
	default:
		return nil, fmt.Errorf("ast.Build: unexpected type node %v", n.Kind())
	}
}

func (b *builder) buildTypeExprFromName(n cst.Node) (TypeExpr, error) {
	return NewNamedTypeExpr(n.Span(), n.Text()), nil
}

func firstOfKind(nodes []cst.Node, kinds ...cst.Kind) cst.Node {
	for _, n := range nodes {
		for _, k := range kinds {
			if n.Kind() == k {
				return n
			}
		}
	}
	return nil
}

func primitiveOf(text string) (types.Primitive, bool) {
	switch text {
	case "byte":
		return types.Byte, true
	case "short":
		return types.Short, true
	case "int":
		return types.Int, true
	case "char":
		return types.Char, true
	case "boolean":
		return types.Boolean, true
	default:
		return 0, false
	}
}

func literalKindOf(text string) string {
	if len(text) == 0 {
		return "string"
	}
	switch text {
	case "true", "false":
		return "boolean"
	case "null":
		return "null"
	}
	if text[0] == '\'' {
		return "char"
	}
	if text[0] == '"' {
		return "string"
	}
	return "int"
}

func splitDots(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
