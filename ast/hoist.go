package ast

import (
	"github.com/example/jsexpr/runtime"
)

// walkStatements visits stmts and every statement nested in them, without
// entering function bodies.
func walkStatements(stmts []Node, visit func(Node)) {
	for _, s := range stmts {
		walkStatement(s, visit)
	}
}

func walkStatement(stmt Node, visit func(Node)) {
	if stmt == nil {
		return
	}
	visit(stmt)
	switch s := stmt.(type) {
	case *BlockStatement:
		walkStatements(s.Body, visit)
	case *IfStatement:
		walkStatement(s.Consequent, visit)
		walkStatement(s.Alternate, visit)
	case *ForStatement:
		walkStatement(s.Init, visit)
		walkStatement(s.Body, visit)
	case *ForInStatement:
		walkStatement(s.Left, visit)
		walkStatement(s.Body, visit)
	case *ForOfStatement:
		walkStatement(s.Left, visit)
		walkStatement(s.Body, visit)
	case *WhileStatement:
		walkStatement(s.Body, visit)
	case *DoWhileStatement:
		walkStatement(s.Body, visit)
	case *SwitchStatement:
		for _, c := range s.Cases {
			walkStatements(c.Consequent, visit)
		}
	case *TryStatement:
		// The clauses are typed pointers and must not reach Node as nil.
		for _, b := range []*BlockStatement{s.Block, s.handlerBody(), s.Finalizer} {
			if b != nil {
				walkStatement(b, visit)
			}
		}
	case *LabeledStatement:
		walkStatement(s.Body, visit)
	case *ExportNamedDeclaration:
		walkStatement(s.Declaration, visit)
	case *ExportDefaultDeclaration:
		if _, ok := s.Declaration.(*FunctionDeclaration); ok {
			walkStatement(s.Declaration, visit)
		}
	}
}

// varNames collects the names of var declarations anywhere in stmts.
func varNames(stmts []Node) []string {
	var names []string
	walkStatements(stmts, func(n Node) {
		if d, ok := n.(*VariableDeclaration); ok && d.Kind == "var" {
			names = append(names, d.BoundNames()...)
		}
	})
	return names
}

// topLevelFunctions returns the function declarations that belong to the
// scope of stmts itself: direct children, labeled ones and exported ones.
func topLevelFunctions(stmts []Node) []*FunctionDeclaration {
	var out []*FunctionDeclaration
	for _, s := range stmts {
		for {
			if l, ok := s.(*LabeledStatement); ok {
				s = l.Body
				continue
			}
			break
		}
		switch s := s.(type) {
		case *FunctionDeclaration:
			out = append(out, s)
		case *ExportNamedDeclaration:
			if fd, ok := s.Declaration.(*FunctionDeclaration); ok {
				out = append(out, fd)
			}
		case *ExportDefaultDeclaration:
			if fd, ok := s.Declaration.(*FunctionDeclaration); ok && fd.ID != nil {
				out = append(out, fd)
			}
		}
	}
	return out
}

// hoist declares the var names of a function or program body as undefined
// and instantiates its function declarations, so both are usable before
// their statements run.
func hoist(stack *runtime.Stack, stmts []Node) error {
	for _, name := range varNames(stmts) {
		if err := stack.Declare(name, runtime.DeclVar, nil); err != nil {
			return err
		}
	}
	return hoistFunctions(stack, stmts, runtime.DeclFunction)
}

// hoistFunctions instantiates the function declarations of one statement
// list. Blocks use it with a lexical kind so their functions stay local.
func hoistFunctions(stack *runtime.Stack, stmts []Node, kind runtime.DeclKind) error {
	for _, fd := range topLevelFunctions(stmts) {
		if fd.ID == nil {
			continue
		}
		fn := fd.instantiate(stack)
		if kind == runtime.DeclFunction {
			if err := stack.Declare(fd.ID.Name, kind, fn); err != nil {
				return err
			}
			continue
		}
		if err := stack.Top().Declare(fd.ID.Name, kind, fn); err != nil {
			return err
		}
	}
	return nil
}

// declaredNames lists every name a body binds, at any block depth. Function
// dependency reporting uses it to drop reads of local variables.
func declaredNames(stmts []Node) []string {
	var names []string
	walkStatements(stmts, func(n Node) {
		switch s := n.(type) {
		case *VariableDeclaration:
			names = append(names, s.BoundNames()...)
		case *FunctionDeclaration:
			names = append(names, s.BoundNames()...)
		case *TryStatement:
			if s.Handler != nil && s.Handler.Param != nil {
				names = append(names, BoundNames(s.Handler.Param)...)
			}
		case *ImportDeclaration:
			for _, sp := range s.Specifiers {
				names = append(names, sp.Local)
			}
		}
	})
	return names
}

// completes reports whether a statement's value is the completion value of
// the list it is in. Declarations complete empty.
func completes(n Node) bool {
	switch n.(type) {
	case *VariableDeclaration, *FunctionDeclaration, *EmptyStatement,
		*ImportDeclaration, *ExportNamedDeclaration, *ExportDefaultDeclaration,
		*ExportAllDeclaration, *DebuggerStatement:
		return false
	}
	return true
}

// runStatements executes a statement list and returns its completion value.
func runStatements(stack *runtime.Stack, stmts []Node) (*runtime.Value, error) {
	last := runtime.Undefined
	for _, s := range stmts {
		v, err := s.Get(stack)
		if err != nil {
			return last, err
		}
		if v != nil && completes(s) {
			last = v
		}
	}
	return last, nil
}
