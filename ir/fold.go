package ir

import (
	"math/big"

	"github.com/arborxml/xpath/atomic"
	"github.com/arborxml/xpath/schema"
)

// Fold applies trivial constant folding to n, returning a possibly
// smaller tree. The legality rules are lifted from the original
// implementation's constant-folding pass: integer +/-/*, unary minus on
// an integer constant, string concatenation, and `if` on a constant
// boolean condition. Division, idiv, and mod are never folded, even
// when both operands are constants, since they can raise FOAR0001 and
// folding must never change what errors a program raises (§4.F).
func Fold(n Node) Node {
	switch v := n.(type) {
	case *Binary:
		return foldBinary(v)
	case *Unary:
		return foldUnary(v)
	case *Let:
		return &Let{Name: v.Name, Value: Fold(v.Value), Body: Fold(v.Body)}
	case *If:
		return foldIf(v)
	case *For:
		return &For{Name: v.Name, PosName: v.PosName, Source: Fold(v.Source), Body: Fold(v.Body)}
	case *Quantified:
		bindings := make([]ForBindingIR, len(v.Bindings))
		for i, b := range v.Bindings {
			bindings[i] = ForBindingIR{Name: b.Name, Source: Fold(b.Source)}
		}
		return &Quantified{Every: v.Every, Bindings: bindings, Test: Fold(v.Test)}
	case *Compare:
		return &Compare{Op: v.Op, Left: Fold(v.Left), Right: Fold(v.Right)}
	case *Bool:
		return &Bool{Op: v.Op, Left: Fold(v.Left), Right: Fold(v.Right)}
	case *Set:
		return &Set{Op: v.Op, Left: Fold(v.Left), Right: Fold(v.Right)}
	case *SimpleMap:
		return &SimpleMap{Source: Fold(v.Source), Body: Fold(v.Body)}
	case *SeqLiteral:
		items := make([]Node, len(v.Items))
		for i, it := range v.Items {
			items[i] = Fold(it)
		}
		return &SeqLiteral{Items: items}
	case *Step:
		preds := make([]Node, len(v.Predicates))
		for i, p := range v.Predicates {
			preds[i] = Fold(p)
		}
		var src Node
		if v.Source != nil {
			src = Fold(v.Source)
		}
		return &Step{Axis: v.Axis, Test: v.Test, Source: src, Predicates: preds}
	case *Path:
		return &Path{Rooted: v.Rooted, Expr: Fold(v.Expr)}
	case *Call:
		args := make([]Node, len(v.Args))
		for i, a := range v.Args {
			if a != nil {
				args[i] = Fold(a)
			}
		}
		return &Call{NamespaceURI: v.NamespaceURI, LocalName: v.LocalName, Args: args}
	case *DynamicCall:
		args := make([]Node, len(v.Args))
		for i, a := range v.Args {
			if a != nil {
				args[i] = Fold(a)
			}
		}
		return &DynamicCall{Target: Fold(v.Target), Args: args}
	case *InlineFunc:
		return &InlineFunc{Params: v.Params, Body: Fold(v.Body), ClosureNames: v.ClosureNames}
	case *MapConstructor:
		entries := make([]MapEntry, len(v.Entries))
		for i, e := range v.Entries {
			entries[i] = MapEntry{Key: Fold(e.Key), Value: Fold(e.Value)}
		}
		return &MapConstructor{Entries: entries}
	case *ArrayConstructor:
		items := make([]Node, len(v.Items))
		for i, it := range v.Items {
			items[i] = Fold(it)
		}
		return &ArrayConstructor{Square: v.Square, Items: items}
	case *Lookup:
		var key Node
		if v.Key != nil {
			key = Fold(v.Key)
		}
		return &Lookup{Source: Fold(v.Source), Key: key}
	case *InstanceOf:
		return &InstanceOf{Operand: Fold(v.Operand), Type: v.Type}
	case *TreatAs:
		return &TreatAs{Operand: Fold(v.Operand), Type: v.Type}
	case *CastableAs:
		return &CastableAs{Operand: Fold(v.Operand), Type: v.Type, Optional: v.Optional}
	case *CastAs:
		return &CastAs{Operand: Fold(v.Operand), Type: v.Type, Optional: v.Optional}
	default:
		// Const, VarRef, ContextItem, FuncRef carry no sub-nodes.
		return n
	}
}

func constInt(n Node) (*big.Int, bool) {
	c, ok := n.(*Const)
	if !ok {
		return nil, false
	}
	i, ok := c.Value.(atomic.Integer)
	if !ok {
		return nil, false
	}
	return i.Val, true
}

func constString(n Node) (string, bool) {
	c, ok := n.(*Const)
	if !ok {
		return "", false
	}
	s, ok := c.Value.(atomic.String)
	if !ok {
		return "", false
	}
	return s.StringValue(), true
}

func foldBinary(v *Binary) Node {
	left := Fold(v.Left)
	right := Fold(v.Right)

	if li, lok := constInt(left); lok {
		if ri, rok := constInt(right); rok {
			switch v.Op {
			case Add:
				return &Const{Value: atomic.NewInteger(schema.Integer, new(big.Int).Add(li, ri))}
			case Sub:
				return &Const{Value: atomic.NewInteger(schema.Integer, new(big.Int).Sub(li, ri))}
			case Mul:
				return &Const{Value: atomic.NewInteger(schema.Integer, new(big.Int).Mul(li, ri))}
				// Div/IDiv/Mod/RangeTo deliberately never folded: they can
				// raise FOAR0001 and folding must preserve error semantics.
			}
		}
	}
	if ls, lok := constString(left); lok {
		if rs, rok := constString(right); rok && v.Op == Concat {
			return &Const{Value: atomic.NewString(schema.String, ls+rs)}
		}
	}
	return &Binary{Op: v.Op, Left: left, Right: right}
}

func foldUnary(v *Unary) Node {
	operand := Fold(v.Operand)
	if v.Op == Minus {
		if i, ok := constInt(operand); ok {
			return &Const{Value: atomic.NewInteger(schema.Integer, new(big.Int).Neg(i))}
		}
	}
	return &Unary{Op: v.Op, Operand: operand}
}

func foldIf(v *If) Node {
	cond := Fold(v.Cond)
	then := Fold(v.Then)
	els := Fold(v.Else)
	if c, ok := cond.(*Const); ok {
		if b, ok := c.Value.(atomic.Boolean); ok {
			if b.Val {
				return then
			}
			return els
		}
	}
	return &If{Cond: cond, Then: then, Else: els}
}
