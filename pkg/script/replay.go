package script

import (
	"context"
	stderrors "errors"
	"maps"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/dom"
	"github.com/vango-dev/idom/pkg/idom"
)

// env is the variable scope of a replay.
type env map[string]any

// rootEnv exposes the fields of a map as variables and the whole value as
// "data".
func rootEnv(data any) env {
	e := env{}
	if m, ok := data.(map[string]any); ok {
		maps.Copy(e, m)
	}
	e["data"] = data
	return e
}

type replayer struct {
	prog *Program
	c    *idom.Cursor
	at   *instruction
}

// Replay declares the program's content at the cursor's position. It
// returns an error if an expression fails or if the declarations break the
// patch rules; after an error the surrounding patch is in an undefined
// state and should be abandoned, which Patch does.
func (p *Program) Replay(c *idom.Cursor, data any) (err error) {
	r := &replayer{prog: p, c: c}
	defer func() {
		if rec := recover(); rec != nil {
			usage := patchError(rec)
			if usage == nil {
				panic(rec)
			}
			err = r.violation(usage)
		}
	}()
	return r.block(p.body, rootEnv(data))
}

// patchError returns rec as an error if it is a panic raised by the patch
// engine for misuse or for a host tree problem.
func patchError(rec any) error {
	err, ok := rec.(error)
	if !ok {
		return nil
	}
	if stderrors.Is(err, idom.ErrUsage) || stderrors.Is(err, idom.ErrHostTree) {
		return err
	}
	return nil
}

func (r *replayer) violation(cause error) *errors.Error {
	path := "$"
	if r.at != nil {
		path = r.at.path
	}
	e := r.prog.errorAt("E207", path, "%s", reasonOf(cause))
	return e.Wrap(cause)
}

func reasonOf(err error) string {
	var ie *errors.Error
	if stderrors.As(err, &ie) && ie.Reason != "" {
		return ie.Code + ": " + ie.Reason
	}
	return err.Error()
}

func (r *replayer) block(body []*instruction, e env) error {
	for _, ins := range body {
		if err := r.exec(ins, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *replayer) exec(ins *instruction, e env) error {
	r.at = ins
	c := r.c

	switch ins.op {
	case OpOpen, OpVoid:
		key, err := r.eval(ins.key, e, ins.path)
		if err != nil {
			return err
		}
		attrs := make([]idom.Attr, len(ins.attrs))
		for i, a := range ins.attrs {
			v, err := r.eval(a.value, e, ins.path)
			if err != nil {
				return err
			}
			attrs[i] = idom.Attr{Name: a.name, Value: v}
		}
		if ins.op == OpVoid {
			c.ElementVoid(ins.tag, key, ins.statics, attrs...)
		} else {
			c.ElementOpen(ins.tag, key, ins.statics, attrs...)
		}
	case OpClose:
		c.ElementClose(ins.tag)
	case OpText:
		v, err := r.eval(ins.text, e, ins.path)
		if err != nil {
			return err
		}
		c.Text(v)
	case OpSkip:
		c.Skip()
	case OpSkipNode:
		c.SkipNode()
	case OpEach:
		return r.each(ins, e)
	case OpIf:
		v, err := r.run(ins.cond, ins.condSrc, e, ins.path)
		if err != nil {
			return err
		}
		ok, isBool := v.(bool)
		if !isBool {
			return r.prog.errorAt("E205", ins.path, "if condition %q is %T, want bool", ins.condSrc, v)
		}
		if ok {
			return r.block(ins.body, e)
		}
		return r.block(ins.alt, e)
	}
	return nil
}

func (r *replayer) each(ins *instruction, e env) error {
	items, err := r.run(ins.items, ins.itemsSrc, e, ins.path)
	if err != nil {
		return err
	}
	if items == nil {
		return nil
	}
	rv := reflect.ValueOf(items)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return r.prog.errorAt("E206", ins.path, "%q is %T", ins.itemsSrc, items)
	}

	scope := maps.Clone(e)
	for i := 0; i < rv.Len(); i++ {
		scope[ins.as] = rv.Index(i).Interface()
		if ins.index != "" {
			scope[ins.index] = i
		}
		if err := r.block(ins.body, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *replayer) eval(v value, e env, path string) (any, error) {
	if v.prog == nil {
		return v.literal, nil
	}
	return r.run(v.prog, v.src, e, path)
}

func (r *replayer) run(prog *vm.Program, src string, e env, path string) (any, error) {
	out, err := expr.Run(prog, map[string]any(e))
	if err != nil {
		return nil, r.prog.errorAt("E205", path, "%s: %s", src, err).Wrap(err)
	}
	return out, nil
}

type abort struct {
	err error
}

// Patch replays prog as the whole content of root with PatchInner. Usage
// and host tree panics raised during the patch are returned as E207
// errors, and expression failures as their own codes; the tree may then be
// partially patched.
func Patch(ctx context.Context, p *idom.Patcher, root *dom.Node, prog *Program, data any) (result *dom.Node, err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if a, ok := rec.(abort); ok {
			err = a.err
			return
		}
		if cause := patchError(rec); cause != nil {
			err = errors.New("E207").WithReason("%s", reasonOf(cause)).Wrap(cause)
			return
		}
		panic(rec)
	}()

	return p.PatchInnerContext(ctx, root, func(c *idom.Cursor) {
		if err := prog.Replay(c, data); err != nil {
			panic(abort{err})
		}
	}), nil
}
