package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/vango-dev/idom/internal/errors"
	"github.com/vango-dev/idom/pkg/idom"
)

// Op is the operation of an instruction.
type Op string

const (
	OpOpen     Op = "open"
	OpClose    Op = "close"
	OpVoid     Op = "void"
	OpText     Op = "text"
	OpSkip     Op = "skip"
	OpSkipNode Op = "skipNode"
	OpEach     Op = "each"
	OpIf       Op = "if"
)

// defaultItemName is bound to the current element of an each block that
// does not name it.
const defaultItemName = "item"

// rawInstruction is the decoded form of one instruction.
type rawInstruction struct {
	Open     string `yaml:"open"`
	Close    string `yaml:"close"`
	Void     string `yaml:"void"`
	Text     any    `yaml:"text"`
	TextExpr string `yaml:"textExpr"`
	Skip     bool   `yaml:"skip"`
	SkipNode bool   `yaml:"skipNode"`
	Each     string `yaml:"each"`
	If       string `yaml:"if"`

	As    string           `yaml:"as"`
	Index string           `yaml:"index"`
	Do    []rawInstruction `yaml:"do"`
	Then  []rawInstruction `yaml:"then"`
	Else  []rawInstruction `yaml:"else"`

	Key     any       `yaml:"key"`
	KeyExpr string    `yaml:"keyExpr"`
	Statics []rawAttr `yaml:"statics"`
	Attrs   []rawAttr `yaml:"attrs"`
}

type rawAttr struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
	Expr  string `yaml:"expr"`
}

// value is a literal or a compiled expression.
type value struct {
	literal any
	src     string
	prog    *vm.Program
}

type attr struct {
	name string
	value
}

type instruction struct {
	op   Op
	path string

	tag     string
	key     value
	statics []idom.Attr
	attrs   []attr

	text value

	cond       *vm.Program
	condSrc    string
	items      *vm.Program
	itemsSrc   string
	as, index  string
	body, alt  []*instruction
}

// Program is a parsed and compiled instruction program. A Program is
// immutable and may be replayed concurrently against different cursors.
type Program struct {
	name string
	src  []byte
	file *ast.File
	body []*instruction
}

// Name returns the name the program was parsed with.
func (p *Program) Name() string {
	return p.name
}

// Len returns the number of top-level instructions.
func (p *Program) Len() int {
	return len(p.body)
}

// Parse parses and compiles a program.
func Parse(src []byte) (*Program, error) {
	return ParseNamed("program", src)
}

// ParseFile reads and parses the program in the named file. Errors carry
// the file's location and surrounding lines.
func ParseFile(name string) (*Program, error) {
	src, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.New("E201").Wrap(err).WithReason("cannot read %s", name)
	}
	return ParseNamed(name, src)
}

// ParseNamed parses and compiles a program, using name in error locations.
func ParseNamed(name string, src []byte) (*Program, error) {
	p := &Program{name: name, src: src}

	var raw []rawInstruction
	if err := yaml.UnmarshalWithOptions(src, &raw, yaml.Strict()); err != nil {
		return nil, errors.New("E201").Wrap(err).WithReason("%s", yaml.FormatError(err, false, true))
	}
	// The AST is only used to find line numbers for later errors.
	if file, err := parser.ParseBytes(src, 0); err == nil {
		p.file = file
	}

	body, err := p.compileBlock(raw, "$")
	if err != nil {
		return nil, err
	}
	p.body = body
	return p, nil
}

func (p *Program) compileBlock(raw []rawInstruction, path string) ([]*instruction, error) {
	out := make([]*instruction, 0, len(raw))
	for i := range raw {
		ins, err := p.compile(&raw[i], fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, nil
}

func operations(r *rawInstruction) []Op {
	var ops []Op
	if r.Open != "" {
		ops = append(ops, OpOpen)
	}
	if r.Close != "" {
		ops = append(ops, OpClose)
	}
	if r.Void != "" {
		ops = append(ops, OpVoid)
	}
	if r.Text != nil || r.TextExpr != "" {
		ops = append(ops, OpText)
	}
	if r.Skip {
		ops = append(ops, OpSkip)
	}
	if r.SkipNode {
		ops = append(ops, OpSkipNode)
	}
	if r.Each != "" {
		ops = append(ops, OpEach)
	}
	if r.If != "" {
		ops = append(ops, OpIf)
	}
	return ops
}

const instructionExample = `- open: li
  keyExpr: item.id
- textExpr: item.label
- close: li`

func (p *Program) compile(r *rawInstruction, path string) (*instruction, error) {
	ops := operations(r)
	switch len(ops) {
	case 0:
		return nil, p.errorAt("E202", path, "no operation in instruction").WithExample(instructionExample)
	case 1:
	default:
		return nil, p.errorAt("E203", path, "instruction has several operations: %v", ops).
			WithExample(instructionExample)
	}

	ins := &instruction{op: ops[0], path: path}
	if err := p.checkFields(r, ins); err != nil {
		return nil, err
	}

	var err error
	switch ins.op {
	case OpOpen, OpVoid:
		ins.tag = r.Open
		if ins.op == OpVoid {
			ins.tag = r.Void
		}
		if ins.key, err = p.compileValue(r.Key, r.KeyExpr, path+".keyExpr"); err != nil {
			return nil, err
		}
		for i, s := range r.Statics {
			spath := fmt.Sprintf("%s.statics[%d]", path, i)
			if s.Name == "" {
				return nil, p.errorAt("E203", spath, "attribute has no name")
			}
			if s.Expr != "" {
				return nil, p.errorAt("E203", spath, "statics must be literal values")
			}
			ins.statics = append(ins.statics, idom.Attr{Name: s.Name, Value: s.Value})
		}
		for i, a := range r.Attrs {
			apath := fmt.Sprintf("%s.attrs[%d]", path, i)
			if a.Name == "" {
				return nil, p.errorAt("E203", apath, "attribute has no name")
			}
			v, err := p.compileValue(a.Value, a.Expr, apath+".expr")
			if err != nil {
				return nil, err
			}
			ins.attrs = append(ins.attrs, attr{name: a.Name, value: v})
		}
	case OpClose:
		ins.tag = r.Close
	case OpText:
		if ins.text, err = p.compileValue(r.Text, r.TextExpr, path+".textExpr"); err != nil {
			return nil, err
		}
	case OpEach:
		ins.itemsSrc = r.Each
		if ins.items, err = p.compileExpr(r.Each, path+".each"); err != nil {
			return nil, err
		}
		ins.as = r.As
		if ins.as == "" {
			ins.as = defaultItemName
		}
		ins.index = r.Index
		if ins.body, err = p.compileBlock(r.Do, path+".do"); err != nil {
			return nil, err
		}
	case OpIf:
		ins.condSrc = r.If
		if ins.cond, err = p.compileExpr(r.If, path+".if"); err != nil {
			return nil, err
		}
		if ins.body, err = p.compileBlock(r.Then, path+".then"); err != nil {
			return nil, err
		}
		if ins.alt, err = p.compileBlock(r.Else, path+".else"); err != nil {
			return nil, err
		}
	}
	return ins, nil
}

// checkFields rejects fields that do not belong to the instruction's
// operation.
func (p *Program) checkFields(r *rawInstruction, ins *instruction) error {
	var stray []string
	element := ins.op == OpOpen || ins.op == OpVoid
	if !element && (r.Key != nil || r.KeyExpr != "" || len(r.Statics) > 0 || len(r.Attrs) > 0) {
		stray = append(stray, "key/statics/attrs")
	}
	if ins.op != OpEach && (r.As != "" || r.Index != "" || len(r.Do) > 0) {
		stray = append(stray, "as/index/do")
	}
	if ins.op != OpIf && (len(r.Then) > 0 || len(r.Else) > 0) {
		stray = append(stray, "then/else")
	}
	if len(stray) > 0 {
		return p.errorAt("E203", ins.path, "%s cannot be used with %s", strings.Join(stray, ", "), ins.op)
	}
	if r.Key != nil && r.KeyExpr != "" {
		return p.errorAt("E203", ins.path, "key and keyExpr are both set")
	}
	if r.Text != nil && r.TextExpr != "" {
		return p.errorAt("E203", ins.path, "text and textExpr are both set")
	}
	for i, a := range r.Attrs {
		if a.Value != nil && a.Expr != "" {
			return p.errorAt("E203", fmt.Sprintf("%s.attrs[%d]", ins.path, i), "value and expr are both set")
		}
	}
	return nil
}

func (p *Program) compileValue(literal any, src, path string) (value, error) {
	if src == "" {
		return value{literal: literal}, nil
	}
	prog, err := p.compileExpr(src, path)
	if err != nil {
		return value{}, err
	}
	return value{src: src, prog: prog}, nil
}

func (p *Program) compileExpr(src, path string) (*vm.Program, error) {
	prog, err := expr.Compile(src)
	if err != nil {
		return nil, p.errorAt("E204", path, "%s", err).Wrap(err)
	}
	return prog, nil
}

// errorAt builds a coded error located at the instruction with the given
// path. The line is resolved from the program source when possible.
func (p *Program) errorAt(code, path, format string, args ...any) *errors.Error {
	e := errors.New(code).WithReason(format, args...)
	line, column := p.position(path)
	if line == 0 {
		e.Detail = strings.TrimSpace(e.Detail + " At " + path + ".")
		return e
	}
	e.Location = &errors.Location{File: p.name, Line: line, Column: column}
	return e.WithContext(p.sourceLines(line, 5))
}

// position returns the line and column of the node at path, trimming
// trailing path elements until one is found.
func (p *Program) position(path string) (int, int) {
	if p.file == nil {
		return 0, 0
	}
	for path != "" && path != "$" {
		if yp, err := yaml.PathString(path); err == nil {
			if node, err := yp.FilterFile(p.file); err == nil && node != nil {
				if tk := node.GetToken(); tk != nil && tk.Position != nil {
					return tk.Position.Line, tk.Position.Column
				}
			}
		}
		path = parentPath(path)
	}
	return 0, 0
}

func parentPath(path string) string {
	i := strings.LastIndexAny(path, ".[")
	if i <= 0 {
		return ""
	}
	return path[:i]
}

func (p *Program) sourceLines(line, size int) ([]string, int) {
	lines := strings.Split(string(p.src), "\n")
	start := max(line-size/2, 1)
	end := min(line+size/2, len(lines))
	if start > end {
		return nil, 0
	}
	return lines[start-1 : end], start
}
