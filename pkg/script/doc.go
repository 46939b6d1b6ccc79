// Package script replays declarative instruction programs against an idom
// Cursor.
//
// A program is a YAML (or JSON) list of instructions, each with exactly one
// operation:
//
//	- open: ul
//	  statics:
//	    - {name: class, value: list}
//	- each: items
//	  as: item
//	  do:
//	    - open: li
//	      keyExpr: item.id
//	      attrs:
//	        - {name: class, expr: "item.done ? 'done' : nil"}
//	    - textExpr: item.label
//	    - close: li
//	- if: len(items) == 0
//	  then:
//	    - text: nothing to do
//	- close: ul
//
// Operations are open, close, void, text (or textExpr), skip, skipNode,
// each and if. Expressions use the expr language; the fields of a map
// passed as data are available by name and the whole value as "data".
//
// Patch runs a program as a complete PatchInner and returns usage errors
// instead of panicking:
//
//	prog, err := script.Parse(src)
//	if err != nil {
//	    return err
//	}
//	_, err = script.Patch(ctx, idom.NewPatcher(), root, prog, data)
package script
