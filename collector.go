package abiscope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RowID identifies an array row independently of its position. IDs are
// assigned from a counter that only grows, so removing a row never
// renumbers its siblings.
type RowID uint64

type stepKind uint8

const (
	fieldStep stepKind = iota
	indexStep
	rowStep
)

// Step is one element of a key-path: a tuple field (by name or position)
// or an array row (by RowID).
type Step struct {
	kind  stepKind
	name  string
	index int
	row   RowID
}

// FieldStep selects a tuple field by name.
func FieldStep(name string) Step {
	return Step{kind: fieldStep, name: name}
}

// IndexStep selects a tuple field by position, for unnamed parameters.
func IndexStep(i int) Step {
	return Step{kind: indexStep, index: i}
}

// RowStep selects an array row by identifier.
func RowStep(id RowID) Step {
	return Step{kind: rowStep, row: id}
}

func (s Step) String() string {
	switch s.kind {
	case indexStep:
		return "#" + strconv.Itoa(s.index)
	case rowStep:
		return "@" + strconv.FormatUint(uint64(s.row), 10)
	default:
		return s.name
	}
}

// Path is a key-path from the argument list down to one input.
type Path []Step

// Append returns a new path extended by steps.
func (p Path) Append(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// inputNode is an immutable node of an InputTree. Edits replace the nodes
// along the edited path and share everything else.
type inputNode interface {
	nodeType() Type
}

type leafNode struct {
	t     Type
	raw   string
	value any
	set   bool
}

func (n *leafNode) nodeType() Type { return n.t }

type tupleNode struct {
	t      Type
	fields []inputNode
}

func (n *tupleNode) nodeType() Type { return n.t }

func (n *tupleNode) clone() *tupleNode {
	c := &tupleNode{t: n.t, fields: make([]inputNode, len(n.fields))}
	copy(c.fields, n.fields)
	return c
}

func (n *tupleNode) fieldIndex(s Step) (int, error) {
	switch s.kind {
	case fieldStep:
		for i, f := range n.t.fields {
			if f.Name == s.name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: no field %q", ErrInvalidPath, s.name)
	case indexStep:
		if s.index < 0 || s.index >= len(n.fields) {
			return 0, fmt.Errorf("%w: field index %d out of range", ErrInvalidPath, s.index)
		}
		return s.index, nil
	default:
		return 0, fmt.Errorf("%w: row step %s on a tuple", ErrInvalidPath, s)
	}
}

type arrayNode struct {
	t    Type
	ids  []RowID
	rows map[RowID]inputNode
}

func (n *arrayNode) nodeType() Type { return n.t }

func (n *arrayNode) clone() *arrayNode {
	c := &arrayNode{
		t:    n.t,
		ids:  make([]RowID, len(n.ids)),
		rows: make(map[RowID]inputNode, len(n.rows)),
	}
	copy(c.ids, n.ids)
	for id, row := range n.rows {
		c.rows[id] = row
	}
	return c
}

func (n *arrayNode) full() bool {
	l, fixed := n.t.Length()
	return fixed && len(n.ids) >= l
}

func newNode(t Type) inputNode {
	switch t.Kind() {
	case ArrayKind:
		return &arrayNode{t: t, rows: make(map[RowID]inputNode)}
	case TupleKind:
		n := &tupleNode{t: t, fields: make([]inputNode, len(t.fields))}
		for i, f := range t.fields {
			n.fields[i] = newNode(f.Type)
		}
		return n
	default:
		return &leafNode{t: t}
	}
}

// InputTree accumulates user-supplied values for an argument list shaped by
// its parameter types. An InputTree is immutable: every edit returns a new
// tree and the receiver stays valid.
type InputTree struct {
	root   *tupleNode
	nextID RowID
}

// NewInputTree creates an empty tree for params. Arrays start without rows.
func NewInputTree(params []Param) *InputTree {
	fields := make([]Field, len(params))
	for i, p := range params {
		fields[i] = Field{Name: p.Name, Type: p.Type}
	}
	return &InputTree{root: newNode(TupleOf(fields...)).(*tupleNode)}
}

// Set parses raw as the leaf type at path and stores it. Sibling values are
// kept. A value that does not parse leaves the tree unchanged and returns an
// *InputError.
func (t *InputTree) Set(path Path, raw string) (*InputTree, error) {
	return t.setLeaf(path, raw, func(lt Type) (any, error) {
		return ParseLeaf(lt, raw)
	})
}

// SetAmount is like Set for integer leaves, scaling a decimal amount by unit.
func (t *InputTree) SetAmount(path Path, raw string, unit Unit) (*InputTree, error) {
	return t.setLeaf(path, raw, func(lt Type) (any, error) {
		return ParseAmount(lt, raw, unit)
	})
}

// Unset clears the leaf at path.
func (t *InputTree) Unset(path Path) (*InputTree, error) {
	root, err := update(t.root, path, 0, func(n inputNode) (inputNode, error) {
		leaf, ok := n.(*leafNode)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a leaf", ErrInvalidPath, path)
		}
		return &leafNode{t: leaf.t}, nil
	})
	if err != nil {
		return nil, err
	}
	return t.with(root, t.nextID), nil
}

func (t *InputTree) setLeaf(path Path, raw string, parse func(Type) (any, error)) (*InputTree, error) {
	root, err := update(t.root, path, 0, func(n inputNode) (inputNode, error) {
		leaf, ok := n.(*leafNode)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a leaf", ErrInvalidPath, path)
		}
		v, err := parse(leaf.t)
		if err != nil {
			var ie *InputError
			if errors.As(err, &ie) {
				ie.Path = path.String()
			}
			return nil, err
		}
		return &leafNode{t: leaf.t, raw: raw, value: v, set: true}, nil
	})
	if err != nil {
		return nil, err
	}
	return t.with(root, t.nextID), nil
}

// InsertRow appends an empty row to the array at path and returns its ID.
// Inserting into a fixed-length array that is already full is a no-op: the
// receiver is returned with a zero RowID.
func (t *InputTree) InsertRow(path Path) (*InputTree, RowID, error) {
	next := t.nextID + 1
	var inserted RowID
	root, err := update(t.root, path, 0, func(n inputNode) (inputNode, error) {
		arr, ok := n.(*arrayNode)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidPath, path)
		}
		if arr.full() {
			return arr, nil
		}
		elem, _ := arr.t.Elem()
		c := arr.clone()
		c.ids = append(c.ids, next)
		c.rows[next] = newNode(elem)
		inserted = next
		return c, nil
	})
	if err != nil {
		return nil, 0, err
	}
	if inserted == 0 {
		return t, 0, nil
	}
	return t.with(root, next), inserted, nil
}

// RemoveRow deletes the row with the given ID. Values in the remaining rows
// keep their IDs. Removing an unknown ID is a no-op.
func (t *InputTree) RemoveRow(path Path, id RowID) (*InputTree, error) {
	removed := false
	root, err := update(t.root, path, 0, func(n inputNode) (inputNode, error) {
		arr, ok := n.(*arrayNode)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidPath, path)
		}
		if _, exists := arr.rows[id]; !exists {
			return arr, nil
		}
		c := arr.clone()
		delete(c.rows, id)
		ids := c.ids[:0]
		for _, rid := range c.ids {
			if rid != id {
				ids = append(ids, rid)
			}
		}
		c.ids = ids
		removed = true
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	if !removed {
		return t, nil
	}
	return t.with(root, t.nextID), nil
}

// Rows returns the row IDs of the array at path in list order.
func (t *InputTree) Rows(path Path) ([]RowID, error) {
	n, err := t.get(path)
	if err != nil {
		return nil, err
	}
	arr, ok := n.(*arrayNode)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an array", ErrInvalidPath, path)
	}
	return append([]RowID(nil), arr.ids...), nil
}

// Value returns the parsed value of the leaf at path. The second result is
// false while the leaf is unset.
func (t *InputTree) Value(path Path) (any, bool, error) {
	n, err := t.get(path)
	if err != nil {
		return nil, false, err
	}
	leaf, ok := n.(*leafNode)
	if !ok {
		return nil, false, fmt.Errorf("%w: %s is not a leaf", ErrInvalidPath, path)
	}
	return leaf.value, leaf.set, nil
}

// Raw returns the text last stored at the leaf at path.
func (t *InputTree) Raw(path Path) (string, error) {
	n, err := t.get(path)
	if err != nil {
		return "", err
	}
	leaf, ok := n.(*leafNode)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a leaf", ErrInvalidPath, path)
	}
	return leaf.raw, nil
}

// TypeAt returns the type of the node at path.
func (t *InputTree) TypeAt(path Path) (Type, error) {
	n, err := t.get(path)
	if err != nil {
		return Type{}, err
	}
	return n.nodeType(), nil
}

// Flatten returns the positional argument list: tuples become []any in
// declaration order, arrays []any in row order. Unset leaves are nil.
func (t *InputTree) Flatten() []any {
	return flatten(t.root).([]any)
}

func flatten(n inputNode) any {
	switch n := n.(type) {
	case *leafNode:
		if !n.set {
			return nil
		}
		return n.value
	case *arrayNode:
		out := make([]any, len(n.ids))
		for i, id := range n.ids {
			out[i] = flatten(n.rows[id])
		}
		return out
	case *tupleNode:
		out := make([]any, len(n.fields))
		for i, f := range n.fields {
			out[i] = flatten(f)
		}
		return out
	default:
		return nil
	}
}

// ResolvePath turns a dotted path such as "orders.1.amount" into a Path.
// Tuple fields are matched by name, or by position when numeric; array
// segments are row positions, and missing rows are inserted. The returned
// tree contains those rows.
func (t *InputTree) ResolvePath(dotted string) (*InputTree, Path, error) {
	tree := t
	path := Path{}
	if dotted == "" {
		return tree, path, nil
	}

	for _, part := range strings.Split(dotted, ".") {
		n, err := tree.get(path)
		if err != nil {
			return nil, nil, err
		}

		switch n := n.(type) {
		case *tupleNode:
			step := FieldStep(part)
			if _, err := n.fieldIndex(step); err != nil {
				i, convErr := strconv.Atoi(part)
				if convErr != nil {
					return nil, nil, err
				}
				step = IndexStep(i)
				if _, err := n.fieldIndex(step); err != nil {
					return nil, nil, err
				}
			}
			path = path.Append(step)

		case *arrayNode:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 {
				return nil, nil, fmt.Errorf("%w: %q is not a row position", ErrInvalidPath, part)
			}
			arr := n
			for len(arr.ids) <= i {
				var id RowID
				if tree, id, err = tree.InsertRow(path); err != nil {
					return nil, nil, err
				}
				if id == 0 {
					return nil, nil, fmt.Errorf("%w: row %d exceeds fixed length of %s", ErrInvalidPath, i, arr.t)
				}
				next, _ := tree.get(path)
				arr = next.(*arrayNode)
			}
			path = path.Append(RowStep(arr.ids[i]))

		default:
			return nil, nil, fmt.Errorf("%w: %q continues past a leaf", ErrInvalidPath, dotted)
		}
	}
	return tree, path, nil
}

func (t *InputTree) with(root inputNode, nextID RowID) *InputTree {
	return &InputTree{root: root.(*tupleNode), nextID: nextID}
}

func (t *InputTree) get(path Path) (inputNode, error) {
	var n inputNode = t.root
	for _, step := range path {
		switch cur := n.(type) {
		case *tupleNode:
			i, err := cur.fieldIndex(step)
			if err != nil {
				return nil, err
			}
			n = cur.fields[i]
		case *arrayNode:
			row, err := cur.row(step)
			if err != nil {
				return nil, err
			}
			n = row
		default:
			return nil, fmt.Errorf("%w: %s continues past a leaf", ErrInvalidPath, path)
		}
	}
	return n, nil
}

func (n *arrayNode) row(s Step) (inputNode, error) {
	if s.kind != rowStep {
		return nil, fmt.Errorf("%w: field step %s on an array", ErrInvalidPath, s)
	}
	row, ok := n.rows[s.row]
	if !ok {
		return nil, fmt.Errorf("%w: no row %s", ErrInvalidPath, s)
	}
	return row, nil
}

// update rebuilds the nodes along path with fn applied at its end. Nodes
// fn leaves untouched are returned as-is so no-op edits allocate nothing.
func update(n inputNode, path Path, at int, fn func(inputNode) (inputNode, error)) (inputNode, error) {
	if at == len(path) {
		return fn(n)
	}

	switch cur := n.(type) {
	case *tupleNode:
		i, err := cur.fieldIndex(path[at])
		if err != nil {
			return nil, err
		}
		child, err := update(cur.fields[i], path, at+1, fn)
		if err != nil {
			return nil, err
		}
		if child == cur.fields[i] {
			return cur, nil
		}
		c := cur.clone()
		c.fields[i] = child
		return c, nil

	case *arrayNode:
		old, err := cur.row(path[at])
		if err != nil {
			return nil, err
		}
		child, err := update(old, path, at+1, fn)
		if err != nil {
			return nil, err
		}
		if child == old {
			return cur, nil
		}
		c := cur.clone()
		c.rows[path[at].row] = child
		return c, nil

	default:
		return nil, fmt.Errorf("%w: %s continues past a leaf", ErrInvalidPath, path)
	}
}
