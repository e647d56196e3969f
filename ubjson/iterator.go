package ubjson

// Iterator walks the children of one array or object as they are read.
//
// Iterators are one-shot: each call to Next consumes input. Nested
// containers are fully decoded before they are returned. An iterator that
// is abandoned before Next returns false leaves the source in the middle
// of the container.
//
//	it, err := dec.Iterate()
//	if err != nil { ... }
//	for it.Next() {
//		use(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	d     *Decoder
	open  Token
	kind  Kind
	depth int

	sized     bool
	remaining int64 // children left in a sized container
	close     Tag   // terminator of an unbounded container

	key  string
	cur  *Value
	err  error
	done bool
}

// Kind returns KindArray or KindObject.
func (it *Iterator) Kind() Kind {
	return it.kind
}

// Sized reports whether the container declared its length up front.
func (it *Iterator) Sized() bool {
	return it.sized
}

// Next advances to the next child. It returns false at the end of the
// container or on error.
func (it *Iterator) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if it.sized && it.remaining == 0 {
		it.done = true
		return false
	}
	var ok bool
	if it.kind == KindObject {
		ok = it.nextMember()
	} else {
		ok = it.nextElement()
	}
	if ok && it.sized {
		it.remaining--
	}
	return ok
}

// Value returns the current element or member value.
func (it *Iterator) Value() *Value {
	return it.cur
}

// Key returns the current member key. It is empty for arrays and for
// no-op members.
func (it *Iterator) Key() string {
	return it.key
}

// Member returns the current object member.
func (it *Iterator) Member() Member {
	return Member{Key: it.key, Value: it.cur}
}

// Err returns the first error encountered.
func (it *Iterator) Err() error {
	return it.err
}

// Collect reads the remaining children into a materialized value.
func (it *Iterator) Collect() (*Value, error) {
	if it.kind == KindObject {
		members := make([]Member, 0, it.capacity())
		for it.Next() {
			members = append(members, it.Member())
		}
		if it.err != nil {
			return nil, it.err
		}
		return Object(members...), nil
	}

	items := make([]*Value, 0, it.capacity())
	for it.Next() {
		items = append(items, it.cur)
	}
	if it.err != nil {
		return nil, it.err
	}
	return Array(items...), nil
}

func (it *Iterator) capacity() int {
	if it.sized && it.remaining < 1024 {
		return int(it.remaining)
	}
	if it.sized {
		return 1024
	}
	return 0
}

func (it *Iterator) fail(err error) bool {
	it.err = err
	it.cur = nil
	it.key = ""
	return false
}

// atEnd handles an end marker read where a child could start.
func (it *Iterator) atEnd(tok Token) bool {
	if it.sized {
		return it.fail(syntaxErr(tok.Offset, ErrStructure,
			"end marker in sized %s with %d children missing", it.kind, it.remaining))
	}
	if tok.Tag != it.close {
		return it.fail(syntaxErr(tok.Offset, ErrStructure,
			"%s closed by %s, want %s", it.kind, tok.Tag, it.close))
	}
	it.done = true
	it.cur = nil
	it.key = ""
	return false
}

func (it *Iterator) nextElement() bool {
	tok, err := it.d.next("array")
	if err != nil {
		return it.fail(err)
	}
	if m, ok := it.d.marker(tok); ok && m.Family == FamilyEnd {
		return it.atEnd(tok)
	}
	v, err := it.d.value(tok, it.depth)
	if err != nil {
		return it.fail(err)
	}
	it.key, it.cur = "", v
	return true
}

func (it *Iterator) nextMember() bool {
	tok, err := it.d.next("object")
	if err != nil {
		return it.fail(err)
	}
	m, known := it.d.marker(tok)
	if known {
		switch m.Family {
		case FamilyEnd:
			return it.atEnd(tok)
		case FamilyNoOp:
			it.key, it.cur = "", NoOp()
			return true
		}
	}

	key, err := it.objectKey(tok, m, known)
	if err != nil {
		return it.fail(err)
	}

	// No-ops between a key and its value are always skipped.
	for {
		tok, err = it.d.next("object")
		if err != nil {
			return it.fail(err)
		}
		if vm, ok := it.d.marker(tok); ok {
			if vm.Family == FamilyNoOp {
				continue
			}
			if vm.Family == FamilyEnd {
				return it.fail(syntaxErr(tok.Offset, ErrStructure, "value missing for key %q", key))
			}
		}
		break
	}

	v, err := it.d.value(tok, it.depth)
	if err != nil {
		return it.fail(err)
	}
	it.key, it.cur = key, v
	return true
}

func (it *Iterator) objectKey(tok Token, m *Marker, known bool) (string, error) {
	if !known {
		if v, ok := tok.Payload.(*Value); ok && v.Kind() == KindString {
			return v.strVal, nil
		}
		return "", &SyntaxError{Offset: tok.Offset, Reason: "object key from marker " + tok.Tag.String() + " is not a string", Err: ErrInvalidKey}
	}
	if m.Family != FamilyString {
		return "", &SyntaxError{Offset: tok.Offset, Reason: "object key has " + m.Name + " marker " + tok.Tag.String(), Err: ErrInvalidKey}
	}
	v, err := it.d.value(tok, it.depth)
	if err != nil {
		return "", err
	}
	return v.strVal, nil
}
