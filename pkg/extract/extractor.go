package extract

// DefaultPlaceholder is appended to the code of a record that never finished
// arriving.
const DefaultPlaceholder = "<!-- generation incomplete -->"

// Extractor finds records in a growing buffer. It holds configuration only;
// all scanning progress lives in the State threaded through Extract, so one
// Extractor can serve any number of concurrent streams.
type Extractor struct {
	schema      Schema
	placeholder string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSchema overrides the key names. Empty fields keep their defaults.
func WithSchema(s Schema) Option {
	return func(x *Extractor) {
		x.schema = s.withDefaults()
	}
}

// WithPlaceholder overrides the marker appended to truncated code.
func WithPlaceholder(p string) Option {
	return func(x *Extractor) {
		x.placeholder = p
	}
}

// New returns an Extractor for the default schema unless overridden.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		schema:      DefaultSchema(),
		placeholder: DefaultPlaceholder,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Schema returns the schema the extractor scans for.
func (x *Extractor) Schema() Schema {
	return x.schema
}

// State is the scanning progress for one stream. The zero value starts a new
// stream.
type State struct {
	// Cursor is the buffer index scanning resumes from. It never decreases.
	Cursor int

	// Index is the index the next record will receive.
	Index int

	// Malformed collects ordering or shape violations seen so far.
	Malformed []*MalformedOutputError

	started bool
	current *record

	// orphan decodes a code value that had no record to belong to, so the
	// scan can step over it.
	orphan *StringDecoder
}

// InContainer reports whether the container array has been located.
func (s State) InContainer() bool {
	return s.started
}

// InFlight reports whether a record has been started but not finalized.
func (s State) InFlight() bool {
	return s.current != nil
}

// record is the in-flight record.
type record struct {
	name    *StringDecoder
	nameEnd int

	desc     *StringDecoder
	descDone bool

	codeKey Marker
	hasCode bool
	code    *StringDecoder

	emitted bool
	last    Fields
}

func (r *record) description() FieldState {
	switch {
	case r.desc == nil:
		return Pending()
	case r.desc.Complete():
		return Complete(r.desc.Value())
	default:
		return Partial(r.desc.Value())
	}
}

func (r *record) codeSoFar() string {
	if r.code == nil {
		return ""
	}
	return r.code.Value()
}

// Extract scans buf from st.Cursor and calls emit for every record that made
// visible progress. buf must be the full buffer so far; it is append-only
// between calls. The returned State must be passed to the next call.
func (x *Extractor) Extract(buf string, st State, emit EmitFunc) State {
	if !st.started {
		i := FindContainer(buf, st.Cursor, x.schema.Container)
		if i < 0 {
			return st
		}
		st.started = true
		st.Cursor = i
	}

	for {
		switch {
		case st.orphan != nil:
			res := st.orphan.Feed(buf)
			if !res.Complete {
				return st
			}
			st.orphan = nil
			st.Cursor = res.Next
		case st.current == nil:
			if !x.begin(buf, &st) {
				return st
			}
		default:
			if !x.advance(buf, &st, emit) {
				return st
			}
		}
	}
}

// Finish is the end-of-stream pass. A record whose name was emitted but whose
// code never completed is emitted once more as complete and truncated. A
// record whose name never completed is dropped.
func (x *Extractor) Finish(st State, emit EmitFunc) State {
	st.orphan = nil

	rec := st.current
	if rec == nil {
		return st
	}
	if rec.nameEnd < 0 {
		st.current = nil
		return st
	}

	x.truncate(&st, emit)
	return st
}

// begin looks for the next record's name key. It returns false when the scan
// has to wait for more input.
func (x *Extractor) begin(buf string, st *State) bool {
	name, hasName := FindKey(buf, st.Cursor, x.schema.Name)

	limit := len(buf)
	if hasName {
		limit = name.Start
	}
	if code, ok := FindKey(buf[:limit], st.Cursor, x.schema.Code); ok {
		st.report(code.Start, "code value without a preceding name")
		st.orphan = NewStringDecoder(buf, code.Value)
		st.Cursor = code.Value
		if st.orphan == nil {
			st.Cursor++
		}
		return true
	}

	if !hasName {
		return false
	}

	dec := NewStringDecoder(buf, name.Value)
	if dec == nil {
		st.report(name.Start, "name value is not a string")
		st.Cursor = name.Value + 1
		return true
	}

	st.current = &record{
		name:    dec,
		nameEnd: -1,
	}
	st.Cursor = name.Value
	return true
}

// advance makes progress on the in-flight record. It returns true when the
// record was finalized and scanning can move on to the next one.
func (x *Extractor) advance(buf string, st *State, emit EmitFunc) bool {
	rec := st.current

	if rec.nameEnd < 0 {
		res := rec.name.Feed(buf)
		if !res.Complete {
			return false
		}
		rec.nameEnd = res.Next
		st.Cursor = res.Next
	}

	if !rec.hasCode {
		code, hasCode := FindKey(buf, rec.nameEnd, x.schema.Code)
		next, hasNext := FindKey(buf, rec.nameEnd, x.schema.Name)

		if hasNext && (!hasCode || next.Start < code.Start) {
			st.report(next.Start, "record ended without a code value")
			x.describe(buf, rec, next.Start)
			x.truncate(st, emit)
			st.Cursor = next.Start
			return true
		}
		if hasCode {
			rec.codeKey = code
			rec.hasCode = true
		}
	}

	if !rec.hasCode {
		x.describe(buf, rec, len(buf))
		x.emitPartial(st, emit, Pending())
		return false
	}
	x.describe(buf, rec, rec.codeKey.Start)

	if rec.code == nil {
		rec.code = NewStringDecoder(buf, rec.codeKey.Value)
		if rec.code == nil {
			st.report(rec.codeKey.Start, "code value is not a string")
			x.truncate(st, emit)
			st.Cursor = rec.codeKey.Value + 1
			return true
		}
	}

	res := rec.code.Feed(buf)
	if !res.Complete {
		x.emitPartial(st, emit, Partial(res.Value))
		return false
	}

	x.emitFinal(st, emit, Complete(res.Value), false)
	st.Cursor = res.Next
	return true
}

// describe decodes the description as far as it has arrived, never reading
// past limit: the code key or the next record.
func (x *Extractor) describe(buf string, rec *record, limit int) {
	if rec.descDone {
		return
	}

	if rec.desc == nil {
		m, ok := FindKey(buf[:limit], rec.nameEnd, x.schema.Description)
		if !ok {
			return
		}
		rec.desc = NewStringDecoder(buf, m.Value)
		if rec.desc == nil {
			// Not a string; the record goes on with an empty description.
			rec.descDone = true
			return
		}
	}

	if rec.desc.Feed(buf).Complete {
		rec.descDone = true
	}
}

func (x *Extractor) emitPartial(st *State, emit EmitFunc, code FieldState) {
	rec := st.current
	fields := Fields{
		Name:        Complete(rec.name.Value()),
		Description: rec.description(),
		Code:        code,
	}
	if rec.emitted && fields == rec.last {
		return
	}
	rec.emitted = true
	rec.last = fields

	if emit != nil {
		emit(Emission{Index: st.Index, Fields: fields})
	}
}

func (x *Extractor) emitFinal(st *State, emit EmitFunc, code FieldState, truncated bool) {
	rec := st.current
	fields := Fields{
		Name:        Complete(rec.name.Value()),
		Description: rec.description().Finalize(),
		Code:        code,
	}

	if emit != nil {
		emit(Emission{
			Index:     st.Index,
			Fields:    fields,
			Complete:  true,
			Truncated: truncated,
		})
	}

	st.Index++
	st.current = nil
}

func (x *Extractor) truncate(st *State, emit EmitFunc) {
	code := st.current.codeSoFar() + x.placeholder
	x.emitFinal(st, emit, Complete(code), true)
}

func (s *State) report(offset int, reason string) {
	s.Malformed = append(s.Malformed, &MalformedOutputError{
		Index:  s.Index,
		Offset: offset,
		Reason: reason,
	})
}
