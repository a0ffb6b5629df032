package extract

import "strings"

const (
	DefaultContainerKey   = "screens"
	DefaultNameKey        = "name"
	DefaultDescriptionKey = "description"
	DefaultCodeKey        = "code"
)

// Schema names the keys of the streamed document. The producer is expected
// to emit each record's keys in Name, Description, Code order inside the
// array found under Container.
type Schema struct {
	Container   string
	Name        string
	Description string
	Code        string
}

// DefaultSchema returns the screens/name/description/code schema.
func DefaultSchema() Schema {
	return Schema{
		Container:   DefaultContainerKey,
		Name:        DefaultNameKey,
		Description: DefaultDescriptionKey,
		Code:        DefaultCodeKey,
	}
}

func (s Schema) withDefaults() Schema {
	d := DefaultSchema()
	if s.Container == "" {
		s.Container = d.Container
	}
	if s.Name == "" {
		s.Name = d.Name
	}
	if s.Description == "" {
		s.Description = d.Description
	}
	if s.Code == "" {
		s.Code = d.Code
	}
	return s
}

// Marker is the location of a key inside the buffer.
type Marker struct {
	// Start is the index of the opening quote of the key.
	Start int

	// Value is the index of the first non-space byte after the colon.
	Value int
}

// FindKey locates the first `"key"` at or after from that is followed by
// optional whitespace, a colon, optional whitespace and at least one value
// byte. A key whose colon or value has not arrived yet is reported as not
// found so the caller retries once more input is buffered.
func FindKey(buf string, from int, key string) (Marker, bool) {
	needle := `"` + key + `"`

	for from < len(buf) {
		i := strings.Index(buf[from:], needle)
		if i < 0 {
			return Marker{}, false
		}
		at := from + i

		j := skipSpace(buf, at+len(needle))
		if j >= len(buf) {
			return Marker{}, false
		}
		if buf[j] != ':' {
			// The needle was a string value, not a key.
			from = at + 1
			continue
		}

		j = skipSpace(buf, j+1)
		if j >= len(buf) {
			return Marker{}, false
		}

		return Marker{Start: at, Value: j}, true
	}

	return Marker{}, false
}

// FindContainer returns the index just past the '[' that opens the array
// stored under key, or -1 when it has not arrived yet.
func FindContainer(buf string, from int, key string) int {
	for {
		m, ok := FindKey(buf, from, key)
		if !ok {
			return -1
		}
		if buf[m.Value] == '[' {
			return m.Value + 1
		}
		from = m.Value
	}
}

func skipSpace(buf string, i int) int {
	for i < len(buf) {
		switch buf[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}
