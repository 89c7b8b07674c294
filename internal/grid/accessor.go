package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/trackgrid/internal/domain"
)

// ErrInvalidTemplate is returned when a composite template cannot be parsed.
var ErrInvalidTemplate = errors.New("invalid column template")

// Accessor resolves a column value from a record. Implementations never
// fail: unresolvable values come back as domain.Absent().
type Accessor interface {
	Resolve(rec domain.Record) domain.Value
	// ID identifies the accessor, usually its dotted path.
	ID() string
}

// PathAccessor resolves a nested field path.
type PathAccessor struct {
	Path domain.FieldPath
}

// Path returns an accessor for a dotted path.
func Path(dotted string) PathAccessor {
	return PathAccessor{Path: domain.ParseFieldPath(dotted)}
}

func (a PathAccessor) Resolve(rec domain.Record) domain.Value {
	return rec.Lookup(a.Path)
}

func (a PathAccessor) ID() string { return a.Path.String() }

// FuncAccessor derives a value from the whole record.
type FuncAccessor struct {
	Name string
	Fn   func(domain.Record) domain.Value
}

// Func wraps a pure derivation function as an accessor.
func Func(name string, fn func(domain.Record) domain.Value) FuncAccessor {
	return FuncAccessor{Name: name, Fn: fn}
}

func (a FuncAccessor) Resolve(rec domain.Record) domain.Value {
	if a.Fn == nil {
		return domain.Absent()
	}
	return a.Fn(rec)
}

func (a FuncAccessor) ID() string { return a.Name }

type templatePart struct {
	literal string
	path    domain.FieldPath
}

// TemplateAccessor substitutes field values into a layout such as
// "{type}( {sub_type} )".
type TemplateAccessor struct {
	layout string
	parts  []templatePart
}

// Template compiles a layout. Placeholders are dotted paths in braces.
func Template(layout string) (TemplateAccessor, error) {
	parts := make([]templatePart, 0, 4)
	var literal strings.Builder
	placeholders := 0
	for i := 0; i < len(layout); i++ {
		switch layout[i] {
		case '{':
			end := strings.IndexByte(layout[i+1:], '}')
			if end < 0 {
				return TemplateAccessor{}, fmt.Errorf("%w: unclosed placeholder in %q", ErrInvalidTemplate, layout)
			}
			name := strings.TrimSpace(layout[i+1 : i+1+end])
			if name == "" || strings.ContainsAny(name, "{") {
				return TemplateAccessor{}, fmt.Errorf("%w: empty placeholder in %q", ErrInvalidTemplate, layout)
			}
			if literal.Len() > 0 {
				parts = append(parts, templatePart{literal: literal.String()})
				literal.Reset()
			}
			parts = append(parts, templatePart{path: domain.ParseFieldPath(name)})
			placeholders++
			i += end + 1
		case '}':
			return TemplateAccessor{}, fmt.Errorf("%w: unexpected '}' in %q", ErrInvalidTemplate, layout)
		default:
			literal.WriteByte(layout[i])
		}
	}
	if literal.Len() > 0 {
		parts = append(parts, templatePart{literal: literal.String()})
	}
	if placeholders == 0 {
		return TemplateAccessor{}, fmt.Errorf("%w: %q has no placeholders", ErrInvalidTemplate, layout)
	}
	return TemplateAccessor{layout: layout, parts: parts}, nil
}

// MustTemplate is Template for layouts known at compile time.
func MustTemplate(layout string) TemplateAccessor {
	accessor, err := Template(layout)
	if err != nil {
		panic(err)
	}
	return accessor
}

// TypeSubtype renders "TYPE( SUBTYPE )" from two fields.
func TypeSubtype(typePath, subTypePath string) TemplateAccessor {
	return MustTemplate("{" + typePath + "}( {" + subTypePath + "} )")
}

// Resolve renders absent parts as "". It is Absent only when no placeholder
// resolved to a present value.
func (a TemplateAccessor) Resolve(rec domain.Record) domain.Value {
	var out strings.Builder
	resolved := false
	for _, part := range a.parts {
		if part.path == nil {
			out.WriteString(part.literal)
			continue
		}
		value := rec.Lookup(part.path)
		if text, ok := value.Text(); ok {
			resolved = true
			out.WriteString(text)
		}
	}
	if !resolved {
		return domain.Absent()
	}
	return domain.String(out.String())
}

func (a TemplateAccessor) ID() string { return a.layout }

// AccessorFor compiles the accessor a FieldSpec describes.
func AccessorFor(spec domain.FieldSpec) (Accessor, error) {
	if strings.TrimSpace(spec.Template) != "" {
		accessor, err := Template(spec.Template)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", spec.Key, err)
		}
		return accessor, nil
	}
	path := spec.Path
	if strings.TrimSpace(path) == "" {
		path = spec.Key
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("field %q has neither path nor template", spec.Label)
	}
	return Path(path), nil
}
