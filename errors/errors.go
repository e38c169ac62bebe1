package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // header and section splitting
	PhaseDecode    Phase = "decode"    // primitive binary decoding
	PhaseLink      Phase = "link"      // import/export resolution, index spaces
	PhaseTranscode Phase = "transcode" // operand re-encoding
	PhaseLinearize Phase = "linearize" // control flow label resolution
)

// Kind categorizes the error
type Kind string

const (
	KindBadHeader                Kind = "bad_header"
	KindBadSectionID             Kind = "bad_section_id"
	KindSectionOrder             Kind = "section_order"
	KindInvalidCustomSectionName Kind = "invalid_custom_section_name"
	KindDuplicateSection         Kind = "duplicate_section"
	KindImportTypeMismatch       Kind = "import_type_mismatch"
	KindMissingStartFunction     Kind = "missing_start_function"
	KindMalformedInitializer     Kind = "malformed_initializer"
	KindSegmentOverlap           Kind = "segment_overlap"
	KindSegmentOutOfBounds       Kind = "segment_out_of_bounds"
	KindInvalidValueType         Kind = "invalid_value_type"
	KindInvalidExternalKind      Kind = "invalid_external_kind"
	KindTruncatedInput           Kind = "truncated_input"
	KindDoubleLabelBind          Kind = "double_label_bind"
	KindOverflow                 Kind = "overflow"
	KindIndexOutOfRange          Kind = "index_out_of_range"
	KindInvalidLimits            Kind = "invalid_limits"
	KindLimitExceeded            Kind = "limit_exceeded"
	KindDependencyCycle          Kind = "dependency_cycle"
	KindDuplicateExport          Kind = "duplicate_export"
	KindUnresolvedImport         Kind = "unresolved_import"
	KindUnbalancedBlocks         Kind = "unbalanced_blocks"
	KindCountMismatch            Kind = "count_mismatch"
	KindInvalidData              Kind = "invalid_data"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrBadHeader                = &Error{Kind: KindBadHeader}
	ErrBadSectionID             = &Error{Kind: KindBadSectionID}
	ErrSectionOrder             = &Error{Kind: KindSectionOrder}
	ErrInvalidCustomSectionName = &Error{Kind: KindInvalidCustomSectionName}
	ErrDuplicateSection         = &Error{Kind: KindDuplicateSection}
	ErrImportTypeMismatch       = &Error{Kind: KindImportTypeMismatch}
	ErrMissingStartFunction     = &Error{Kind: KindMissingStartFunction}
	ErrMalformedInitializer     = &Error{Kind: KindMalformedInitializer}
	ErrSegmentOverlap           = &Error{Kind: KindSegmentOverlap}
	ErrSegmentOutOfBounds       = &Error{Kind: KindSegmentOutOfBounds}
	ErrInvalidValueType         = &Error{Kind: KindInvalidValueType}
	ErrInvalidExternalKind      = &Error{Kind: KindInvalidExternalKind}
	ErrTruncatedInput           = &Error{Kind: KindTruncatedInput}
	ErrDoubleLabelBind          = &Error{Kind: KindDoubleLabelBind}
	ErrOverflow                 = &Error{Kind: KindOverflow}
	ErrIndexOutOfRange          = &Error{Kind: KindIndexOutOfRange}
	ErrInvalidLimits            = &Error{Kind: KindInvalidLimits}
	ErrLimitExceeded            = &Error{Kind: KindLimitExceeded}
	ErrDependencyCycle          = &Error{Kind: KindDependencyCycle}
	ErrDuplicateExport          = &Error{Kind: KindDuplicateExport}
	ErrUnresolvedImport         = &Error{Kind: KindUnresolvedImport}
	ErrUnbalancedBlocks         = &Error{Kind: KindUnbalancedBlocks}
	ErrCountMismatch            = &Error{Kind: KindCountMismatch}
	ErrInvalidData              = &Error{Kind: KindInvalidData}
)

// Error is the structured error type used throughout the linker
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Module  string
	Section string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Module != "" {
		b.WriteString(" in module ")
		b.WriteString(e.Module)
	}

	if e.Section != "" {
		if e.Module != "" {
			b.WriteString(", ")
		} else {
			b.WriteString(" in ")
		}
		b.WriteString("section ")
		b.WriteString(e.Section)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Module sets the module name
func (b *Builder) Module(name string) *Builder {
	b.err.Module = name
	return b
}

// Section sets the section name
func (b *Builder) Section(name string) *Builder {
	b.err.Section = name
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// WithContext fills in the module and section of err when it is an *Error
// that does not carry them yet. Other errors are wrapped as link errors.
func WithContext(err error, module, section string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{
			Phase:   PhaseLink,
			Kind:    KindInvalidData,
			Module:  module,
			Section: section,
			Cause:   err,
		}
	}
	if e.Module != "" && (e.Section != "" || section == "") {
		return err
	}
	c := *e
	if c.Module == "" {
		c.Module = module
	}
	if c.Section == "" {
		c.Section = section
	}
	return &c
}

// Convenience constructors for common error patterns

// Truncated creates a truncated input error
func Truncated(offset, want, have int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncatedInput,
		Detail: fmt.Sprintf("need %d byte(s) at offset %d, %d remaining", want, offset, have),
		Value:  offset,
	}
}

// Overflow creates an overflow error
func Overflow(offset int, width uint) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("LEB128 value at offset %d exceeds %d bits", offset, width),
		Value:  offset,
	}
}

// OutOfRange creates an index out of range error
func OutOfRange(phase Phase, what string, index uint32, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIndexOutOfRange,
		Path:   []string{fmt.Sprintf("%s %d", what, index)},
		Detail: fmt.Sprintf("%s index %d out of range (length %d)", what, index, length),
		Value:  index,
	}
}

// InvalidValueType creates an invalid value type error
func InvalidValueType(phase Phase, code int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidValueType,
		Detail: fmt.Sprintf("invalid value type %#x", byte(code)&0x7f),
		Value:  code,
	}
}

// InvalidExternalKind creates an invalid external kind error
func InvalidExternalKind(phase Phase, kind byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidExternalKind,
		Detail: fmt.Sprintf("invalid external kind %d", kind),
		Value:  kind,
	}
}

// MalformedInitializer creates a malformed initializer expression error
func MalformedInitializer(detail string, args ...any) *Error {
	return New(PhaseLink, KindMalformedInitializer).Detail(detail, args...).Build()
}

// Internal creates an internal consistency error raised by the bytecode passes
func Internal(phase Phase, kind Kind, offset int, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: fmt.Sprintf("at code offset %d: %s", offset, detail),
		Value:  offset,
	}
}
