// Package diag defines the diagnostic model shared by every compiler stage.
package diag

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLex     Stage = "lex"
	StagePreproc Stage = "preprocessor"
	StageParse   Stage = "parser"
	StageType    Stage = "type"
	StageName    Stage = "name"
	StageFlow    Stage = "flow"
	StageIO      Stage = "io"
)

// Severity captures how impactful the diagnostic is. The compiler only
// ever raises errors (the first one is fatal); warnings and notes exist
// for completeness and for related-location annotations.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic, independent of its message text.
type Code string

const (
	// Lex errors.
	CodeUnterminatedString  Code = "LEX_UNTERMINATED_STRING"
	CodeUnterminatedChar    Code = "LEX_UNTERMINATED_CHAR"
	CodeUnterminatedComment Code = "LEX_UNTERMINATED_COMMENT"
	CodeEmptyCharConstant   Code = "LEX_EMPTY_CHAR_CONSTANT"
	CodeEmptyHeaderName     Code = "LEX_EMPTY_HEADER_NAME"

	// Preprocessor errors.
	CodeUnterminatedIf     Code = "PP_UNTERMINATED_IF"
	CodeUnmatchedEndif     Code = "PP_UNMATCHED_ENDIF"
	CodeUnmatchedElse      Code = "PP_UNMATCHED_ELSE"
	CodeUnmatchedElif      Code = "PP_UNMATCHED_ELIF"
	CodeMalformedInclude   Code = "PP_MALFORMED_INCLUDE"
	CodeIncludeNotFound    Code = "PP_INCLUDE_NOT_FOUND"
	CodeMalformedDefine    Code = "PP_MALFORMED_DEFINE"
	CodeHashNotParam       Code = "PP_HASH_NOT_PARAM"
	CodePasteAtEdge        Code = "PP_PASTE_AT_EDGE"
	CodeDefinedAsMacroName Code = "PP_DEFINED_AS_MACRO_NAME"
	CodeErrorDirective     Code = "PP_ERROR_DIRECTIVE"
	CodeMacroArgCount      Code = "PP_MACRO_ARG_COUNT"
	CodeMacroRedefinition  Code = "PP_MACRO_REDEFINITION"

	// Parse errors.
	CodeExpected Code = "PARSE_EXPECTED"

	// Type errors.
	CodeBadOperands         Code = "TYPE_BAD_OPERANDS"
	CodeBadTypeSpecifier    Code = "TYPE_BAD_SPECIFIER"
	CodeDuplicateSpecifier  Code = "TYPE_DUPLICATE_SPECIFIER"
	CodeIncompleteFieldType Code = "TYPE_INCOMPLETE_FIELD"
	CodeBadArraySize        Code = "TYPE_BAD_ARRAY_SIZE"
	CodeBadCast             Code = "TYPE_BAD_CAST"
	CodeIncompatibleCond    Code = "TYPE_INCOMPATIBLE_CONDITIONAL"
	CodeBadReturnExpr       Code = "TYPE_BAD_RETURN"
	CodeIncompleteType      Code = "TYPE_INCOMPLETE"

	// Name errors.
	CodeUndefinedIdent   Code = "NAME_UNDEFINED_IDENT"
	CodeUndefinedTag     Code = "NAME_UNDEFINED_TAG"
	CodeRedefinition     Code = "NAME_REDEFINITION"
	CodeDuplicateCase    Code = "NAME_DUPLICATE_CASE"
	CodeDuplicateDefault Code = "NAME_DUPLICATE_DEFAULT"
	CodeLabelRedefined   Code = "NAME_LABEL_REDEFINED"
	CodeUndefinedLabel   Code = "NAME_UNDEFINED_LABEL"

	// Flow errors.
	CodeBreakOutsideLoop    Code = "FLOW_BREAK_OUTSIDE_LOOP"
	CodeContinueOutsideLoop Code = "FLOW_CONTINUE_OUTSIDE_LOOP"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// IsValid reports whether the span carries a usable location.
func (s Span) IsValid() bool { return s.Line > 0 }

// Diagnostic is a compiler diagnostic surfaced to end users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span
}

// Error lets a Diagnostic be carried and propagated as a Go error, which is
// how every stage reports the first fatal error up to the driver.
func (d *Diagnostic) Error() string {
	if d.Span.IsValid() {
		return d.Span.Filename + ": " + string(d.Severity) + ": " + d.Message
	}
	return string(d.Severity) + ": " + d.Message
}

// New builds an error-severity diagnostic.
func New(stage Stage, code Code, span Span, message string) *Diagnostic {
	return &Diagnostic{Stage: stage, Severity: SeverityError, Code: code, Span: span, Message: message}
}
