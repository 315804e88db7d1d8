package rsxml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lysyi3m/rsxml/internal/sax"
)

type Domain string

const (
	DomainRSXML Domain = "rsxml"
	DomainLexer Domain = "lexer"
)

type Code int

const (
	CodeNoData                   Code = 110
	CodeInputEncoding            Code = 111
	CodeMissingLeftCaret         Code = 120
	CodeContainsProviderErrorTag Code = 130
	CodeNoSuitableParser         Code = 140
	CodeExpectingFeed            Code = 210
	CodeExpectingHTML            Code = 220
	CodeExpectingOPML            Code = 230

	// CodeSyntax is the only code of DomainLexer.
	CodeSyntax Code = 1
)

var codeMessages = map[Code]string{
	CodeNoData:                   "no data or data too short",
	CodeInputEncoding:            "input is neither UTF-8 nor UTF-16",
	CodeMissingLeftCaret:         "no '<' in data",
	CodeContainsProviderErrorTag: "data is a provider error document",
	CodeNoSuitableParser:         "no suitable parser",
	CodeExpectingFeed:            "expected a feed",
	CodeExpectingHTML:            "expected an HTML document",
	CodeExpectingOPML:            "expected an OPML document",
}

func (c Code) String() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return fmt.Sprintf("code %d", int(c))
}

// Error is returned for every failure of detection or parsing except
// cancellation.
type Error struct {
	Code     Code
	Domain   Domain
	URL      string
	Expected string
	Actual   string
	Line     int
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Domain == DomainLexer {
		b.WriteString("failed to tokenize document")
		if e.Err != nil {
			b.WriteString(": ")
			b.WriteString(e.Err.Error())
		}
	} else {
		fmt.Fprintf(&b, "%s (%d)", e.Code, int(e.Code))
		if e.Expected != "" || e.Actual != "" {
			fmt.Fprintf(&b, ": wanted %s, found %s", nonEmpty(e.Expected), nonEmpty(e.Actual))
		}
	}
	if e.URL != "" {
		fmt.Fprintf(&b, " [%s]", e.URL)
	}
	return b.String()
}

func nonEmpty(s string) string {
	if s == "" {
		return "nothing"
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same domain and code, so the sentinels
// below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Domain == e.Domain
}

var (
	ErrNoData                   = &Error{Code: CodeNoData, Domain: DomainRSXML}
	ErrInputEncoding            = &Error{Code: CodeInputEncoding, Domain: DomainRSXML}
	ErrMissingLeftCaret         = &Error{Code: CodeMissingLeftCaret, Domain: DomainRSXML}
	ErrContainsProviderErrorTag = &Error{Code: CodeContainsProviderErrorTag, Domain: DomainRSXML}
	ErrNoSuitableParser         = &Error{Code: CodeNoSuitableParser, Domain: DomainRSXML}
	ErrExpectingFeed            = &Error{Code: CodeExpectingFeed, Domain: DomainRSXML}
	ErrExpectingHTML            = &Error{Code: CodeExpectingHTML, Domain: DomainRSXML}
	ErrExpectingOPML            = &Error{Code: CodeExpectingOPML, Domain: DomainRSXML}
	ErrSyntax                   = &Error{Code: CodeSyntax, Domain: DomainLexer}

	ErrParserUsed = errors.New("parser has already been used")
)

func newError(code Code, url string) *Error {
	return &Error{Code: code, Domain: DomainRSXML, URL: url}
}

func expectationError(want Kind, url, actual string) *Error {
	code := CodeExpectingFeed
	switch want {
	case KindHTML:
		code = CodeExpectingHTML
	case KindOPML:
		code = CodeExpectingOPML
	}
	return &Error{Code: code, Domain: DomainRSXML, URL: url, Expected: want.String(), Actual: actual}
}

func lexerError(err error, url string) *Error {
	e := &Error{Code: CodeSyntax, Domain: DomainLexer, URL: url, Err: err}
	var se *sax.SyntaxError
	if errors.As(err, &se) {
		e.Line = se.Line
	}
	return e
}
