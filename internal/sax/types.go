package sax

import (
	"context"
	"errors"
	"fmt"
)

type Mode int

const (
	ModeXML Mode = iota
	ModeHTML
)

func (m Mode) String() string {
	if m == ModeHTML {
		return "html"
	}
	return "xml"
}

var (
	// ErrCanceled is returned by Parse after Cancel.
	ErrCanceled = fmt.Errorf("parse canceled: %w", context.Canceled)

	ErrNoRoot    = errors.New("document has no root element")
	ErrReentrant = errors.New("parser is already running")
)

type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("syntax error at line %d: %s", e.Line, e.Msg)
	}
	return "syntax error: " + e.Msg
}

type Namespace struct {
	Prefix string
	URI    string
}

type Attr struct {
	Local  string
	Prefix string
	URI    string
	Value  string
}

type StartElement struct {
	Local      string
	Prefix     string
	URI        string
	Namespaces []Namespace
	Attrs      []Attr
	// Defaulted is the number of trailing attributes filled in from a DTD.
	Defaulted int
}

// Attr returns the value of the first attribute with the given local name.
func (e *StartElement) Attr(local string) string {
	for _, a := range e.Attrs {
		if a.Local == local {
			return a.Value
		}
	}
	return ""
}

// Copy returns a StartElement that stays valid after the callback returns.
func (e *StartElement) Copy() *StartElement {
	c := *e
	c.Namespaces = append([]Namespace(nil), e.Namespaces...)
	c.Attrs = append([]Attr(nil), e.Attrs...)
	return &c
}

type EndElement struct {
	Local  string
	Prefix string
	URI    string
}

// Delegate receives lexical events. Events are delivered on the goroutine
// that called Parse, in document order. Slices passed to callbacks are only
// valid for the duration of the call.
type Delegate interface {
	StartElement(p *Parser, e *StartElement)
	EndElement(p *Parser, e *EndElement)
	Characters(p *Parser, text []byte)
	EndDocument(p *Parser)
}

// NameInterner lets a delegate supply canonical strings for element and
// attribute names.
type NameInterner interface {
	InternName(local, prefix string) string
}

// ValueInterner lets a delegate supply canonical strings for attribute values.
type ValueInterner interface {
	InternValue(value string) string
}

type BaseDelegate struct{}

func (BaseDelegate) StartElement(*Parser, *StartElement) {}
func (BaseDelegate) EndElement(*Parser, *EndElement)     {}
func (BaseDelegate) Characters(*Parser, []byte)          {}
func (BaseDelegate) EndDocument(*Parser)                 {}
