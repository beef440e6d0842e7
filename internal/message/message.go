// Package message implements the DNS message codec: the wire-level
// types of spec.md §3 (Header, Question, Record, DnsName, Message) and
// the serialise/parse operations of §4.B.
package message

import (
	"strings"

	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// Header is the fixed 12-octet DNS header: six unsigned 16-bit fields
// in wire order (spec.md §3 Header).
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// IsResponse reports whether the response bit (mask 0x8000) is set.
func (h Header) IsResponse() bool {
	return h.Flags&protocol.FlagResponse != 0
}

// Name is a DNS name. Shape (i), the only shape the core produces, is
// a sequence of ASCII labels. Shape (ii), a compression pointer, is
// modelled in the type system and EncodeName can emit it, but Parse
// never produces it: ParseName rejects pointer octets with a
// FormatError.
type Name struct {
	// Labels holds the label sequence for shape (i). nil when Pointer
	// is set.
	Labels []string
	// Pointer holds the 14-bit offset for shape (ii). nil for
	// ordinary names.
	Pointer *uint16
}

// NewName builds a label-sequence Name from individual labels.
func NewName(labels ...string) Name {
	return Name{Labels: labels}
}

// IsPointer reports whether this Name is the compression-pointer
// variant.
func (n Name) IsPointer() bool {
	return n.Pointer != nil
}

// String renders a label-sequence Name as dot-separated text. Calling
// it on a pointer Name returns the empty string.
func (n Name) String() string {
	if n.IsPointer() {
		return ""
	}
	return strings.Join(n.Labels, ".")
}

// Equal reports whether two Names have the same shape and content.
func (n Name) Equal(other Name) bool {
	if n.IsPointer() != other.IsPointer() {
		return false
	}
	if n.IsPointer() {
		return *n.Pointer == *other.Pointer
	}
	if len(n.Labels) != len(other.Labels) {
		return false
	}
	for i := range n.Labels {
		if n.Labels[i] != other.Labels[i] {
			return false
		}
	}
	return true
}

// Question is a question-section entry: a name, type and class triple
// (spec.md §3 Question).
type Question struct {
	Name  Name
	Type  protocol.RecordType
	Class protocol.Class
}

// Record is an answer/authority/additional-section entry (spec.md §3
// Record).
type Record struct {
	Name     Name
	Type     protocol.RecordType
	Class    protocol.Class
	TTL      uint32
	RDLength uint16
	RData    []byte
}

// Message is the ordered aggregate of a Header and four record
// sequences, carrying the request/response orientation flag (spec.md
// §3 Message).
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
	IsResponse  bool
}

// NewMessage returns an empty Message with the given orientation.
func NewMessage(isResponse bool) *Message {
	return &Message{IsResponse: isResponse}
}
