package message

import (
	"github.com/ashgrove-labs/dnscamo/internal/bitio"
	"github.com/ashgrove-labs/dnscamo/internal/errors"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// Parse consumes a full DNS message from data per spec.md §4.B.
//
// The parser is single-pass: it reads the fixed header, then exactly
// QDCount questions, ANCount answers, NSCount authorities and ARCount
// additionals in that order. Bytes beyond what the advertised counts
// require are ignored; running out of bytes before satisfying a count
// is a FormatError.
func Parse(data []byte) (*Message, error) {
	r := bitio.NewReader(data)

	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}

	questions := make([]Question, 0, header.QDCount)
	for i := uint16(0); i < header.QDCount; i++ {
		q, err := parseQuestion(r)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	parseSection := func(n uint16) ([]Record, error) {
		recs := make([]Record, 0, n)
		for i := uint16(0); i < n; i++ {
			rec, err := parseRecord(r)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		}
		return recs, nil
	}

	answers, err := parseSection(header.ANCount)
	if err != nil {
		return nil, err
	}
	authorities, err := parseSection(header.NSCount)
	if err != nil {
		return nil, err
	}
	additionals, err := parseSection(header.ARCount)
	if err != nil {
		return nil, err
	}

	return &Message{
		Header:      header,
		Questions:   questions,
		Answers:     answers,
		Authorities: authorities,
		Additionals: additionals,
		IsResponse:  header.IsResponse(),
	}, nil
}

func parseHeader(r *bitio.Reader) (Header, error) {
	if r.Remaining() < protocol.HeaderSize {
		return Header{}, &errors.FormatError{
			Operation: "parse header",
			Offset:    r.Pos(),
			Message:   "message shorter than the fixed 12-byte header",
		}
	}

	var h Header
	var err error
	if h.ID, err = r.TakeUint16("parse header"); err != nil {
		return Header{}, err
	}
	if h.Flags, err = r.TakeUint16("parse header"); err != nil {
		return Header{}, err
	}
	if h.QDCount, err = r.TakeUint16("parse header"); err != nil {
		return Header{}, err
	}
	if h.ANCount, err = r.TakeUint16("parse header"); err != nil {
		return Header{}, err
	}
	if h.NSCount, err = r.TakeUint16("parse header"); err != nil {
		return Header{}, err
	}
	if h.ARCount, err = r.TakeUint16("parse header"); err != nil {
		return Header{}, err
	}
	return h, nil
}

func parseQuestion(r *bitio.Reader) (Question, error) {
	name, err := ParseName(r)
	if err != nil {
		return Question{}, err
	}
	rawType, err := r.TakeUint16("parse question")
	if err != nil {
		return Question{}, err
	}
	rawClass, err := r.TakeUint16("parse question")
	if err != nil {
		return Question{}, err
	}
	if !protocol.RecordType(rawType).IsKnown() {
		return Question{}, &errors.UnknownTypeError{Operation: "parse question type", Value: rawType}
	}
	if !protocol.Class(rawClass).IsKnown() {
		return Question{}, &errors.UnknownTypeError{Operation: "parse question class", Value: rawClass}
	}
	return Question{Name: name, Type: protocol.RecordType(rawType), Class: protocol.Class(rawClass)}, nil
}

func parseRecord(r *bitio.Reader) (Record, error) {
	name, err := ParseName(r)
	if err != nil {
		return Record{}, err
	}
	rawType, err := r.TakeUint16("parse record")
	if err != nil {
		return Record{}, err
	}
	rawClass, err := r.TakeUint16("parse record")
	if err != nil {
		return Record{}, err
	}
	if !protocol.RecordType(rawType).IsKnown() {
		return Record{}, &errors.UnknownTypeError{Operation: "parse record type", Value: rawType}
	}
	if !protocol.Class(rawClass).IsKnown() {
		return Record{}, &errors.UnknownTypeError{Operation: "parse record class", Value: rawClass}
	}
	ttl, err := r.TakeUint32("parse record")
	if err != nil {
		return Record{}, err
	}
	rdlength, err := r.TakeUint16("parse record")
	if err != nil {
		return Record{}, err
	}
	rdata, err := r.TakeBytes("parse record rdata", int(rdlength))
	if err != nil {
		return Record{}, err
	}

	return Record{
		Name:     name,
		Type:     protocol.RecordType(rawType),
		Class:    protocol.Class(rawClass),
		TTL:      ttl,
		RDLength: rdlength,
		RData:    rdata,
	}, nil
}
