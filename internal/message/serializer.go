package message

import (
	"github.com/ashgrove-labs/dnscamo/internal/bitio"
	"github.com/ashgrove-labs/dnscamo/internal/errors"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// Serialize builds the wire image of msg per spec.md §4.B.
//
// It first synthesises the Header from the current section lengths
// and the id argument (failing with LengthOverflowError if any section
// exceeds 65535 entries), then emits Header, Questions, Answers,
// Authorities and Additionals in that order.
func Serialize(msg *Message, id uint16) ([]byte, error) {
	header, err := buildHeader(msg, id)
	if err != nil {
		return nil, err
	}

	w := bitio.NewWriter()
	writeHeader(w, header)

	for _, q := range msg.Questions {
		if err := writeQuestion(w, q); err != nil {
			return nil, err
		}
	}
	for _, sec := range [][]Record{msg.Answers, msg.Authorities, msg.Additionals} {
		for _, rec := range sec {
			if err := writeRecord(w, rec); err != nil {
				return nil, err
			}
		}
	}

	return w.Bytes(), nil
}

func buildHeader(msg *Message, id uint16) (Header, error) {
	counts := []int{len(msg.Questions), len(msg.Answers), len(msg.Authorities), len(msg.Additionals)}
	names := []string{"questions", "answers", "authorities", "additionals"}
	for i, c := range counts {
		if c > protocol.MaxSectionCount {
			return Header{}, &errors.LengthOverflowError{Operation: "serialise " + names[i], Max: protocol.MaxSectionCount, Got: c}
		}
	}

	var flags uint16
	if msg.IsResponse {
		flags = protocol.FlagResponse
	}

	return Header{
		ID:      id,
		Flags:   flags,
		QDCount: uint16(counts[0]),
		ANCount: uint16(counts[1]),
		NSCount: uint16(counts[2]),
		ARCount: uint16(counts[3]),
	}, nil
}

func writeHeader(w *bitio.Writer, h Header) {
	w.AppendUint16(h.ID)
	w.AppendUint16(h.Flags)
	w.AppendUint16(h.QDCount)
	w.AppendUint16(h.ANCount)
	w.AppendUint16(h.NSCount)
	w.AppendUint16(h.ARCount)
}

func writeQuestion(w *bitio.Writer, q Question) error {
	if err := EncodeName(w, q.Name); err != nil {
		return err
	}
	w.AppendUint16(uint16(q.Type))
	w.AppendUint16(uint16(q.Class))
	return nil
}

func writeRecord(w *bitio.Writer, rec Record) error {
	if len(rec.RData) > int(rec.RDLength) {
		return &errors.RDataOverflowError{Declared: int(rec.RDLength), Actual: len(rec.RData)}
	}

	if err := EncodeName(w, rec.Name); err != nil {
		return err
	}
	w.AppendUint16(uint16(rec.Type))
	w.AppendUint16(uint16(rec.Class))
	w.AppendUint32(rec.TTL)
	w.AppendUint16(rec.RDLength)
	w.AppendBytes(rec.RData)

	pad := int(rec.RDLength) - len(rec.RData)
	for i := 0; i < pad; i++ {
		w.AppendByte(0)
	}
	return nil
}
