package message

import (
	"github.com/ashgrove-labs/dnscamo/internal/bitio"
	"github.com/ashgrove-labs/dnscamo/internal/errors"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// EncodeName appends the wire form of n to w (spec.md §4.B DnsName
// serialisation).
//
// A label-sequence name emits each label as a length-prefixed octet
// string terminated by a zero byte. A pointer name emits a single
// 16-bit word with the compression mask set in its top two bits;
// internal/stego never constructs this shape, but the codec supports
// it structurally per spec.md §9.
func EncodeName(w *bitio.Writer, n Name) error {
	if n.IsPointer() {
		if *n.Pointer >= 1<<14 {
			return &errors.LengthOverflowError{Operation: "encode name pointer", Max: 1<<14 - 1, Got: int(*n.Pointer)}
		}
		w.AppendUint16(uint16(protocol.CompressionMask)<<8 | *n.Pointer)
		return nil
	}

	for _, label := range n.Labels {
		if len(label) == 0 || len(label) > protocol.MaxLabelLength {
			return &errors.LengthOverflowError{Operation: "encode name label", Max: protocol.MaxLabelLength, Got: len(label)}
		}
		w.AppendByte(byte(len(label)))
		w.AppendBytes([]byte(label))
	}
	w.AppendByte(0)
	return nil
}

// ParseName consumes a wire-form name from r (spec.md §4.B DnsName
// parsing).
//
// Each label is read as a length byte followed by that many ASCII
// octets; a length byte of 0 terminates. A length byte with the top
// two bits set (0xC0) indicates a compression pointer, which is
// rejected as FormatError per spec.md §9 option (a).
func ParseName(r *bitio.Reader) (Name, error) {
	var labels []string
	for {
		b, err := r.TakeByte("parse name")
		if err != nil {
			return Name{}, err
		}
		if b&protocol.CompressionMask == protocol.CompressionMask {
			return Name{}, &errors.FormatError{
				Operation: "parse name",
				Offset:    r.Pos() - 1,
				Message:   "compression pointer encountered; production/consumption is not supported",
			}
		}
		if b == 0 {
			break
		}
		if int(b) > protocol.MaxLabelLength {
			return Name{}, &errors.FormatError{
				Operation: "parse name",
				Offset:    r.Pos() - 1,
				Message:   "label length exceeds 63 octets",
			}
		}
		content, err := r.TakeBytes("parse name label", int(b))
		if err != nil {
			return Name{}, err
		}
		labels = append(labels, string(content))
	}
	return Name{Labels: labels}, nil
}
