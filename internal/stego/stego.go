// Package stego implements the steganographic embedding/extraction
// layer: packing an opaque byte sequence into the syntactic slots of a
// DNS message (spec.md §4.C).
//
// Queries carry the payload in the first label of each question name,
// base32-encoded with the DNSSEC alphabet; answer records would be
// syntactically implausible in an unsolicited query. Responses instead
// carry the payload in answer/additional RDATA, because the question
// section of a response must mirror the request's verbatim.
package stego

import (
	"encoding/base32"

	"github.com/ashgrove-labs/dnscamo/internal/errors"
	"github.com/ashgrove-labs/dnscamo/internal/message"
	"github.com/ashgrove-labs/dnscamo/internal/protocol"
)

// dnssecAlphabet is the base32 alphabet used by DNSSEC: the RFC 4648
// §7 "extended hex" alphabet in its DNS-friendly lower-case form.
const dnssecAlphabet = "0123456789abcdefghijklmnopqrstuv"

var dnssecEncoding = base32.NewEncoding(dnssecAlphabet).WithPadding(base32.NoPadding)

// chunkSize is the number of plaintext octets packed into a single
// query-label chunk. 5 octets encode to exactly 8 base32 characters
// with no padding, which is why this size was chosen (spec.md §4.C).
const chunkSize = 5

// coverDomainQuery is the fixed two-label suffix appended to every
// request carrier name.
var coverDomainQuery = []string{"baidu", "com"}

// coverDomainReply is the fixed name used for additional records that
// carry response overflow once every mirrored question has one
// answer (spec.md §4.C step 2).
var coverDomainReply = message.Name{Labels: []string{"reply", "com"}}

const replyRecordTTL = 256

// EmbedRequest partitions data into chunkSize chunks and appends one
// Question per chunk to msg, per spec.md §4.C request-orientation
// embedding. msg must be a fresh request-oriented Message.
func EmbedRequest(msg *message.Message, data []byte) {
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]

		labels := make([]string, 0, 3)
		labels = append(labels, dnssecEncoding.EncodeToString(chunk))
		labels = append(labels, coverDomainQuery...)

		msg.Questions = append(msg.Questions, message.Question{
			Name:  message.Name{Labels: labels},
			Type:  protocol.TypeA,
			Class: protocol.ClassIN,
		})
	}
}

// EmbedResponse mirrors request's question section into msg, then
// writes data into Answer records (one per mirrored question) and, if
// data is not yet exhausted, into a run of fixed-name Additional
// records, per spec.md §4.C response-orientation embedding. msg must
// be a fresh response-oriented Message.
func EmbedResponse(msg *message.Message, data []byte, request *message.Message) {
	msg.Questions = append(msg.Questions, request.Questions...)

	pos := 0
	for _, q := range msg.Questions {
		k, ok := q.Type.ChunkSize()
		if !ok {
			k = 4
		}
		msg.Answers = append(msg.Answers, buildRecord(q.Name, q.Type, q.Class, data, &pos, k))
	}

	for pos < len(data) {
		msg.Additionals = append(msg.Additionals, buildRecord(coverDomainReply, protocol.TypeAAAA, protocol.ClassIN, data, &pos, 16))
	}
}

// buildRecord consumes up to k octets of data starting at *pos and
// returns the Record that carries them, advancing *pos. The final
// chunk may be shorter than k; the declared RDLength stays k and the
// shortfall is zero-padded during serialisation (spec.md §4.B/§4.C).
func buildRecord(name message.Name, rtype protocol.RecordType, class protocol.Class, data []byte, pos *int, k int) message.Record {
	end := *pos + k
	if end > len(data) {
		end = len(data)
	}
	chunk := data[*pos:end]
	*pos = end

	return message.Record{
		Name:     name,
		Type:     rtype,
		Class:    class,
		TTL:      replyRecordTTL,
		RDLength: uint16(k),
		RData:    chunk,
	}
}

// ExtractRequest recovers the embedded data from a request-oriented
// Message by base32-decoding the first label of each question's name
// and concatenating in question order (spec.md §4.C request-
// orientation extraction).
func ExtractRequest(msg *message.Message) ([]byte, error) {
	var out []byte
	for _, q := range msg.Questions {
		if q.Name.IsPointer() {
			return nil, &errors.PointerInCarrierError{Operation: "extract request"}
		}
		if len(q.Name.Labels) == 0 {
			continue
		}
		chunk, err := dnssecEncoding.DecodeString(q.Name.Labels[0])
		if err != nil {
			return nil, &errors.FormatError{Operation: "extract request", Message: "invalid base32 carrier label: " + err.Error()}
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// ExtractResponse recovers the embedded data from a response-oriented
// Message by concatenating Answer RDATA in order followed by
// Additional RDATA in order (spec.md §4.C response-orientation
// extraction). No trimming is performed here; trailing zero-padding
// introduced at embedding time is removed by internal/envelope.
func ExtractResponse(msg *message.Message) ([]byte, error) {
	var out []byte
	for _, a := range msg.Answers {
		out = append(out, a.RData...)
	}
	for _, a := range msg.Additionals {
		out = append(out, a.RData...)
	}
	return out, nil
}

// Extract dispatches to ExtractRequest or ExtractResponse based on
// msg's orientation.
func Extract(msg *message.Message) ([]byte, error) {
	if msg.IsResponse {
		return ExtractResponse(msg)
	}
	return ExtractRequest(msg)
}
