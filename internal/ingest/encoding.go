package ingest

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

// candidateEncodings is the ordered ladder tried for delimited payloads.
// UTF-8 is validated directly; the legacy single-byte encodings are
// decoded via x/text.
var candidateEncodings = []struct {
	name    string
	decoder *encoding.Decoder
}{
	{"iso-8859-1", charmap.ISO8859_1.NewDecoder()},
	{"windows-1252", charmap.Windows1252.NewDecoder()},
}

// decodeText decodes raw payload bytes using the first candidate encoding
// that succeeds. Returns the decoded text and the encoding name.
func decodeText(payload []byte) (string, string, error) {
	if utf8.Valid(payload) {
		return string(payload), "utf-8", nil
	}
	for _, cand := range candidateEncodings {
		decoded, err := cand.decoder.Bytes(payload)
		if err != nil {
			continue
		}
		return string(decoded), cand.name, nil
	}
	return "", "", fmt.Errorf("%w: tried utf-8, iso-8859-1, windows-1252", domain.ErrUndecodableEncoding)
}
