package vecindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Document is a piece of text plus caller-defined metadata. Content is the
// identity of the document: two documents with the same content are the
// same entry.
type Document[M any] struct {
	Content  string `json:"content"`
	Metadata M      `json:"metadata"`
}

// NewDocument builds a Document.
func NewDocument[M any](content string, metadata M) Document[M] {
	return Document[M]{Content: content, Metadata: metadata}
}

// VectorDocument is a stored document together with its embedding.
type VectorDocument[M any] struct {
	Document[M]
	Vector []float32 `json:"vector"`
}

// SearchResult is a document ranked by a similarity search.
type SearchResult[M any] struct {
	Document[M]
	Score float64 `json:"score"`
}

// Filter narrows the candidates of a search. It is called once per
// candidate and must not block.
type Filter[M any] func(Document[M]) bool

// EmbedFunc turns text into a vector. An embed.Embedder's Embed method
// value satisfies it.
type EmbedFunc func(ctx context.Context, content string) ([]float32, error)

// Record is the serialized form of one entry. Both its JSON and msgpack
// encodings are the positional array [content, vector, metadata]; the
// metadata element is left out of the JSON form when it encodes to null.
type Record[M any] struct {
	Content  string
	Vector   []float32
	Metadata M
}

var jsonNull = []byte("null")

func (r Record[M]) MarshalJSON() ([]byte, error) {
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return nil, err
	}
	elems := []any{r.Content, r.Vector}
	if !bytes.Equal(meta, jsonNull) {
		elems = append(elems, json.RawMessage(meta))
	}
	return json.Marshal(elems)
}

func (r *Record[M]) UnmarshalJSON(data []byte) error {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return err
	}
	if len(elems) < 2 || len(elems) > 3 {
		return fmt.Errorf("vecindex: record has %d elements, want 2 or 3", len(elems))
	}
	var rec Record[M]
	if err := json.Unmarshal(elems[0], &rec.Content); err != nil {
		return fmt.Errorf("vecindex: record content: %w", err)
	}
	if err := json.Unmarshal(elems[1], &rec.Vector); err != nil {
		return fmt.Errorf("vecindex: record %q vector: %w", rec.Content, err)
	}
	if len(elems) == 3 && !bytes.Equal(elems[2], jsonNull) {
		if err := json.Unmarshal(elems[2], &rec.Metadata); err != nil {
			return fmt.Errorf("vecindex: record %q metadata: %w", rec.Content, err)
		}
	}
	*r = rec
	return nil
}

var (
	_ msgpack.CustomEncoder = Record[any]{}
	_ msgpack.CustomDecoder = (*Record[any])(nil)
)

func (r Record[M]) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeArrayLen(3); err != nil {
		return err
	}
	if err := enc.EncodeString(r.Content); err != nil {
		return err
	}
	if err := enc.Encode(r.Vector); err != nil {
		return err
	}
	return enc.Encode(r.Metadata)
}

func (r *Record[M]) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n < 2 || n > 3 {
		return fmt.Errorf("vecindex: record has %d elements, want 2 or 3", n)
	}
	var rec Record[M]
	if rec.Content, err = dec.DecodeString(); err != nil {
		return fmt.Errorf("vecindex: record content: %w", err)
	}
	if err := dec.Decode(&rec.Vector); err != nil {
		return fmt.Errorf("vecindex: record %q vector: %w", rec.Content, err)
	}
	if n == 3 {
		if err := dec.Decode(&rec.Metadata); err != nil {
			return fmt.Errorf("vecindex: record %q metadata: %w", rec.Content, err)
		}
	}
	*r = rec
	return nil
}
