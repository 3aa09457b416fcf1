// Package decode turns one line of a channel into a typed sample.
//
// Each line is a JSON envelope:
//
//	{"event_type": "order.created", "schema_version": "v1",
//	 "encoding": "json", "payload": {...}}
//	{"event_type": "order.created", "encoding": "avro",
//	 "schema_id": 42, "payload_base64": "..."}
//
// Avro payloads may instead carry the Confluent wire header (magic byte 0
// followed by a big-endian uint32 schema id), in which case schema_id is
// optional.
package decode

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hamba/avro/v2"

	"eventschema/internal/eventtype"
	"eventschema/internal/schema"
)

const (
	EncodingJSON = "json"
	EncodingAvro = "avro"

	// DefaultTimestampField is read from payloads when no field is configured.
	DefaultTimestampField = "timestamp"
)

var (
	ErrNoEventType = errors.New("decode: envelope has no event_type")
	ErrNoSchema    = errors.New("decode: avro payload without schema id")
)

// Envelope is the JSON wrapper around every sample.
type Envelope struct {
	EventType     string          `json:"event_type"`
	SchemaVersion string          `json:"schema_version,omitempty"`
	Encoding      string          `json:"encoding,omitempty"`
	SchemaID      int             `json:"schema_id,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	PayloadBase64 string          `json:"payload_base64,omitempty"`
}

// SchemaLookup resolves registry ids to schemas.
type SchemaLookup interface {
	Lookup(ctx context.Context, id int) (*schema.AvroSchema, error)
}

// Record is a decoded envelope.
type Record struct {
	Channel       string
	Line          int
	EventType     string
	SchemaVersion string
	Encoded       bool
	Schema        *schema.AvroSchema
	Document      any
	Timestamp     eventtype.TimestampStyle
}

// Label identifies the record for provenance, e.g. "orders#12".
func (r Record) Label() string { return fmt.Sprintf("%s#%d", r.Channel, r.Line) }

// Decoder decodes envelopes. The zero value decodes JSON payloads only.
type Decoder struct {
	Registry       SchemaLookup
	TimestampField string

	// declared caches trees built from schemas by fingerprint.
	declared sync.Map
}

// DecodeLine decodes one envelope line.
func (d *Decoder) DecodeLine(ctx context.Context, channel string, line int, b []byte) (Record, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Record{}, fmt.Errorf("decode: %s#%d: envelope: %w", channel, line, err)
	}
	if strings.TrimSpace(env.EventType) == "" {
		return Record{}, fmt.Errorf("%w: %s#%d", ErrNoEventType, channel, line)
	}

	rec := Record{
		Channel:       channel,
		Line:          line,
		EventType:     env.EventType,
		SchemaVersion: env.SchemaVersion,
	}

	var err error
	switch strings.ToLower(env.Encoding) {
	case "", EncodingJSON:
		err = d.decodeJSON(env, &rec)
	case EncodingAvro:
		err = d.decodeAvro(ctx, env, &rec)
	default:
		err = fmt.Errorf("unknown encoding %q", env.Encoding)
	}
	if err != nil {
		return Record{}, fmt.Errorf("decode: %s: %w", rec.Label(), err)
	}

	rec.Timestamp = eventtype.ClassifyTimestamp(d.timestamp(rec.Document))
	return rec, nil
}

func (d *Decoder) decodeJSON(env Envelope, rec *Record) error {
	raw := []byte(env.Payload)
	if len(raw) == 0 && env.PayloadBase64 != "" {
		b, err := base64.StdEncoding.DecodeString(env.PayloadBase64)
		if err != nil {
			return fmt.Errorf("payload_base64: %w", err)
		}
		raw = b
	}
	if len(raw) == 0 {
		return fmt.Errorf("empty payload")
	}
	doc, err := schema.DecodeDocument(raw)
	if err != nil {
		return err
	}
	rec.Document = doc
	return nil
}

func (d *Decoder) decodeAvro(ctx context.Context, env Envelope, rec *Record) error {
	if env.PayloadBase64 == "" {
		return fmt.Errorf("avro payload must be payload_base64")
	}
	data, err := base64.StdEncoding.DecodeString(env.PayloadBase64)
	if err != nil {
		return fmt.Errorf("payload_base64: %w", err)
	}

	// An explicit schema_id only strips a header that agrees with it, since
	// a bare Avro body may start with a zero byte.
	id := env.SchemaID
	if hdrID, body, ok := SplitWireHeader(data); ok && (id == 0 || id == hdrID) {
		id, data = hdrID, body
	}
	if id == 0 {
		return ErrNoSchema
	}
	if d.Registry == nil {
		return fmt.Errorf("schema %d: no registry configured", id)
	}
	s, err := d.Registry.Lookup(ctx, id)
	if err != nil {
		return fmt.Errorf("schema %d: %w", id, err)
	}

	var doc any
	if err := avro.Unmarshal(s.Schema(), data, &doc); err != nil {
		return fmt.Errorf("avro payload (schema %d): %w", id, err)
	}
	rec.Encoded = true
	rec.Schema = s
	rec.Document = doc
	return nil
}

func (d *Decoder) timestamp(doc any) any {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	field := d.TimestampField
	if field == "" {
		field = DefaultTimestampField
	}
	return obj[field]
}

// Sample builds the structure for a record. Avro records contribute the
// declared schema; plain documents contribute their observed shape.
func (d *Decoder) Sample(rec Record) (eventtype.Sample, error) {
	s := eventtype.Sample{
		Channel:       rec.Channel,
		Label:         rec.Label(),
		SchemaVersion: rec.SchemaVersion,
		Encoded:       rec.Encoded,
		Schema:        rec.Schema,
		Timestamp:     rec.Timestamp,
	}

	if rec.Schema != nil {
		tree, err := d.declaredTree(rec.Schema)
		if err != nil {
			return eventtype.Sample{}, fmt.Errorf("decode: %s: %w", rec.Label(), err)
		}
		s.Structure = schema.DeclaredStructure(tree, rec.Schema)
		return s, nil
	}

	tree, err := schema.FromDocument(rec.Document, rec.EventType)
	if err != nil {
		return eventtype.Sample{}, fmt.Errorf("decode: %s: %w", rec.Label(), err)
	}
	s.Structure = schema.ObservedStructure(tree, rec.Label())
	return s, nil
}

func (d *Decoder) declaredTree(s *schema.AvroSchema) (*schema.Tree, error) {
	if t, ok := d.declared.Load(s.Fingerprint); ok {
		return t.(*schema.Tree), nil
	}
	t, err := schema.FromSchema(s)
	if err != nil {
		return nil, err
	}
	actual, _ := d.declared.LoadOrStore(s.Fingerprint, t)
	return actual.(*schema.Tree), nil
}
