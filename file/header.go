package file

import (
	"github.com/xcdf-go/xcdf/errs"
	"github.com/xcdf-go/xcdf/frame"
	"github.com/xcdf-go/xcdf/schema"
)

// CurrentVersion is the file-format version this engine writes, per
// spec.md §6 ("versions 1-3"). Version 3 adds alias descriptors to the
// header and per-field global statistics to the trailer.
const CurrentVersion = 3

// Header is the decoded FileHeaderFrame payload, per spec.md §6.
type Header struct {
	Version    uint32
	TrailerPtr uint64
	Fields     []schema.FieldDescriptor
	Aliases    []schema.AliasDescriptor

	// raw holds a copy of the exact encoded payload bytes of this header,
	// trailer-pointer field included. Concatenated segments' headers are
	// compared with SchemaEquivalent, not with these bytes.
	raw []byte
}

// WriteHeader emits a FileHeaderFrame for sch/aliases with the given
// trailerPtr (0 when not yet known). The header frame is always written
// uncompressed, regardless of the engine's deflate option: Close rewrites
// this exact frame in place once the real trailer pointer is known, which
// only works if re-encoding the same schema/version/trailerPtr always
// produces a byte-for-byte identical frame length — a guarantee deflate's
// entropy coding does not give.
func WriteHeader(sink Sink, version uint32, trailerPtr uint64, sch *schema.Schema) error {
	fr := frame.NewFrame(frame.TypeFileHeader)
	fr.PutU32(version)
	fr.PutU64(trailerPtr)

	fields := sch.Fields()
	fr.PutU32(uint32(len(fields)))
	for _, fd := range fields {
		fr.PutString(fd.Name)
		fr.PutChar(byte(fd.Type))
		fr.PutU64(fd.RawResolution)
		fr.PutString(fd.ParentName)
	}

	if version >= 3 {
		aliases := sch.Aliases()
		fr.PutU32(uint32(len(aliases)))
		for _, ad := range aliases {
			fr.PutString(ad.Name)
			fr.PutString(ad.Expression)
			fr.PutChar(byte(ad.Type))
		}
	}

	return fr.Write(sink, false)
}

// ReadHeader decodes a FileHeaderFrame from source, also keeping a copy
// of its exact payload bytes.
func ReadHeader(source Source) (*Header, error) {
	fr, err := frame.ReadFrame(source)
	if err != nil {
		return nil, err
	}
	if fr.Type != frame.TypeFileHeader {
		return nil, errs.ErrCorruptFrame
	}

	return decodeHeaderPayload(fr)
}

// decodeHeaderPayload parses an already-read FileHeaderFrame, for callers
// (the sequential concatenation scan) that dispatch on frame type
// themselves before knowing which decoder to call.
func decodeHeaderPayload(fr *frame.Frame) (*Header, error) {
	h := &Header{raw: append([]byte(nil), fr.Payload.Bytes()...)}
	var err error

	h.Version, err = fr.GetU32()
	if err != nil {
		return nil, errs.ErrCorruptFrame
	}
	h.TrailerPtr, err = fr.GetU64()
	if err != nil {
		return nil, errs.ErrCorruptFrame
	}

	nFields, err := fr.GetU32()
	if err != nil {
		return nil, errs.ErrCorruptFrame
	}

	h.Fields = make([]schema.FieldDescriptor, nFields)
	for i := range h.Fields {
		name, err := fr.GetString()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		typByte, err := fr.GetChar()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		res, err := fr.GetU64()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}
		parent, err := fr.GetString()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}

		h.Fields[i] = schema.FieldDescriptor{
			Name: name, Type: schema.FieldType(typByte), RawResolution: res,
			ParentName: parent, ParentIndex: -1,
		}
	}

	if h.Version >= 3 {
		nAliases, err := fr.GetU32()
		if err != nil {
			return nil, errs.ErrCorruptFrame
		}

		h.Aliases = make([]schema.AliasDescriptor, nAliases)
		for i := range h.Aliases {
			name, err := fr.GetString()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			exprStr, err := fr.GetString()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}
			typByte, err := fr.GetChar()
			if err != nil {
				return nil, errs.ErrCorruptFrame
			}

			h.Aliases[i] = schema.AliasDescriptor{Name: name, Expression: exprStr, Type: schema.FieldType(typByte)}
		}
	}

	return h, nil
}

// SchemaEquivalent reports whether h describes the same field/alias graph
// as other, ignoring version and trailer pointer — the check spec.md §6
// requires for accepting a concatenated segment.
func (h *Header) SchemaEquivalent(other *Header) bool {
	if len(h.Fields) != len(other.Fields) || len(h.Aliases) != len(other.Aliases) {
		return false
	}
	for i, fd := range h.Fields {
		od := other.Fields[i]
		if fd.Name != od.Name || fd.Type != od.Type || fd.RawResolution != od.RawResolution || fd.ParentName != od.ParentName {
			return false
		}
	}
	for i, ad := range h.Aliases {
		od := other.Aliases[i]
		if ad.Name != od.Name || ad.Expression != od.Expression || ad.Type != od.Type {
			return false
		}
	}

	return true
}

// rewriteTrailerPtr re-encodes and rewrites the whole file header frame in
// place at off with the real trailer pointer, used by Close once the
// trailer has been written and its offset is known. Re-encoding (rather
// than patching 8 bytes) keeps the frame's checksum correct; it only
// works because WriteHeader always writes uncompressed, so the same
// version/schema/aliases always produce the exact same frame length.
func rewriteTrailerPtr(sink Sink, off int64, version uint32, trailerPtr uint64, sch *schema.Schema) error {
	if !sink.Seekable() {
		return errs.ErrSeekUnsupported
	}

	if err := sink.Seek(off); err != nil {
		return err
	}

	return WriteHeader(sink, version, trailerPtr, sch)
}
