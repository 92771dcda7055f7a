// Package imaging reads the multi-page TIFFs the generator produces: one
// page per mass channel, with the channel's mass and target recorded as JSON
// in the page description.
package imaging

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"mibisweep/internal/services"
)

// Channel is one decoded page of a multiplexed TIFF.
type Channel struct {
	Mass   float64
	Target string
	Width  int
	Height int
	// Data holds row-major pixel counts.
	Data []float64
}

// Label renders the channel for file names: mass then target.
func (c Channel) Label() string {
	return fmt.Sprintf("%g_%s", c.Mass, c.Target)
}

// TIFF tag and value constants, limited to what the generator writes.
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagBitsPerSample    = 258
	tagCompression      = 259
	tagImageDescription = 270
	tagStripOffsets     = 273
	tagSamplesPerPixel  = 277
	tagRowsPerStrip     = 278
	tagStripByteCounts  = 279
	tagSampleFormat     = 339

	compressionNone       = 1
	compressionDeflate    = 8
	compressionOldDeflate = 32946

	sampleFormatUint  = 1
	sampleFormatFloat = 3
)

type pageDescription struct {
	Mass   float64 `json:"channel.mass"`
	Target string  `json:"channel.target"`
}

// ReadChannels decodes every channel page of a multiplexed TIFF. Pages whose
// description does not carry channel metadata (overlays, thumbnails) are
// skipped.
func ReadChannels(path string) ([]Channel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "imaging", "read tiff", path, err)
	}

	reader, err := newTIFFReader(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "imaging", "parse tiff", path, err)
	}

	var channels []Channel
	for _, page := range reader.pages {
		desc, ok := channelDescription(page)
		if !ok {
			continue
		}
		channel, err := decodePage(reader, page)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "imaging", "decode page",
				fmt.Sprintf("%s channel %g", path, desc.Mass), err)
		}
		channel.Mass = desc.Mass
		channel.Target = desc.Target
		channels = append(channels, channel)
	}
	if len(channels) == 0 {
		return nil, services.Wrap(services.ErrValidation, "imaging", "parse tiff",
			"no channel pages in "+path, nil)
	}
	return channels, nil
}

type tiffReader struct {
	data  []byte
	order binary.ByteOrder
	pages []ifd
}

type ifd map[uint16]entry

type entry struct {
	kind   uint16
	count  uint32
	values []uint64
	text   string
}

func newTIFFReader(data []byte) (*tiffReader, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("truncated header")
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF file")
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, fmt.Errorf("bad TIFF magic")
	}

	r := &tiffReader{data: data, order: order}
	offset := order.Uint32(data[4:8])
	for offset != 0 {
		page, next, err := r.readIFD(offset)
		if err != nil {
			return nil, err
		}
		r.pages = append(r.pages, page)
		if next == offset {
			return nil, fmt.Errorf("IFD loop at offset %d", offset)
		}
		offset = next
	}
	if len(r.pages) == 0 {
		return nil, fmt.Errorf("no pages")
	}
	return r, nil
}

func (r *tiffReader) readIFD(offset uint32) (ifd, uint32, error) {
	data := r.data
	if int(offset)+2 > len(data) {
		return nil, 0, fmt.Errorf("IFD offset %d out of range", offset)
	}
	count := int(r.order.Uint16(data[offset : offset+2]))
	base := int(offset) + 2
	if base+count*12+4 > len(data) {
		return nil, 0, fmt.Errorf("IFD at %d truncated", offset)
	}

	page := make(ifd, count)
	for i := 0; i < count; i++ {
		raw := data[base+i*12 : base+i*12+12]
		tag := r.order.Uint16(raw[0:2])
		ent, err := r.readEntry(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("tag %d: %w", tag, err)
		}
		page[tag] = ent
	}
	next := r.order.Uint32(data[base+count*12 : base+count*12+4])
	return page, next, nil
}

var typeSizes = map[uint16]int{
	1: 1, // BYTE
	2: 1, // ASCII
	3: 2, // SHORT
	4: 4, // LONG
	5: 8, // RATIONAL
}

func (r *tiffReader) readEntry(raw []byte) (entry, error) {
	kind := r.order.Uint16(raw[2:4])
	count := r.order.Uint32(raw[4:8])
	size, ok := typeSizes[kind]
	if !ok {
		// Unknown value types are carried but never interpreted.
		return entry{kind: kind, count: count}, nil
	}

	total := size * int(count)
	var payload []byte
	if total <= 4 {
		payload = raw[8 : 8+total]
	} else {
		offset := int(r.order.Uint32(raw[8:12]))
		if offset+total > len(r.data) {
			return entry{}, fmt.Errorf("value offset %d out of range", offset)
		}
		payload = r.data[offset : offset+total]
	}

	ent := entry{kind: kind, count: count}
	switch kind {
	case 2:
		ent.text = string(bytes.TrimRight(payload, "\x00"))
	case 1:
		for _, b := range payload {
			ent.values = append(ent.values, uint64(b))
		}
	case 3:
		for i := 0; i < int(count); i++ {
			ent.values = append(ent.values, uint64(r.order.Uint16(payload[i*2:])))
		}
	case 4:
		for i := 0; i < int(count); i++ {
			ent.values = append(ent.values, uint64(r.order.Uint32(payload[i*4:])))
		}
	case 5:
		for i := 0; i < int(count); i++ {
			num := r.order.Uint32(payload[i*8:])
			den := r.order.Uint32(payload[i*8+4:])
			if den == 0 {
				den = 1
			}
			ent.values = append(ent.values, uint64(num/den))
		}
	}
	return ent, nil
}

func (page ifd) first(tag uint16, fallback uint64) uint64 {
	if ent, ok := page[tag]; ok && len(ent.values) > 0 {
		return ent.values[0]
	}
	return fallback
}

func channelDescription(page ifd) (pageDescription, bool) {
	ent, ok := page[tagImageDescription]
	if !ok || ent.text == "" {
		return pageDescription{}, false
	}
	var desc pageDescription
	if err := json.Unmarshal([]byte(ent.text), &desc); err != nil {
		return pageDescription{}, false
	}
	if desc.Mass == 0 && desc.Target == "" {
		return pageDescription{}, false
	}
	return desc, true
}

func decodePage(r *tiffReader, page ifd) (Channel, error) {
	width := int(page.first(tagImageWidth, 0))
	height := int(page.first(tagImageLength, 0))
	if width <= 0 || height <= 0 {
		return Channel{}, fmt.Errorf("bad dimensions %dx%d", width, height)
	}
	if samples := page.first(tagSamplesPerPixel, 1); samples != 1 {
		return Channel{}, fmt.Errorf("unsupported samples per pixel %d", samples)
	}

	bits := int(page.first(tagBitsPerSample, 1))
	format := page.first(tagSampleFormat, sampleFormatUint)
	compression := page.first(tagCompression, compressionNone)

	offsets, ok := page[tagStripOffsets]
	if !ok {
		return Channel{}, fmt.Errorf("missing strip offsets")
	}
	counts, ok := page[tagStripByteCounts]
	if !ok {
		return Channel{}, fmt.Errorf("missing strip byte counts")
	}
	if len(offsets.values) != len(counts.values) {
		return Channel{}, fmt.Errorf("strip offset/count mismatch")
	}

	var pixels bytes.Buffer
	pixels.Grow(width * height * bits / 8)
	for i := range offsets.values {
		start := int(offsets.values[i])
		length := int(counts.values[i])
		if start+length > len(r.data) {
			return Channel{}, fmt.Errorf("strip %d out of range", i)
		}
		strip := r.data[start : start+length]
		switch compression {
		case compressionNone:
			pixels.Write(strip)
		case compressionDeflate, compressionOldDeflate:
			zr, err := zlib.NewReader(bytes.NewReader(strip))
			if err != nil {
				return Channel{}, fmt.Errorf("strip %d: %w", i, err)
			}
			if _, err := io.Copy(&pixels, zr); err != nil {
				zr.Close()
				return Channel{}, fmt.Errorf("strip %d: %w", i, err)
			}
			zr.Close()
		default:
			return Channel{}, fmt.Errorf("unsupported compression %d", compression)
		}
	}

	data, err := decodeSamples(pixels.Bytes(), width*height, bits, format, r.order)
	if err != nil {
		return Channel{}, err
	}
	return Channel{Width: width, Height: height, Data: data}, nil
}

func decodeSamples(raw []byte, n, bits int, format uint64, order binary.ByteOrder) ([]float64, error) {
	need := n * bits / 8
	if len(raw) < need {
		return nil, fmt.Errorf("pixel data truncated: have %d bytes, need %d", len(raw), need)
	}

	data := make([]float64, n)
	switch {
	case format == sampleFormatUint && bits == 8:
		for i := 0; i < n; i++ {
			data[i] = float64(raw[i])
		}
	case format == sampleFormatUint && bits == 16:
		for i := 0; i < n; i++ {
			data[i] = float64(order.Uint16(raw[i*2:]))
		}
	case format == sampleFormatUint && bits == 32:
		for i := 0; i < n; i++ {
			data[i] = float64(order.Uint32(raw[i*4:]))
		}
	case format == sampleFormatFloat && bits == 32:
		for i := 0; i < n; i++ {
			data[i] = float64(math.Float32frombits(order.Uint32(raw[i*4:])))
		}
	default:
		return nil, fmt.Errorf("unsupported sample format %d with %d bits", format, bits)
	}
	return data, nil
}
