package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
)

const maxMetaLength = 1 << 20 // 1 MiB; MetaData itself is always small

// ReadFrame reads one [length | MetaData | Container] frame from r. The
// returned container is already gzip-decompressed; it is nil if the frame
// carried no Container (meta.ContainerSize == 0).
func ReadFrame(r io.Reader) (MetaData, []byte, error) {
	var length uint64
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return MetaData{}, nil, apperr.Wrap(apperr.Framing, "read length prefix", err)
	}
	if length == 0 || length > maxMetaLength {
		return MetaData{}, nil, apperr.New(apperr.Framing, "meta length out of bounds")
	}

	metaBytes := make([]byte, length)
	if _, err := io.ReadFull(r, metaBytes); err != nil {
		return MetaData{}, nil, apperr.Wrap(apperr.Framing, "read meta", err)
	}
	var meta MetaData
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return MetaData{}, nil, apperr.Wrap(apperr.Parse, "parse meta", err)
	}

	if meta.ContainerSize == 0 {
		return meta, nil, nil
	}

	compressed := make([]byte, meta.ContainerSize)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return MetaData{}, nil, apperr.Wrap(apperr.Framing, "read container", err)
	}
	container, err := decompress(compressed)
	if err != nil {
		return MetaData{}, nil, apperr.Wrap(apperr.Parse, "decompress container", err)
	}
	return meta, container, nil
}

// WriteFrame writes one [length | MetaData | Container] frame to w. It sets
// meta.ContainerSize itself from the compressed length of container, so
// callers pass the raw (uncompressed) container bytes, or nil for a
// bodyless reply.
func WriteFrame(w io.Writer, meta MetaData, container []byte) error {
	var compressed []byte
	if len(container) > 0 {
		var err error
		compressed, err = compress(container)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "compress container", err)
		}
	}
	meta.ContainerSize = uint64(len(compressed))

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshal meta", err)
	}

	if err := binary.Write(w, binary.BigEndian, uint64(len(metaBytes))); err != nil {
		return apperr.Wrap(apperr.Framing, "write length prefix", err)
	}
	if _, err := w.Write(metaBytes); err != nil {
		return apperr.Wrap(apperr.Framing, "write meta", err)
	}
	if len(compressed) > 0 {
		if _, err := w.Write(compressed); err != nil {
			return apperr.Wrap(apperr.Framing, "write container", err)
		}
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

// EncodeContainer marshals a structured Container value (ResultRequest,
// NewJobResponse, StatusResponse, ...) to the bytes WriteFrame expects.
func EncodeContainer(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeContainer unmarshals a Container payload produced by EncodeContainer
// into v.
func DecodeContainer(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return apperr.Wrap(apperr.Parse, "decode container", err)
	}
	return nil
}
