package protoutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/protobuf/proto"
)

const (
	Length            = 4
	DefaultBufferSize = 2048
	// MaxFrameSize bounds a single control frame; requests are a handful of fields.
	MaxFrameSize = 1 << 20
)

var ErrFrameTooLarge = errors.New("protoutil: frame too large")

func DecodeReader(r io.Reader, dst proto.Message) error {
	length, err := dataLen(r)
	if err != nil {
		return err
	}

	if length > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	data := make([]byte, length)
	if _, decodeErr := io.ReadFull(r, data); decodeErr != nil {
		return decodeErr
	}

	return proto.Unmarshal(data, dst)
}

func dataLen(r io.Reader) (int, error) {
	var header [Length]byte

	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, err
	}

	return int(binary.BigEndian.Uint32(header[:])), nil
}

var encodePool = sync.Pool{
	New: func() any {
		b := make([]byte, Length, DefaultBufferSize)
		return &b
	},
}

func EncodeToWriter(w io.Writer, src proto.Message) error {
	bufPtr := encodePool.Get().(*[]byte)
	defer encodePool.Put(bufPtr)

	buf := (*bufPtr)[:Length]

	options := proto.MarshalOptions{
		Deterministic: true,
	}

	var err error
	buf, err = options.MarshalAppend(buf, src)
	if err != nil {
		return err
	}

	*bufPtr = buf

	msgLen := len(buf) - Length
	binary.BigEndian.PutUint32(buf[:Length], uint32(msgLen))

	_, err = w.Write(buf)
	return err
}
