package store

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	errZstdInit error
)

func initZstd() error {
	zstdOnce.Do(func() {
		var err error
		zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			errZstdInit = fmt.Errorf("create zstd encoder: %w", err)
			return
		}
		zstdDecoder, err = zstd.NewReader(nil)
		if err != nil {
			errZstdInit = fmt.Errorf("create zstd decoder: %w", err)
		}
	})
	return errZstdInit
}

func compress(src []byte) ([]byte, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(src, make([]byte, 0, len(src))), nil
}

func decompress(src []byte) ([]byte, error) {
	if err := initZstd(); err != nil {
		return nil, err
	}
	out, err := zstdDecoder.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
