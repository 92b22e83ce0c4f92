package wavtest

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Chunk is a chunk found by ParseChunks.
type Chunk struct {
	ID   string
	Size uint32
	Data []byte
}

var (
	errFileTooSmall         = errors.New("file too small")
	errInvalidHeader        = errors.New("invalid RIFF/RF64/BW64 WAVE header")
	errChunkExceedsFileSize = errors.New("chunk exceeds file size")
)

// ParseChunks splits a file into chunks using the 32-bit header sizes only.
// A placeholder size runs to the end of the file.
func ParseChunks(data []byte) ([]Chunk, error) {
	if len(data) < riffHeaderSize {
		return nil, errFileTooSmall
	}

	switch string(data[0:4]) {
	case "RIFF", "RF64", "BW64":
	default:
		return nil, errInvalidHeader
	}

	if string(data[8:12]) != "WAVE" {
		return nil, errInvalidHeader
	}

	chunks := make([]Chunk, 0)

	offset := riffHeaderSize
	for offset+chunkHeaderSize <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		offset += chunkHeaderSize

		end := len(data)
		if size != Placeholder {
			end = offset + int(size)
		}

		if end > len(data) {
			return nil, fmt.Errorf("%w: %q", errChunkExceedsFileSize, id)
		}

		payload := append([]byte(nil), data[offset:end]...)
		chunks = append(chunks, Chunk{ID: id, Size: size, Data: payload})

		offset = end
		if size%2 == 1 && size != Placeholder {
			offset++
		}
	}

	return chunks, nil
}

// FindChunk returns the first chunk with id and its position, or nil and -1.
func FindChunk(chunks []Chunk, id string) (*Chunk, int) {
	for i := range chunks {
		if chunks[i].ID == id {
			return &chunks[i], i
		}
	}

	return nil, -1
}
