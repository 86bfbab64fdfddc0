// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

// Package batchcodec serializes sequencer batches for submission. The first
// byte of an encoded batch selects the format.
package batchcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/offchainlabs/ctc/ledger"
	"github.com/offchainlabs/ctc/util/arbmath"
)

const (
	// CompactHeaderByte marks the fixed width format: start (5 bytes), total
	// elements (3), context count (3), 16 byte contexts and 3 byte length
	// prefixed transactions.
	CompactHeaderByte byte = 0x00
	// BrotliHeaderByte marks a brotli compressed rlp encoding.
	BrotliHeaderByte byte = 0x01
)

const (
	startWidth      = 5
	countWidth      = 3
	timestampWidth  = 5
	blockWidth      = 5
	txLengthWidth   = 3
	contextWidth    = 2*countWidth + timestampWidth + blockWidth
	compactFixedLen = 1 + startWidth + countWidth + countWidth
)

const maxDecompressedLen int64 = 1024 * 1024 * 16 // 16 MiB

var (
	ErrUnknownFormat = errors.New("unknown batch format")
	ErrTruncated     = errors.New("batch data truncated")
	ErrTrailingData  = errors.New("trailing data after batch")
)

func EncodeCompact(batch *ledger.SequencerBatch) ([]byte, error) {
	size := compactFixedLen + contextWidth*len(batch.Contexts)
	for _, tx := range batch.Transactions {
		size += txLengthWidth + len(tx)
	}
	out := make([]byte, size)
	out[0] = CompactHeaderByte
	w := compactWriter{buf: out, pos: 1}
	w.put(startWidth, batch.ShouldStartAtElement, "start element")
	w.put(countWidth, batch.TotalElementsToAppend, "total elements")
	w.put(countWidth, uint64(len(batch.Contexts)), "context count")
	for i, context := range batch.Contexts {
		name := fmt.Sprintf("context %d", i)
		w.put(countWidth, context.NumSequencedTransactions, name+" sequenced count")
		w.put(countWidth, context.NumSubsequentQueueTransactions, name+" queue count")
		w.put(timestampWidth, context.Timestamp, name+" timestamp")
		w.put(blockWidth, context.BlockNumber, name+" block number")
	}
	for i, tx := range batch.Transactions {
		w.put(txLengthWidth, uint64(len(tx)), fmt.Sprintf("transaction %d length", i))
		w.pos += copy(w.buf[w.pos:], tx)
	}
	if w.err != nil {
		return nil, w.err
	}
	return out, nil
}

type compactWriter struct {
	buf []byte
	pos int
	err error
}

func (w *compactWriter) put(width int, value uint64, field string) {
	if w.err != nil {
		return
	}
	if err := arbmath.PutUintN(w.buf[w.pos:w.pos+width], value); err != nil {
		w.err = fmt.Errorf("%s %d does not fit in %d bytes: %w", field, value, width, err)
		return
	}
	w.pos += width
}

func EncodeBrotli(batch *ledger.SequencerBatch) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(batch)
	if err != nil {
		return nil, err
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(BrotliHeaderByte)
	writer := brotli.NewWriterLevel(buf, brotli.BestCompression)
	if _, err := writer.Write(encoded); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a batch in either format.
func Decode(data []byte) (*ledger.SequencerBatch, error) {
	if len(data) == 0 {
		return nil, ErrTruncated
	}
	switch data[0] {
	case CompactHeaderByte:
		return decodeCompact(data[1:])
	case BrotliHeaderByte:
		return decodeBrotli(data[1:])
	default:
		return nil, fmt.Errorf("%w: header byte %#x", ErrUnknownFormat, data[0])
	}
}

type compactReader struct {
	data []byte
	pos  int
}

func (r *compactReader) next(width int) ([]byte, error) {
	if len(r.data)-r.pos < width {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, width, r.pos, len(r.data)-r.pos)
	}
	field := r.data[r.pos : r.pos+width]
	r.pos += width
	return field, nil
}

func (r *compactReader) uint(width int) (uint64, error) {
	field, err := r.next(width)
	if err != nil {
		return 0, err
	}
	return arbmath.UintN(field), nil
}

func decodeCompact(data []byte) (*ledger.SequencerBatch, error) {
	r := &compactReader{data: data}
	batch := &ledger.SequencerBatch{}
	var err error
	if batch.ShouldStartAtElement, err = r.uint(startWidth); err != nil {
		return nil, err
	}
	if batch.TotalElementsToAppend, err = r.uint(countWidth); err != nil {
		return nil, err
	}
	numContexts, err := r.uint(countWidth)
	if err != nil {
		return nil, err
	}
	if numContexts*contextWidth > uint64(len(data)-r.pos) {
		return nil, fmt.Errorf("%w: %d contexts", ErrTruncated, numContexts)
	}
	var numTransactions uint64
	batch.Contexts = make([]ledger.BatchContext, numContexts)
	for i := range batch.Contexts {
		context := &batch.Contexts[i]
		if context.NumSequencedTransactions, err = r.uint(countWidth); err != nil {
			return nil, err
		}
		if context.NumSubsequentQueueTransactions, err = r.uint(countWidth); err != nil {
			return nil, err
		}
		if context.Timestamp, err = r.uint(timestampWidth); err != nil {
			return nil, err
		}
		if context.BlockNumber, err = r.uint(blockWidth); err != nil {
			return nil, err
		}
		numTransactions += context.NumSequencedTransactions
	}
	for r.pos < len(data) {
		length, err := r.uint(txLengthWidth)
		if err != nil {
			return nil, err
		}
		tx, err := r.next(int(length))
		if err != nil {
			return nil, err
		}
		batch.Transactions = append(batch.Transactions, tx)
		if uint64(len(batch.Transactions)) > numTransactions {
			return nil, fmt.Errorf("%w: more than the %d transactions the contexts declare", ErrTrailingData, numTransactions)
		}
	}
	return batch, nil
}

func decodeBrotli(data []byte) (*ledger.SequencerBatch, error) {
	reader := io.LimitReader(brotli.NewReader(bytes.NewReader(data)), maxDecompressedLen)
	stream := rlp.NewStream(reader, uint64(maxDecompressedLen))
	var batch ledger.SequencerBatch
	if err := stream.Decode(&batch); err != nil {
		return nil, fmt.Errorf("decoding compressed batch: %w", err)
	}
	if _, err := stream.Raw(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return &batch, nil
}
