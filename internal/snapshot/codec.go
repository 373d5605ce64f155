// Package snapshot converts the account table to a versioned byte blob and
// back, and moves that blob to and from a durable Region.
//
// Layout: a sequence of tagged records, each
//
//	tag (1 byte) | length (2 bytes, big endian) | payload (length bytes)
//
// starting with a BOF record holding the exact format magic, followed by one
// Account record per account in table order, and ending with an EOF record
// holding the account count and an xxhash64 of every byte before it.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/tinoosan/wallet/internal/errs"
	"github.com/tinoosan/wallet/internal/ledger"
)

type tagType byte

// record types in a snapshot blob
const (
	taggedBOF     tagType = 0
	taggedEOF     tagType = 1
	taggedAccount tagType = 2
)

// exact match is required on restore
var bofData = []byte("wallet-ledger v1")

const (
	headerSize      = 3
	maxRecordLength = 65535
	eofPayloadSize  = 4 + 8
	identitySize    = 16
)

// Encode serialises accounts, in order, into a snapshot blob.
func Encode(accounts []ledger.Account) []byte {
	buf := make([]byte, 0, headerSize+len(bofData)+len(accounts)*(headerSize+identitySize+binary.MaxVarintLen64)+headerSize+eofPayloadSize)
	buf = appendRecord(buf, taggedBOF, bofData)

	payload := make([]byte, 0, identitySize+binary.MaxVarintLen64)
	for _, a := range accounts {
		payload = append(payload[:0], a.Identity[:]...)
		payload = binary.AppendUvarint(payload, a.Balance)
		buf = appendRecord(buf, taggedAccount, payload)
	}

	eof := make([]byte, eofPayloadSize)
	binary.BigEndian.PutUint32(eof[:4], uint32(len(accounts)))
	binary.BigEndian.PutUint64(eof[4:], xxhash.Sum64(buf))
	return appendRecord(buf, taggedEOF, eof)
}

// Decode rebuilds the account table from a snapshot blob. Any deviation from
// the layout is reported as errs.ErrCorruptSnapshot; it never yields an empty
// table for bad input.
func Decode(data []byte) ([]ledger.Account, error) {
	if len(data) == 0 {
		return nil, corrupt("empty snapshot")
	}
	r := bytes.NewReader(data)

	tag, packed, err := readRecord(r)
	if err != nil {
		return nil, corrupt("read BOF: %v", err)
	}
	if tag != taggedBOF {
		return nil, corrupt("expected BOF: %d but read: %d", taggedBOF, tag)
	}
	if !bytes.Equal(bofData, packed) {
		return nil, corrupt("expected BOF: %q but read: %q", bofData, packed)
	}

	accounts := make([]ledger.Account, 0)
	seen := make(map[ledger.Identity]struct{})

restore_loop:
	for {
		offset := len(data) - r.Len()
		tag, packed, err := readRecord(r)
		if err != nil {
			return nil, corrupt("record at offset %d: %v", offset, err)
		}
		switch tag {

		case taggedEOF:
			if len(packed) != eofPayloadSize {
				return nil, corrupt("EOF payload length: %d expected: %d", len(packed), eofPayloadSize)
			}
			count := binary.BigEndian.Uint32(packed[:4])
			if int(count) != len(accounts) {
				return nil, corrupt("account count: %d expected: %d", len(accounts), count)
			}
			sum := binary.BigEndian.Uint64(packed[4:])
			if actual := xxhash.Sum64(data[:offset]); actual != sum {
				return nil, corrupt("checksum: %016x expected: %016x", actual, sum)
			}
			break restore_loop

		case taggedAccount:
			a, err := unpackAccount(packed)
			if err != nil {
				return nil, corrupt("account %d: %v", len(accounts), err)
			}
			if _, dup := seen[a.Identity]; dup {
				return nil, corrupt("duplicate identity: %s", a.Identity)
			}
			seen[a.Identity] = struct{}{}
			accounts = append(accounts, a)

		default:
			return nil, corrupt("read invalid tag: 0x%02x", byte(tag))
		}
	}

	if r.Len() != 0 {
		return nil, corrupt("%d trailing bytes after EOF", r.Len())
	}
	return accounts, nil
}

func unpackAccount(packed []byte) (ledger.Account, error) {
	if len(packed) <= identitySize {
		return ledger.Account{}, fmt.Errorf("record too short: %d", len(packed))
	}
	id, err := uuid.FromBytes(packed[:identitySize])
	if err != nil {
		return ledger.Account{}, err
	}
	balance, n := binary.Uvarint(packed[identitySize:])
	if n <= 0 {
		return ledger.Account{}, fmt.Errorf("bad balance varint")
	}
	if identitySize+n != len(packed) {
		return ledger.Account{}, fmt.Errorf("%d unexpected bytes after balance", len(packed)-identitySize-n)
	}
	return ledger.Account{Identity: id, Balance: balance}, nil
}

// append a tagged record
func appendRecord(buf []byte, tag tagType, packed []byte) []byte {
	if len(packed) > maxRecordLength {
		panic(fmt.Sprintf("snapshot record length: %d > %d", len(packed), maxRecordLength))
	}
	buf = append(buf, byte(tag))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(packed)))
	return append(buf, packed...)
}

func readRecord(r *bytes.Reader) (tagType, []byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return taggedEOF, nil, fmt.Errorf("read record header: %w", err)
	}
	count := int(binary.BigEndian.Uint16(header[1:]))
	packed := make([]byte, count)
	if _, err := io.ReadFull(r, packed); err != nil {
		return taggedEOF, nil, fmt.Errorf("read record payload of %d bytes: %w", count, err)
	}
	return tagType(header[0]), packed, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrCorruptSnapshot, fmt.Sprintf(format, args...))
}
