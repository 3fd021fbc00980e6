package ledger

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Key schema. Product ids and sequence numbers are encoded big-endian so that
// badger's byte-ordered iteration returns entries in append order.
//
//	product_count             -> uint64
//	product:<id>              -> Product JSON
//	hashidx:<hex hash>        -> uint64 product id
//	journey:<id>:<seq>        -> Checkpoint JSON
//	journeymeta:<id>          -> count uint64, last timestamp int64
//	cert:<id>:<seq>           -> Certification JSON
//	certmeta:<id>             -> count uint64
var (
	keyProductCount  = []byte("product_count")
	prefixProduct    = []byte("product:")
	prefixHashIndex  = []byte("hashidx:")
	prefixJourney    = []byte("journey:")
	prefixJourneyMet = []byte("journeymeta:")
	prefixCert       = []byte("cert:")
	prefixCertMeta   = []byte("certmeta:")
)

func productKey(id uint64) []byte {
	return append(append([]byte{}, prefixProduct...), uint64ToBytes(id)...)
}

func hashIndexKey(hash string) []byte {
	return append(append([]byte{}, prefixHashIndex...), []byte(hash)...)
}

func journeyKey(id, seq uint64) []byte {
	key := append(append([]byte{}, prefixJourney...), uint64ToBytes(id)...)
	key = append(key, ':')
	return append(key, uint64ToBytes(seq)...)
}

func journeyPrefix(id uint64) []byte {
	key := append(append([]byte{}, prefixJourney...), uint64ToBytes(id)...)
	return append(key, ':')
}

func journeyMetaKey(id uint64) []byte {
	return append(append([]byte{}, prefixJourneyMet...), uint64ToBytes(id)...)
}

func certKey(id, seq uint64) []byte {
	key := append(append([]byte{}, prefixCert...), uint64ToBytes(id)...)
	key = append(key, ':')
	return append(key, uint64ToBytes(seq)...)
}

func certPrefix(id uint64) []byte {
	key := append(append([]byte{}, prefixCert...), uint64ToBytes(id)...)
	return append(key, ':')
}

func certMetaKey(id uint64) []byte {
	return append(append([]byte{}, prefixCertMeta...), uint64ToBytes(id)...)
}

// appendMeta is the per-product bookkeeping for an append-only sequence.
type appendMeta struct {
	Count         uint64 `json:"count"`
	LastTimestamp int64  `json:"lastTimestamp"`
}

// getJSON reads a key and unmarshals its value into out. Returns
// badger.ErrKeyNotFound unchanged when the key is absent.
func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// setJSON marshals v and writes it under key.
func setJSON(txn *badger.Txn, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, raw)
}

// unmarshalValue decodes a stored JSON value into out.
func unmarshalValue(val []byte, out any) error {
	return json.Unmarshal(val, out)
}

// getUint64 reads a big-endian uint64 value, returning 0 when the key is
// absent.
func getUint64(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var n uint64
	err = item.Value(func(val []byte) error {
		n = bytesToUint64(val)
		return nil
	})
	return n, err
}

// uint64ToBytes converts a uint64 to its big-endian byte representation.
func uint64ToBytes(i uint64) []byte {
	buf := make([]byte, 8)

	buf[0] = byte(i >> 56)
	buf[1] = byte(i >> 48)
	buf[2] = byte(i >> 40)
	buf[3] = byte(i >> 32)
	buf[4] = byte(i >> 24)
	buf[5] = byte(i >> 16)
	buf[6] = byte(i >> 8)
	buf[7] = byte(i)

	return buf
}

// bytesToUint64 converts big-endian bytes back to a uint64.
func bytesToUint64(buf []byte) uint64 {
	if len(buf) < 8 {
		return 0
	}

	return uint64(buf[0])<<56 |
		uint64(buf[1])<<48 |
		uint64(buf[2])<<40 |
		uint64(buf[3])<<32 |
		uint64(buf[4])<<24 |
		uint64(buf[5])<<16 |
		uint64(buf[6])<<8 |
		uint64(buf[7])
}
