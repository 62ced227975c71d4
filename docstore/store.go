// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package docstore persists data contracts, documents and their index entries in the
// block state, and runs queries over them.
//
// Key layout:
//
//	c ‖ contractID                                      → rlp contract
//	d ‖ contractID ‖ keccak(type) ‖ docID               → rlp record
//	i ‖ contractID ‖ keccak(type) ‖ keccak(index) ‖ tuple → docID (unique index)
//	i ‖ contractID ‖ keccak(type) ‖ keccak(index) ‖ tuple ‖ docID → docID
package docstore

import (
	"bytes"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/docstate/cache"
	"github.com/vechain/docstate/contract"
	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/log"
	"github.com/vechain/docstate/state"
	"github.com/vechain/docstate/thor"
	"github.com/vechain/docstate/validation"
)

var logger = log.WithContext("pkg", "docstore")

// Record is a stored document along with the storage fee paid for it.
type Record struct {
	Document   *document.Document
	PaidEpoch  uint16 // epoch the storage fee was paid in
	StorageFee uint64
}

type storedRecord struct {
	Document   []byte
	PaidEpoch  uint16
	StorageFee uint64
}

func encodeRecord(r *Record) ([]byte, error) {
	doc, err := document.Encode(r.Document)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&storedRecord{doc, r.PaidEpoch, r.StorageFee})
}

func decodeRecord(data []byte) (*Record, error) {
	var sr storedRecord
	if err := rlp.DecodeBytes(data, &sr); err != nil {
		return nil, errors.Wrap(err, "decode record")
	}
	doc, err := document.Decode(sr.Document)
	if err != nil {
		return nil, err
	}
	return &Record{doc, sr.PaidEpoch, sr.StorageFee}, nil
}

// Usage accumulates the storage work done through a Store.
type Usage struct {
	Reads        uint64
	Writes       uint64
	BytesRead    uint64
	BytesWritten uint64
	AddedBytes   uint64 // size of newly persisted keys and values
	RemovedBytes uint64 // size of deleted keys and values
}

// ContractCache caches decoded data contracts by the hash of their encoding.
type ContractCache = cache.LRU[thor.Bytes32, *contract.DataContract]

// NewContractCache creates a contract cache holding up to size contracts.
func NewContractCache(size int) (*ContractCache, error) {
	return cache.NewLRU[thor.Bytes32, *contract.DataContract](size)
}

// Store is the document storage engine over a block state.
type Store struct {
	st        *state.State
	contracts *ContractCache
	usage     Usage
}

// New creates a store. contracts may be nil.
func New(st *state.State, contracts *ContractCache) *Store {
	return &Store{st: st, contracts: contracts}
}

// State returns the underlying block state.
func (s *Store) State() *state.State {
	return s.st
}

// Usage returns the work accumulated since the last reset.
func (s *Store) Usage() Usage {
	return s.usage
}

// ResetUsage returns the accumulated work and clears it.
func (s *Store) ResetUsage() Usage {
	u := s.usage
	s.usage = Usage{}
	return u
}

func (s *Store) get(key []byte) ([]byte, error) {
	val, err := s.st.Get(key)
	if err != nil {
		return nil, err
	}
	s.usage.Reads++
	s.usage.BytesRead += uint64(len(val))
	return val, nil
}

func (s *Store) put(key, val []byte) {
	s.st.Put(key, val)
	s.usage.Writes++
	s.usage.BytesWritten += uint64(len(key) + len(val))
	s.usage.AddedBytes += uint64(len(key) + len(val))
}

func (s *Store) del(key []byte, size int) {
	s.st.Delete(key)
	s.usage.Writes++
	s.usage.RemovedBytes += uint64(size)
}

// PutContract stores a new data contract.
func (s *Store) PutContract(c *contract.DataContract) error {
	key := contractKey(c.ID)
	existing, err := s.get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return validation.NewStateConflict("data contract %s already exists", c.ID)
	}
	data, err := contract.Encode(c)
	if err != nil {
		return errors.Wrap(err, "encode contract")
	}
	s.put(key, data)
	return nil
}

// Contract returns the data contract of id, nil if absent.
func (s *Store) Contract(id thor.Bytes32) (*contract.DataContract, error) {
	data, err := s.get(contractKey(id))
	if err != nil || data == nil {
		return nil, err
	}
	// existence is decided by the state, the cache is keyed by content
	if s.contracts == nil {
		return contract.Decode(data)
	}
	return s.contracts.GetOrLoad(thor.Blake2b(data), func(thor.Bytes32) (*contract.DataContract, error) {
		return contract.Decode(data)
	})
}

// DocumentType resolves a document type of a stored contract.
func (s *Store) DocumentType(contractID thor.Bytes32, name string) (contract.DocumentType, error) {
	c, err := s.Contract(contractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, validation.NewStateConflict("data contract %s not found", contractID)
	}
	return c.DocumentType(name)
}

// Get returns the record of a document, nil if absent.
func (s *Store) Get(dt contract.DocumentType, id thor.Bytes32) (*Record, error) {
	data, err := s.get(documentKey(typePrefix(dt.DataContractID(), dt.Name()), id))
	if err != nil || data == nil {
		return nil, err
	}
	return decodeRecord(data)
}

type indexEntry struct {
	index *contract.Index
	key   []byte
}

// indexEntries lists the index keys of d. Documents with a null in a unique
// index property are not indexed under it.
func indexEntries(dt contract.DocumentType, d *document.Document) ([]indexEntry, error) {
	tp := typePrefix(dt.DataContractID(), dt.Name())
	var entries []indexEntry
	for _, idx := range dt.Indexes() {
		tuple, complete, err := documentTuple(dt, idx, d.Get)
		if err != nil {
			return nil, err
		}
		if idx.Unique && !complete {
			continue
		}
		key := append(indexPrefix(tp, idx.Name), tuple...)
		if !idx.Unique {
			key = append(key, d.ID[:]...)
		}
		entries = append(entries, indexEntry{idx, key})
	}
	return entries, nil
}

func (s *Store) putIndexes(dt contract.DocumentType, d *document.Document) error {
	entries, err := indexEntries(dt, d)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.index.Unique {
			holder, err := s.get(e.key)
			if err != nil {
				return err
			}
			if holder != nil && !bytes.Equal(holder, d.ID[:]) {
				return &validation.DuplicateUniqueIndexError{
					DocumentID:  d.ID,
					IndexName:   e.index.Name,
					Fields:      e.index.PropertyNames(),
					Contestable: e.index.IsContestable(textGetter(d)),
				}
			}
		}
		s.put(e.key, d.ID[:])
	}
	return nil
}

func (s *Store) deleteIndexes(dt contract.DocumentType, d *document.Document) error {
	entries, err := indexEntries(dt, d)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s.del(e.key, len(e.key)+len(d.ID))
	}
	return nil
}

// Insert stores a new document and its index entries.
func (s *Store) Insert(dt contract.DocumentType, r *Record) error {
	key := documentKey(typePrefix(dt.DataContractID(), dt.Name()), r.Document.ID)
	existing, err := s.get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return validation.NewStateConflict("document %s already exists", r.Document.ID)
	}
	data, err := encodeRecord(r)
	if err != nil {
		return err
	}
	if err := s.putIndexes(dt, r.Document); err != nil {
		return err
	}
	s.put(key, data)
	logger.Trace("document inserted", "type", dt.Name(), "id", r.Document.ID)
	return nil
}

// Replace overwrites a stored document and moves its index entries.
// It returns the replaced record.
func (s *Store) Replace(dt contract.DocumentType, r *Record) (*Record, error) {
	key := documentKey(typePrefix(dt.DataContractID(), dt.Name()), r.Document.ID)
	oldData, err := s.get(key)
	if err != nil {
		return nil, err
	}
	if oldData == nil {
		return nil, validation.NewStateConflict("document %s not found", r.Document.ID)
	}
	old, err := decodeRecord(oldData)
	if err != nil {
		return nil, err
	}
	data, err := encodeRecord(r)
	if err != nil {
		return nil, err
	}
	if err := s.deleteIndexes(dt, old.Document); err != nil {
		return nil, err
	}
	if err := s.putIndexes(dt, r.Document); err != nil {
		return nil, err
	}
	s.del(key, len(key)+len(oldData))
	s.put(key, data)
	return old, nil
}

// Delete removes a document and its index entries. It returns the deleted record.
func (s *Store) Delete(dt contract.DocumentType, id thor.Bytes32) (*Record, error) {
	key := documentKey(typePrefix(dt.DataContractID(), dt.Name()), id)
	data, err := s.get(key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, validation.NewStateConflict("document %s not found", id)
	}
	old, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if err := s.deleteIndexes(dt, old.Document); err != nil {
		return nil, err
	}
	s.del(key, len(key)+len(data))
	return old, nil
}

// textGetter adapts document values for contested index patterns.
func textGetter(d *document.Document) func(string) (string, bool) {
	return func(field string) (string, bool) {
		v, ok := d.Get(field)
		if !ok {
			return "", false
		}
		s, err := v.AsText()
		return s, err == nil
	}
}
