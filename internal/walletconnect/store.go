package walletconnect

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// ErrNoSession is returned by Load when no session has been saved.
var ErrNoSession = errors.New("walletconnect: no saved session")

var sessionKey = []byte("wc:session")

// SessionRecord is the persisted half of an approved session. With it a
// restart can resume without a fresh pairing.
type SessionRecord struct {
	Topic    string   `json:"topic"`
	Key      string   `json:"key"` // hex, 32 bytes
	ClientID string   `json:"clientId"`
	PeerID   string   `json:"peerId"`
	Accounts []string `json:"accounts"`
	ChainID  int64    `json:"chainId"`
}

// SessionStore keeps the active session record in Badger.
type SessionStore struct {
	db *badger.DB
}

func OpenSessionStore(path string) (*SessionStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "open session store")
	}
	return &SessionStore{db: db}, nil
}

func (s *SessionStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SessionStore) Save(record SessionRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey, b)
	})
}

func (s *SessionStore) Load() (*SessionRecord, error) {
	var record SessionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNoSession
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *SessionStore) Delete() error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(sessionKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
