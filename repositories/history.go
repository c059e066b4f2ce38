//go:generate go run go.uber.org/mock/mockgen -source=history.go -destination=../mocks/mock_history.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"chat-relay/domain"
)

// HistoryStore persists accepted messages in BadgerDB.
type HistoryStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewHistoryStore(db *badger.DB, log *slog.Logger) HistoryStore {
	return HistoryStore{db: db, log: log}
}

// row is the durable record layout. The session id and address hash are
// provenance only: Recent rebuilds domain.Message with them, and the
// public projection strips them before anything reaches a client.
type row struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	IPHash string `json:"ip_hash"`
	Author string `json:"author"`
	Text   string `json:"text"`
	At     int64  `json:"at"`
}

const keyPrefix = "msg:"

// Append persists a message. The key is "msg:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding makes lexicographic order chronological.
//  2. The UUID suffix disambiguates two messages accepted in the same
//     nanosecond.
func (s HistoryStore) Append(message domain.Message) error {
	key := fmt.Sprintf("%s%019d:%s", keyPrefix, message.At.UnixNano(), message.ID)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// Recent returns at most limit of the newest messages, oldest first.
// It iterates the key space in reverse to find the tail, then flips the
// result back into chronological order.
func (s HistoryStore) Recent(limit int) ([]domain.Message, error) {
	var rows []row
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key, then walk backwards
		seekKey := append([]byte{}, prefix...)
		seekKey = append(seekKey, []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(rows) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var r row
				if err := json.Unmarshal(value, &r); err != nil {
					return err
				}
				rows = append(rows, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(rows))
	for _, r := range rows {
		message, err := toMessage(r)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return lo.Reverse(messages), nil
}

func fromMessage(message domain.Message) row {
	return row{
		ID:     message.ID.String(),
		UserID: string(message.SessionID),
		IPHash: message.IdentityToken,
		Author: message.DisplayName,
		Text:   message.Text,
		At:     message.At.UnixNano(),
	}
}

func toMessage(r row) (domain.Message, error) {
	parsedID, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:            parsedID,
		SessionID:     domain.SessionID(r.UserID),
		IdentityToken: r.IPHash,
		DisplayName:   r.Author,
		Text:          r.Text,
		At:            time.Unix(0, r.At).UTC(),
	}, nil
}
