// Package internal hosts operational tooling that is not part of the
// relay's public surface.
package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// InspectRow is one store entry rendered for the inspector.
type InspectRow struct {
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
	EntityID  string `json:"entity_id"`
	Size      int    `json:"size_bytes"`
}

type StatsProvider func() map[string]any

type inspectPage struct {
	Prefix string         `json:"prefix"`
	Stats  map[string]any `json:"stats"`
	Items  []InspectRow   `json:"items"`
}

// StartDebugServer exposes a read-only JSON view of the badger store and
// the engine counters on /inspect. Meant for local operation, it binds
// all interfaces and carries no authentication.
func StartDebugServer(log *slog.Logger, db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		page := inspectPage{Prefix: prefix, Stats: make(map[string]any)}
		if statsProvider != nil {
			page.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					page.Items = append(page.Items, mapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(page)
	})

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", port)
		log.Info("Debug inspector listening", "address", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("Debug inspector stopped", "error", err)
		}
	}()
}

func mapRow(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Size:      len(val),
	}
	parts := strings.Split(key, ":")
	if len(parts) >= 3 {
		if tsNano, err := strconv.ParseInt(parts[1], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = parts[2]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}
	}
	return row
}
