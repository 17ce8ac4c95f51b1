// Package keyspace implements the DB: a keyed dictionary of value objects
// plus a parallel expiration index, with lazy and active expiration.
package keyspace

import (
	"time"

	"github.com/armandparser/goredis/internal/dict"
	"github.com/armandparser/goredis/internal/valueobject"
)

// SetFlags controls how Set treats an existing expiration entry.
type SetFlags uint8

const (
	// KeepTTL leaves any existing expiration untouched; without it, Set
	// clears a prior expiration before installing the new one.
	KeepTTL SetFlags = 1 << iota
)

// DB holds one keyspace's main dictionary and expiration index.
type DB struct {
	main    *dict.Dict[string, *valueobject.Value]
	expires *dict.Dict[string, int64]

	expireCursor dict.Cursor
}

// New creates an empty DB.
func New() *DB {
	return &DB{
		main:    dict.NewStringDict[*valueobject.Value](),
		expires: dict.NewStringDict[int64](),
	}
}

func nowMs() int64 { return time.Now().UnixMilli() }

// Lookup finds key's value, lazily expiring it first if its deadline has
// passed.
func (db *DB) Lookup(key string) (*valueobject.Value, bool) {
	if deadline, has := db.expires.Find(key); has {
		if nowMs() >= deadline {
			db.main.Delete(key)
			db.expires.Delete(key)
			return nil, false
		}
	}
	return db.main.Find(key)
}

// Set installs value under key. expireMs is a Unix millisecond deadline;
// pass 0 for no expiration. KeepTTL in flags preserves any existing
// expiration entry instead of replacing it; expireMs is then only
// installed when the key had no expiration.
func (db *DB) Set(key string, value *valueobject.Value, expireMs int64, flags SetFlags) {
	db.main.Replace(key, value)

	if flags&KeepTTL != 0 {
		if _, has := db.expires.Find(key); !has && expireMs != 0 {
			db.expires.Replace(key, expireMs)
		}
		return
	}
	db.expires.Delete(key)
	if expireMs != 0 {
		db.expires.Replace(key, expireMs)
	}
}

// Delete removes key from both the main dict and the expiration index,
// reporting whether it was present.
func (db *DB) Delete(key string) bool {
	db.expires.Delete(key)
	return db.main.Delete(key)
}

// Size returns the number of keys in the main dict, including keys whose
// deadline has passed but that have not yet been reaped.
func (db *DB) Size() int { return db.main.Size() }

// ScanExpiresResult reports one active-expire pass's outcome.
type ScanExpiresResult struct {
	Expired  int
	Iterated int
	Cursor   dict.Cursor
}

// ScanExpires walks the expiration index from the stored cursor, invoking
// callback for entries whose deadline has passed and deleting them from
// both indices. It runs in bounded slices (checking the wall clock every
// 16 iterations) and stops once it has spent budget or completed a full
// cycle of the dict.
func (db *DB) ScanExpires(budget time.Duration, callback func(key string)) ScanExpiresResult {
	start := time.Now()
	var res ScanExpiresResult
	cursor := db.expireCursor
	iterations := 0

	for {
		var toDelete []string
		next := db.expires.Scan(cursor, func(k string, deadline int64) {
			if nowMs() >= deadline {
				toDelete = append(toDelete, k)
			}
		})
		for _, k := range toDelete {
			db.main.Delete(k)
			db.expires.Delete(k)
			if callback != nil {
				callback(k)
			}
		}
		res.Expired += len(toDelete)
		res.Iterated++
		iterations++
		cursor = next

		if cursor == 0 {
			break
		}
		if iterations%16 == 0 && time.Since(start) >= budget {
			break
		}
	}

	db.expireCursor = cursor
	res.Cursor = cursor
	return res
}

// ShouldActiveExpire reports whether the ratio of expiring keys to total
// keys warrants running an active-expire cron pass.
func (db *DB) ShouldActiveExpire() bool {
	main := db.main.Size()
	if main == 0 {
		return false
	}
	return float64(db.expires.Size())/float64(main) > 0.5
}
