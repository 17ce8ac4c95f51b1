// Package command implements the verb registry and handlers dispatched by
// the client's input pipeline.
package command

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/armandparser/goredis/internal/keyspace"
	"github.com/armandparser/goredis/internal/list"
	"github.com/armandparser/goredis/internal/resp"
	"github.com/armandparser/goredis/internal/set"
	"github.com/armandparser/goredis/internal/valueobject"
	"github.com/armandparser/goredis/internal/zset"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// Handler executes one command against db, returning its RESP-encoded
// reply.
type Handler func(db *keyspace.DB, args []string) []byte

// Registry maps uppercased verbs to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds the registry with every core command wired in.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.register("SET", cmdSet)
	r.register("GET", cmdGet)
	r.register("DEL", cmdDel)
	r.register("SADD", cmdSAdd)
	r.register("SREM", cmdSRem)
	r.register("SISMEMBER", cmdSIsMember)
	r.register("SMEMBERS", cmdSMembers)
	r.register("SCARD", cmdSCard)
	r.register("ZADD", cmdZAdd)
	r.register("ZREM", cmdZRem)
	r.register("ZRANK", cmdZRank)
	r.register("ZSCORE", cmdZScore)
	r.register("ZCARD", cmdZCard)
	r.register("ZRANGE", cmdZRange)
	r.register("LPUSH", cmdLPush)
	r.register("RPUSH", cmdRPush)
	r.register("LPOP", cmdLPop)
	r.register("RPOP", cmdRPop)
	return r
}

func (r *Registry) register(verb string, h Handler) { r.handlers[verb] = h }

// Lookup finds the handler for an already-uppercased verb.
func (r *Registry) Lookup(verb string) (Handler, bool) {
	h, ok := r.handlers[verb]
	return h, ok
}

// Dispatch uppercases verb, looks it up, and invokes it against db;
// ok is false for an unknown verb and the caller must not reply at all,
// matching the "unknown command: no reply" contract.
func (r *Registry) Dispatch(db *keyspace.DB, verb string, args []string) ([]byte, bool) {
	h, ok := r.handlers[strings.ToUpper(verb)]
	if !ok {
		return nil, false
	}
	return h(db, args), true
}

func wrongType() []byte { return resp.Error("WRONGTYPE " + valueobject.ErrWrongType.Error()) }

func cmdSet(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 {
		return resp.ErrorSentinel
	}
	var expireMs int64
	if len(args) >= 3 {
		ttl, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return resp.ErrorSentinel
		}
		expireMs = nowMs() + ttl
	}
	db.Set(args[0], valueobject.CreateString([]byte(args[1])), expireMs, 0)
	return resp.SimpleString("OK")
}

func cmdGet(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	v, ok := db.Lookup(args[0])
	if !ok {
		return resp.NullBulkString
	}
	s, err := v.AsString()
	if err != nil {
		return wrongType()
	}
	return resp.BulkString(s)
}

func cmdDel(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	if db.Delete(args[0]) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func lookupSet(db *keyspace.DB, key string, create bool) (*set.Set, bool, []byte) {
	v, ok := db.Lookup(key)
	if !ok {
		if !create {
			return nil, false, nil
		}
		nv := valueobject.CreateSet()
		db.Set(key, nv, 0, keyspace.KeepTTL)
		s, _ := nv.AsSet()
		return s, true, nil
	}
	s, err := v.AsSet()
	if err != nil {
		return nil, false, wrongType()
	}
	return s, true, nil
}

func cmdSAdd(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 {
		return resp.ErrorSentinel
	}
	s, _, errReply := lookupSet(db, args[0], true)
	if errReply != nil {
		return errReply
	}
	added := 0
	for _, m := range args[1:] {
		if s.Add(m) {
			added++
		}
	}
	return resp.Integer(int64(added))
}

func cmdSRem(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 {
		return resp.ErrorSentinel
	}
	s, found, errReply := lookupSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.Integer(0)
	}
	removed := 0
	for _, m := range args[1:] {
		if s.Remove(m) {
			removed++
		}
	}
	return resp.Integer(int64(removed))
}

func cmdSIsMember(db *keyspace.DB, args []string) []byte {
	if len(args) != 2 {
		return resp.ErrorSentinel
	}
	s, found, errReply := lookupSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found || !s.Contains(args[1]) {
		return resp.Integer(0)
	}
	return resp.Integer(1)
}

func cmdSMembers(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	s, found, errReply := lookupSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.Array(nil)
	}
	members := s.ListAll()
	elems := make([][]byte, len(members))
	for i, m := range members {
		elems[i] = resp.BulkString([]byte(m))
	}
	return resp.Array(elems)
}

func cmdSCard(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	s, found, errReply := lookupSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.Integer(0)
	}
	return resp.Integer(int64(s.Size()))
}

func lookupZSet(db *keyspace.DB, key string, create bool) (*zset.ZSet, bool, []byte) {
	v, ok := db.Lookup(key)
	if !ok {
		if !create {
			return nil, false, nil
		}
		nv := valueobject.CreateZSet()
		db.Set(key, nv, 0, keyspace.KeepTTL)
		z, _ := nv.AsZSet()
		return z, true, nil
	}
	z, err := v.AsZSet()
	if err != nil {
		return nil, false, wrongType()
	}
	return z, true, nil
}

func cmdZAdd(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 || len(args)%2 != 0 {
		return resp.ErrorSentinel
	}
	z, _, errReply := lookupZSet(db, args[0], true)
	if errReply != nil {
		return errReply
	}
	added := 0
	for i := 1; i+1 < len(args); i += 2 {
		score, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return resp.ErrorSentinel
		}
		if z.InsertOrUpdate(args[i+1], score) {
			added++
		}
	}
	return resp.Integer(int64(added))
}

func cmdZRem(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 {
		return resp.ErrorSentinel
	}
	z, found, errReply := lookupZSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.Integer(0)
	}
	removed := 0
	for _, m := range args[1:] {
		if z.Delete(m) {
			removed++
		}
	}
	return resp.Integer(int64(removed))
}

func cmdZRank(db *keyspace.DB, args []string) []byte {
	if len(args) != 2 {
		return resp.ErrorSentinel
	}
	z, found, errReply := lookupZSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.NullBulkString
	}
	r, ok := z.RankOf(args[1])
	if !ok {
		return resp.NullBulkString
	}
	return resp.Integer(int64(r))
}

func cmdZScore(db *keyspace.DB, args []string) []byte {
	if len(args) != 2 {
		return resp.ErrorSentinel
	}
	z, found, errReply := lookupZSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.NullBulkString
	}
	score, ok := z.ScoreOf(args[1])
	if !ok {
		return resp.NullBulkString
	}
	return resp.BulkString([]byte(formatScore(score)))
}

func cmdZCard(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	z, found, errReply := lookupZSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.Integer(0)
	}
	return resp.Integer(int64(z.Size()))
}

func cmdZRange(db *keyspace.DB, args []string) []byte {
	if len(args) < 3 {
		return resp.ErrorSentinel
	}
	z, found, errReply := lookupZSet(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.Array(nil)
	}

	byScore := false
	reverse := false
	limitOffset, limitCount := 0, -1
	rest := args[3:]
	for i := 0; i < len(rest); i++ {
		switch strings.ToUpper(rest[i]) {
		case "BYSCORE":
			byScore = true
		case "REV":
			reverse = true
		case "LIMIT":
			if i+2 >= len(rest) {
				return resp.ErrorSentinel
			}
			off, err1 := strconv.Atoi(rest[i+1])
			cnt, err2 := strconv.Atoi(rest[i+2])
			if err1 != nil || err2 != nil {
				return resp.ErrorSentinel
			}
			limitOffset, limitCount = off, cnt
			i += 2
		}
	}

	var results []zset.KeyScore
	if byScore {
		min, minEx, err1 := parseScoreBound(args[1])
		max, maxEx, err2 := parseScoreBound(args[2])
		if err1 != nil || err2 != nil {
			return resp.ErrorSentinel
		}
		results = z.RangeByScore(zset.RangeByScoreSpec{
			Min: min, Max: max, MinEx: minEx, MaxEx: maxEx,
			Reverse: reverse,
			Limit:   zset.Limit{Offset: limitOffset, Count: limitCount},
		})
	} else {
		min, err1 := strconv.Atoi(args[1])
		max, err2 := strconv.Atoi(args[2])
		if err1 != nil || err2 != nil {
			return resp.ErrorSentinel
		}
		results = z.RangeByRank(zset.RankRange{
			Min: min, Max: max, Reverse: reverse,
			Limit: zset.Limit{Offset: limitOffset, Count: limitCount},
		})
	}

	elems := make([][]byte, len(results))
	for i, r := range results {
		elems[i] = resp.BulkString([]byte(r.Key))
	}
	return resp.Array(elems)
}

func parseScoreBound(s string) (float64, bool, error) {
	switch s {
	case "-inf":
		return math.Inf(-1), false, nil
	case "+inf", "inf":
		return math.Inf(1), false, nil
	}
	if strings.HasPrefix(s, "(") {
		v, err := strconv.ParseFloat(s[1:], 64)
		return v, true, err
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, false, err
}

func formatScore(s float64) string { return strconv.FormatFloat(s, 'g', -1, 64) }

func lookupList(db *keyspace.DB, key string, create bool) (*list.List, bool, []byte) {
	v, ok := db.Lookup(key)
	if !ok {
		if !create {
			return nil, false, nil
		}
		nv := valueobject.CreateList()
		db.Set(key, nv, 0, keyspace.KeepTTL)
		l, _ := nv.AsList()
		return l, true, nil
	}
	l, err := v.AsList()
	if err != nil {
		return nil, false, wrongType()
	}
	return l, true, nil
}

func cmdLPush(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 {
		return resp.ErrorSentinel
	}
	l, _, errReply := lookupList(db, args[0], true)
	if errReply != nil {
		return errReply
	}
	for _, v := range args[1:] {
		l.LPush([]byte(v))
	}
	return resp.Integer(int64(l.Size()))
}

func cmdRPush(db *keyspace.DB, args []string) []byte {
	if len(args) < 2 {
		return resp.ErrorSentinel
	}
	l, _, errReply := lookupList(db, args[0], true)
	if errReply != nil {
		return errReply
	}
	for _, v := range args[1:] {
		l.RPush([]byte(v))
	}
	return resp.Integer(int64(l.Size()))
}

func cmdLPop(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	l, found, errReply := lookupList(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.NullBulkString
	}
	v, err := l.LPop()
	if err != nil {
		return resp.NullBulkString
	}
	return resp.BulkString(v)
}

func cmdRPop(db *keyspace.DB, args []string) []byte {
	if len(args) != 1 {
		return resp.ErrorSentinel
	}
	l, found, errReply := lookupList(db, args[0], false)
	if errReply != nil {
		return errReply
	}
	if !found {
		return resp.NullBulkString
	}
	v, err := l.RPop()
	if err != nil {
		return resp.NullBulkString
	}
	return resp.BulkString(v)
}
