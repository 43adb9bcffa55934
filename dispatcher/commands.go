package dispatcher

import (
	"github.com/mshaverdo/radish/codec"
	"github.com/mshaverdo/radish/core"
	"github.com/mshaverdo/radish/snapshot"
)

type handlerFunc func(d *Dispatcher, req *codec.Request) codec.Reply

var commandTable = map[string]handlerFunc{
	"KEYS":    cmdKeys,
	"DEL":     cmdDel,
	"TYPE":    cmdType,
	"EXPIRE":  cmdExpire,
	"PERSIST": cmdPersist,
	"TTL":     cmdTtl,

	"SET":  cmdSet,
	"MSET": cmdMSet,
	"GET":  cmdGet,
	"MGET": cmdMGet,

	"HSET":    cmdHSet,
	"HMSET":   cmdHMSet,
	"HGET":    cmdHGet,
	"HMGET":   cmdHMGet,
	"HLEN":    cmdHLen,
	"HKEYS":   cmdHKeys,
	"HGETALL": cmdHGetAll,

	"LPUSH":  cmdLPush,
	"RPUSH":  cmdRPush,
	"LPOP":   cmdLPop,
	"RPOP":   cmdRPop,
	"LLEN":   cmdLLen,
	"LINDEX": cmdLIndex,
	"LSET":   cmdLSet,

	"SADD":     cmdSAdd,
	"SREM":     cmdSRem,
	"SPOP":     cmdSPop,
	"SCARD":    cmdSCard,
	"SMEMBERS": cmdSMembers,

	"SAVE":   cmdSave,
	"BGSAVE": cmdBgSave,
}

func requireArgs(req *codec.Request, exact int) error {
	if req.ArgCount() != exact {
		return arityErr(req.Cmd)
	}
	return nil
}

func requireMinArgs(req *codec.Request, min int) error {
	if req.ArgCount() < min {
		return arityErr(req.Cmd)
	}
	return nil
}

// ------------------------------------------------------------------ Generic

func cmdKeys(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	pattern, _ := req.ArgString(0)
	return codec.ArrayOfStrings(d.core.Keys(pattern))
}

func cmdDel(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 1); err != nil {
		return replyForError(err)
	}
	keys := req.VariadicStrings(0)
	return codec.Integer(d.core.Del(keys))
}

func cmdType(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	return codec.Simple(d.core.Type(key))
}

func cmdExpire(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	seconds, err := req.ArgInt(1)
	if err != nil {
		return replyForError(errNotInteger)
	}
	return codec.Integer(d.core.Expire(key, seconds))
}

func cmdPersist(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	return codec.Integer(d.core.Persist(key))
}

func cmdTtl(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	return codec.Integer(d.core.Ttl(key))
}

// ------------------------------------------------------------------ Strings

func cmdSet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	value, _ := req.ArgString(1)

	switch req.ArgCount() {
	case 2:
		d.core.Set(key, value)
		return codec.OK()
	case 4:
		option, _ := req.ArgString(2)
		if option != "EX" {
			return codec.Err("ERR", "syntax error")
		}
		seconds, err := req.ArgInt(3)
		if err != nil {
			return replyForError(errNotInteger)
		}
		d.core.SetEx(key, value, seconds)
		return codec.OK()
	default:
		return codec.Err("ERR", "syntax error")
	}
}

func cmdMSet(d *Dispatcher, req *codec.Request) codec.Reply {
	if req.ArgCount() == 0 || req.ArgCount()%2 != 0 {
		return replyForError(arityErr(req.Cmd))
	}
	args := req.VariadicStrings(0)
	pairs := make([]core.KV, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, core.KV{Key: args[i], Value: args[i+1]})
	}
	d.core.MSet(pairs)
	return codec.OK()
}

func cmdGet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	value, ok, err := d.core.Get(key)
	if err != nil {
		return replyForError(err)
	}
	if !ok {
		return codec.NilBulk()
	}
	return codec.Bulk(value)
}

func cmdMGet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 1); err != nil {
		return replyForError(err)
	}
	keys := req.VariadicStrings(0)
	return codec.Array(d.core.MGet(keys))
}

// ---------------------------------------------------------------------- Hash

func cmdHSet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 3); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	field, _ := req.ArgString(1)
	value, _ := req.ArgString(2)

	count, err := d.core.HSet(key, field, value)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdHMSet(d *Dispatcher, req *codec.Request) codec.Reply {
	if req.ArgCount() < 3 || (req.ArgCount()-1)%2 != 0 {
		return replyForError(arityErr(req.Cmd))
	}
	key, _ := req.ArgString(0)
	args := req.VariadicStrings(1)
	pairs := make([]core.KV, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, core.KV{Key: args[i], Value: args[i+1]})
	}
	if err := d.core.HMSet(key, pairs); err != nil {
		return replyForError(err)
	}
	return codec.OK()
}

func cmdHGet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	field, _ := req.ArgString(1)

	value, ok, err := d.core.HGet(key, field)
	if err != nil {
		return replyForError(err)
	}
	if !ok {
		return codec.NilBulk()
	}
	return codec.Bulk(value)
}

func cmdHMGet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	fields := req.VariadicStrings(1)

	result, err := d.core.HMGet(key, fields)
	if err != nil {
		return replyForError(err)
	}
	return codec.Array(result)
}

func cmdHLen(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	count, err := d.core.HLen(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdHKeys(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	keys, err := d.core.HKeys(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.ArrayOfStrings(keys)
}

func cmdHGetAll(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	flat, err := d.core.HGetAll(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.ArrayOfStrings(flat)
}

// ---------------------------------------------------------------------- List

func cmdLPush(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	values := req.VariadicStrings(1)

	count, err := d.core.LPush(key, values)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdRPush(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	values := req.VariadicStrings(1)

	count, err := d.core.RPush(key, values)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdLPop(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	value, err := d.core.LPop(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.BulkPtr(value)
}

func cmdRPop(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	value, err := d.core.RPop(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.BulkPtr(value)
}

func cmdLLen(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	count, err := d.core.LLen(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdLIndex(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	index, err := req.ArgInt(1)
	if err != nil {
		return replyForError(errNotInteger)
	}
	value, err := d.core.LIndex(key, index)
	if err != nil {
		return replyForError(err)
	}
	return codec.BulkPtr(value)
}

func cmdLSet(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 3); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	index, err := req.ArgInt(1)
	if err != nil {
		return replyForError(errNotInteger)
	}
	value, _ := req.ArgString(2)

	if err := d.core.LSet(key, index, value); err != nil {
		return replyForError(err)
	}
	return codec.OK()
}

// ----------------------------------------------------------------------- Set

func cmdSAdd(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	members := req.VariadicStrings(1)

	count, err := d.core.SAdd(key, members)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdSRem(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireMinArgs(req, 2); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	members := req.VariadicStrings(1)

	count, err := d.core.SRem(key, members)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdSPop(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	value, err := d.core.SPop(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.BulkPtr(value)
}

func cmdSCard(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	count, err := d.core.SCard(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.Integer(count)
}

func cmdSMembers(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 1); err != nil {
		return replyForError(err)
	}
	key, _ := req.ArgString(0)
	members, err := d.core.SMembers(key)
	if err != nil {
		return replyForError(err)
	}
	return codec.ArrayOfStrings(members)
}

// --------------------------------------------------------------- Persistence

func cmdSave(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 0); err != nil {
		return replyForError(err)
	}
	if err := d.snap.Save(); err != nil {
		return codec.Err("ERR", err.Error())
	}
	return codec.OK()
}

func cmdBgSave(d *Dispatcher, req *codec.Request) codec.Reply {
	if err := requireArgs(req, 0); err != nil {
		return replyForError(err)
	}
	d.snap.BGSave()
	return codec.Simple(snapshot.BGSaveStartedMessage)
}
