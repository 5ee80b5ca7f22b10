package delayqueue

import "github.com/zeromicro/go-zero/core/stores/redis"

// KEYS: payload, ready, processing
// ARGV: id, envelope, runAtMillis
var enqueueScript = redis.NewScript(`
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[1])
redis.call("ZREM", KEYS[3], ARGV[1])
return 1
`)

// KEYS: payload, ready, processing
// ARGV: id...
var removeScript = redis.NewScript(`
local removed = 0
for i = 1, #ARGV do
	removed = removed + redis.call("HDEL", KEYS[1], ARGV[i])
	redis.call("ZREM", KEYS[2], ARGV[i])
	redis.call("ZREM", KEYS[3], ARGV[i])
end
return removed
`)

// 取出到期任务并写入 processing（租约截止时间为 score）
// KEYS: ready, processing, payload
// ARGV: nowMillis, leaseDeadlineMillis, limit
// 返回: id1, envelope1, id2, envelope2, ...
var claimScript = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, ARGV[3])
local out = {}
for _, id in ipairs(ids) do
	redis.call("ZREM", KEYS[1], id)
	local env = redis.call("HGET", KEYS[3], id)
	if env then
		redis.call("ZADD", KEYS[2], ARGV[2], id)
		table.insert(out, id)
		table.insert(out, env)
	end
end
return out
`)

// 租约过期的任务放回 ready
// KEYS: processing, ready, payload
// ARGV: nowMillis
var requeueScript = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local n = 0
for _, id in ipairs(ids) do
	redis.call("ZREM", KEYS[1], id)
	if redis.call("HEXISTS", KEYS[3], id) == 1 then
		redis.call("ZADD", KEYS[2], ARGV[1], id)
		n = n + 1
	end
end
return n
`)

// 只有 payload 仍是本次执行的版本时才删除，避免误删同 ID 的新任务
// KEYS: payload, processing
// ARGV: id, envelope
var ackScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	redis.call("HDEL", KEYS[1], ARGV[1])
	redis.call("ZREM", KEYS[2], ARGV[1])
	return 1
end
return 0
`)

// 失败重试：同 ID 已被新任务覆盖或已删除时放弃重试
// KEYS: payload, ready, processing
// ARGV: id, oldEnvelope, newEnvelope, runAtMillis
var retryScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) ~= ARGV[2] then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
redis.call("ZADD", KEYS[2], ARGV[4], ARGV[1])
redis.call("ZREM", KEYS[3], ARGV[1])
return 1
`)
