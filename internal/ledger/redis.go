package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for the atomic check-and-decrement - prevents two clients
// acting on the same observed seat count
const luaTryReserve = `
-- KEYS[1] = ledger hash for the event
-- ARGV[1] = quantity

if redis.call("EXISTS", KEYS[1]) == 0 then
    return {0, "not_found"}
end

local available = tonumber(redis.call("HGET", KEYS[1], "available"))
local quantity = tonumber(ARGV[1])

if available < quantity then
    return {0, "insufficient"}
end

redis.call("HINCRBY", KEYS[1], "available", -quantity)
return {1, available - quantity}
`

// Lua script for the compensating release, clamped at total capacity
const luaRelease = `
-- KEYS[1] = ledger hash for the event
-- ARGV[1] = quantity

if redis.call("EXISTS", KEYS[1]) == 0 then
    return {0, "not_found"}
end

local total = tonumber(redis.call("HGET", KEYS[1], "total"))
local available = tonumber(redis.call("HGET", KEYS[1], "available"))
local restored = available + tonumber(ARGV[1])

if restored > total then
    restored = total
end

redis.call("HSET", KEYS[1], "available", restored)
return {1, restored}
`

var (
	tryReserveScript = redis.NewScript(luaTryReserve)
	releaseScript    = redis.NewScript(luaRelease)
)

// RedisLedger keeps seat counters in a Redis hash per event and runs
// the check-and-decrement inside a Lua script, which Redis executes
// atomically. Suited to multi-node deployments that want the counter
// off the relational store.
type RedisLedger struct {
	redis *redis.Client
}

func NewRedisLedger(redisClient *redis.Client) *RedisLedger {
	return &RedisLedger{redis: redisClient}
}

func ledgerKey(eventID uuid.UUID) string {
	return "seat_ledger:" + eventID.String()
}

// InitEvent writes the event's counters. Called by the administrative
// collaborator when an event is created or corrected.
func (l *RedisLedger) InitEvent(ctx context.Context, eventID uuid.UUID, totalSeats, availableSeats int) error {
	err := l.redis.HSet(ctx, ledgerKey(eventID),
		"total", totalSeats,
		"available", availableSeats,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to init event ledger: %w", err)
	}
	return nil
}

func (l *RedisLedger) TryReserve(ctx context.Context, eventID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	result, err := tryReserveScript.Run(ctx, l.redis, []string{ledgerKey(eventID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("failed to execute reserve script: %w", err)
	}

	return parseScriptResult(result)
}

func (l *RedisLedger) Release(ctx context.Context, eventID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	result, err := releaseScript.Run(ctx, l.redis, []string{ledgerKey(eventID)}, quantity).Result()
	if err != nil {
		return fmt.Errorf("failed to execute release script: %w", err)
	}

	return parseScriptResult(result)
}

// PreloadScripts loads the Lua scripts into Redis so later calls go
// through EVALSHA.
func (l *RedisLedger) PreloadScripts(ctx context.Context) error {
	if err := tryReserveScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load reserve script: %w", err)
	}
	if err := releaseScript.Load(ctx, l.redis).Err(); err != nil {
		return fmt.Errorf("failed to load release script: %w", err)
	}
	return nil
}

func parseScriptResult(result interface{}) error {
	resultArray, ok := result.([]interface{})
	if !ok || len(resultArray) != 2 {
		return fmt.Errorf("unexpected result format from Lua script")
	}

	success, ok := resultArray[0].(int64)
	if !ok {
		return fmt.Errorf("invalid success flag in Lua script result")
	}
	if success == 1 {
		return nil
	}

	reason, _ := resultArray[1].(string)
	switch reason {
	case "not_found":
		return ErrEventNotFound
	case "insufficient":
		return ErrInsufficientCapacity
	default:
		return fmt.Errorf("ledger script failed: %s", reason)
	}
}
