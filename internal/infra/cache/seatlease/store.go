package seatlease

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// Store места сеансов в Redis
//
// Карта мест хранится в множестве seats:{showtimeID}, состояние места в ключе seat:{showtimeID}:{seatID}
// со значением "status|holder|expiryUnixMs". Отсутствие ключа означает свободное место.
// Удержание ставится с PX, поэтому Redis сам удаляет его по истечении срока.
// Все ключи сеанса находятся в одном hash slot за счет hash tag {showtimeID},
// пакетные операции выполняются одним Lua-скриптом атомарно.
type Store struct {
	client redis.UniversalClient
}

// NewStore создает хранилище удержаний поверх клиента Redis
func NewStore(client redis.UniversalClient) *Store {
	return &Store{client: client}
}

// reserveScript KEYS[1] карта мест, KEYS[2..] места; ARGV[1] holder, ARGV[2] ttl ms, ARGV[3] expiry ms, ARGV[4..] id мест
var reserveScript = redis.NewScript(`
for i = 2, #KEYS do
  if redis.call("SISMEMBER", KEYS[1], ARGV[i + 2]) == 0 then
    return {"missing", ARGV[i + 2]}
  end
  if redis.call("EXISTS", KEYS[i]) == 1 then
    return {"taken", ARGV[i + 2]}
  end
end
for i = 2, #KEYS do
  redis.call("SET", KEYS[i], "reserved|" .. ARGV[1] .. "|" .. ARGV[3], "PX", ARGV[2])
end
return {"ok"}
`)

// finalizeScript KEYS места; ARGV[1] holder, ARGV[2..] id мест
var finalizeScript = redis.NewScript(`
local changed = "0"
for i = 1, #KEYS do
  local v = redis.call("GET", KEYS[i])
  if not v then
    return {"expired", ARGV[i + 1]}
  end
  local status, holder = string.match(v, "^(%a+)|(.*)|%d+$")
  if holder ~= ARGV[1] then
    return {"taken", ARGV[i + 1]}
  end
  if status == "reserved" then
    changed = "1"
  end
end
for i = 1, #KEYS do
  redis.call("SET", KEYS[i], "booked|" .. ARGV[1] .. "|0")
end
return {"ok", changed}
`)

// releaseScript KEYS места; ARGV[1] holder, ARGV[2..] id мест
var releaseScript = redis.NewScript(`
local released = {}
for i = 1, #KEYS do
  local v = redis.call("GET", KEYS[i])
  if v then
    local _, holder = string.match(v, "^(%a+)|(.*)|%d+$")
    if holder == ARGV[1] then
      redis.call("DEL", KEYS[i])
      table.insert(released, ARGV[i + 1])
    end
  end
end
return released
`)

func seatMapKey(showtimeID int64) string {
	return fmt.Sprintf("seats:{%d}", showtimeID)
}

func seatKey(showtimeID int64, seatID string) string {
	return fmt.Sprintf("seat:{%d}:%s", showtimeID, seatID)
}

func seatArgs(showtimeID int64, seatIDs []string) ([]string, []interface{}) {
	keys := make([]string, len(seatIDs))
	args := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		keys[i] = seatKey(showtimeID, id)
		args[i] = id
	}
	return keys, args
}

// AddSeats добавляет места в карту сеанса
func (s *Store) AddSeats(ctx context.Context, showtimeID int64, seatIDs []string) error {
	members := make([]interface{}, len(seatIDs))
	for i, id := range seatIDs {
		members[i] = id
	}
	if err := s.client.SAdd(ctx, seatMapKey(showtimeID), members...).Err(); err != nil {
		return fmt.Errorf("AddSeats: %w", err)
	}
	return nil
}

func (s *Store) Reserve(ctx context.Context, showtimeID int64, seatIDs []string, holder string, now, expiry time.Time) ([]domain.SeatLease, error) {
	ttl := expiry.Sub(now)
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: lease ttl must be positive", domain.ErrInvalidConfig)
	}

	seatKeys, seatIDArgs := seatArgs(showtimeID, seatIDs)
	keys := append([]string{seatMapKey(showtimeID)}, seatKeys...)
	args := append([]interface{}{holder, ttl.Milliseconds(), expiry.UnixMilli()}, seatIDArgs...)

	reply, err := reserveScript.Run(ctx, s.client, keys, args...).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: Reserve: %w", ErrScript, err)
	}

	switch reply[0] {
	case "ok":
	case "missing":
		return nil, fmt.Errorf("%w: seat %s does not exist on showtime %d", domain.ErrSeatUnavailable, reply[1], showtimeID)
	case "taken":
		return nil, fmt.Errorf("%w: seat %s on showtime %d is held or booked", domain.ErrSeatUnavailable, reply[1], showtimeID)
	default:
		return nil, fmt.Errorf("%w: Reserve: %v", ErrUnexpectedReply, reply)
	}

	leases := make([]domain.SeatLease, len(seatIDs))
	for i, id := range seatIDs {
		exp := expiry
		leases[i] = domain.SeatLease{ShowtimeID: showtimeID, SeatID: id, Status: domain.SeatReserved, Holder: holder, LeaseExpiry: &exp}
	}
	return leases, nil
}

func (s *Store) Finalize(ctx context.Context, showtimeID int64, seatIDs []string, holder string, _ time.Time) (domain.SeatResult, error) {
	keys, seatIDArgs := seatArgs(showtimeID, seatIDs)
	args := append([]interface{}{holder}, seatIDArgs...)

	reply, err := finalizeScript.Run(ctx, s.client, keys, args...).StringSlice()
	if err != nil {
		return domain.SeatResult{}, fmt.Errorf("%w: Finalize: %w", ErrScript, err)
	}

	switch reply[0] {
	case "ok":
	case "expired":
		return domain.SeatResult{}, fmt.Errorf("%w: seat %s on showtime %d", domain.ErrLeaseExpired, reply[1], showtimeID)
	case "taken":
		return domain.SeatResult{}, fmt.Errorf("%w: seat %s on showtime %d belongs to another customer", domain.ErrSeatUnavailable, reply[1], showtimeID)
	default:
		return domain.SeatResult{}, fmt.Errorf("%w: Finalize: %v", ErrUnexpectedReply, reply)
	}

	leases := make([]domain.SeatLease, len(seatIDs))
	for i, id := range seatIDs {
		leases[i] = domain.SeatLease{ShowtimeID: showtimeID, SeatID: id, Status: domain.SeatBooked, Holder: holder}
	}
	return domain.SeatResult{Seats: leases, Changed: len(reply) > 1 && reply[1] == "1"}, nil
}

func (s *Store) Release(ctx context.Context, showtimeID int64, seatIDs []string, holder string, _ time.Time) ([]domain.SeatLease, error) {
	keys, seatIDArgs := seatArgs(showtimeID, seatIDs)
	args := append([]interface{}{holder}, seatIDArgs...)

	released, err := releaseScript.Run(ctx, s.client, keys, args...).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("%w: Release: %w", ErrScript, err)
	}

	leases := make([]domain.SeatLease, len(released))
	for i, id := range released {
		leases[i] = domain.SeatLease{ShowtimeID: showtimeID, SeatID: id, Status: domain.SeatAvailable}
	}
	return leases, nil
}

func (s *Store) GetSeats(ctx context.Context, showtimeID int64, _ time.Time) ([]domain.SeatLease, error) {
	ids, err := s.client.SMembers(ctx, seatMapKey(showtimeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("GetSeats: seat map: %w", err)
	}
	if len(ids) == 0 {
		return []domain.SeatLease{}, nil
	}
	slices.Sort(ids)

	keys, _ := seatArgs(showtimeID, ids)
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("GetSeats: seat states: %w", err)
	}

	leases := make([]domain.SeatLease, len(ids))
	for i, id := range ids {
		lease := domain.SeatLease{ShowtimeID: showtimeID, SeatID: id, Status: domain.SeatAvailable}
		if raw, ok := values[i].(string); ok {
			if err := decodeLease(raw, &lease); err != nil {
				return nil, err
			}
		}
		leases[i] = lease
	}
	return leases, nil
}

// SweepExpired ничего не делает: истекшие удержания удаляет сам Redis по TTL
func (s *Store) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

// decodeLease разбирает значение "status|holder|expiryUnixMs"
func decodeLease(raw string, lease *domain.SeatLease) error {
	first := strings.IndexByte(raw, '|')
	last := strings.LastIndexByte(raw, '|')
	if first < 0 || first == last {
		return fmt.Errorf("%w: seat %s value %q", ErrUnexpectedReply, lease.SeatID, raw)
	}

	expiryMs, err := strconv.ParseInt(raw[last+1:], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: seat %s expiry %q: %v", ErrUnexpectedReply, lease.SeatID, raw, err)
	}

	lease.Status = domain.SeatStatus(raw[:first])
	lease.Holder = raw[first+1 : last]
	if lease.Status == domain.SeatReserved && expiryMs > 0 {
		exp := time.UnixMilli(expiryMs).UTC()
		lease.LeaseExpiry = &exp
	}
	return nil
}
