package server

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/npezzotti/go-geochat/internal/config"
	"github.com/npezzotti/go-geochat/internal/geo"
	"github.com/npezzotti/go-geochat/internal/stats"
	"github.com/npezzotti/go-geochat/internal/types"
	"github.com/teris-io/shortid"
)

const StatActiveRooms = "ActiveRooms"

// Room is a bounded group of co-located users. It keeps the geocell of
// the user whose join created it; the center is never recomputed as
// membership turns over.
type Room struct {
	Id        string
	Name      string
	Geocell   string
	CreatedAt time.Time
	users     []*types.User
	messages  []types.Message
}

// RoomDirectory owns the set of rooms. All mutation and the proximity
// scan run under a single directory-wide lock; the data set is small.
type RoomDirectory struct {
	log            *log.Logger
	stats          stats.StatsProvider
	maxRoomSize    int
	proximityMiles float64
	emptyLifetime  time.Duration
	scrollback     int

	mu      sync.Mutex
	rooms   []*Room
	created int
	cleanup *timerTable
}

func NewRoomDirectory(logger *log.Logger, sp stats.StatsProvider, cfg *config.Config) *RoomDirectory {
	sp.RegisterMetric(StatActiveRooms)

	return &RoomDirectory{
		log:            logger,
		stats:          sp,
		maxRoomSize:    cfg.MaxRoomSize,
		proximityMiles: cfg.ProximityThresholdMiles,
		emptyLifetime:  cfg.EmptyRoomLifetime,
		scrollback:     cfg.ScrollbackLimit,
		cleanup:        newTimerTable(),
	}
}

// FindOrCreateRoomForUser returns the nearest room within the proximity
// threshold, falling back to the nearest capacity-eligible room at any
// distance, and creates a new room seeded with the user's geocell when
// neither exists. Matching an existing room cancels any pending
// empty-room cleanup so an empty-but-not-evicted room becomes live
// again.
func (d *RoomDirectory) FindOrCreateRoomForUser(user *types.User) (*Room, error) {
	userLat, userLng, err := geo.Decode(user.Geocell)
	if err != nil {
		return nil, fmt.Errorf("decode geocell %q: %w", user.Geocell, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var closestNearby, closestAny *Room
	closestNearbyDist := math.MaxFloat64
	closestAnyDist := math.MaxFloat64

	for _, room := range d.rooms {
		if len(room.users) >= d.maxRoomSize {
			continue
		}

		roomLat, roomLng, err := geo.Decode(room.Geocell)
		if err != nil {
			// rooms are seeded from already-decoded geocells
			d.log.Printf("skipping room %q with bad geocell: %v", room.Id, err)
			continue
		}

		distance := geo.DistanceMiles(userLat, userLng, roomLat, roomLng)

		if distance <= d.proximityMiles && distance < closestNearbyDist {
			closestNearbyDist = distance
			closestNearby = room
		}

		if distance < closestAnyDist {
			closestAnyDist = distance
			closestAny = room
		}
	}

	match := closestNearby
	if match == nil {
		match = closestAny
	}

	if match != nil {
		if d.cleanup.Cancel(match.Id) {
			d.log.Printf("cancelled pending cleanup for room %q", match.Id)
		}
		return match, nil
	}

	return d.createRoom(user.Geocell)
}

// createRoom must be called with d.mu held.
func (d *RoomDirectory) createRoom(geocell string) (*Room, error) {
	id, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate room id: %w", err)
	}

	room := &Room{
		Id:        id,
		Name:      fmt.Sprintf("Room %d", d.created+1),
		Geocell:   geocell,
		CreatedAt: Now(),
	}
	d.rooms = append(d.rooms, room)
	d.created++
	d.stats.Incr(StatActiveRooms)

	d.log.Printf("created room %q (%s) at geocell %q", room.Id, room.Name, geocell)
	return room, nil
}

// AddUserToRoom appends the user to the room's member set, sets the
// user's room id, and returns the new member count. A cleanup timer can
// fire between the match and this call, in which case Cancel misses and
// the room is reclaimed underneath the joiner; a room no longer listed
// is put back here so the join lands in a live room.
func (d *RoomDirectory) AddUserToRoom(user *types.User, room *Room) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.getRoom(room.Id) == nil {
		d.rooms = append(d.rooms, room)
		d.stats.Incr(StatActiveRooms)
		d.log.Printf("relisted room %q reclaimed during join", room.Id)
	}

	room.users = append(room.users, user)
	user.RoomId = room.Id
	return len(room.users)
}

// RemoveUser removes the user from its room by connection identity and
// returns the remaining member count. Dropping to zero members arms the
// empty-room cleanup timer.
func (d *RoomDirectory) RemoveUser(user *types.User) (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.getRoom(user.RoomId)
	if room == nil {
		return 0, false
	}

	for i, u := range room.users {
		if u.ConnectionId == user.ConnectionId {
			room.users = append(room.users[:i], room.users[i+1:]...)
			break
		}
	}

	if len(room.users) == 0 {
		d.scheduleCleanup(room.Id)
	}

	return len(room.users), true
}

// scheduleCleanup must be called with d.mu held.
func (d *RoomDirectory) scheduleCleanup(roomId string) {
	d.log.Printf("room %q is empty, scheduling cleanup in %s", roomId, d.emptyLifetime)

	d.cleanup.Arm(roomId, d.emptyLifetime, func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		// a join may have raced in during the idle window
		room := d.getRoom(roomId)
		if room == nil || len(room.users) > 0 {
			return
		}

		for i, r := range d.rooms {
			if r.Id == roomId {
				d.rooms = append(d.rooms[:i], d.rooms[i+1:]...)
				break
			}
		}
		d.stats.Decr(StatActiveRooms)
		d.log.Printf("removed idle room %q", roomId)
	})
}

// GetRoom returns the room with the given id, if it exists.
func (d *RoomDirectory) GetRoom(id string) (*Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.getRoom(id)
	return room, room != nil
}

// getRoom must be called with d.mu held.
func (d *RoomDirectory) getRoom(id string) *Room {
	for _, room := range d.rooms {
		if room.Id == id {
			return room
		}
	}
	return nil
}

// Snapshot returns a read-only view of a room.
func (d *RoomDirectory) Snapshot(id string) (types.RoomSummary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.getRoom(id)
	if room == nil {
		return types.RoomSummary{}, false
	}

	return d.summarize(room), true
}

// Rooms returns a snapshot of every room in creation order.
func (d *RoomDirectory) Rooms() []types.RoomSummary {
	d.mu.Lock()
	defer d.mu.Unlock()

	summaries := make([]types.RoomSummary, len(d.rooms))
	for i, room := range d.rooms {
		summaries[i] = d.summarize(room)
	}
	return summaries
}

// summarize must be called with d.mu held.
func (d *RoomDirectory) summarize(room *Room) types.RoomSummary {
	return types.RoomSummary{
		Id:        room.Id,
		Name:      room.Name,
		Geocell:   room.Geocell,
		UserCount: len(room.users),
		CreatedAt: room.CreatedAt,
	}
}

// AppendMessage adds a message to the room's in-memory scrollback,
// keeping only the newest entries. Nothing is persisted.
func (d *RoomDirectory) AppendMessage(roomId string, msg types.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.getRoom(roomId)
	if room == nil {
		return
	}

	room.messages = append(room.messages, msg)
	if len(room.messages) > d.scrollback {
		room.messages = room.messages[len(room.messages)-d.scrollback:]
	}
}

// RecentMessages returns a copy of the room's scrollback.
func (d *RoomDirectory) RecentMessages(roomId string) []types.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := d.getRoom(roomId)
	if room == nil || len(room.messages) == 0 {
		return nil
	}

	msgs := make([]types.Message, len(room.messages))
	copy(msgs, room.messages)
	return msgs
}
