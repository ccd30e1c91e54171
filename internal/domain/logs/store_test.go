package logs

import (
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingObserver struct {
	mu       sync.Mutex
	captured map[Severity]int
	dropped  map[Severity]int
	groups   int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{captured: map[Severity]int{}, dropped: map[Severity]int{}}
}

func (o *recordingObserver) Captured(s Severity) {
	o.mu.Lock()
	o.captured[s]++
	o.mu.Unlock()
}

func (o *recordingObserver) Dropped(s Severity) {
	o.mu.Lock()
	o.dropped[s]++
	o.mu.Unlock()
}

func (o *recordingObserver) GroupCreated() {
	o.mu.Lock()
	o.groups++
	o.mu.Unlock()
}

type archived struct {
	userID int64
	logs   []ServiceLog
}

func newClockedStore(opts ...Option) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	return NewStore(append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestStoreFirstWriteCreatesGroupButDrops(t *testing.T) {
	s, _ := newClockedStore()

	s.Write(7, Log{Level: Error, Text: "lost"})

	require.Equal(t, []int64{7}, s.ListUsers())
	require.False(t, s.Capturing(7))
	require.Empty(t, s.ReadUnified(7))
}

func TestStoreEnableThenWriteCaptures(t *testing.T) {
	s, clock := newClockedStore()
	s.Write(7, Log{Level: Debug, Text: "bootstrap"})
	s.EnableCapture(7)

	s.Write(7, Log{Level: Error, Text: "e1", Blob: []byte{1, 2}})
	clock.Advance(2 * time.Second)
	s.Write(7, Log{Level: Warning, Text: "w1"})
	s.Write(7, Log{Level: Debug, Text: "d1"})

	errs := s.ReadSeverity(7, Error)
	require.Len(t, errs, 1)
	require.Equal(t, int64(1_700_000_000), errs[0].Time)
	require.Equal(t, []byte{1, 2}, errs[0].Inner.Data())

	unified := s.ReadUnified(7)
	require.Len(t, unified, 3)
	require.Equal(t, "e1", unified[0].Message)
	require.Equal(t, "d1", unified[1].Message)
	require.Equal(t, "w1", unified[2].Message)
	require.Equal(t, int64(1_700_000_002), unified[2].Time)
}

func TestStoreToggleUnknownUserIsNoop(t *testing.T) {
	s, _ := newClockedStore()

	s.EnableCapture(42)
	s.DisableCapture(42)

	require.Empty(t, s.ListUsers())
	require.False(t, s.Capturing(42))
}

func TestStoreEnableBeforeFirstWriteHasNoEffect(t *testing.T) {
	s, _ := newClockedStore()

	s.EnableCapture(3)
	s.Write(3, Log{Level: Error, Text: "dropped"})

	require.Empty(t, s.ReadSeverity(3, Error))
	require.Equal(t, []int64{3}, s.ListUsers())
}

func TestStoreReadsNeverCreateGroups(t *testing.T) {
	s, _ := newClockedStore()

	for _, sev := range Severities() {
		got := s.ReadSeverity(5, sev)
		require.NotNil(t, got)
		require.Empty(t, got)
	}
	unified := s.ReadUnified(5)
	require.NotNil(t, unified)
	require.Empty(t, unified)
	require.Empty(t, s.ListUsers())
}

func TestStoreDisableClearsAndDrops(t *testing.T) {
	s, _ := newClockedStore()
	s.Write(1, Log{Level: Error, Text: "x"})
	s.EnableCapture(1)
	s.Write(1, Log{Level: Error, Text: "kept"})

	s.DisableCapture(1)
	s.Write(1, Log{Level: Error, Text: "ignored"})

	require.Empty(t, s.ReadUnified(1))
	require.False(t, s.Capturing(1))
}

func TestStoreReEnableClearsHistory(t *testing.T) {
	s, _ := newClockedStore()
	s.Write(1, Log{Level: Error, Text: "x"})
	s.EnableCapture(1)
	s.Write(1, Log{Level: Warning, Text: "old"})

	s.EnableCapture(1)
	s.Write(1, Log{Level: Warning, Text: "new"})

	got := s.ReadSeverity(1, Warning)
	require.Len(t, got, 1)
	require.Equal(t, "new", got[0].Inner.Message())
}

func TestStoreUsersAreIsolated(t *testing.T) {
	s, _ := newClockedStore()
	for _, id := range []int64{1, 2} {
		s.Write(id, Log{Level: Debug, Text: "boot"})
	}
	s.EnableCapture(1)

	s.Write(1, Log{Level: Error, Text: "one"})
	s.Write(2, Log{Level: Error, Text: "two"})

	require.Len(t, s.ReadUnified(1), 1)
	require.Empty(t, s.ReadUnified(2))
}

func TestStoreNegativeAndExtremeUserIDs(t *testing.T) {
	s, _ := newClockedStore()
	ids := []int64{-1, 0, -9223372036854775808, 9223372036854775807}
	for _, id := range ids {
		s.Write(id, Log{Level: Debug, Text: "boot"})
		s.EnableCapture(id)
		s.Write(id, Log{Level: Error, Text: "e"})
	}

	got := s.ListUsers()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	require.Equal(t, []int64{-9223372036854775808, -1, 0, 9223372036854775807}, got)
	for _, id := range ids {
		require.Len(t, s.ReadSeverity(id, Error), 1)
	}
}

func TestStoreReadCopiesData(t *testing.T) {
	s, _ := newClockedStore()
	s.Write(1, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(1)
	s.Write(1, Log{Level: Error, Text: "e", Blob: []byte{9}})

	first := s.ReadUnified(1)
	first[0].Data[0] = 0

	require.Equal(t, []byte{9}, s.ReadUnified(1)[0].Data)
}

func TestStoreWriteCopiesCallerData(t *testing.T) {
	s, _ := newClockedStore()
	s.Write(1, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(1)
	blob := []byte{9}

	s.Write(1, Log{Level: Error, Text: "e", Blob: blob})
	blob[0] = 0

	require.Equal(t, []byte{9}, s.ReadUnified(1)[0].Data)
	require.Equal(t, []byte{9}, s.ReadSeverity(1, Error)[0].Inner.Data())
}

func TestStoreReadSeverityCopiesData(t *testing.T) {
	s, _ := newClockedStore()
	s.Write(1, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(1)
	s.Write(1, Log{Level: Error, Text: "e", Blob: []byte{9}})

	s.ReadSeverity(1, Error)[0].Inner.Data()[0] = 0

	require.Equal(t, []byte{9}, s.ReadUnified(1)[0].Data)
	require.Equal(t, []byte{9}, s.ReadSeverity(1, Error)[0].Inner.Data())
}

func TestStoreArchiverReceivesDiscardedEntries(t *testing.T) {
	var got []archived
	s, _ := newClockedStore(WithArchiver(ArchiverFunc(func(userID int64, discarded []ServiceLog) {
		got = append(got, archived{userID: userID, logs: discarded})
	})))
	s.Write(4, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(4)
	require.Empty(t, got)

	s.Write(4, Log{Level: Warning, Text: "w"})
	s.Write(4, Log{Level: Error, Text: "e"})
	s.DisableCapture(4)

	require.Len(t, got, 1)
	require.Equal(t, int64(4), got[0].userID)
	require.Equal(t, "e", got[0].logs[0].Message)
	require.Equal(t, "w", got[0].logs[1].Message)

	s.DisableCapture(4)
	require.Len(t, got, 1)
}

func TestStoreArchiverMayReenterStore(t *testing.T) {
	var s *Store
	calls, reads := 0, 0
	s, _ = newClockedStore(WithArchiver(ArchiverFunc(func(userID int64, _ []ServiceLog) {
		calls++
		reads += len(s.ReadUnified(userID))
	})))
	s.Write(1, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(1)
	s.Write(1, Log{Level: Error, Text: "e"})

	s.EnableCapture(1)

	require.Equal(t, 1, calls)
	require.Zero(t, reads)
}

func TestStoreObserverCountsOutcomes(t *testing.T) {
	obs := newRecordingObserver()
	s, _ := newClockedStore(WithObserver(obs))

	s.Write(1, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(1)
	s.Write(1, Log{Level: Error, Text: "e"})
	s.Write(1, Log{Level: Error, Text: "e"})
	s.Write(1, nil)

	require.Equal(t, 1, obs.groups)
	require.Equal(t, 1, obs.dropped[Debug])
	require.Equal(t, 2, obs.captured[Error])
}

func TestStoreConcurrentDisjointUsers(t *testing.T) {
	s := NewStore()
	const users, perUser = 16, 200

	for id := int64(0); id < users; id++ {
		s.Write(id, Log{Level: Debug, Text: "boot"})
		s.EnableCapture(id)
	}

	var wg sync.WaitGroup
	for id := int64(0); id < users; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			owner := strconv.FormatInt(id, 10)
			for i := 0; i < perUser; i++ {
				s.Write(id, Log{Level: Severities()[i%3], Text: owner})
				_ = s.ReadUnified(id)
			}
		}(id)
	}
	wg.Wait()

	for id := int64(0); id < users; id++ {
		got := s.ReadUnified(id)
		require.Len(t, got, perUser)
		for _, l := range got {
			require.Equal(t, strconv.FormatInt(id, 10), l.Message)
		}
	}
}

func TestStoreUnifiedFixedOrderWithTimestamps(t *testing.T) {
	s, clock := newClockedStore()
	s.Write(7, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(7)
	enabledAt := clock.Now().Unix()

	clock.Advance(time.Second)
	s.Write(7, Log{Level: Error, Text: "boom"})
	s.Write(7, Log{Level: Debug, Text: "x"})
	s.Write(7, Log{Level: Warning, Text: "low disk"})

	got := s.ReadUnified(7)
	require.Len(t, got, 3)
	require.Equal(t, Error, got[0].Level)
	require.Equal(t, "boom", got[0].Message)
	require.Equal(t, Debug, got[1].Level)
	require.Equal(t, "x", got[1].Message)
	require.Equal(t, Warning, got[2].Level)
	require.Equal(t, "low disk", got[2].Message)
	for _, l := range got {
		require.GreaterOrEqual(t, l.Time, enabledAt)
	}
}

func TestStoreDisableEnableCycleKeepsOnlyLaterEntries(t *testing.T) {
	s, _ := newClockedStore()
	s.Write(2, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(2)
	s.Write(2, Log{Level: Error, Text: "first"})
	s.DisableCapture(2)
	s.EnableCapture(2)
	s.Write(2, Log{Level: Error, Text: "second"})

	got := s.ReadSeverity(2, Error)
	require.Len(t, got, 1)
	require.Equal(t, "second", got[0].Inner.Message())
}

func TestStoreUnifiedIsConcatenationForAnyInterleaving(t *testing.T) {
	s, clock := newClockedStore()
	s.Write(1, Log{Level: Debug, Text: "boot"})
	s.EnableCapture(1)

	pattern := []Severity{Warning, Warning, Error, Debug, Warning, Error, Debug, Debug, Error, Warning}
	for i, sev := range pattern {
		clock.Advance(time.Second)
		s.Write(1, Log{Level: sev, Text: string(rune('a' + i))})
	}

	var want []ServiceLog
	for _, sev := range []Severity{Error, Debug, Warning} {
		for _, e := range s.ReadSeverity(1, sev) {
			want = append(want, e.ToServiceLog())
		}
	}
	require.Equal(t, want, s.ReadUnified(1))
}
