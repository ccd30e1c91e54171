package logs

// ShardedStore spreads users over independently locked stores.
// Every operation touches exactly one user, so it lands on exactly one shard.
type ShardedStore struct {
	shards []*Store
}

var _ Backend = (*ShardedStore)(nil)

// NewShardedStore builds n shards sharing the same options. n < 1 is treated as 1.
func NewShardedStore(n int, opts ...Option) *ShardedStore {
	if n < 1 {
		n = 1
	}
	shards := make([]*Store, n)
	for i := range shards {
		shards[i] = NewStore(opts...)
	}
	return &ShardedStore{shards: shards}
}

func (s *ShardedStore) shard(userID int64) *Store {
	return s.shards[uint64(userID)%uint64(len(s.shards))]
}

// Write implements Backend.
func (s *ShardedStore) Write(userID int64, p Payload) {
	s.shard(userID).Write(userID, p)
}

// ReadSeverity implements Backend.
func (s *ShardedStore) ReadSeverity(userID int64, sev Severity) []LogEntry {
	return s.shard(userID).ReadSeverity(userID, sev)
}

// ReadUnified implements Backend.
func (s *ShardedStore) ReadUnified(userID int64) []ServiceLog {
	return s.shard(userID).ReadUnified(userID)
}

// EnableCapture implements Backend.
func (s *ShardedStore) EnableCapture(userID int64) {
	s.shard(userID).EnableCapture(userID)
}

// DisableCapture implements Backend.
func (s *ShardedStore) DisableCapture(userID int64) {
	s.shard(userID).DisableCapture(userID)
}

// ListUsers concatenates the keys of every shard. Shards are read one at a time,
// so the result is not a single point-in-time snapshot.
func (s *ShardedStore) ListUsers() []int64 {
	out := []int64{}
	for _, sh := range s.shards {
		out = append(out, sh.ListUsers()...)
	}
	return out
}
