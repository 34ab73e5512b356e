// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package catchup

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/google/uuid"

	"github.com/coredb/replicator/groupcomm"
)

const (
	// donorRankInitial is where a never-yet-ranked donor candidate starts.
	donorRankInitial = 0
	donorRankLow     = 1
	donorRankHigh    = 799

	// donorRankFailed marks a candidate whose last range fetch failed for a
	// possibly-transient reason (timeout, connection refused); it is given
	// further tries and may recover.
	donorRankFailed = 900
	// donorRankInvalid marks a candidate that served corrupt or malicious
	// data; it is never reconsidered automatically.
	donorRankInvalid = 1000

	lowFetchDurationThreshold  = 10 * time.Millisecond
	highFetchDurationThreshold = 5 * time.Second

	donorHistoryWindowSize = 50
)

var errNoDonorCandidates = errors.New("catchup: no donor candidates available")

// historicStats tracks a donor's past windowSize ranks (no averaging beyond
// the moving window) plus a selection-frequency penalty, so a donor that
// served well recently but hasn't been picked in a while isn't starved by a
// donor that happened to get lucky once. Adapted from catchup/peerSelector.go's
// historicStats, dropping the relay/archive peer-class distinction since a
// replication group has one homogeneous donor pool.
type historicStats struct {
	windowSize  int
	rankSamples []int
	rankSum     uint64

	requestGaps      []uint64
	gapSum           float64
	counter          uint64
	downloadFailures int
}

func newHistoricStats(windowSize, initialRank int) *historicStats {
	hs := &historicStats{
		windowSize:  windowSize,
		rankSamples: make([]int, windowSize),
		rankSum:     uint64(initialRank) * uint64(windowSize),
	}
	for i := range hs.rankSamples {
		hs.rankSamples[i] = initialRank
	}
	return hs
}

func (hs *historicStats) penalty() float64 {
	return 1 + (math.Exp(hs.gapSum/10.0) / 1000)
}

func (hs *historicStats) updatePenalty(counter uint64) float64 {
	gap := counter - hs.counter
	hs.counter = counter
	if len(hs.requestGaps) == hs.windowSize {
		hs.gapSum -= 1.0 / float64(hs.requestGaps[0])
		hs.requestGaps = hs.requestGaps[1:]
	}
	hs.requestGaps = append(hs.requestGaps, gap)
	hs.gapSum += 1.0 / float64(gap)
	return hs.penalty()
}

// push records a new observed rank and returns the averaged, penalized rank.
func (hs *historicStats) push(value int, counter uint64) int {
	if value == donorRankInvalid {
		return value
	}

	if len(hs.rankSamples) == hs.windowSize {
		hs.rankSum -= uint64(hs.rankSamples[0])
		hs.rankSamples = hs.rankSamples[1:]
	}

	if value == donorRankFailed {
		hs.downloadFailures++
		value = donorRankHigh * int(math.Exp2(float64(hs.downloadFailures)))
	} else if hs.downloadFailures > 0 {
		hs.downloadFailures--
	}

	hs.rankSamples = append(hs.rankSamples, value)
	hs.rankSum += uint64(value)

	average := float64(hs.rankSum) / float64(len(hs.rankSamples))
	penalty := hs.updatePenalty(counter)
	bounded := int(penalty * average)
	if bounded < donorRankLow {
		bounded = donorRankLow
	}
	if bounded > donorRankHigh && value != donorRankFailed {
		bounded = donorRankHigh
	}
	return bounded
}

type donorEntry struct {
	member  groupcomm.Member
	history *historicStats
}

type donorPool struct {
	rank    int
	entries []donorEntry
}

// DonorSelector ranks candidate donors by past range-fetch performance,
// adapted from catchup/peerSelector.go's rank-pooled peer selection: a
// donor that serves quickly and correctly rises to the front of the pool, a
// donor that times out or errors is pushed back (but not permanently
// excluded, since the failure may be transient), and a donor caught serving
// bad data is parked in donorRankInvalid and never retried automatically.
type DonorSelector struct {
	mu      deadlock.Mutex
	pools   []donorPool
	counter uint64
}

// NewDonorSelector creates an empty selector.
func NewDonorSelector() *DonorSelector {
	return &DonorSelector{}
}

// Offer adds any candidate in members not already tracked, at the initial
// rank, and drops any tracked candidate no longer present in members.
func (s *DonorSelector) Offer(members []groupcomm.Member, self uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		if m.UUID == self {
			continue
		}
		present[m.UUID] = true
		if _, _, ok := s.find(m.UUID); ok {
			continue
		}
		s.addToPool(m, donorRankInitial, newHistoricStats(donorHistoryWindowSize, donorRankInitial))
	}

	for pi := len(s.pools) - 1; pi >= 0; pi-- {
		pool := s.pools[pi]
		for ei := len(pool.entries) - 1; ei >= 0; ei-- {
			if !present[pool.entries[ei].member.UUID] {
				pool.entries = append(pool.entries[:ei], pool.entries[ei+1:]...)
			}
		}
		if len(pool.entries) == 0 {
			s.pools = append(s.pools[:pi], s.pools[pi+1:]...)
		} else {
			s.pools[pi] = pool
		}
	}
	s.sort()
}

// Next returns the lowest-ranked candidate, picking at random among ties in
// the same rank pool.
func (s *DonorSelector) Next() (groupcomm.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pool := range s.pools {
		if len(pool.entries) == 0 {
			continue
		}
		idx := rand.Intn(len(pool.entries))
		return pool.entries[idx].member, nil
	}
	return groupcomm.Member{}, errNoDonorCandidates
}

// RankSuccess records a successful range fetch, ranking the donor by how
// long the fetch took.
func (s *DonorSelector) RankSuccess(id uuid.UUID, duration time.Duration) {
	s.rank(id, durationToRank(duration))
}

// RankFailed records a recoverable failure (timeout, refused connection).
func (s *DonorSelector) RankFailed(id uuid.UUID) {
	s.rank(id, donorRankFailed)
}

// RankInvalid records that the donor served corrupt data and must not be
// retried automatically.
func (s *DonorSelector) RankInvalid(id uuid.UUID) {
	s.rank(id, donorRankInvalid)
}

func (s *DonorSelector) rank(id uuid.UUID, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poolIdx, entryIdx, ok := s.find(id)
	if !ok {
		return
	}
	s.counter++
	pool := s.pools[poolIdx]
	entry := pool.entries[entryIdx]
	newRank := entry.history.push(value, s.counter)
	if newRank == pool.rank {
		return
	}

	if len(pool.entries) > 1 {
		pool.entries = append(pool.entries[:entryIdx], pool.entries[entryIdx+1:]...)
		s.pools[poolIdx] = pool
	} else {
		s.pools = append(s.pools[:poolIdx], s.pools[poolIdx+1:]...)
	}
	s.addToPool(entry.member, newRank, entry.history)
	s.sort()
}

func (s *DonorSelector) find(id uuid.UUID) (poolIdx, entryIdx int, ok bool) {
	for pi, pool := range s.pools {
		for ei, entry := range pool.entries {
			if entry.member.UUID == id {
				return pi, ei, true
			}
		}
	}
	return -1, -1, false
}

func (s *DonorSelector) addToPool(m groupcomm.Member, rank int, history *historicStats) {
	for i, pool := range s.pools {
		if pool.rank == rank {
			s.pools[i].entries = append(pool.entries, donorEntry{member: m, history: history})
			return
		}
	}
	s.pools = append(s.pools, donorPool{rank: rank, entries: []donorEntry{{member: m, history: history}}})
}

func (s *DonorSelector) sort() {
	sort.SliceStable(s.pools, func(i, j int) bool { return s.pools[i].rank < s.pools[j].rank })
}

// durationToRank maps a fetch duration onto [donorRankLow, donorRankHigh],
// clamped at the low/high thresholds.
func durationToRank(d time.Duration) int {
	if d < lowFetchDurationThreshold {
		d = lowFetchDurationThreshold
	} else if d > highFetchDurationThreshold {
		d = highFetchDurationThreshold
	}
	span := (highFetchDurationThreshold - lowFetchDurationThreshold).Nanoseconds()
	return donorRankLow + int((d-lowFetchDurationThreshold).Nanoseconds()*int64(donorRankHigh-donorRankLow)/span)
}
