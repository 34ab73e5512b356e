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
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coredb/replicator/groupcomm"
	"github.com/coredb/replicator/logging"
)

// this should be at least the number of members in a small cluster, so a
// join doesn't give up before every candidate has been tried once.
const defaultRetryLimit = 10

// JoinResult is the outcome of a Join attempt.
type JoinResult struct {
	// WriteSets is every fetched write-set, in ascending seqno order.
	WriteSets []RangeItem
	// HighSeqno is the donor's highest known seqno when it answered.
	HighSeqno int64
	// NeedsSST reports that fromSeqno predated the answering donor's cache
	// floor: the embedding application must perform an out-of-band full
	// state snapshot before IST can resume from HighSeqno onward.
	NeedsSST bool
}

// Service drives the joiner side of state transfer: pick a donor, request
// the range, rank the donor by outcome, and retry against the next
// candidate on failure. Grounded on catchup/service.go's periodicSync
// retry-with-backoff loop, simplified from a polling background service
// into a single blocking call the replicator invokes at CONF_CHANGE time.
type Service struct {
	selector     *DonorSelector
	fetcher      *RangeFetcher
	retryLimit   int
	retryBackoff time.Duration
}

// NewService creates a Service with its own DonorSelector.
func NewService() *Service {
	return &Service{
		selector:     NewDonorSelector(),
		fetcher:      NewRangeFetcher(),
		retryLimit:   defaultRetryLimit,
		retryBackoff: 100 * time.Millisecond,
	}
}

// Join fetches every write-set from fromSeqno onward out of the best-ranked
// candidate in members (excluding self), retrying against the next-ranked
// candidate, up to the configured retry limit, if a donor fails to answer.
func (s *Service) Join(ctx context.Context, members []groupcomm.Member, self uuid.UUID, fromSeqno int64) (JoinResult, error) {
	s.selector.Offer(members, self)

	var lastErr error
	for attempt := 0; attempt < s.retryLimit; attempt++ {
		donor, err := s.selector.Next()
		if err != nil {
			return JoinResult{}, fmt.Errorf("catchup: join: %w", err)
		}

		start := time.Now()
		items, needsSST, high, ferr := s.fetcher.Fetch(ctx, donor.Address, fromSeqno)
		if ferr != nil {
			lastErr = ferr
			logging.Base().Warnf("catchup: donor %s failed range fetch from %d: %v", donor.UUID, fromSeqno, ferr)
			s.selector.RankFailed(donor.UUID)
			select {
			case <-ctx.Done():
				return JoinResult{}, ctx.Err()
			case <-time.After(s.retryBackoff):
			}
			continue
		}

		s.selector.RankSuccess(donor.UUID, time.Since(start))
		return JoinResult{WriteSets: items, HighSeqno: high, NeedsSST: needsSST}, nil
	}

	return JoinResult{}, fmt.Errorf("catchup: join: exhausted %d donor attempts: %w", s.retryLimit, lastErr)
}
