// Copyright (C) 2019-2020 Algorand, Inc.
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

// Package replicator is the public API (L5) exposed to the embedding
// database: connect to a cluster, replicate write-sets, commit applied
// seqnos, and leave gracefully. It wires together the sequencing layer
// (gcs), the write-set cache (gcache), and the certification engine (cert)
// behind the operations table a caller actually uses, the way node.Node
// wires ledger/pools/catchup/agreement behind a small start/stop/status
// surface rather than exposing each subsystem directly.
package replicator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/google/uuid"

	"github.com/coredb/replicator/catchup"
	"github.com/coredb/replicator/cert"
	"github.com/coredb/replicator/gcache"
	"github.com/coredb/replicator/gcs"
	"github.com/coredb/replicator/groupcomm"
	"github.com/coredb/replicator/logging"
	"github.com/coredb/replicator/protocol"
	"github.com/coredb/replicator/replerrors"
	"github.com/coredb/replicator/util/kvstore"
	"github.com/coredb/replicator/wireproto"
)

// defaultJoinTimeout bounds a single donor-selection-and-fetch round during
// CONF_CHANGE driven state transfer.
const defaultJoinTimeout = 30 * time.Second

// Config bounds a Replicator's local resources and certification window.
type Config struct {
	Self uuid.UUID

	CacheMemMax   int64
	CacheDir      string
	CacheName     string
	CachePageSize int64
	Manifest      kvstore.KVStore

	TrailingWindow int64
	LogConflicts   bool

	FlowLowWatermark  int64
	FlowHighWatermark int64
	FlowStaleAge      time.Duration

	FifoCapacity int

	// MaxWriteSetBytes bounds a single write-set's encoded size; larger
	// write-sets are rejected locally with size_exceeded before ever
	// reaching the wire, per spec §7.
	MaxWriteSetBytes int

	// StateBindAddr is the local address this member's catchup.DonorServer
	// listens on to answer other members' STATE_REQ during their join.
	// Defaults to an ephemeral port ("127.0.0.1:0") when empty.
	StateBindAddr string

	// JoinTimeout bounds a single donor-selection-and-fetch attempt during
	// CONF_CHANGE driven state transfer. Defaults to defaultJoinTimeout.
	JoinTimeout time.Duration

	// InitialAppliedSeqno is the embedding application's last locally
	// applied seqno at startup, the point IST resumes from on first join.
	InitialAppliedSeqno int64
}

// AppliedWriteSet is one certified, non-local write-set handed to the
// application for execution, in strict seqno order.
type AppliedWriteSet struct {
	Seqno    int64
	WriteSet *cert.WriteSet
}

// wireWriteSet is the msgpack-reflected shape of a WriteSet crossing the
// wire, mirroring gcs.wireAction's use of protocol.EncodeReflect/DecodeReflect.
type wireWriteSet struct {
	SourceUUID uuid.UUID
	TrxID      uint64
	LastSeen   int64
	Keys       []cert.Key
	Data       []byte
	Flags      cert.Flags
}

func encodeWriteSet(ws *cert.WriteSet) []byte {
	return protocol.EncodeReflect(wireWriteSet{
		SourceUUID: ws.SourceUUID,
		TrxID:      ws.TrxID,
		LastSeen:   ws.LastSeen,
		Keys:       ws.Keys,
		Data:       ws.Data,
		Flags:      ws.Flags,
	})
}

func decodeWriteSet(b []byte) (*cert.WriteSet, error) {
	var w wireWriteSet
	if err := protocol.DecodeReflect(b, &w); err != nil {
		return nil, err
	}
	return &cert.WriteSet{
		SourceUUID: w.SourceUUID,
		TrxID:      w.TrxID,
		LastSeen:   w.LastSeen,
		Keys:       w.Keys,
		Data:       w.Data,
		Flags:      w.Flags,
	}, nil
}

type pendingResult struct {
	seqno int64
	err   error
}

// Replicator is the public replication engine handle; one instance per
// embedding database connection to the cluster.
type Replicator struct {
	cfg Config
	gc  groupcomm.Gcomm

	state     *gcs.StateMachine
	fifo      *gcs.Fifo
	sequencer *gcs.Sequencer
	certifier *cert.Certifier
	cache     *gcache.Cache
	flow      *gcs.FlowControl
	joinSvc   *catchup.Service
	donorSrv  *catchup.DonorServer

	mu           deadlock.Mutex
	lastSeqno    int64
	appliedSeqno int64
	pendingSST   bool
	view         groupcomm.View
	ready        bool
	readyCh      chan struct{}
	pending      map[uint64]chan pendingResult
	nextTrxID    uint64
	executingMu  sync.Mutex

	applyCh chan AppliedWriteSet

	closeOnce sync.Once
	doneCh    chan struct{}
	wg        sync.WaitGroup
}

// New creates a Replicator bound to gc, not yet connected.
func New(cfg Config, gc groupcomm.Gcomm) (*Replicator, error) {
	cache, err := gcache.NewCache(cfg.CacheMemMax, cfg.CacheDir, cfg.CacheName, cfg.CachePageSize, cfg.Manifest)
	if err != nil {
		return nil, fmt.Errorf("replicator: constructing cache: %w", err)
	}
	if err := cache.Recover(); err != nil {
		return nil, fmt.Errorf("replicator: recovering cache: %w", err)
	}

	fifoCap := cfg.FifoCapacity
	if fifoCap < 1 {
		fifoCap = 1024
	}
	fifo := gcs.NewFifo(fifoCap)
	state := gcs.NewStateMachine()

	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}

	donorSrv := catchup.NewDonorServer(cache)
	bindAddr := cfg.StateBindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1:0"
	}
	if err := donorSrv.Listen(bindAddr); err != nil {
		return nil, fmt.Errorf("replicator: starting donor server: %w", err)
	}

	return &Replicator{
		cfg:          cfg,
		gc:           gc,
		state:        state,
		fifo:         fifo,
		sequencer:    gcs.NewSequencer(state, fifo),
		certifier:    cert.NewCertifier(cfg.TrailingWindow, cfg.LogConflicts),
		cache:        cache,
		flow:         gcs.NewFlowControl(cfg.Self, cfg.FlowLowWatermark, cfg.FlowHighWatermark, cfg.FlowStaleAge),
		joinSvc:      catchup.NewService(),
		donorSrv:     donorSrv,
		appliedSeqno: cfg.InitialAppliedSeqno,
		readyCh:      make(chan struct{}),
		pending:      make(map[uint64]chan pendingResult),
		applyCh:      make(chan AppliedWriteSet, 256),
		doneCh:       make(chan struct{}),
	}, nil
}

// DonorAddr returns the address this member's donor server listens on, to
// be advertised to other members for STATE_REQ (in this tree, the same
// address used for the group-communication transport is assumed — see
// DESIGN.md).
func (r *Replicator) DonorAddr() string {
	return r.donorSrv.Addr()
}

// Connect dials the cluster (via the injected Gcomm, already pointed at
// cluster_addr/name) and blocks until the first PRIMARY view is reached or
// ctx is done, per spec §4.6.
func (r *Replicator) Connect(ctx context.Context) error {
	if !r.state.Connect() {
		return replerrors.MakeBadRequestError("replicator: already connected")
	}

	r.wg.Add(2)
	go r.dispatchLoop()
	go r.applyLoop()

	select {
	case <-r.readyCh:
		return nil
	case <-ctx.Done():
		return replerrors.MakeConnectionLostError("replicator: connect canceled before a primary view was reached")
	case <-r.doneCh:
		return replerrors.MakeConnectionLostError("replicator: closed before a primary view was reached")
	}
}

// dispatchLoop pumps the group-communication up-call stream into the
// sequencer, which stamps global seqnos and feeds the certifier FIFO.
func (r *Replicator) dispatchLoop() {
	defer r.wg.Done()
	for {
		select {
		case ev, ok := <-r.gc.Up():
			if !ok {
				r.fifo.Close()
				return
			}
			if !r.sequencer.HandleUp(ev) {
				return
			}
		case <-r.doneCh:
			return
		}
	}
}

// applyLoop is the single certifier thread spec §4.5 requires: it drains
// actions from the FIFO in strict seqno order, certifies write-sets, and
// resolves any locally-pending Replicate call.
func (r *Replicator) applyLoop() {
	defer r.wg.Done()
	for {
		item, ok := r.fifo.Get()
		if !ok {
			return
		}
		r.handleAction(item.(gcs.Action))
	}
}

func (r *Replicator) handleAction(a gcs.Action) {
	switch a.Type {
	case gcs.ActionConfChange:
		r.handleConfChange(a)
	case gcs.ActionWriteSet:
		r.handleWriteSet(a)
	case gcs.ActionCommitCut:
		r.certifier.Purge(a.LastCommitted)
	default:
		logging.Base().Debugf("replicator: ignoring action type %s at seqno %d", a.Type, a.Seqno)
	}
}

func (r *Replicator) handleConfChange(a gcs.Action) {
	r.mu.Lock()
	r.view = *a.View
	firstView := !r.ready
	r.mu.Unlock()

	if !a.View.Primary {
		logging.Base().Infof("replicator: view %d is non-primary, application traffic paused", a.View.ViewSeq)
		return
	}

	if a.View.Bootstrap {
		r.state.Sync()
	} else if r.state.BeginJoin() {
		r.runJoin(*a.View)
	}

	if firstView {
		r.mu.Lock()
		r.ready = true
		r.mu.Unlock()
		close(r.readyCh)
	}
}

// runJoin drives state transfer against view via catchup.Service: request
// every write-set from one past the last locally-applied seqno, applying
// each as it arrives. If the selected donor reports the gap predates its
// own cache floor, NeedsSST is set and the join parks in pendingSST until
// the embedding application calls CompleteStateTransfer with an
// out-of-band snapshot position, per spec §4.7.
func (r *Replicator) runJoin(view groupcomm.View) {
	r.mu.Lock()
	from := r.appliedSeqno + 1
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.JoinTimeout)
	defer cancel()

	result, err := r.joinSvc.Join(ctx, view.Members, r.cfg.Self, from)
	if err != nil {
		logging.Base().Warnf("replicator: join against view %d failed, state transfer left pending until CompleteStateTransfer: %v", view.ViewSeq, err)
		r.mu.Lock()
		r.pendingSST = true
		r.mu.Unlock()
		return
	}

	r.applyJoinResult(result)

	if result.NeedsSST {
		logging.Base().Infof("replicator: view %d join needs an out-of-band snapshot before IST can resume past %d", view.ViewSeq, result.HighSeqno)
		r.mu.Lock()
		r.pendingSST = true
		r.mu.Unlock()
		return
	}

	r.state.Joined()
	r.state.Sync()
}

// applyJoinResult decodes and applies every fetched IST write-set in order,
// the same way a live-delivered remote write-set is applied in
// handleWriteSet, advancing appliedSeqno as it goes.
func (r *Replicator) applyJoinResult(result catchup.JoinResult) {
	for _, item := range result.WriteSets {
		ws, err := decodeWriteSet(item.Payload)
		if err != nil {
			logging.Base().Warnf("replicator: dropping undecodable IST write-set at seqno %d: %v", item.Seqno, err)
			continue
		}
		if err := r.cache.Put(item.Seqno, item.Payload); err != nil {
			logging.Base().Warnf("replicator: caching IST seqno %d failed (non-fatal): %v", item.Seqno, err)
		}
		r.applyCh <- AppliedWriteSet{Seqno: item.Seqno, WriteSet: ws}

		r.mu.Lock()
		if item.Seqno > r.appliedSeqno {
			r.appliedSeqno = item.Seqno
		}
		r.mu.Unlock()
	}
}

// PendingStateTransfer reports whether this member is blocked on an
// out-of-band full snapshot (SST) before it can finish joining.
func (r *Replicator) PendingStateTransfer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingSST
}

// CompleteStateTransfer is called by the embedding application once it has
// restored a full snapshot through snapshotSeqno out-of-band, resuming IST
// from snapshotSeqno+1 against the current view and finishing the join.
func (r *Replicator) CompleteStateTransfer(ctx context.Context, snapshotSeqno int64) error {
	r.mu.Lock()
	if !r.pendingSST {
		r.mu.Unlock()
		return replerrors.MakeBadRequestError("replicator: no state transfer is pending")
	}
	view := r.view
	r.appliedSeqno = snapshotSeqno
	r.mu.Unlock()

	result, err := r.joinSvc.Join(ctx, view.Members, r.cfg.Self, snapshotSeqno+1)
	if err != nil {
		return replerrors.MakeTransportError("replicator: resuming IST after out-of-band snapshot", err)
	}
	r.applyJoinResult(result)
	if result.NeedsSST {
		return replerrors.MakeConflictError("replicator: donor still reports a gap past the supplied snapshot")
	}

	r.mu.Lock()
	r.pendingSST = false
	r.mu.Unlock()
	r.state.Joined()
	r.state.Sync()
	return nil
}

func (r *Replicator) handleWriteSet(a gcs.Action) {
	ws, err := decodeWriteSet(a.Payload)
	if err != nil {
		logging.Base().Warnf("replicator: dropping undecodable write-set at seqno %d: %v", a.Seqno, err)
		return
	}

	certErr := r.certifier.Certify(a.Seqno, ws)

	local := ws.SourceUUID == r.cfg.Self

	if certErr != nil {
		if local {
			r.resolveLocal(ws.TrxID, a.Seqno, certErr)
		}
		// A rejected remote write-set is silently dropped for apply but
		// still counted toward seqno progress (Certify already advanced
		// lastSeqno before the conflict check).
		return
	}

	if err := r.cache.Put(a.Seqno, a.Payload); err != nil {
		logging.Base().Warnf("replicator: caching seqno %d failed (non-fatal, apply still proceeds): %v", a.Seqno, err)
	}

	if local {
		r.resolveLocal(ws.TrxID, a.Seqno, nil)
	} else {
		r.applyCh <- AppliedWriteSet{Seqno: a.Seqno, WriteSet: ws}
	}
}

func (r *Replicator) resolveLocal(trxID uint64, seqno int64, err error) {
	r.mu.Lock()
	ch, ok := r.pending[trxID]
	if ok {
		delete(r.pending, trxID)
	}
	r.mu.Unlock()
	if ok {
		ch <- pendingResult{seqno: seqno, err: err}
	}
}

// Applied returns the channel of certified remote write-sets awaiting
// application, in strict seqno order.
func (r *Replicator) Applied() <-chan AppliedWriteSet {
	return r.applyCh
}

// Replicate submits ws for certification, returning its assigned global
// seqno on success. Only a SYNCED member may originate write-sets.
func (r *Replicator) Replicate(ctx context.Context, ws *cert.WriteSet) (int64, error) {
	if !r.state.CanReplicate() {
		return 0, replerrors.MakeNotPrimaryError("replicator: not in a primary, synced view")
	}

	ws.SourceUUID = r.cfg.Self
	ws.TrxID = atomic.AddUint64(&r.nextTrxID, 1)

	payload := encodeWriteSet(ws)
	if r.cfg.MaxWriteSetBytes > 0 && len(payload) > r.cfg.MaxWriteSetBytes {
		return 0, replerrors.MakeSizeExceededError(fmt.Sprintf("replicator: write-set %d bytes exceeds max %d", len(payload), r.cfg.MaxWriteSetBytes))
	}

	resultCh := make(chan pendingResult, 1)
	r.mu.Lock()
	r.pending[ws.TrxID] = resultCh
	r.mu.Unlock()

	if err := r.gc.PassDown(gcs.EncodeWriteSet(payload), wireproto.ActionTag); err != nil {
		r.mu.Lock()
		delete(r.pending, ws.TrxID)
		r.mu.Unlock()
		return 0, replerrors.MakeTransportError("replicator: broadcasting write-set", err)
	}

	select {
	case res := <-resultCh:
		return res.seqno, res.err
	case <-ctx.Done():
		r.mu.Lock()
		delete(r.pending, ws.TrxID)
		r.mu.Unlock()
		return 0, replerrors.MakeConnectionLostError("replicator: replicate canceled before certification completed")
	case <-r.doneCh:
		return 0, replerrors.MakeConnectionLostError("replicator: closed before certification completed")
	}
}

// Commit records that seqno has been applied and committed locally,
// releasing the corresponding L3 cache buffer.
func (r *Replicator) Commit(seqno int64) error {
	r.mu.Lock()
	if seqno > r.lastSeqno {
		r.lastSeqno = seqno
	}
	r.mu.Unlock()
	r.cache.Release(seqno)
	return nil
}

// ToExecuteStart serializes total-order execution of a DDL-like write-set:
// callers must pair it with ToExecuteEnd, and no other ToExecuteStart may
// be in flight concurrently, per spec §4.6.
func (r *Replicator) ToExecuteStart(ws *cert.WriteSet) error {
	r.executingMu.Lock()
	return nil
}

// ToExecuteEnd releases the total-order execution serialization acquired
// by ToExecuteStart.
func (r *Replicator) ToExecuteEnd(ws *cert.WriteSet) error {
	r.executingMu.Unlock()
	return nil
}

// Desync opts this member out of flow control, allowing it to lag as a
// donor without triggering cluster-wide pause.
func (r *Replicator) Desync() error {
	r.state.BecomeDonor()
	return nil
}

// Resync opts this member back into flow control once its donor duties
// (or lag) have cleared.
func (r *Replicator) Resync() error {
	r.state.FinishDonate()
	return nil
}

// View returns the most recently installed view.
func (r *Replicator) View() groupcomm.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// State reports the member's current lifecycle state.
func (r *Replicator) State() gcs.NodeState {
	return r.state.Current()
}

// Close performs a graceful leave: it closes the FIFO, drains the
// dispatch/apply goroutines, and fails every outstanding Replicate call
// with connection_lost, per spec §5's cancellation contract.
func (r *Replicator) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.doneCh)
		err = r.gc.Close()
		r.fifo.Close()
		r.wg.Wait()

		r.mu.Lock()
		pending := r.pending
		r.pending = make(map[uint64]chan pendingResult)
		r.mu.Unlock()
		for _, ch := range pending {
			ch <- pendingResult{err: replerrors.MakeConnectionLostError("replicator: closed")}
		}

		r.state.Close()
		if derr := r.donorSrv.Close(); derr != nil && err == nil {
			err = derr
		}
		if cerr := r.cache.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
