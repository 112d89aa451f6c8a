// Package daemon wires the table, face, sched, and strategy packages
// together into the forwarder's single-threaded processing loop.
// Everything that touches the
// FIB, PIT, Content Store, or a strategy instance runs on the one
// goroutine Run drives; every other goroutine in the process (one per
// accepted face) only reads bytes off a socket and posts decoded
// messages onto a channel.
package daemon

import (
	"math/rand"
	"time"

	"github.com/ccnxgo/ccnd/adjacency"
	"github.com/ccnxgo/ccnd/core"
	"github.com/ccnxgo/ccnd/face"
	"github.com/ccnxgo/ccnd/internalclient"
	"github.com/ccnxgo/ccnd/sched"
	"github.com/ccnxgo/ccnd/signing"
	"github.com/ccnxgo/ccnd/store"
	"github.com/ccnxgo/ccnd/strategy"
	"github.com/ccnxgo/ccnd/table"
)

// idlePollMicros bounds how long Run ever blocks with no scheduled event
// pending, so reaper-style housekeeping that isn't itself a scheduled
// event (none currently) still gets a chance to run, and so a test
// driving the loop manually never wedges.
const idlePollMicros = 200_000

// incomingMsg pairs one decoded message with the face it arrived on, the
// unit of work posted onto Daemon.incoming by a face's receive goroutine.
type incomingMsg struct {
	face *face.Face
	msg  incomingPayload
}

// Daemon is one running forwarder instance: the lookup tables, the face
// table, the scheduler driving both PIT expiry and reaper passes, and the
// strategy engine deciding what to do with each Interest.
type Daemon struct {
	Config *core.Config

	FIB   *table.FIB
	PIT   *table.PIT
	CS    *table.ContentStore
	Faces *face.Table
	Sched *sched.Scheduler
	Strat *strategy.Engine

	Keystore *signing.Keystore
	IntCli   *internalclient.Client
	Adj      *adjacency.Negotiator
	Blob     *store.BlobStore // nil unless cs.precious_dir is configured

	// incomingMcast is drained ahead of incoming so a packet arriving
	// via both a multicast face and a unicast face is attributed to the
	// multicast one.
	incoming      chan incomingMsg
	incomingMcast chan incomingMsg
	rng           *rand.Rand

	listeners []closer
	internal  *face.Face // face 0, the internal client's own end of the pseudo-transport pair

	stratCtx *strategyCtx
}

type closer interface{ Close() }

// New builds a Daemon from cfg, wiring every table to every other one the
// way cmd/ccnd's startup sequence does. Opening the keystore is the one
// known multi-second stall in startup and happens before anything else.
func New(cfg *core.Config) (*Daemon, error) {
	ks, err := signing.Open(cfg.Security.KeystoreDirectory)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		Config:   cfg,
		Keystore: ks,
		Faces:    face.NewTable(),
		Sched:    sched.NewScheduler(),
		incoming:      make(chan incomingMsg, 1024),
		incomingMcast: make(chan incomingMsg, 1024),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	d.FIB = table.NewFIB(d.faceAlive)
	d.PIT = table.NewPIT(d.Sched)
	d.PIT.SendUpstream = d.sendUpstreamRetry
	d.PIT.AdjustPending = d.adjustPending
	d.CS = table.NewContentStore(cfg.Cs.Capacity)
	d.stratCtx = &strategyCtx{d: d}
	d.Strat = strategy.NewEngine(d.stratCtx)

	if dir := cfg.Cs.PreciousDir; dir != "" {
		d.Blob, err = store.Open(dir)
		if err != nil {
			return nil, err
		}
	}

	d.IntCli = internalclient.New(&internalClientCtx{d: d, ks: ks})
	d.Adj = adjacency.New(&adjacencyCtx{d: d})
	d.IntCli.RegisterAdjacencyHandler(adjacency.Root, d.adjacencyHandle)
	d.registerInternalFace()
	return d, nil
}

// registerInternalFace reserves face 0 as the internal client's identity
// (PERMANENT, GG, and LOCAL — the internal client is always fully
// trusted): a connected InternalTransport pair whose far end is
// otherwise unused, since d.IntCli answers synchronously from
// processInterest's dispatch rather than over this channel.
func (d *Daemon) registerInternalFace() {
	a, _ := face.NewInternalTransport()
	d.internal = d.registerFace(a, face.FlagPermanent|face.FlagGG|face.FlagLocal)
}

func (d *Daemon) faceAlive(id face.ID) bool {
	_, ok := d.Faces.Find(id)
	return ok
}

func (d *Daemon) String() string { return "daemon" }

// Run drives the main loop until core.ShouldQuit reports true: it
// alternates between draining one posted message and firing whatever
// scheduler events are due, never touching table state from any other
// goroutine.
func (d *Daemon) Run() error {
	d.scheduleReapers()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for !core.ShouldQuit() {
		// Multicast arrivals take priority over unicast ones.
		select {
		case im := <-d.incomingMcast:
			d.dispatch(im.face, im.msg)
		default:
			select {
			case im := <-d.incomingMcast:
				d.dispatch(im.face, im.msg)
			case im := <-d.incoming:
				d.dispatch(im.face, im.msg)
			case <-timer.C:
			}
		}

		next := d.Sched.RunDue(time.Now())
		if next < 0 {
			next = idlePollMicros
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(time.Duration(next) * time.Microsecond)
	}

	d.closeListeners()
	return nil
}

func (d *Daemon) closeListeners() {
	for _, l := range d.listeners {
		l.Close()
	}
	if d.Blob != nil {
		if err := d.Blob.Close(); err != nil {
			core.Log.Warn(d, "failed to close precious store", "err", err)
		}
	}
}

// post enqueues a decoded message for the main loop to process; safe to
// call from any goroutine, since it only writes to a channel. Messages
// from multicast faces land on the higher-priority queue.
func (d *Daemon) post(f *face.Face, m incomingPayload) {
	ch := d.incoming
	if f.Flags().Has(face.FlagMulticast) {
		ch = d.incomingMcast
	}
	select {
	case ch <- incomingMsg{face: f, msg: m}:
	default:
		core.Log.Warn(d, "incoming queue full, dropping message", "face", f.ID())
	}
}

// randomNonce fills a fresh 8-byte nonce for an Interest the internal
// client or a retry path originates without one.
func (d *Daemon) randomNonce() []byte {
	b := make([]byte, 8)
	d.rng.Read(b)
	return b
}
