package repositorycache

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Stats is a point-in-time snapshot of orchestrator counters.
type Stats struct {
	LocalHits  int64
	RemoteHits int64
	// StoreLoads counts backing store reads issued by Load.
	StoreLoads int64
	NotFound   int64
	// Coalesced counts loads answered by a flight shared with other callers.
	Coalesced int64

	RemoteErrors        int64
	DecodeErrors        int64
	WriteThroughFailure int64
}

type counters struct {
	localHits           *xsync.Counter
	remoteHits          *xsync.Counter
	storeLoads          *xsync.Counter
	notFound            *xsync.Counter
	coalesced           *xsync.Counter
	remoteErrors        *xsync.Counter
	decodeErrors        *xsync.Counter
	writeThroughFailure *xsync.Counter
}

func newCounters() *counters {
	return &counters{
		localHits:           xsync.NewCounter(),
		remoteHits:          xsync.NewCounter(),
		storeLoads:          xsync.NewCounter(),
		notFound:            xsync.NewCounter(),
		coalesced:           xsync.NewCounter(),
		remoteErrors:        xsync.NewCounter(),
		decodeErrors:        xsync.NewCounter(),
		writeThroughFailure: xsync.NewCounter(),
	}
}

func (c *counters) snapshot() Stats {
	return Stats{
		LocalHits:           c.localHits.Value(),
		RemoteHits:          c.remoteHits.Value(),
		StoreLoads:          c.storeLoads.Value(),
		NotFound:            c.notFound.Value(),
		Coalesced:           c.coalesced.Value(),
		RemoteErrors:        c.remoteErrors.Value(),
		DecodeErrors:        c.decodeErrors.Value(),
		WriteThroughFailure: c.writeThroughFailure.Value(),
	}
}
