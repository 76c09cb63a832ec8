package syncer

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/diancan-pos/api/internal/enum"
	"github.com/diancan-pos/api/internal/model"
	"github.com/diancan-pos/api/internal/state"
)

// Fetcher reads the remote document, returning def on any failure.
// Satisfied by *binstore.Client.
type Fetcher interface {
	Load(ctx context.Context, def model.Document) model.Document
}

// Reconciler polls the bin on a fixed interval and merges remote state
// into the local store under asymmetric rules: the menu may be overwritten
// (only while the device shows the kitchen view, so a customer's
// in-progress cart never has the catalog swapped underneath it), and
// orders are never overwritten after the initial boot load — every local
// order mutation already pushed itself, so the local list is
// authoritative.
type Reconciler struct {
	store    *state.Store
	bin      Fetcher
	interval time.Duration
	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// New creates a Reconciler polling every interval.
func New(store *state.Store, bin Fetcher, interval time.Duration) *Reconciler {
	return &Reconciler{store: store, bin: bin, interval: interval}
}

// Run polls until ctx is cancelled. Call as a goroutine.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				r.RunOnce(ctx)
			}()
		case <-ctx.Done():
			r.wg.Wait()
			return
		}
	}
}

// RunOnce performs a single poll-and-merge pass. It is single-flight: if a
// previous pass is still in flight the call is a no-op. Returns true when
// the local menu was overwritten from remote.
func (r *Reconciler) RunOnce(ctx context.Context) bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer r.inFlight.Store(false)

	// The local snapshot doubles as the fetch default, so a failed fetch
	// is indistinguishable from "no change" and can never erase state.
	local := r.store.Document()
	remote := r.bin.Load(ctx, local)

	if r.store.View() != enum.ViewKitchen {
		return false
	}
	if menusEqual(local.Menu, remote.Menu) {
		return false
	}

	log.Printf("remote menu changed, applying %d items", len(remote.Menu))
	r.store.ReplaceMenu(remote.Menu)
	return true
}

// menusEqual compares catalogs structurally via their JSON form, which
// sidesteps decimal representation differences.
func menusEqual(a, b []model.MenuItem) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
