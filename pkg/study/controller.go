// Copyright © 2025 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package study wires navigation to analysis: every cursor position change
// cancels the in-flight engine request, submits a fresh one under a new
// generation id and issues an independent masters statistics lookup. The
// generation counter has a single writer — the controller — which stands in
// for the request ids the wire protocol does not have.
package study

import (
	"sync"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/scholar/pkg/analysis"
	"laptudirm.com/x/scholar/pkg/game"
	"laptudirm.com/x/scholar/pkg/masters"
)

// State is the engine-facing state of the study session.
type State uint8

const (
	// Idle: no analysis request in flight.
	Idle State = iota

	// AnalysisPending: a request was submitted, no update seen yet.
	AnalysisPending

	// AnalysisLive: updates for the live generation are arriving, or the
	// search finished and the last snapshot is final.
	AnalysisLive
)

func (state State) String() string {
	switch state {
	case AnalysisPending:
		return "pending"
	case AnalysisLive:
		return "live"
	default:
		return "idle"
	}
}

// Analyzer is the engine session surface the controller drives.
type Analyzer interface {
	Submit(analysis.Request) error
	Cancel() error
	Updates() <-chan analysis.Update
}

// Explorer is the remote statistics collaborator.
type Explorer interface {
	Lookup(fen string) (*masters.Stats, error)
}

// Controller coordinates one study session. The engine and the explorer
// are both optional: without an engine the session is navigation-only, and
// statistics lookups failing or missing never interrupt anything.
type Controller struct {
	nav      *game.Navigator
	engine   Analyzer
	explorer Explorer

	agg     *analysis.Aggregator
	multiPV int

	mu         sync.Mutex
	state      State
	generation uint64
	engineDown bool

	// stats is the last successful lookup. On a failed lookup the stale
	// value stays displayed rather than blanking the overlay.
	stats *masters.Stats

	consumed chan struct{}
}

func NewController(nav *game.Navigator, engine Analyzer, explorer Explorer, multiPV int) *Controller {
	controller := &Controller{
		nav:      nav,
		engine:   engine,
		explorer: explorer,
		agg:      analysis.NewAggregator(),
		multiPV:  multiPV,
		consumed: make(chan struct{}),
	}

	if engine != nil {
		go controller.consume()
	} else {
		close(controller.consumed)
	}

	return controller
}

// OnPositionChange supersedes the in-flight analysis request with one for
// the cursor's current position and kicks off a statistics lookup for it.
// A submit failure is retried once; after that the engine is marked down
// and the error surfaced, with navigation unaffected.
func (controller *Controller) OnPositionChange() error {
	tree := controller.nav.Tree()

	controller.mu.Lock()
	controller.generation++
	generation := controller.generation
	engineUp := controller.engine != nil && !controller.engineDown
	controller.mu.Unlock()

	controller.agg.Begin(generation, controller.multiPV)

	if controller.explorer != nil {
		fen, err := controller.nav.FEN()
		if err == nil {
			go controller.lookup(generation, fen)
		}
	}

	if !engineUp {
		return nil
	}

	request := analysis.Request{
		SetupFEN:   tree.SetupFEN,
		Moves:      tree.MovePath(),
		MultiPV:    controller.multiPV,
		Generation: generation,
	}

	if err := controller.engine.Cancel(); err != nil {
		logrus.Debugf("study: cancel failed: %s", err)
	}

	controller.setState(Idle)

	err := controller.engine.Submit(request)
	if err != nil {
		logrus.Debugf("study: submit failed, retrying once: %s", err)
		err = controller.engine.Submit(request)
	}

	if err != nil {
		controller.mu.Lock()
		controller.engineDown = true
		controller.state = Idle
		controller.mu.Unlock()
		return err
	}

	controller.setState(AnalysisPending)
	return nil
}

// consume folds the engine's update stream into the aggregator and drives
// the Pending to Live transition. Stale-generation updates are rejected by
// the aggregator, so a late line from a superseded search can never appear
// in the new generation's snapshot.
func (controller *Controller) consume() {
	for update := range controller.engine.Updates() {
		switch update.Kind {
		case analysis.UpdateLine:
			if !controller.agg.Apply(update.Line) {
				continue
			}

			controller.mu.Lock()
			if update.Generation == controller.generation && controller.state == AnalysisPending {
				controller.state = AnalysisLive
			}
			controller.mu.Unlock()

		case analysis.UpdateDone:
			// The last snapshot is final: stay live until the next
			// position change.
			controller.mu.Lock()
			if update.Generation == controller.generation && controller.state == AnalysisPending {
				controller.state = AnalysisLive
			}
			controller.mu.Unlock()
		}
	}

	// Update stream closed: the engine process is gone.
	controller.mu.Lock()
	controller.engineDown = true
	controller.state = Idle
	controller.mu.Unlock()

	close(controller.consumed)
}

// lookup runs one statistics round trip. The result is dropped if the
// cursor moved on while the request was in flight, and on failure the
// previous statistics stay shown.
func (controller *Controller) lookup(generation uint64, fen string) {
	stats, err := controller.explorer.Lookup(fen)
	if err != nil {
		logrus.Debugf("study: %s", err)
		return
	}

	controller.mu.Lock()
	if generation == controller.generation {
		controller.stats = stats
	}
	controller.mu.Unlock()
}

func (controller *Controller) setState(state State) {
	controller.mu.Lock()
	controller.state = state
	controller.mu.Unlock()
}

func (controller *Controller) State() State {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.state
}

func (controller *Controller) Generation() uint64 {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.generation
}

// EngineAvailable reports whether analysis requests can still be served.
func (controller *Controller) EngineAvailable() bool {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.engine != nil && !controller.engineDown
}

// Snapshot returns the current best-known evaluation, ordered by rank.
func (controller *Controller) Snapshot() []analysis.Line {
	return controller.agg.Snapshot()
}

// Depth returns the deepest depth in the current snapshot.
func (controller *Controller) Depth() int {
	return controller.agg.Depth()
}

// Stats returns the most recent successful statistics lookup, which may be
// stale if the latest lookup failed.
func (controller *Controller) Stats() *masters.Stats {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.stats
}

// Merged joins the evaluation snapshot and the statistics overlay on move
// identity for display.
func (controller *Controller) Merged() []masters.Row {
	return masters.Merge(controller.Snapshot(), controller.Stats())
}
