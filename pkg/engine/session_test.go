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

package engine

import (
	"bufio"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/scholar/pkg/analysis"
)

// fakeEngine drives a session over synthetic pipes: the test reads the
// protocol commands the session writes and scripts the output lines.
type fakeEngine struct {
	t       *testing.T
	session *Session

	commands chan string
	output   *io.PipeWriter
}

func startFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	session := newSession(Config{Name: "fake"}, stdinW, stdoutR)
	go session.dispatch()

	commands := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(stdinR)
		for scanner.Scan() {
			commands <- scanner.Text()
		}
		close(commands)
	}()

	t.Cleanup(func() {
		stdoutW.Close()
		stdinW.Close()
	})

	return &fakeEngine{t: t, session: session, commands: commands, output: stdoutW}
}

// send scripts one output line from the engine.
func (fake *fakeEngine) send(line string) {
	fmt.Fprintln(fake.output, line)
}

// expect waits for the next command written by the session.
func (fake *fakeEngine) expect(want string) {
	fake.t.Helper()

	select {
	case command := <-fake.commands:
		require.Equal(fake.t, want, command)
	case <-time.After(2 * time.Second):
		fake.t.Fatalf("timed out waiting for command %q", want)
	}
}

func waitUpdate(t *testing.T, session *Session) analysis.Update {
	t.Helper()

	select {
	case update, ok := <-session.Updates():
		require.True(t, ok, "update stream closed unexpectedly")
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an update")
		return analysis.Update{}
	}
}

func assertNoUpdate(t *testing.T, session *Session) {
	t.Helper()

	select {
	case update := <-session.Updates():
		t.Fatalf("unexpected update: %+v", update)
	default:
	}
}

func TestSessionStreamsUpdates(t *testing.T) {
	fake := startFakeEngine(t)

	err := fake.session.Submit(analysis.Request{
		Generation: 1, MultiPV: 2, Moves: []string{"e2e4"},
	})
	require.NoError(t, err)

	fake.expect("setoption name MultiPV value 2")
	fake.expect("position startpos moves e2e4")
	fake.expect("go infinite")

	fake.send("info depth 10 multipv 1 score cp 25 pv e7e5 g1f3")
	update := waitUpdate(t, fake.session)
	assert.Equal(t, analysis.UpdateLine, update.Kind)
	assert.Equal(t, uint64(1), update.Generation)
	assert.Equal(t, 1, update.Line.Rank)
	assert.Equal(t, []string{"e7e5", "g1f3"}, update.Line.Moves)
	assert.Equal(t, uint64(1), update.Line.Freshness)

	// Chatter without a scored line is dropped, not fatal.
	fake.send("info depth 11 currmove e7e5 currmovenumber 1")
	fake.send("info depth 11 multipv 2 score cp 12 pv d7d5")
	update = waitUpdate(t, fake.session)
	assert.Equal(t, 2, update.Line.Rank)
	assert.Equal(t, uint64(2), update.Line.Freshness)

	fake.send("bestmove e7e5 ponder g1f3")
	update = waitUpdate(t, fake.session)
	assert.Equal(t, analysis.UpdateDone, update.Kind)
	assert.Equal(t, uint64(1), update.Generation)
}

func TestSessionSubmitWithSetupFEN(t *testing.T) {
	fake := startFakeEngine(t)

	setup := "8/8/8/4k3/8/4K3/4P3/8 w - - 0 40"
	err := fake.session.Submit(analysis.Request{
		Generation: 1, SetupFEN: setup, Moves: []string{"e3d3"},
	})
	require.NoError(t, err)

	fake.expect("position fen " + setup + " moves e3d3")
	fake.expect("go infinite")
}

func TestSessionCancelDrainsStaleOutput(t *testing.T) {
	fake := startFakeEngine(t)

	err := fake.session.Submit(analysis.Request{Generation: 1, MultiPV: 1})
	require.NoError(t, err)

	fake.expect("setoption name MultiPV value 1")
	fake.expect("position startpos")
	fake.expect("go infinite")

	// Script the stop response: stale lines racing the terminator must be
	// discarded along with the terminator itself.
	go func() {
		for command := range fake.commands {
			if command == "stop" {
				fake.send("info depth 50 multipv 1 score cp 999 pv a2a3")
				fake.send("bestmove a2a3")
				return
			}
		}
	}()

	require.NoError(t, fake.session.Cancel())
	assertNoUpdate(t, fake.session)

	// A second cancel with nothing live is a no-op.
	require.NoError(t, fake.session.Cancel())

	// The next search starts a fresh generation and its updates flow.
	err = fake.session.Submit(analysis.Request{Generation: 2, MultiPV: 1})
	require.NoError(t, err)

	fake.expect("setoption name MultiPV value 1")
	fake.expect("position startpos")
	fake.expect("go infinite")

	fake.send("info depth 8 multipv 1 score cp -14 pv d2d4")
	update := waitUpdate(t, fake.session)
	assert.Equal(t, uint64(2), update.Generation)
	assert.Equal(t, []string{"d2d4"}, update.Line.Moves)
}

func TestSessionClosesUpdatesWhenProcessDies(t *testing.T) {
	fake := startFakeEngine(t)

	err := fake.session.Submit(analysis.Request{Generation: 1, MultiPV: 1})
	require.NoError(t, err)

	fake.output.CloseWithError(io.ErrUnexpectedEOF)

	select {
	case _, ok := <-fake.session.Updates():
		assert.False(t, ok, "update stream should close when the process dies")
	case <-time.After(2 * time.Second):
		t.Fatal("update stream never closed")
	}

	// With the process gone every protocol write reports unavailability.
	assert.ErrorIs(t, fake.session.failure(), ErrUnavailable)
}

func TestSessionInitialize(t *testing.T) {
	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()
	t.Cleanup(func() {
		stdoutW.Close()
		stdinW.Close()
	})

	session := newSession(Config{
		Name: "fake", Threads: 2, HashMB: 128,
		Options: map[string]string{"SyzygyPath": "/tables"},
	}, stdinW, stdoutR)

	seen := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(stdinR)
		for scanner.Scan() {
			command := scanner.Text()
			seen <- command

			switch command {
			case "uci":
				fmt.Fprintln(stdoutW, "id name fake")
				fmt.Fprintln(stdoutW, "uciok")
			case "isready":
				fmt.Fprintln(stdoutW, "readyok")
			}
		}
	}()

	require.NoError(t, session.initialize())

	var commands []string
	for done := false; !done; {
		select {
		case command := <-seen:
			commands = append(commands, command)
		default:
			done = true
		}
	}

	assert.Equal(t, "uci", commands[0])
	assert.Contains(t, commands, "setoption name Threads value 2")
	assert.Contains(t, commands, "setoption name Hash value 128")
	assert.Contains(t, commands, "setoption name SyzygyPath value /tables")
	assert.Equal(t, "isready", commands[len(commands)-1])
}
