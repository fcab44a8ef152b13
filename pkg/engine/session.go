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

// Package engine drives one long-lived UCI analysis process. A Session owns
// the process handle, translates analysis requests into protocol commands
// and streams parsed evaluation updates back to its consumer. The wire
// protocol has no request ids, so results are correlated with requests by a
// generation counter owned by the session's single controller.
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/scholar/pkg/analysis"
)

var (
	// ErrUnavailable is reported when the engine process has died or
	// could not be spawned. The session never restarts the process on
	// its own; the restart policy belongs to the caller.
	ErrUnavailable = errors.New("engine: analysis engine unavailable")

	ErrReadTimeout = errors.New("engine: read i/o timeout")
)

const (
	handshakeTimeout = 5 * time.Second
	drainTimeout     = 5 * time.Second
	shutdownTimeout  = 3 * time.Second
)

type Config struct {
	Name string `yaml:"name"`
	Cmd  string `yaml:"cmd"`
	Dir  string `yaml:"dir"`
	Arg  string `yaml:"arg"`

	Threads int `yaml:"threads"`
	HashMB  int `yaml:"hash-mb"`

	Options map[string]string `yaml:"options"`
}

// Start launches the engine process, performs the uci handshake and
// forwards the configured options. A spawn or handshake failure is fatal to
// this session only; the caller can keep going without analysis.
func Start(config Config) (*Session, error) {
	process := exec.Command(config.Cmd, strings.Fields(config.Arg)...)
	process.Dir = config.Dir

	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	session := newSession(config, stdin, stdout)
	session.cmd = process

	if err := process.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := session.initialize(); err != nil {
		_ = process.Process.Kill()
		return nil, err
	}

	go session.dispatch()
	return session, nil
}

// Session is the lifecycle of one external analysis process. At most one
// analysis request is live at a time: a newer submit invalidates the
// previous one, and the protocol's mandatory drain-to-terminator step is
// completed before the next search begins.
type Session struct {
	config Config
	cmd    *exec.Cmd

	writer *bufio.Writer
	lines  chan string

	updates chan analysis.Update

	mu         sync.Mutex
	generation uint64
	searching  bool
	draining   bool
	done       chan struct{}
	err        error

	freshness uint64
}

// newSession wires a session over raw protocol pipes and starts the line
// reader. Used by Start and, with synthetic pipes, by the tests.
func newSession(config Config, stdin io.Writer, stdout io.Reader) *Session {
	session := &Session{
		config:  config,
		writer:  bufio.NewWriter(stdin),
		lines:   make(chan string),
		updates: make(chan analysis.Update, 128),
	}

	reader := bufio.NewReader(stdout)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				session.fail(err)
				close(session.lines)
				return
			}

			line = strings.Trim(line, " \n\t\r")

			logrus.Debugf("info: (%s)> %s", session.config.Name, line)
			session.lines <- line
		}
	}()

	return session
}

// initialize performs the capability negotiation handshake and forwards
// the configured option set.
func (session *Session) initialize() error {
	if err := session.Write("uci"); err != nil {
		return err
	}

	if _, err := session.Await("uciok", handshakeTimeout); err != nil {
		return err
	}

	if session.config.Threads >= 1 {
		if err := session.Write("setoption name Threads value %d", session.config.Threads); err != nil {
			return err
		}
	}

	if session.config.HashMB >= 1 {
		if err := session.Write("setoption name Hash value %d", session.config.HashMB); err != nil {
			return err
		}
	}

	for name, value := range session.config.Options {
		if err := session.Write("setoption name %s value %s", name, value); err != nil {
			return err
		}
	}

	return session.Synchronize()
}

// Synchronize waits for the engine to finish any time consuming work and
// report itself ready.
func (session *Session) Synchronize() error {
	if err := session.Write("isready"); err != nil {
		return err
	}

	_, err := session.Await("readyok", handshakeTimeout)
	return err
}

// Updates is the stream of parsed evaluation events across all
// generations. The channel closes when the engine process exits.
func (session *Session) Updates() <-chan analysis.Update {
	return session.updates
}

// Submit starts a search for the requested position, first cancelling and
// draining any search still in flight. Sending a new position before the
// previous terminator is consumed is a protocol violation, so the drain is
// never skipped.
func (session *Session) Submit(request analysis.Request) error {
	if err := session.Cancel(); err != nil {
		return err
	}

	if request.MultiPV >= 1 {
		if err := session.Write("setoption name MultiPV value %d", request.MultiPV); err != nil {
			return err
		}
	}

	position := "position startpos"
	if request.SetupFEN != "" {
		position = "position fen " + request.SetupFEN
	}
	if len(request.Moves) > 0 {
		position += " moves " + strings.Join(request.Moves, " ")
	}

	if err := session.Write("%s", position); err != nil {
		return err
	}

	// Mark the search live before "go" so no output line of the new
	// generation can race past the dispatcher.
	session.mu.Lock()
	session.generation = request.Generation
	session.searching = true
	session.draining = false
	session.done = make(chan struct{})
	session.mu.Unlock()

	if err := session.Write("go infinite"); err != nil {
		return err
	}

	return nil
}

// Cancel requests a stop and then drains and discards the cancelled
// generation's output until the completion terminator is observed, leaving
// the session ready for the next request. A no-op when nothing is live.
func (session *Session) Cancel() error {
	session.mu.Lock()
	if !session.searching {
		session.mu.Unlock()
		return nil
	}

	session.draining = true
	done := session.done
	session.mu.Unlock()

	if err := session.Write("stop"); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-time.After(drainTimeout):
		if err := session.failure(); err != nil {
			return err
		}

		return ErrReadTimeout
	}
}

// Shutdown quits the engine and waits a bounded time for the process to
// exit, force-terminating it on timeout.
func (session *Session) Shutdown() error {
	_ = session.Cancel()
	_ = session.Write("quit")

	if session.cmd == nil {
		return nil
	}

	exited := make(chan error, 1)
	go func() { exited <- session.cmd.Wait() }()

	select {
	case <-exited:
		return nil
	case <-time.After(shutdownTimeout):
		logrus.Debugf("info: (%s) did not quit, killing", session.config.Name)
		return session.cmd.Process.Kill()
	}
}

// dispatch consumes the engine's output lines for the life of the process.
// Lines of the live generation become updates; lines of a cancelled
// generation are discarded until its terminator. Output between searches
// and malformed lines are dropped, never fatal.
func (session *Session) dispatch() {
	for line := range session.lines {
		session.mu.Lock()
		searching, draining, generation := session.searching, session.draining, session.generation
		session.mu.Unlock()

		if !searching {
			continue
		}

		if isTerminator(line) {
			session.mu.Lock()
			session.searching = false
			session.draining = false
			done := session.done
			session.mu.Unlock()

			if !draining {
				session.updates <- analysis.Update{Kind: analysis.UpdateDone, Generation: generation}
			}

			close(done)
			continue
		}

		if draining {
			continue
		}

		parsed, ok := parseInfoLine(line)
		if !ok {
			continue
		}

		session.freshness++
		parsed.Generation = generation
		parsed.Freshness = session.freshness

		session.updates <- analysis.Update{Kind: analysis.UpdateLine, Generation: generation, Line: parsed}
	}

	// The process is gone. Release anyone waiting on a drain and close
	// the update stream so consumers unwind.
	session.mu.Lock()
	if session.searching {
		session.searching = false
		close(session.done)
	}
	session.mu.Unlock()

	close(session.updates)
}

// Await waits for a line matching the pattern, with a fixed timeout. Only
// used during the handshake, before the dispatcher owns the line stream.
func (session *Session) Await(pattern string, timeout time.Duration) (string, error) {
	regex := regexp.MustCompile(pattern)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if err := session.failure(); err != nil {
				return "", err
			}

			return "", ErrReadTimeout

		case line, ok := <-session.lines:
			if !ok {
				return "", session.failure()
			}

			if regex.MatchString(line) {
				return line, nil
			}
		}
	}
}

func (session *Session) Write(format string, a ...any) error {
	logrus.Debugf("info: (%s)< "+format, append([]any{session.config.Name}, a...)...)

	if _, err := fmt.Fprintf(session.writer, format+"\n", a...); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := session.writer.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

func (session *Session) fail(err error) {
	session.mu.Lock()
	if session.err == nil {
		session.err = err
	}
	session.mu.Unlock()
}

// failure returns ErrUnavailable once the process has died, nil otherwise.
func (session *Session) failure() error {
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, session.err)
	}

	return nil
}
