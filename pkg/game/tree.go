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

package game

import "errors"

var (
	ErrIllegalMove      = errors.New("game: illegal move for the current position")
	ErrNoSuchVariation  = errors.New("game: no variation with the given number")
	ErrCannotDeleteRoot = errors.New("game: the root of the tree can't be deleted")
)

// Node is a single move played from its parent's position. The first child
// of a Node is the main line; the remaining children are variations, in
// order of entry. A Node owns its children exclusively.
type Node struct {
	// Move is the move's identity in UCI form ("e2e4"). It is the key
	// used to match engine lines and masters statistics against the tree.
	Move string

	// SAN is the move in standard algebraic notation, as written to PGN.
	SAN string

	Comment string
	NAG     int // numeric annotation glyph, 0 if none

	Children []*Node
}

// Child returns the child of the node playing the given UCI move, if any.
func (node *Node) Child(uci string) *Node {
	for _, child := range node.Children {
		if child.Move == uci {
			return child
		}
	}

	return nil
}

// Tree owns a game's move tree and a cursor identifying the current node.
// The cursor is a path of child indices from the root, so deleting a node
// on the path only requires truncating the path, never patching pointers.
type Tree struct {
	Root *Node

	// SetupFEN is the position the root node represents. Empty means
	// the standard starting position.
	SetupFEN string

	cursor []int
}

func NewTree() *Tree {
	return &Tree{Root: &Node{}}
}

// Cursor returns a copy of the current cursor path.
func (tree *Tree) Cursor() []int {
	path := make([]int, len(tree.cursor))
	copy(path, tree.cursor)
	return path
}

// Current resolves the cursor to its node. The cursor invariant guarantees
// this never fails on a tree mutated only through its own methods.
func (tree *Tree) Current() *Node {
	node, _ := tree.NodeAt(tree.cursor)
	return node
}

// NodeAt resolves a cursor path to a node, reporting whether every index
// on the path was in range.
func (tree *Tree) NodeAt(path []int) (*Node, bool) {
	node := tree.Root
	for _, index := range path {
		if index < 0 || index >= len(node.Children) {
			return nil, false
		}

		node = node.Children[index]
	}

	return node, true
}

// AtRoot reports whether the cursor is at the starting position.
func (tree *Tree) AtRoot() bool {
	return len(tree.cursor) == 0
}

// MovePath returns the UCI moves leading from the root to the cursor.
func (tree *Tree) MovePath() []string {
	moves := make([]string, 0, len(tree.cursor))

	node := tree.Root
	for _, index := range tree.cursor {
		node = node.Children[index]
		moves = append(moves, node.Move)
	}

	return moves
}

// Ply returns the number of half-moves played up to the cursor.
func (tree *Tree) Ply() int {
	return len(tree.cursor)
}
