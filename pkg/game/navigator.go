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

// Navigator exposes the mutation and movement operations of a single game's
// tree. Every mutation is validated before any structural change is made, so
// a failed operation always leaves the tree untouched. The navigator is not
// safe for concurrent use; callers drive it from one goroutine.
type Navigator struct {
	game   *Game
	oracle Oracle

	dirty bool
}

func NewNavigator(g *Game, oracle Oracle) *Navigator {
	return &Navigator{game: g, oracle: oracle}
}

func (nav *Navigator) Game() *Game {
	return nav.game
}

func (nav *Navigator) Tree() *Tree {
	return nav.game.Tree
}

// Current returns the node the cursor points at.
func (nav *Navigator) Current() *Node {
	return nav.game.Tree.Current()
}

// Variations returns the continuations available from the current node,
// main line first.
func (nav *Navigator) Variations() []*Node {
	return nav.Current().Children
}

// Dirty reports whether the tree has been mutated since the last save.
func (nav *Navigator) Dirty() bool {
	return nav.dirty
}

// MarkSaved clears the dirty flag after the game has been persisted.
func (nav *Navigator) MarkSaved() {
	nav.dirty = false
}

// Advance moves the cursor into the child at the given index, 0 being the
// main line. Fails with ErrNoSuchVariation when the index is out of range.
func (nav *Navigator) Advance(index int) error {
	tree := nav.game.Tree
	if index < 0 || index >= len(tree.Current().Children) {
		return ErrNoSuchVariation
	}

	tree.cursor = append(tree.cursor, index)
	return nil
}

// Retreat moves the cursor to the parent node. At the root it is a no-op,
// not an error.
func (nav *Navigator) Retreat() {
	tree := nav.game.Tree
	if len(tree.cursor) > 0 {
		tree.cursor = tree.cursor[:len(tree.cursor)-1]
	}
}

// PlayMove enters a move from the current position. If a child already
// plays the same move the cursor just advances into it; otherwise the move
// is appended as a new last variation. The input may be SAN or UCI; moves
// rejected by the oracle fail with ErrIllegalMove.
func (nav *Navigator) PlayMove(input string) (*Node, error) {
	tree := nav.game.Tree
	uci, san, err := nav.oracle.Resolve(tree.SetupFEN, tree.MovePath(), input)
	if err != nil {
		return nil, err
	}

	current := tree.Current()
	for index, child := range current.Children {
		if child.Move == uci {
			tree.cursor = append(tree.cursor, index)
			return child, nil
		}
	}

	node := &Node{Move: uci, SAN: san}
	current.Children = append(current.Children, node)
	tree.cursor = append(tree.cursor, len(current.Children)-1)
	nav.dirty = true

	return node, nil
}

// PromoteVariation makes the current node the first child of its parent,
// turning it into the main line. A no-op at the root or when the node
// already is the main line.
func (nav *Navigator) PromoteVariation() {
	tree := nav.game.Tree
	if tree.AtRoot() {
		return
	}

	index := tree.cursor[len(tree.cursor)-1]
	if index == 0 {
		return
	}

	parent, _ := tree.NodeAt(tree.cursor[:len(tree.cursor)-1])
	node := parent.Children[index]

	// Shift the preceding siblings right and install the node in front.
	copy(parent.Children[1:index+1], parent.Children[:index])
	parent.Children[0] = node

	tree.cursor[len(tree.cursor)-1] = 0
	nav.dirty = true
}

// DeleteFromHere removes the current node and its whole subtree, moving
// the cursor to the parent. Fails with ErrCannotDeleteRoot at the root.
func (nav *Navigator) DeleteFromHere() error {
	tree := nav.game.Tree
	if tree.AtRoot() {
		return ErrCannotDeleteRoot
	}

	index := tree.cursor[len(tree.cursor)-1]
	parent, _ := tree.NodeAt(tree.cursor[:len(tree.cursor)-1])

	parent.Children = append(parent.Children[:index], parent.Children[index+1:]...)
	tree.cursor = tree.cursor[:len(tree.cursor)-1]
	nav.dirty = true

	return nil
}

// SetComment attaches a comment to the current node, replacing any
// previous one.
func (nav *Navigator) SetComment(text string) {
	current := nav.game.Tree.Current()
	if current.Comment != text {
		current.Comment = text
		nav.dirty = true
	}
}

// FEN returns the FEN of the cursor's position.
func (nav *Navigator) FEN() (string, error) {
	tree := nav.game.Tree
	return nav.oracle.FEN(tree.SetupFEN, tree.MovePath())
}

// Regraft replaces the game's tree with a freshly fetched one, re-deriving
// the cursor by following the old path's move identities. If the path no
// longer exists the cursor lands on the deepest surviving prefix. Used when
// a followed broadcast game receives new moves.
func (nav *Navigator) Regraft(fresh *Tree) {
	moves := nav.game.Tree.MovePath()

	cursor := make([]int, 0, len(moves))
	node := fresh.Root
	for _, uci := range moves {
		next := node.Child(uci)
		if next == nil {
			break
		}

		for index, child := range node.Children {
			if child == next {
				cursor = append(cursor, index)
				break
			}
		}
		node = next
	}

	fresh.cursor = cursor
	nav.game.Tree = fresh
}
