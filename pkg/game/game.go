package game

// Tag is a single PGN header tag. Tags keep their file order so a game
// round-trips through serialization unchanged.
type Tag struct {
	Name, Value string
}

// Game is one game of a collection: its header tags and its move tree.
type Game struct {
	Tags []Tag
	Tree *Tree
}

func New() *Game {
	return &Game{Tree: NewTree()}
}

// Tag returns the value of the named header tag, or "" if unset.
func (game *Game) Tag(name string) string {
	for _, tag := range game.Tags {
		if tag.Name == name {
			return tag.Value
		}
	}

	return ""
}

// SetTag replaces the named tag's value, appending the tag if it is new.
func (game *Game) SetTag(name, value string) {
	for i, tag := range game.Tags {
		if tag.Name == name {
			game.Tags[i].Value = value
			return
		}
	}

	game.Tags = append(game.Tags, Tag{Name: name, Value: value})
}

// Title returns a "White vs Black" description of the game.
func (game *Game) Title() string {
	white, black := game.Tag("White"), game.Tag("Black")
	if white == "" {
		white = "?"
	}
	if black == "" {
		black = "?"
	}

	return white + " vs " + black
}
