package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

var _ list.Item = songItem{}

// dateLayout renders a song's last-modified date on its card.
const dateLayout = "Jan 2, 2006"

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song models.Song
}

// FilterValue is the folded title so filtering ignores case and Unicode normalization form.
func (i songItem) FilterValue() string { return shared.FoldKey(i.song.Title) }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	lines := shared.Plural(len(i.song.Lines), "line", "lines")
	return lines + " • " + i.song.UpdatedAt.Local().Format(dateLayout)
}

// foldFilter folds the typed term the same way [songItem.FilterValue] folds titles.
func foldFilter(term string, targets []string) []list.Rank {
	return list.DefaultFilter(shared.FoldKey(term), targets)
}

func songItems(songs []models.Song) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}
