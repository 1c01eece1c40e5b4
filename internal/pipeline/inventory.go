package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/backmassage/magickbatch/internal/display"
)

// Item is one row of a directory listing.
type Item struct {
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Size    int64     `json:"size"`
	Width   int       `json:"width,omitempty"`
	Height  int       `json:"height,omitempty"`
	ModTime time.Time `json:"mod_time"`
}

// DimensionsFunc reads the pixel size of an image file.
type DimensionsFunc func(path string) (int, int, error)

// Inventory lists the images in dir using the display allow-list (webp
// included), sorted by name. dims may be nil; files whose header cannot be
// read are listed without dimensions.
func Inventory(dir string, dims DimensionsFunc) []Item {
	files := List(dir, ListingExtensions)
	items := make([]Item, 0, len(files))
	for _, f := range files {
		it := Item{
			Name:   f.Name,
			Format: strings.ToUpper(strings.TrimPrefix(filepath.Ext(f.Name), ".")),
		}
		if fi, err := os.Stat(f.Path); err == nil {
			it.Size = fi.Size()
			it.ModTime = fi.ModTime()
		}
		if dims != nil {
			if w, h, err := dims(f.Path); err == nil {
				it.Width, it.Height = w, h
			}
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items
}

// PrintInventory writes a column-aligned table of items under a title.
func PrintInventory(w io.Writer, title string, items []Item) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(items))
	if len(items) == 0 {
		fmt.Fprintln(w, "  (empty)")
		fmt.Fprintln(w)
		return
	}

	nameW := len("File")
	for _, it := range items {
		nameW = max(nameW, utf8.RuneCountInString(it.Name))
	}
	nameW = min(nameW, 50)

	header := fmt.Sprintf("  %-*s  %-6s  %-11s  %10s", nameW, "File", "Format", "Size px", "Bytes")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	var total int64
	for _, it := range items {
		fmt.Fprintf(w, "  %-*s  %-6s  %-11s  %10s\n", nameW, truncateName(it.Name, nameW), it.Format,
			display.FormatDimensions(it.Width, it.Height), display.FormatBytes(it.Size))
		total += it.Size
	}
	fmt.Fprintf(w, "  total %s\n\n", display.FormatBytes(total))
}

// truncateName shortens name to at most n runes, marking the cut with "…".
func truncateName(name string, n int) string {
	if utf8.RuneCountInString(name) <= n {
		return name
	}
	r := []rune(name)
	return string(r[:n-1]) + "…"
}
