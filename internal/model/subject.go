package model

import "math"

// Palette is the fixed set of subject colors, assigned round-robin
var Palette = []string{
	"#88C0D0",
	"#A3BE8C",
	"#EBCB8B",
	"#D08770",
	"#B48EAD",
}

// PaletteColor returns the color for the n-th subject
func PaletteColor(n int) string {
	if n < 0 {
		n = -n
	}
	return Palette[n%len(Palette)]
}

// Subject represents a curriculum topic
type Subject struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Chapters []Chapter `json:"chapters"`
}

// Chapter is a sub-unit of a subject
type Chapter struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// CompletedChapters returns the number of finished chapters
func (s *Subject) CompletedChapters() int {
	n := 0
	for _, c := range s.Chapters {
		if c.Completed {
			n++
		}
	}
	return n
}

// Progress returns the completion percentage rounded to one decimal.
// A subject with no chapters is at 0.
func (s *Subject) Progress() float64 {
	if len(s.Chapters) == 0 {
		return 0
	}
	pct := float64(s.CompletedChapters()) / float64(len(s.Chapters)) * 100
	return math.Round(pct*10) / 10
}

// ChapterIndex returns the position of the chapter or -1
func (s *Subject) ChapterIndex(chapterID string) int {
	for i := range s.Chapters {
		if s.Chapters[i].ID == chapterID {
			return i
		}
	}
	return -1
}
