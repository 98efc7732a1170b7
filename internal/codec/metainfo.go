package codec

import (
	"strconv"
	"time"

	"tonearm/internal/textutil"
)

// MetaInfo carries the tags written by encoders. Empty strings and zero
// numbers are omitted from the command line.
type MetaInfo struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Comment  string
	Year     int
	Position int
	// Duration of the source, used by encoders whose tools report elapsed
	// time instead of a percentage.
	Duration time.Duration
}

// Sanitized returns a copy with every text field passed through the shared
// tag sanitizer.
func (m MetaInfo) Sanitized() MetaInfo {
	m.Title = textutil.SanitizeTag(m.Title)
	m.Artist = textutil.SanitizeTag(m.Artist)
	m.Album = textutil.SanitizeTag(m.Album)
	m.Genre = textutil.SanitizeTag(m.Genre)
	m.Comment = textutil.SanitizeTag(m.Comment)
	return m
}

type tagFlags struct {
	title, artist, album, genre, comment, year, position string
	commentValue                                         func(string) string
}

func (f tagFlags) args(meta MetaInfo) []string {
	meta = meta.Sanitized()
	var args []string
	add := func(flag, value string) {
		if flag != "" && value != "" {
			args = append(args, flag, value)
		}
	}
	add(f.title, meta.Title)
	add(f.artist, meta.Artist)
	add(f.album, meta.Album)
	add(f.genre, meta.Genre)
	if meta.Comment != "" && f.commentValue != nil {
		add(f.comment, f.commentValue(meta.Comment))
	} else {
		add(f.comment, meta.Comment)
	}
	if meta.Year > 0 {
		add(f.year, strconv.Itoa(meta.Year))
	}
	if meta.Position > 0 {
		add(f.position, strconv.Itoa(meta.Position))
	}
	return args
}
