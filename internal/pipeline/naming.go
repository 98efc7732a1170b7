package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"tonearm/internal/codec"
	"tonearm/internal/config"
	"tonearm/internal/services"
	"tonearm/internal/textutil"
)

const deleteAttempts = 16

type renameToken struct {
	re    *regexp.Regexp
	value func(base string, meta codec.MetaInfo) string
}

func token(name string, value func(string, codec.MetaInfo) string) renameToken {
	return renameToken{re: regexp.MustCompile(`(?i)<` + name + `>`), value: value}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var renameTokens = []renameToken{
	token("BaseName", func(base string, _ codec.MetaInfo) string { return orDefault(base, "Unknown File Name") }),
	token("TrackNo", func(_ string, m codec.MetaInfo) string { return fmt.Sprintf("%02d", m.Position) }),
	token("Title", func(_ string, m codec.MetaInfo) string { return orDefault(m.Title, "Unknown Title") }),
	token("Artist", func(_ string, m codec.MetaInfo) string { return orDefault(m.Artist, "Unknown Artist") }),
	token("Album", func(_ string, m codec.MetaInfo) string { return orDefault(m.Album, "Unknown Album") }),
	token("Year", func(_ string, m codec.MetaInfo) string { return fmt.Sprintf("%04d", m.Year) }),
	token("Comment", func(_ string, m codec.MetaInfo) string { return orDefault(m.Comment, "Unknown Comment") }),
}

// ApplyRenamePattern expands the rename tokens in pattern. Tokens match
// case-insensitively; empty tag fields fall back to "Unknown ..." defaults.
func ApplyRenamePattern(pattern, baseName string, meta codec.MetaInfo) string {
	name := pattern
	for _, t := range renameTokens {
		name = t.re.ReplaceAllLiteralString(name, t.value(baseName, meta))
	}
	return name
}

// ApplyRenameRegexp runs the configured search/replace over name. Both
// search and replace must be set; an invalid expression leaves name as is.
func ApplyRenameRegexp(name, search, replace string) string {
	if search == "" || replace == "" {
		return name
	}
	re, err := regexp.Compile(search)
	if err != nil {
		return name
	}
	return re.ReplaceAllString(name, replace)
}

// baseName returns the file name without its last extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type naming struct {
	output  string
	skipped bool
}

// prepareOutput validates the source, picks the output path according to the
// rename and overwrite rules, and creates an empty placeholder there.
func prepareOutput(req Request, out config.Output, outputDir, defaultExt string, log func(string)) (naming, error) {
	const component = "pipeline"

	info, err := os.Stat(req.Source)
	if err != nil || !info.Mode().IsRegular() {
		log(fmt.Sprintf("The source audio file could not be found:\n%s", req.Source))
		return naming{}, services.Wrap(services.ErrNotFound, component, "prepare", fmt.Sprintf("source %q not found", req.Source), err)
	}
	readTest, err := os.Open(req.Source)
	if err != nil {
		log(fmt.Sprintf("The source audio file could not be opened for reading:\n%s", req.Source))
		return naming{}, services.Wrap(services.ErrValidation, component, "prepare", "source is not readable", err)
	}
	_ = readTest.Close()

	sourceAbs, err := filepath.Abs(req.Source)
	if err != nil {
		sourceAbs = req.Source
	}
	targetDir := outputDir
	if strings.TrimSpace(targetDir) == "" {
		targetDir = filepath.Dir(sourceAbs)
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		log(fmt.Sprintf("The target output directory doesn't exist and could NOT be created:\n%s", targetDir))
		return naming{}, services.Wrap(services.ErrValidation, component, "prepare", "create output directory", err)
	}
	writeTest, err := os.CreateTemp(targetDir, ".tonearm-*")
	if err != nil {
		log(fmt.Sprintf("The target output directory is NOT writable:\n%s", targetDir))
		return naming{}, services.Wrap(services.ErrValidation, component, "prepare", "output directory is not writable", err)
	}
	_ = writeTest.Close()
	_ = os.Remove(writeTest.Name())

	name := ApplyRenamePattern(orDefault(out.RenamePattern, "<BaseName>"), baseName(req.Source), req.Meta)
	name = textutil.SanitizeFileName(ApplyRenameRegexp(name, out.RenameSearch, out.RenameReplace))
	if name == "" {
		name = textutil.SanitizeFileName(baseName(req.Source))
	}
	ext := strings.TrimPrefix(strings.TrimSpace(out.FileExtension), ".")
	if ext == "" {
		ext = defaultExt
	}
	output := filepath.Join(targetDir, name+"."+ext)

	if out.OverwriteMode == OverwriteSkipExisting && exists(output) {
		log(fmt.Sprintf("Target output file already exists, going to skip this file:\n%s", output))
		return naming{output: output, skipped: true}, nil
	}

	if out.OverwriteMode == OverwriteReplace && isRegularFile(output) {
		log(fmt.Sprintf("Target output file already exists, going to delete existing file:\n%s", output))
		if !strings.EqualFold(sourceAbs, output) {
			for range deleteAttempts {
				if err := os.Remove(output); err == nil || os.IsNotExist(err) {
					break
				}
				time.Sleep(time.Millisecond)
			}
		}
		if exists(output) {
			log("Failed to delete existing target file, will save to another file name!")
		}
	}

	for n := 2; exists(output); n++ {
		output = filepath.Join(targetDir, fmt.Sprintf("%s (%d).%s", name, n, ext))
	}

	placeholder, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY, 0o644)
	if err == nil {
		_ = placeholder.Close()
	}
	return naming{output: output}, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
