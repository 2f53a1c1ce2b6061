package services

import (
	"log"
	"regexp"
	"strings"

	"composer/config"

	"github.com/mozillazg/go-pinyin"
)

const emptyTimedLine = " 🎶🎶🎶"

var (
	chineseRe  = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)
	japaneseRe = regexp.MustCompile(`[\x{3040}-\x{309f}\x{30a0}-\x{30ff}]+`)
	koreanRe   = regexp.MustCompile(`[\x{ac00}-\x{d7af}]+`)
	lrcTimeRe  = regexp.MustCompile(`^(\[[\d:.]+\])`)
)

// RomanizeOptions selects the scripts to convert and the output layout
type RomanizeOptions struct {
	Chinese  bool   `json:"chinese"`
	Japanese bool   `json:"japanese"`
	Korean   bool   `json:"korean"`
	Mode     string `json:"mode"`
}

// RomanizeOptionsFromSettings maps user settings onto RomanizeOptions
func RomanizeOptionsFromSettings(s config.Settings) RomanizeOptions {
	return RomanizeOptions{
		Chinese:  s.RomanizeChinese,
		Japanese: s.RomanizeJapanese,
		Korean:   s.RomanizeKorean,
		Mode:     s.RomanizationMode,
	}
}

// Romanizer converts Chinese, Japanese kana and Korean text to Latin script
type Romanizer interface {
	RomanizeText(text string, opts RomanizeOptions) string
	RomanizeLyrics(lyrics string, opts RomanizeOptions) string
	Available() map[string]bool
}

type romanizer struct {
	pinyinArgs pinyin.Args
}

// NewRomanizer creates a romanizer using tone-marked pinyin for Chinese
func NewRomanizer() Romanizer {
	args := pinyin.NewArgs()
	args.Style = pinyin.Tone
	return &romanizer{pinyinArgs: args}
}

// Available reports which scripts can be romanized
func (r *romanizer) Available() map[string]bool {
	return map[string]bool{
		"chinese":  true,
		"japanese": true,
		"korean":   true,
	}
}

// RomanizeText replaces each enabled script's runs with their romanization.
// Kanji are covered by the Chinese range and so are read as pinyin.
func (r *romanizer) RomanizeText(text string, opts RomanizeOptions) string {
	result := text
	if opts.Chinese {
		result = chineseRe.ReplaceAllStringFunc(result, r.romanizeChinese)
	}
	if opts.Japanese {
		result = japaneseRe.ReplaceAllStringFunc(result, kanaToRomaji)
	}
	if opts.Korean {
		result = koreanRe.ReplaceAllStringFunc(result, hangulToRoman)
	}
	return result
}

func (r *romanizer) romanizeChinese(run string) string {
	syllables := pinyin.LazyPinyin(run, r.pinyinArgs)
	if len(syllables) == 0 {
		return run
	}
	return strings.Join(syllables, " ")
}

// RomanizeLyrics romanizes line by line, keeping LRC timestamps. In replace
// mode changed lines are substituted; in multiline mode the romanized line
// follows the original.
func (r *romanizer) RomanizeLyrics(lyrics string, opts RomanizeOptions) string {
	mode := opts.Mode
	if mode != config.RomanizeReplace && mode != config.RomanizeMultiline {
		log.Printf("Invalid romanization mode: %s, using 'replace'", mode)
		mode = config.RomanizeReplace
	}

	lines := strings.Split(lyrics, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		prefix := lrcTimeRe.FindString(line)
		text := line[len(prefix):]

		if strings.TrimSpace(text) == "" {
			if prefix != "" {
				out = append(out, prefix+emptyTimedLine)
			} else {
				out = append(out, line)
			}
			continue
		}

		romanized := r.RomanizeText(text, opts)
		changed := romanized != text

		switch mode {
		case config.RomanizeReplace:
			if changed {
				out = append(out, prefix+romanized)
			} else {
				out = append(out, line)
			}
		case config.RomanizeMultiline:
			out = append(out, line)
			if changed {
				out = append(out, prefix+romanized)
			}
		}
	}

	return strings.Join(out, "\n")
}

// ContainsCJK reports whether text has any character a Romanizer converts
func ContainsCJK(text string) bool {
	return chineseRe.MatchString(text) || japaneseRe.MatchString(text) || koreanRe.MatchString(text)
}
