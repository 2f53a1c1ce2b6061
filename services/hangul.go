package services

import "strings"

const (
	hangulBase    = 0xAC00
	hangulLast    = 0xD7A3
	hangulMedials = 21
	hangulFinals  = 28
	silentInitial = 11 // ㅇ
	rieulInitial  = 5  // ㄹ
	rieulFinal    = 8  // ㄹ
	ieungFinal    = 21 // ㅇ
	nieunInitial  = 2  // ㄴ
	mieumInitial  = 6  // ㅁ
)

// obstruent codas become nasal before ㄴ or ㅁ
var nasalCoda = map[string]string{"k": "ng", "t": "n", "p": "m"}

var hangulInitials = []string{
	"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s",
	"ss", "", "j", "jj", "ch", "k", "t", "p", "h",
}

var hangulVowels = []string{
	"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
	"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
}

// hangulFinal holds the coda as pronounced at the end of a word and, when
// the next syllable starts with a silent ㅇ, the part that stays plus the
// part carried over as the next initial.
type hangulFinal struct {
	coda  string
	stay  string
	carry string
}

var hangulFinalTable = []hangulFinal{
	{"", "", ""},
	{"k", "", "g"},   // ㄱ
	{"k", "", "kk"},  // ㄲ
	{"k", "k", "s"},  // ㄳ
	{"n", "", "n"},   // ㄴ
	{"n", "n", "j"},  // ㄵ
	{"n", "n", ""},   // ㄶ
	{"t", "", "d"},   // ㄷ
	{"l", "", "r"},   // ㄹ
	{"k", "l", "g"},  // ㄺ
	{"m", "l", "m"},  // ㄻ
	{"l", "l", "b"},  // ㄼ
	{"l", "l", "s"},  // ㄽ
	{"l", "l", "t"},  // ㄾ
	{"p", "l", "p"},  // ㄿ
	{"l", "l", ""},   // ㅀ
	{"m", "", "m"},   // ㅁ
	{"p", "", "b"},   // ㅂ
	{"p", "p", "s"},  // ㅄ
	{"t", "", "s"},   // ㅅ
	{"t", "", "ss"},  // ㅆ
	{"ng", "ng", ""}, // ㅇ
	{"t", "", "j"},   // ㅈ
	{"t", "", "ch"},  // ㅊ
	{"k", "", "k"},   // ㅋ
	{"t", "", "t"},   // ㅌ
	{"p", "", "p"},   // ㅍ
	{"t", "", ""},    // ㅎ
}

type hangulSyllable struct {
	initial, vowel, final int
}

func decomposeHangul(r rune) (hangulSyllable, bool) {
	if r < hangulBase || r > hangulLast {
		return hangulSyllable{}, false
	}
	idx := int(r - hangulBase)
	return hangulSyllable{
		initial: idx / (hangulMedials * hangulFinals),
		vowel:   (idx % (hangulMedials * hangulFinals)) / hangulFinals,
		final:   idx % hangulFinals,
	}, true
}

// hangulToRoman applies Revised Romanization with consonant liaison
// before silent ㅇ, nasal assimilation before ㄴ and ㅁ, and the
// ㄹㄹ -> ll rule.
func hangulToRoman(s string) string {
	runes := []rune(s)
	var b strings.Builder
	carried := ""
	hasCarry := false

	for i, r := range runes {
		syl, ok := decomposeHangul(r)
		if !ok {
			b.WriteRune(r)
			hasCarry = false
			continue
		}

		initial := hangulInitials[syl.initial]
		if hasCarry {
			initial = carried
			hasCarry = false
		}
		if syl.initial == rieulInitial && i > 0 {
			if prev, ok := decomposeHangul(runes[i-1]); ok && prev.final == rieulFinal {
				initial = "l"
			}
		}
		b.WriteString(initial)
		b.WriteString(hangulVowels[syl.vowel])

		final := hangulFinalTable[syl.final]
		next, hasNext := hangulSyllable{}, false
		if i+1 < len(runes) {
			next, hasNext = decomposeHangul(runes[i+1])
		}

		switch {
		case syl.final == 0:
		case hasNext && next.initial == silentInitial && syl.final != ieungFinal:
			b.WriteString(final.stay)
			carried = final.carry
			hasCarry = true
		case hasNext && (next.initial == nieunInitial || next.initial == mieumInitial) && nasalCoda[final.coda] != "":
			b.WriteString(nasalCoda[final.coda])
		default:
			b.WriteString(final.coda)
		}
	}

	return b.String()
}
