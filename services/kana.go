package services

import "strings"

var kanaMonographs = map[rune]string{
	'あ': "a", 'い': "i", 'う': "u", 'え': "e", 'お': "o",
	'か': "ka", 'き': "ki", 'く': "ku", 'け': "ke", 'こ': "ko",
	'さ': "sa", 'し': "shi", 'す': "su", 'せ': "se", 'そ': "so",
	'た': "ta", 'ち': "chi", 'つ': "tsu", 'て': "te", 'と': "to",
	'な': "na", 'に': "ni", 'ぬ': "nu", 'ね': "ne", 'の': "no",
	'は': "ha", 'ひ': "hi", 'ふ': "fu", 'へ': "he", 'ほ': "ho",
	'ま': "ma", 'み': "mi", 'む': "mu", 'め': "me", 'も': "mo",
	'や': "ya", 'ゆ': "yu", 'よ': "yo",
	'ら': "ra", 'り': "ri", 'る': "ru", 'れ': "re", 'ろ': "ro",
	'わ': "wa", 'ゐ': "i", 'ゑ': "e", 'を': "o", 'ん': "n",
	'が': "ga", 'ぎ': "gi", 'ぐ': "gu", 'げ': "ge", 'ご': "go",
	'ざ': "za", 'じ': "ji", 'ず': "zu", 'ぜ': "ze", 'ぞ': "zo",
	'だ': "da", 'ぢ': "ji", 'づ': "zu", 'で': "de", 'ど': "do",
	'ば': "ba", 'び': "bi", 'ぶ': "bu", 'べ': "be", 'ぼ': "bo",
	'ぱ': "pa", 'ぴ': "pi", 'ぷ': "pu", 'ぺ': "pe", 'ぽ': "po",
	'ぁ': "a", 'ぃ': "i", 'ぅ': "u", 'ぇ': "e", 'ぉ': "o",
	'ゃ': "ya", 'ゅ': "yu", 'ょ': "yo", 'ゎ': "wa",
	'ゔ': "vu", 'ゕ': "ka", 'ゖ': "ke",
	'・': " ",
}

var kanaDigraphs = map[string]string{
	"ふぁ": "fa", "ふぃ": "fi", "ふぇ": "fe", "ふぉ": "fo",
	"てぃ": "ti", "でぃ": "di", "とぅ": "tu", "どぅ": "du",
	"しぇ": "she", "じぇ": "je", "ちぇ": "che",
	"うぃ": "wi", "うぇ": "we", "うぉ": "wo",
	"ゔぁ": "va", "ゔぃ": "vi", "ゔぇ": "ve", "ゔぉ": "vo",
}

func init() {
	yoon := map[rune]string{
		'き': "ky", 'し': "sh", 'ち': "ch", 'に': "ny", 'ひ': "hy", 'み': "my", 'り': "ry",
		'ぎ': "gy", 'じ': "j", 'ぢ': "j", 'び': "by", 'ぴ': "py",
	}
	small := map[rune]string{'ゃ': "a", 'ゅ': "u", 'ょ': "o"}
	for head, consonant := range yoon {
		for tail, vowel := range small {
			kanaDigraphs[string([]rune{head, tail})] = consonant + vowel
		}
	}
}

// toHiragana folds katakana onto hiragana; the long vowel mark is kept
func toHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}

// kanaToRomaji converts hiragana and katakana to Hepburn romaji
func kanaToRomaji(s string) string {
	runes := []rune(toHiragana(s))
	var b strings.Builder
	sokuon := false
	lastVowel := byte(0)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch r {
		case 'っ':
			sokuon = true
			i++
			continue
		case 'ー':
			if lastVowel != 0 {
				b.WriteByte(lastVowel)
			}
			i++
			continue
		}

		syllable := ""
		if i+1 < len(runes) {
			if v, ok := kanaDigraphs[string(runes[i:i+2])]; ok {
				syllable = v
				i += 2
			}
		}
		if syllable == "" {
			if v, ok := kanaMonographs[r]; ok {
				syllable = v
			} else {
				syllable = string(r)
			}
			i++
		}

		if sokuon {
			sokuon = false
			switch {
			case strings.HasPrefix(syllable, "ch"):
				b.WriteByte('t')
			case isRomajiConsonant(syllable[0]):
				b.WriteByte(syllable[0])
			}
		}

		b.WriteString(syllable)
		if last := syllable[len(syllable)-1]; strings.IndexByte("aiueo", last) >= 0 {
			lastVowel = last
		} else {
			lastVowel = 0
		}
	}

	return b.String()
}

func isRomajiConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && strings.IndexByte("aiueon", c) < 0
}
