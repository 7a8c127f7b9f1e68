package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stopwords = map[string][]string{
	"fr": {
		"au", "aux", "avec", "ce", "ces", "cet", "cette", "comme", "dans", "de", "des", "du",
		"elle", "elles", "en", "est", "et", "etait", "ete", "etre", "eu", "il", "ils", "je",
		"la", "le", "les", "leur", "leurs", "lui", "ma", "mais", "me", "meme", "mes", "moi",
		"mon", "ne", "nos", "notre", "nous", "on", "ont", "ou", "par", "pas", "pour", "qu",
		"que", "qui", "sa", "se", "ses", "son", "sont", "sur", "ta", "te", "tes", "toi", "ton",
		"tu", "un", "une", "vos", "votre", "vous",
	},
	"en": {
		"about", "an", "and", "are", "as", "at", "be", "been", "but", "by", "can", "did",
		"do", "does", "for", "from", "had", "has", "have", "he", "her", "his", "how", "if",
		"in", "into", "is", "it", "its", "of", "on", "or", "our", "she", "so", "than", "that",
		"the", "their", "them", "then", "there", "these", "they", "this", "to", "was", "we",
		"were", "what", "when", "where", "which", "who", "why", "will", "with", "you", "your",
	},
}

// abbreviations that should not end a sentence
var abbreviations = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true,
	"prof": true, "sr": true, "jr": true,
	"vs": true, "etc": true, "inc": true, "ltd": true,
	"e.g": true, "i.e": true, "al": true, "approx": true,
	"fig": true, "no": true, "vol": true, "p": true,
	"m": true, "mme": true, "mlle": true, "cf": true, "art": true, "av": true,
}

// RuleProcessor is a rule based Processor.
// Lemmas are approximated by case folding, accent stripping, stopword removal and plural stripping.
type RuleProcessor struct {
	language  string
	stopwords map[string]struct{}
}

// NewRuleProcessor creates a processor for the language, unknown languages get no stopwords
func NewRuleProcessor(language string) *RuleProcessor {
	p := &RuleProcessor{
		language:  language,
		stopwords: map[string]struct{}{},
	}
	for _, w := range stopwords[language] {
		p.stopwords[w] = struct{}{}
	}
	return p
}

// Lemmas returns the key lemmas of the text in order of appearance
func (p *RuleProcessor) Lemmas(text string) []string {
	words := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	lemmas := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			continue
		}
		if _, ok := p.stopwords[w]; ok {
			continue
		}
		lemmas = append(lemmas, stem(w))
	}
	return lemmas
}

// Sentences returns the trimmed sentence spans of the text.
// Sentences end at a newline or at terminal punctuation followed by whitespace,
// abbreviations and decimal numbers excluded.
func (p *RuleProcessor) Sentences(text string) []Span {
	var spans []Span
	start := 0
	emit := func(end int) {
		if s, e := trimSpan(text, start, end); s < e {
			spans = append(spans, Span{Start: s, End: e})
		}
		start = end
	}

	for i, r := range text {
		switch r {
		case '\n':
			emit(i)
		case '。', '！', '？':
			emit(i + utf8.RuneLen(r))
		case '.', '!', '?', '…':
			end := i + utf8.RuneLen(r)
			if r == '.' && (isDecimalDot(text, i) || isAbbreviation(text, i)) {
				continue
			}
			if end == len(text) {
				continue
			}
			if next, _ := utf8.DecodeRuneInString(text[end:]); unicode.IsSpace(next) {
				emit(end)
			}
		}
	}
	emit(len(text))
	return spans
}

// fold lower cases the text and strips its accents
func fold(text string) string {
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripAccents, cases.Fold().String(text))
	if err != nil {
		return strings.ToLower(text)
	}
	return folded
}

func stem(word string) string {
	if utf8.RuneCountInString(word) <= 3 || strings.HasSuffix(word, "ss") {
		return word
	}
	if strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") {
		return word[:len(word)-1]
	}
	return word
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}

// isAbbreviation checks if the word ending at the dot is a common abbreviation
func isAbbreviation(text string, dotPos int) bool {
	start := dotPos
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:start])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		start -= size
	}
	return abbreviations[strings.ToLower(text[start:dotPos])]
}

// isDecimalDot checks if the dot is part of a number (e.g. 3.14)
func isDecimalDot(text string, dotPos int) bool {
	if dotPos == 0 || dotPos+1 >= len(text) {
		return false
	}
	prev, next := text[dotPos-1], text[dotPos+1]
	return prev >= '0' && prev <= '9' && next >= '0' && next <= '9'
}
