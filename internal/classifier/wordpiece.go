package classifier

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"
	tokenPAD = "[PAD]"
	tokenUNK = "[UNK]"

	maxCharsPerWord = 100
)

// Encoding is a fixed-length model input for a single sequence.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	// Length counts the real (non-padding) positions, special tokens included.
	Length int
}

// Tokenizer is a BERT WordPiece tokenizer. It is immutable after construction
// and safe for concurrent use.
type Tokenizer struct {
	vocab     map[string]int64
	lowerCase bool
	maxLength int

	clsID, sepID, padID, unkID int64
}

type tokenizerConfig struct {
	DoLowerCase *bool `json:"do_lower_case"`
}

// LoadTokenizer reads vocab.txt and, if present, tokenizer_config.json.
func LoadTokenizer(vocabPath, configPath string, maxLength int) (*Tokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab file: %w", err)
	}
	defer f.Close()

	vocab, err := readVocab(f)
	if err != nil {
		return nil, err
	}

	lowerCase := true
	raw, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read tokenizer config: %w", err)
	default:
		var cfg tokenizerConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode tokenizer config: %w", err)
		}
		if cfg.DoLowerCase != nil {
			lowerCase = *cfg.DoLowerCase
		}
	}

	return NewTokenizer(vocab, lowerCase, maxLength)
}

func readVocab(r io.Reader) ([]string, error) {
	var vocab []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		vocab = append(vocab, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	return vocab, nil
}

// NewTokenizer builds a tokenizer from an ordered vocabulary; the token id is
// its line index.
func NewTokenizer(vocab []string, lowerCase bool, maxLength int) (*Tokenizer, error) {
	if maxLength < 2 {
		return nil, fmt.Errorf("max length must be at least 2, got %d", maxLength)
	}

	t := &Tokenizer{
		vocab:     make(map[string]int64, len(vocab)),
		lowerCase: lowerCase,
		maxLength: maxLength,
	}
	for i, tok := range vocab {
		if tok == "" {
			continue
		}
		if _, dup := t.vocab[tok]; !dup {
			t.vocab[tok] = int64(i)
		}
	}

	for _, special := range []struct {
		token string
		id    *int64
	}{
		{tokenCLS, &t.clsID},
		{tokenSEP, &t.sepID},
		{tokenPAD, &t.padID},
		{tokenUNK, &t.unkID},
	} {
		id, ok := t.vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("%w: vocab has no %s token", ErrArtifactInvalid, special.token)
		}
		*special.id = id
	}

	return t, nil
}

// MaxLength is the fixed sequence length produced by Encode.
func (t *Tokenizer) MaxLength() int {
	return t.maxLength
}

// Tokenize splits text into WordPiece tokens without special tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	var pieces []string
	for _, word := range t.basicTokens(text) {
		pieces = append(pieces, t.wordPiece(word)...)
	}
	return pieces
}

// Encode produces [CLS] tokens [SEP] padded to MaxLength. Sequences that do
// not fit keep their left-most tokens.
func (t *Tokenizer) Encode(text string) Encoding {
	enc := Encoding{
		InputIDs:      make([]int64, t.maxLength),
		AttentionMask: make([]int64, t.maxLength),
		TokenTypeIDs:  make([]int64, t.maxLength),
	}

	n := 0
	enc.InputIDs[n] = t.clsID
	n++
	for _, tok := range t.Tokenize(text) {
		if n >= t.maxLength-1 {
			break
		}
		enc.InputIDs[n] = t.idOf(tok)
		n++
	}
	enc.InputIDs[n] = t.sepID
	n++

	for i := 0; i < n; i++ {
		enc.AttentionMask[i] = 1
	}
	for i := n; i < t.maxLength; i++ {
		enc.InputIDs[i] = t.padID
	}
	enc.Length = n

	return enc
}

func (t *Tokenizer) idOf(tok string) int64 {
	if id, ok := t.vocab[tok]; ok {
		return id
	}
	return t.unkID
}

// basicTokens cleans the text, splits on whitespace and punctuation and
// isolates CJK ideographs.
func (t *Tokenizer) basicTokens(text string) []string {
	var tokens []string
	for _, word := range strings.Fields(cleanText(text)) {
		if t.lowerCase {
			word = stripAccents(strings.ToLower(word))
		}
		tokens = append(tokens, splitPunctuation(word)...)
	}
	return tokens
}

// wordPiece is greedy longest-match-first over the vocabulary.
func (t *Tokenizer) wordPiece(word string) []string {
	runes := []rune(word)
	if len(runes) > maxCharsPerWord {
		return []string{tokenUNK}
	}

	var pieces []string
	for start := 0; start < len(runes); {
		end := len(runes)
		match := ""
		for start < end {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if _, ok := t.vocab[sub]; ok {
				match = sub
				break
			}
			end--
		}
		if match == "" {
			return []string{tokenUNK}
		}
		pieces = append(pieces, match)
		start = end
	}
	return pieces
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == 0 || r == unicode.ReplacementChar:
		case isWhitespace(r):
			b.WriteRune(' ')
		case unicode.In(r, unicode.Cc, unicode.Cf):
		case isCJK(r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func splitPunctuation(word string) []string {
	var (
		out     []string
		current []rune
	)
	for _, r := range word {
		if isPunctuation(r) {
			if len(current) > 0 {
				out = append(out, string(current))
				current = current[:0]
			}
			out = append(out, string(r))
			continue
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		out = append(out, string(current))
	}
	return out
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation,
// matching BERT's basic tokenizer.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0x20000 && r <= 0x2A6DF) ||
		(r >= 0x2A700 && r <= 0x2B73F) ||
		(r >= 0x2B740 && r <= 0x2B81F) ||
		(r >= 0x2B820 && r <= 0x2CEAF) ||
		(r >= 0xF900 && r <= 0xFAFF) ||
		(r >= 0x2F800 && r <= 0x2FA1F)
}
