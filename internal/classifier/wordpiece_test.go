package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVocab = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"the", "food", "was", "amazing", "and", "arrived", "hot",
	"un", "##aff", "##able", "!", "cafe", "terrible", "cold",
}

func newTestTokenizer(t *testing.T, maxLength int) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer(testVocab, true, maxLength)
	require.NoError(t, err)
	return tok
}

func TestTokenize(t *testing.T) {
	tok := newTestTokenizer(t, 16)

	cases := []struct {
		name string
		text string
		want []string
	}{
		{"lowercases and splits punctuation", "The food was AMAZING!", []string{"the", "food", "was", "amazing", "!"}},
		{"wordpiece continuation", "unaffable", []string{"un", "##aff", "##able"}},
		{"strips accents", "Café", []string{"cafe"}},
		{"unknown word", "xyzzy", []string{"[UNK]"}},
		{"collapses whitespace", "  hot\t\n cold  ", []string{"hot", "cold"}},
		{"drops control characters", "hot\u0000\u200b", []string{"hot"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tok.Tokenize(tc.text))
		})
	}
}

func TestEncodePadsToMaxLength(t *testing.T) {
	tok := newTestTokenizer(t, 6)

	enc := tok.Encode("hot")

	assert.Equal(t, []int64{2, 10, 3, 0, 0, 0}, enc.InputIDs)
	assert.Equal(t, []int64{1, 1, 1, 0, 0, 0}, enc.AttentionMask)
	assert.Equal(t, []int64{0, 0, 0, 0, 0, 0}, enc.TokenTypeIDs)
	assert.Equal(t, 3, enc.Length)
}

func TestEncodeTruncationKeepsLeftmostTokens(t *testing.T) {
	tok := newTestTokenizer(t, 6)

	enc := tok.Encode("the food was amazing and arrived hot")

	assert.Equal(t, []int64{2, 4, 5, 6, 7, 3}, enc.InputIDs)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 1}, enc.AttentionMask)
	assert.Equal(t, 6, enc.Length)
}

func TestEncodeEmptyTextStillFramed(t *testing.T) {
	tok := newTestTokenizer(t, 4)

	enc := tok.Encode("")

	assert.Equal(t, []int64{2, 3, 0, 0}, enc.InputIDs)
	assert.Equal(t, 2, enc.Length)
}

func TestNewTokenizerRequiresSpecialTokens(t *testing.T) {
	_, err := NewTokenizer([]string{"[PAD]", "[UNK]", "[CLS]", "hello"}, true, 8)
	require.ErrorIs(t, err, ErrArtifactInvalid)

	_, err = NewTokenizer(testVocab, true, 1)
	require.Error(t, err)
}

func TestLoadTokenizerHonoursCaseConfig(t *testing.T) {
	dir := t.TempDir()
	vocabPath := filepath.Join(dir, VocabFile)
	configPath := filepath.Join(dir, TokenizerConfigFile)

	vocab := ""
	for _, v := range testVocab {
		vocab += v + "\n"
	}
	require.NoError(t, os.WriteFile(vocabPath, []byte(vocab), 0o644))

	tok, err := LoadTokenizer(vocabPath, configPath, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"hot"}, tok.Tokenize("HOT"))

	require.NoError(t, os.WriteFile(configPath, []byte(`{"do_lower_case": false}`), 0o644))
	tok, err = LoadTokenizer(vocabPath, configPath, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"[UNK]"}, tok.Tokenize("HOT"))
}

func TestLoadTokenizerMissingVocab(t *testing.T) {
	_, err := LoadTokenizer(filepath.Join(t.TempDir(), VocabFile), "", 8)
	require.Error(t, err)
}
