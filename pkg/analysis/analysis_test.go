package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_nlp "github.com/japaniel/creamy/pkg/mocks/nlp"
	mock_translate "github.com/japaniel/creamy/pkg/mocks/translate"
	mock_upload "github.com/japaniel/creamy/pkg/mocks/upload"
	"github.com/japaniel/creamy/pkg/nlp"
	"github.com/japaniel/creamy/pkg/upload"
)

func germanAnalyzer(t *testing.T) nlp.Analyzer {
	t.Helper()
	a, err := nlp.NewGermanAnalyzer()
	require.NoError(t, err)
	return a
}

func TestAnalyzeSimpleText(t *testing.T) {
	svc := NewService(germanAnalyzer(t), nil, nil, nil)
	got, err := svc.Analyze(context.Background(), "Der Hund läuft. Die Katze schläft.")
	require.NoError(t, err)

	assert.Equal(t, []string{"Der Hund läuft.", "Die Katze schläft."}, got.Sentences)
	assert.Equal(t, []string{"laufen", "schlafen"}, got.Verbs)
	assert.Empty(t, got.Prepositions)
	assert.Contains(t, got.WordFreq, WordCount{Word: "hund", Count: 1})
	assert.Contains(t, got.WordFreq, WordCount{Word: "katze", Count: 1})
	for _, wc := range got.WordFreq {
		assert.NotEqual(t, "der", wc.Word, "stopwords are excluded")
	}
}

func TestAnalyzeKeepsDuplicatesInOrder(t *testing.T) {
	svc := NewService(germanAnalyzer(t), nil, nil, nil)
	got, err := svc.Analyze(context.Background(), "Ich gehe mit dir. Du gehst mit mir nach Hause.")
	require.NoError(t, err)
	assert.Equal(t, []string{"gehen", "gehen"}, got.Verbs)
	assert.Equal(t, []string{"mit", "mit", "nach"}, got.Prepositions)
}

func TestAnalyzeEmptyTextSkipsAnalyzer(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := mock_nlp.NewMockAnalyzer(ctrl)
	analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Times(0)

	svc := NewService(analyzer, nil, nil, nil)
	for _, text := range []string{"", "   \n\t"} {
		got, err := svc.Analyze(context.Background(), text)
		require.NoError(t, err)
		body, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"word_freq":[],"verbs":[],"prepositions":[],"sentences":[]}`, string(body))
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	svc := NewService(germanAnalyzer(t), nil, nil, nil)
	text := "Wir fahren am Montag nach Berlin. Dort besuchen wir das Museum."
	a, err := svc.Analyze(context.Background(), text)
	require.NoError(t, err)
	b, err := svc.Analyze(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzePropagatesAnalyzerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	analyzer := mock_nlp.NewMockAnalyzer(ctrl)
	boom := errors.New("model missing")
	analyzer.EXPECT().Analyze(gomock.Any(), "Text").Return(nlp.Document{}, boom)

	_, err := NewService(analyzer, nil, nil, nil).Analyze(context.Background(), "Text")
	assert.ErrorIs(t, err, boom)
}

func TestWordFrequencyLimitAndTies(t *testing.T) {
	svc := NewService(germanAnalyzer(t), nil, nil, nil)
	got, err := svc.WordFrequency(context.Background(), "Apfel Birne Apfel Kirsche Birne Apfel Dattel", 3)
	require.NoError(t, err)
	assert.Equal(t, []WordCount{{"apfel", 3}, {"birne", 2}, {"kirsche", 1}}, got)
}

func TestMostCommon(t *testing.T) {
	got := mostCommon([]string{"b", "a", "c", "a", "b", "d"}, 10)
	assert.Equal(t, []WordCount{{"b", 2}, {"a", 2}, {"c", 1}, {"d", 1}}, got)
	assert.Empty(t, mostCommon(nil, 5))
	assert.Len(t, mostCommon([]string{"x", "y", "z"}, 2), 2)
}

func TestWordCountJSON(t *testing.T) {
	body, err := json.Marshal([]WordCount{{"hund", 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `[["hund",2]]`, string(body))

	var back []WordCount
	require.NoError(t, json.Unmarshal(body, &back))
	assert.Equal(t, []WordCount{{"hund", 2}}, back)

	var bad WordCount
	assert.Error(t, json.Unmarshal([]byte(`["nur"]`), &bad))
}

func TestTopWordsAggregatesLemmas(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_upload.NewMockStore(ctrl)
	tr := mock_translate.NewMockTranslator(ctrl)

	store.EXPECT().Texts(gomock.Any()).Return([]string{"Der Hund läuft.", "Ein Hund läuft über die Straße."}, nil)
	tr.EXPECT().Translate(gomock.Any(), "hund").Return("dog", nil)
	tr.EXPECT().Translate(gomock.Any(), "laufen").Return("run", nil)
	tr.EXPECT().Translate(gomock.Any(), "strasse").Return("street", nil)

	svc := NewService(germanAnalyzer(t), store, tr, nil)
	got, err := svc.TopWords(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []TopWord{
		{Word: "hund", Count: 2, Translation: "dog"},
		{Word: "laufen", Count: 2, Translation: "run"},
		{Word: "strasse", Count: 1, Translation: "street"},
	}, got)
}

func TestTopWordsTranslationFailureDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_upload.NewMockStore(ctrl)
	tr := mock_translate.NewMockTranslator(ctrl)

	store.EXPECT().TextByFilename(gomock.Any(), "seite.png").Return("Katze Maus Katze", nil)
	gomock.InOrder(
		tr.EXPECT().Translate(gomock.Any(), "katze").Return("", errors.New("timeout")),
		tr.EXPECT().Translate(gomock.Any(), "maus").Return("mouse", nil),
	)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	svc := NewService(germanAnalyzer(t), store, tr, logger)
	got, err := svc.TopWords(context.Background(), "seite.png")
	require.NoError(t, err)
	assert.Equal(t, []TopWord{
		{Word: "katze", Count: 2, Translation: ""},
		{Word: "maus", Count: 1, Translation: "mouse"},
	}, got)
	assert.True(t, strings.Contains(logs.String(), "level=WARN"), logs.String())
	assert.Contains(t, logs.String(), "word=katze")
}

func TestTopWordsEmptyCorpus(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_upload.NewMockStore(ctrl)
	analyzer := mock_nlp.NewMockAnalyzer(ctrl)
	store.EXPECT().Texts(gomock.Any()).Return([]string{"", "  "}, nil)

	got, err := NewService(analyzer, store, nil, nil).TopWords(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestTopWordsUnknownFilename(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_upload.NewMockStore(ctrl)
	store.EXPECT().TextByFilename(gomock.Any(), "fehlt.png").Return("", upload.ErrNotFound)

	_, err := NewService(germanAnalyzer(t), store, nil, nil).TopWords(context.Background(), "fehlt.png")
	assert.ErrorIs(t, err, upload.ErrNotFound)
}
