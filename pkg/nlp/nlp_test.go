package nlp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	sentencesdata "github.com/neurosnap/sentences/data"
)

func newGerman(t *testing.T) *LexiconAnalyzer {
	t.Helper()
	a, err := NewGermanAnalyzer()
	if err != nil {
		t.Fatalf("NewGermanAnalyzer failed: %v", err)
	}
	return a
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"two", "Der Hund läuft. Die Katze schläft.", []string{"Der Hund läuft.", "Die Katze schläft."}},
		{"no terminator", "Ein Satz ohne Punkt", []string{"Ein Satz ohne Punkt"}},
		{"question and exclamation", "Wo bist du? Hier!  Komm.", []string{"Wo bist du?", "Hier!", "Komm."}},
		{"closing quote", `Er sagte: „Geh.“ Dann ging sie.`, []string{`Er sagte: „Geh.“`, "Dann ging sie."}},
		{"decimal", "Es kostet 3.50 Euro. Gut.", []string{"Es kostet 3.50 Euro.", "Gut."}},
		{"ordinal date", "Am 3. Mai fahren wir. Im 19. Jahrhundert nicht.", []string{"Am 3. Mai fahren wir.", "Im 19. Jahrhundert nicht."}},
		{"abbreviations", "Wir kaufen z. B. Brot, Milch usw. ein. Dann gehen wir.", []string{"Wir kaufen z. B. Brot, Milch usw. ein.", "Dann gehen wir."}},
		{"year ends sentence", "Das war 2023. Danach kam mehr.", []string{"Das war 2023.", "Danach kam mehr."}},
		{"blank line", "Überschrift\n\nErster Absatz", []string{"Überschrift", "Erster Absatz"}},
		{"empty", "   \n ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitSentences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	if got := Fold("ÄRGER"); got != "ärger" {
		t.Errorf("Fold = %q", got)
	}
	if got := Fold("Straße"); got != "straße" {
		t.Errorf("Fold = %q", got)
	}
}

func TestLexiconAnalyzerTagsSimpleText(t *testing.T) {
	a := newGerman(t)
	doc, err := a.Analyze(context.Background(), "Der Hund läuft. Die Katze schläft.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(doc.Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(doc.Sentences))
	}

	var verbs, nouns []string
	for _, tok := range doc.Tokens() {
		switch tok.POS {
		case POSVerb:
			verbs = append(verbs, tok.Lemma)
		case POSNoun:
			nouns = append(nouns, tok.Surface)
		}
	}
	if !reflect.DeepEqual(verbs, []string{"laufen", "schlafen"}) {
		t.Errorf("verbs = %v", verbs)
	}
	if !reflect.DeepEqual(nouns, []string{"Hund", "Katze"}) {
		t.Errorf("nouns = %v", nouns)
	}

	first := doc.Sentences[0].Tokens
	if len(first) != 4 {
		t.Fatalf("expected 4 tokens in first sentence, got %+v", first)
	}
	if !first[0].IsStop || first[0].Lemma != "der" {
		t.Errorf("article token = %+v", first[0])
	}
	if first[1].IsStop || !first[1].IsAlpha {
		t.Errorf("noun token = %+v", first[1])
	}
	if first[3].POS != POSPunct || first[3].IsAlpha {
		t.Errorf("punct token = %+v", first[3])
	}
}

func TestLexiconAnalyzerPrepositionsAndAuxiliaries(t *testing.T) {
	a := newGerman(t)
	doc, err := a.Analyze(context.Background(), "Wir sind mit dem Zug nach Berlin gefahren.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	got := map[string]string{}
	for _, tok := range doc.Tokens() {
		got[tok.Surface] = tok.POS + ":" + tok.Lemma
	}
	want := map[string]string{
		"sind":     "AUX:sein",
		"mit":      "ADP:mit",
		"nach":     "ADP:nach",
		"Zug":      "NOUN:Zug",
		"Berlin":   "NOUN:Berlin",
		"gefahren": "VERB:fahren",
	}
	for surface, w := range want {
		if got[surface] != w {
			t.Errorf("%s tagged %q, want %q", surface, got[surface], w)
		}
	}
}

func TestLexiconAnalyzerCapitalizedVerbFormMidSentenceIsNoun(t *testing.T) {
	a := newGerman(t)
	doc, err := a.Analyze(context.Background(), "Das Leben ist schön. Leben wir!")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if tok := doc.Sentences[0].Tokens[1]; tok.POS != POSNoun {
		t.Errorf("mid-sentence Leben = %+v", tok)
	}
	if tok := doc.Sentences[1].Tokens[0]; tok.POS != POSVerb || tok.Lemma != "leben" {
		t.Errorf("sentence-initial Leben = %+v", tok)
	}
}

func TestLexiconAnalyzerIsDeterministic(t *testing.T) {
	a := newGerman(t)
	text := "Ich lese ein Buch. Du schreibst einen Brief."
	d1, err := a.Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	d2, err := a.Analyze(context.Background(), text)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if !reflect.DeepEqual(d1, d2) {
		t.Errorf("analysis differs between runs")
	}
}

func TestLexiconAnalyzerCancelled(t *testing.T) {
	a := newGerman(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Analyze(ctx, "Ein Satz."); err == nil {
		t.Fatal("expected context error")
	}
}

func TestParseLexiconError(t *testing.T) {
	if _, err := ParseLexicon([]byte("verbs: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestWithSegmenter(t *testing.T) {
	lines := SegmenterFunc(func(text string) []string { return []string{text} })
	a, err := NewGermanAnalyzer(WithSegmenter(lines))
	if err != nil {
		t.Fatalf("NewGermanAnalyzer failed: %v", err)
	}
	doc, err := a.Analyze(context.Background(), "Eins. Zwei.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(doc.Sentences) != 1 {
		t.Errorf("expected custom segmenter to keep one sentence, got %d", len(doc.Sentences))
	}
}

func TestLoadPunkt(t *testing.T) {
	if _, err := LoadPunkt(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing model")
	}

	data, err := sentencesdata.Asset("data/english.json")
	if err != nil {
		t.Fatalf("english model asset: %v", err)
	}
	path := filepath.Join(t.TempDir(), "english.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	seg, err := LoadPunkt(path)
	if err != nil {
		t.Fatalf("LoadPunkt failed: %v", err)
	}
	got := seg.Segment("The dog runs. The cat sleeps.\n\nNew paragraph")
	want := []string{"The dog runs.", "The cat sleeps.", "New paragraph"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %q, want %q", got, want)
	}
}

func TestServiceAnalyzer(t *testing.T) {
	var gotReq serviceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sentences":[{"text":"Der Hund läuft.","tokens":[
			{"text":"Der","lemma":"der","pos":"DET","is_alpha":true,"is_stop":true},
			{"text":"Hund","lemma":"Hund","pos":"NOUN","is_alpha":true},
			{"text":"läuft","lemma":"laufen","pos":"VERB","is_alpha":true},
			{"text":".","pos":"PUNCT"}]}]}`))
	}))
	defer srv.Close()

	a := NewServiceAnalyzer(srv.URL, "", time.Second)
	doc, err := a.Analyze(context.Background(), "Der Hund läuft.")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if gotReq.Text != "Der Hund läuft." || gotReq.Model != DefaultModel {
		t.Errorf("request = %+v", gotReq)
	}
	toks := doc.Tokens()
	if len(toks) != 4 {
		t.Fatalf("expected 4 tokens, got %d", len(toks))
	}
	if toks[2].Lemma != "laufen" || toks[2].POS != POSVerb {
		t.Errorf("verb token = %+v", toks[2])
	}
	if toks[3].Lemma != "." {
		t.Errorf("missing lemma should fall back to surface, got %q", toks[3].Lemma)
	}
}

func TestServiceAnalyzerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewServiceAnalyzer(srv.URL, "de_core_news_lg", time.Second)
	if _, err := a.Analyze(context.Background(), "Text"); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestSharedVerbFormsResolveToOneLemma(t *testing.T) {
	want := map[string]string{"gefallen": "gefallen", "gehört": "gehören"}
	for i := 0; i < 50; i++ {
		a := newGerman(t)
		doc, err := a.Analyze(context.Background(), "Es hat mir gefallen. Das Buch hat ihm gehört.")
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		for _, tok := range doc.Tokens() {
			lemma, ok := want[tok.Surface]
			if !ok {
				continue
			}
			if tok.POS != POSVerb || tok.Lemma != lemma {
				t.Fatalf("run %d: %s tagged %s/%s, want VERB/%s", i, tok.Surface, tok.POS, tok.Lemma, lemma)
			}
		}
	}
}

func TestFormsPrefersInfinitiveThenFirstLemma(t *testing.T) {
	m := forms(map[string][]string{
		"hören":    {"gehört", "hört"},
		"gehören":  {"gehört", "gehöre"},
		"fallen":   {"fällt", "gefallen"},
		"gefallen": {"gefällt"},
	})
	checks := map[string]string{
		"gefallen": "gefallen",
		"gehört":   "gehören",
		"hört":     "hören",
		"fällt":    "fallen",
	}
	for form, lemma := range checks {
		if got := m[form]; got != lemma {
			t.Errorf("forms[%q] = %q, want %q", form, got, lemma)
		}
	}
}
