package tagger

import (
	"context"
	"testing"
)

// labelAt returns the label assigned to the token with the given text,
// failing the test when the token is missing.
func labelAt(t *testing.T, texts []string, labels []Label, text string) Label {
	t.Helper()
	for i, tok := range texts {
		if tok == text {
			return labels[i]
		}
	}
	t.Fatalf("token %q not found in %v", text, texts)
	return ""
}

func ruleTag(t *testing.T, text string) ([]string, []Label) {
	t.Helper()
	vecs := vectorsFor(t, text)
	labels, err := Labels(context.Background(), NewRule(), vecs)
	if err != nil {
		t.Fatalf("rule backend failed: %v", err)
	}
	if len(labels) != len(vecs) {
		t.Fatalf("got %d labels for %d tokens", len(labels), len(vecs))
	}
	texts := make([]string, len(vecs))
	for i, v := range vecs {
		texts[i] = v.Text
	}
	return texts, labels
}

func TestRuleAPAStyle(t *testing.T) {
	texts, labels := ruleTag(t, "Smith, J. (2020). A Study of Things. Journal of Examples, 12(3), 1-10.")

	if got := labelAt(t, texts, labels, "Smith"); got != LabelAuthor {
		t.Errorf("Smith labeled %q, want author", got)
	}
	if got := labelAt(t, texts, labels, "2020"); got != LabelYear {
		t.Errorf("2020 labeled %q, want year", got)
	}
	if got := labelAt(t, texts, labels, "Study"); got != LabelTitle {
		t.Errorf("Study labeled %q, want title", got)
	}
	if got := labelAt(t, texts, labels, "Journal"); got != LabelVenue {
		t.Errorf("Journal labeled %q, want venue", got)
	}
	if got := labelAt(t, texts, labels, "12"); got != LabelVolume {
		t.Errorf("12 labeled %q, want volume", got)
	}
	if got := labelAt(t, texts, labels, "3"); got != LabelIssue {
		t.Errorf("3 labeled %q, want issue", got)
	}
	if got := labelAt(t, texts, labels, "10"); got != LabelPages {
		t.Errorf("10 labeled %q, want pages", got)
	}
}

func TestRuleNumberedQuotedStyle(t *testing.T) {
	texts, labels := ruleTag(t, `[4] A. Doe and B. Roe, "Fast Parsing at Scale," Proc. IEEE Conf. Examples, vol. 12, pp. 33-41, 2019.`)

	if got := labelAt(t, texts, labels, "4"); got != LabelCitNum {
		t.Errorf("4 labeled %q, want citnum", got)
	}
	if got := labelAt(t, texts, labels, "Doe"); got != LabelAuthor {
		t.Errorf("Doe labeled %q, want author", got)
	}
	if got := labelAt(t, texts, labels, "Parsing"); got != LabelTitle {
		t.Errorf("Parsing labeled %q, want title", got)
	}
	if got := labelAt(t, texts, labels, "Proc"); got != LabelVenue {
		t.Errorf("Proc labeled %q, want venue", got)
	}
	if got := labelAt(t, texts, labels, "12"); got != LabelVolume {
		t.Errorf("12 labeled %q, want volume", got)
	}
	if got := labelAt(t, texts, labels, "33"); got != LabelPages {
		t.Errorf("33 labeled %q, want pages", got)
	}
	if got := labelAt(t, texts, labels, "2019"); got != LabelYear {
		t.Errorf("2019 labeled %q, want year", got)
	}
}

func TestRuleDOIAndURL(t *testing.T) {
	texts, labels := ruleTag(t, "Smith, J. (2021). Deep Citations. Nature Methods. doi:10.1038/s41592-021-01000-1 https://example.org/papers/1")

	if got := labelAt(t, texts, labels, "1038"); got != LabelDOI {
		t.Errorf("1038 labeled %q, want doi", got)
	}
	if got := labelAt(t, texts, labels, "https"); got != LabelURL {
		t.Errorf("https labeled %q, want url", got)
	}
	if got := labelAt(t, texts, labels, "example"); got != LabelURL {
		t.Errorf("example labeled %q, want url", got)
	}
}

func TestRuleBareDOINotListNumber(t *testing.T) {
	texts, labels := ruleTag(t, "10.1093/bioinformatics/btaa123")

	if got := labelAt(t, texts, labels, "1093"); got != LabelDOI {
		t.Errorf("1093 labeled %q, want doi", got)
	}
	if got := labelAt(t, texts, labels, "10"); got != LabelDOI {
		t.Errorf("leading 10 labeled %q, want doi", got)
	}
}

func TestRuleInitialNotPageMarker(t *testing.T) {
	// "P." is an author initial; the year must stay a year.
	texts, labels := ruleTag(t, "Smith, P. 2020. Sorting Out Pages. Annals of Tests.")

	if got := labelAt(t, texts, labels, "2020"); got != LabelYear {
		t.Errorf("2020 labeled %q, want year", got)
	}
	if got := labelAt(t, texts, labels, "P"); got != LabelAuthor {
		t.Errorf("P labeled %q, want author", got)
	}
}

func TestRuleBareTitleNotAuthors(t *testing.T) {
	texts, labels := ruleTag(t, "A Study of Things (2020)")

	if got := labelAt(t, texts, labels, "Study"); got != LabelTitle {
		t.Errorf("Study labeled %q, want title", got)
	}
	if got := labelAt(t, texts, labels, "2020"); got != LabelYear {
		t.Errorf("2020 labeled %q, want year", got)
	}
	for i, l := range labels {
		if l == LabelAuthor {
			t.Errorf("token %d (%s) labeled author in authorless reference", i, texts[i])
		}
	}
}

func TestRuleCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	vecs := vectorsFor(t, "Smith 2020")
	if _, err := NewRule().Tag(ctx, vecs); err == nil {
		t.Error("Tag() with canceled context should fail")
	}
}
