package chunk

import (
	"reflect"
	"testing"

	"github.com/margin-review/margin/models"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "terminal punctuation",
			text: "One. Two! Three?",
			want: []string{"One.", "Two!", "Three?"},
		},
		{
			name: "trailing fragment without punctuation",
			text: "First sentence. trailing fragment",
			want: []string{"First sentence.", "trailing fragment"},
		},
		{
			name: "period without following space does not split",
			text: "Pi is 3.14 exactly",
			want: []string{"Pi is 3.14 exactly"},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitSmallPage(t *testing.T) {
	pages := []models.PageText{
		{PageNumber: 1, RawText: "Alpha one. Beta two. Gamma three."},
	}

	chunks := Split(pages, Config{Size: 500, Overlap: 100})
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != 0 {
		t.Errorf("Expected chunk ID 0, got %d", chunks[0].ID)
	}
	if chunks[0].SourcePage != 1 {
		t.Errorf("Expected source page 1, got %d", chunks[0].SourcePage)
	}
	if chunks[0].Text != "Alpha one. Beta two. Gamma three." {
		t.Errorf("Unexpected chunk text: %q", chunks[0].Text)
	}
}

func TestSplitOverlap(t *testing.T) {
	pages := []models.PageText{
		{PageNumber: 1, RawText: "aaaa bbbb. cccc dddd. eeee ffff."},
	}

	chunks := Split(pages, Config{Size: 20, Overlap: 5})
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "aaaa bbbb. cccc dddd." {
		t.Errorf("Unexpected first chunk: %q", chunks[0].Text)
	}
	// The second chunk starts with the trailing overlap of the first.
	if chunks[1].Text != "dddd. eeee ffff." {
		t.Errorf("Unexpected second chunk: %q", chunks[1].Text)
	}
	if chunks[0].ID != 0 || chunks[1].ID != 1 {
		t.Errorf("Expected IDs 0 and 1, got %d and %d", chunks[0].ID, chunks[1].ID)
	}
}

func TestSplitIDsMonotonicAcrossPages(t *testing.T) {
	pages := []models.PageText{
		{PageNumber: 1, RawText: "Page one text."},
		{PageNumber: 2, RawText: "   "},
		{PageNumber: 3, RawText: "Page three text."},
	}

	chunks := Split(pages, DefaultConfig())
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].ID != 0 || chunks[1].ID != 1 {
		t.Errorf("Expected monotonic IDs 0, 1, got %d, %d", chunks[0].ID, chunks[1].ID)
	}
	if chunks[0].SourcePage != 1 || chunks[1].SourcePage != 3 {
		t.Errorf("Expected source pages 1 and 3, got %d and %d", chunks[0].SourcePage, chunks[1].SourcePage)
	}
}

func TestSplitChunksNeverCrossPages(t *testing.T) {
	pages := []models.PageText{
		{PageNumber: 1, RawText: "First page sentence one. First page sentence two."},
		{PageNumber: 2, RawText: "Second page sentence."},
	}

	chunks := Split(pages, Config{Size: 30, Overlap: 5})
	for _, c := range chunks {
		if c.SourcePage != 1 && c.SourcePage != 2 {
			t.Fatalf("Unexpected source page %d", c.SourcePage)
		}
	}
	last := chunks[len(chunks)-1]
	if last.SourcePage != 2 || last.Text != "Second page sentence." {
		t.Errorf("Second page chunk not isolated: page=%d text=%q", last.SourcePage, last.Text)
	}
}

func TestSplitZeroConfigUsesDefaults(t *testing.T) {
	pages := []models.PageText{{PageNumber: 1, RawText: "Short text."}}

	chunks := Split(pages, Config{})
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk with default config, got %d", len(chunks))
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split(nil, DefaultConfig()); len(got) != 0 {
		t.Errorf("Expected no chunks for nil pages, got %d", len(got))
	}
	if got := Split([]models.PageText{{PageNumber: 1, RawText: ""}}, DefaultConfig()); len(got) != 0 {
		t.Errorf("Expected no chunks for empty page, got %d", len(got))
	}
}
