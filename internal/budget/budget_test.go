package budget

import (
	"strings"
	"testing"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := Estimate(tc.in); got != tc.want {
			t.Errorf("Estimate(%d chars) = %d, want %d", len(tc.in), got, tc.want)
		}
	}
}

func Test_TrimBlocks_AllFit(t *testing.T) {
	t.Parallel()

	blocks := []string{strings.Repeat("a", 40), strings.Repeat("b", 40)}
	got := TrimBlocks(blocks, 10, 1000)
	if len(got) != 2 {
		t.Errorf("want all blocks retained, got %d", len(got))
	}
}

func Test_TrimBlocks_DropsTail(t *testing.T) {
	t.Parallel()

	// Each block estimates to 25 tokens; reserved 10; budget 60 fits two.
	blocks := []string{
		strings.Repeat("1", 100),
		strings.Repeat("2", 100),
		strings.Repeat("3", 100),
	}
	got := TrimBlocks(blocks, 10, 60)
	if len(got) != 2 {
		t.Fatalf("want 2 blocks retained, got %d", len(got))
	}
	// The most relevant (leading) blocks survive.
	if got[0][0] != '1' || got[1][0] != '2' {
		t.Errorf("want leading blocks retained, got %q, %q", got[0][:1], got[1][:1])
	}
}

func Test_TrimBlocks_NothingFits(t *testing.T) {
	t.Parallel()

	blocks := []string{strings.Repeat("x", 4000)}
	got := TrimBlocks(blocks, 500, 600)
	if len(got) != 0 {
		t.Errorf("want 0 blocks when none fit, got %d", len(got))
	}
}

func Test_TrimBlocks_Empty(t *testing.T) {
	t.Parallel()

	if got := TrimBlocks(nil, 0, 100); len(got) != 0 {
		t.Errorf("want empty result for empty input, got %d", len(got))
	}
}
