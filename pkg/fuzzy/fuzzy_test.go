package fuzzy

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "gym", 3},
		{"gym", "gym", 0},
		{"Gym", "gym", 0},
		{"gym", "gim", 1},
		{"kitten", "sitting", 3},
		{"café", "cafe", 0},
	}
	for _, c := range cases {
		if got := LevenshteinDistance(c.a, c.b); got != c.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d; want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestBestMatch(t *testing.T) {
	titles := []string{"Corporate Finance", "Coffee Chat: Sarah (McKinsey)", "Gym Session"}

	cases := []struct {
		text  string
		want  int
		found bool
	}{
		{"move my gym to 6pm", 2, true},
		{"reschedule the coffe chat", 1, true},
		{"move finance class to the afternoon", 0, true},
		{"move it", -1, false},
	}
	for _, c := range cases {
		got, ok := BestMatch(c.text, titles)
		if got != c.want || ok != c.found {
			t.Errorf("BestMatch(%q) = %d, %v; want %d, %v", c.text, got, ok, c.want, c.found)
		}
	}
}
