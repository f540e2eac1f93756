package formatter

import (
	"strings"
	"testing"
)

func TestFormatMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "Basic table formatting",
			input: `
| Country | ISO |
| --- | --- |
| Chad | TCD |
`,
			expected: `
| Country | ISO |
| ------- | --- |
| Chad    | TCD |
`,
		},
		{
			name: "Excessive dashes shrink to content",
			input: `
| Col A | Col B |
| ---------------------- | ---------------------------------- |
| A | B |
`,
			expected: `
| Col A | Col B |
| ----- | ----- |
| A     | B     |
`,
		},
		{
			name: "Surrounding text kept",
			input: `
# Confirmed

| H1 | H2 |
| -- | -- |
| v1 | v2 |

Text after table.
`,
			expected: `
# Confirmed

| H1  | H2  |
| --- | --- |
| v1  | v2  |

Text after table.
`,
		},
		{
			name: "Wide runes padded by display width",
			input: `
| Date | Country |
| --- | --- |
| 01-01-2021 | 中国 |
| 01-02-2021 | Burkina Faso |
`,
			expected: `
| Date       | Country      |
| ---------- | ------------ |
| 01-01-2021 | 中国         |
| 01-02-2021 | Burkina Faso |
`,
		},
		{
			name: "Table without separator",
			input: `
| a | bb |
| ccc | d |
`,
			expected: `
| a   | bb  |
| ccc | d   |
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMarkdown(strings.TrimSpace(tt.input))

			if strings.TrimSpace(got) != strings.TrimSpace(tt.expected) {
				t.Errorf("FormatMarkdown() = \n%v\nwant \n%v", got, tt.expected)
			}
		})
	}
}

func TestRenderMarkdownTable(t *testing.T) {
	got := RenderMarkdownTable([]string{"A", "B"}, [][]string{{"x", "long"}})
	want := "| A   | B    |\n| --- | ---- |\n| x   | long |\n"

	if got != want {
		t.Errorf("RenderMarkdownTable() = \n%q\nwant \n%q", got, want)
	}
}

func TestRenderTable(t *testing.T) {
	got := RenderTable([]string{"Name", "ISO", "N"}, [][]string{
		{"Chad", "TCD", "5"},
		{"消防", "X", "10"},
	})

	want := strings.Join([]string{
		"Name  ISO   N",
		"----  ---  --",
		"Chad  TCD   5",
		"消防  X    10",
	}, "\n") + "\n"

	if got != want {
		t.Errorf("RenderTable() = \n%s\nwant \n%s", got, want)
	}
}
