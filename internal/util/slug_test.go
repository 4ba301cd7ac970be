package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "empty input",
			in:   "",
			want: "",
		},
		{
			name: "simple name",
			in:   "Attenuation Bias",
			want: "attenuation-bias",
		},
		{
			name: "punctuation collapses",
			in:   "Measurement error causes attenuation bias.",
			want: "measurement-error-causes-attenuation-bias",
		},
		{
			name: "repeated separators",
			in:   "a  --  b",
			want: "a-b",
		},
		{
			name: "leading and trailing junk",
			in:   "  (Bayesian correction)  ",
			want: "bayesian-correction",
		},
		{
			name: "digits survive",
			in:   "Type 1 Error",
			want: "type-1-error",
		},
		{
			name: "already a slug",
			in:   "already-a-slug",
			want: "already-a-slug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			if got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}

			// the id must be stable under re-slugging
			if again := Slugify(got); again != got {
				t.Errorf("Slugify not idempotent: %q -> %q", got, again)
			}
		})
	}
}
