package edgedriver

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		desc      string
		in        string
		wantMajor string
		wantErr   bool
	}{
		{
			desc:      "four component edge version",
			in:        "103.0.1264.37",
			wantMajor: "103",
		},
		{
			desc:      "three component version",
			in:        "103.0.1264",
			wantMajor: "103",
		},
		{
			desc:      "surrounding whitespace",
			in:        "  110.0.1587.41\n",
			wantMajor: "110",
		},
		{
			desc:    "empty string",
			in:      "",
			wantErr: true,
		},
		{
			desc:    "not a version",
			in:      "stable",
			wantErr: true,
		},
	}
	for _, test := range tests {
		v, err := ParseVersion(test.in)
		if gotErr := err != nil; gotErr != test.wantErr {
			t.Errorf("%s: ParseVersion(%q) error = %v, want error %t", test.desc, test.in, err, test.wantErr)
			continue
		}
		if test.wantErr {
			continue
		}
		if got, want := v.Major(), test.wantMajor; got != want {
			t.Errorf("%s: Major() = %q, want %q", test.desc, got, want)
		}
	}
}

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		desc    string
		in      string
		want    string
		wantErr bool
	}{
		{
			desc: "edge version line",
			in:   "Microsoft Edge 103.0.1264.37 stable\n",
			want: "103.0.1264.37",
		},
		{
			desc: "bare version",
			in:   "110.0.1587.41",
			want: "110.0.1587.41",
		},
		{
			desc:    "no version present",
			in:      "command not found",
			wantErr: true,
		},
	}
	for _, test := range tests {
		got, err := parseVersionOutput(test.in)
		if gotErr := err != nil; gotErr != test.wantErr {
			t.Errorf("%s: parseVersionOutput(%q) error = %v, want error %t", test.desc, test.in, err, test.wantErr)
			continue
		}
		if got != test.want {
			t.Errorf("%s: parseVersionOutput(%q) = %q, want %q", test.desc, test.in, got, test.want)
		}
	}
}
