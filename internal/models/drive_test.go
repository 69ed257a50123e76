package models

import "testing"

func TestDriveFileExtension(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"report.PDF", ".pdf"},
		{"archive.tar.GZ", ".gz"},
		{"noext", ""},
		{"trailing.", "."},
	}
	for _, tc := range cases {
		f := DriveFile{Name: tc.name}
		if got := f.Extension(); got != tc.want {
			t.Errorf("Extension(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
