package filesmanager_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lista5/filesmanager"
)

func TestIsValidName(t *testing.T) {
	invalidUTF8 := string([]byte{'a', 0xff, 'b'})

	tt := []struct {
		Name  string
		Input string
		Want  bool
	}{
		{Name: "empty", Input: "", Want: false},
		{Name: "single dot", Input: ".", Want: false},
		{Name: "double dot", Input: "..", Want: false},
		{Name: "slash", Input: "a/b.txt", Want: false},
		{Name: "backslash", Input: `a\b.txt`, Want: false},
		{Name: "NUL", Input: "a\x00b", Want: false},
		{Name: "newline", Input: "a\nb", Want: false},
		{Name: "DEL", Input: "a\x7fb", Want: false},
		{Name: "invalid utf8", Input: invalidUTF8, Want: false},
		{Name: "too long", Input: strings.Repeat("a", filesmanager.MaxNameLength+1), Want: false},

		{Name: "simple", Input: "report.pdf", Want: true},
		{Name: "spaces", Input: "my report.pdf", Want: true},
		{Name: "hidden", Input: ".env", Want: true},
		{Name: "no extension", Input: "README", Want: true},
		{Name: "unicode", Input: "отчёт.pdf", Want: true},
		{Name: "max length", Input: strings.Repeat("a", filesmanager.MaxNameLength), Want: true},
	}

	if utf8.ValidString(invalidUTF8) {
		t.Fatalf("test setup error: invalidUTF8 is unexpectedly valid")
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, filesmanager.IsValidName(tc.Input), "name %q", tc.Input)
		})
	}
}

func TestIsStorableName(t *testing.T) {
	tt := []struct {
		Name  string
		Input string
		Want  bool
	}{
		{Name: "empty", Input: "", Want: false},
		{Name: "NUL", Input: "a\x00b", Want: false},
		{Name: "invalid utf8", Input: string([]byte{'a', 0xff}), Want: false},
		{Name: "too long", Input: strings.Repeat("a", filesmanager.MaxNameLength+1), Want: false},

		{Name: "simple", Input: "report.pdf", Want: true},
		{Name: "nested key", Input: "docs/2024/report.pdf", Want: true},
		{Name: "backslash", Input: `win\report.pdf`, Want: true},
		{Name: "tab", Input: "a\tb.txt", Want: true},
		{Name: "double dot", Input: "..", Want: true},
		{Name: "max length", Input: strings.Repeat("a", filesmanager.MaxNameLength), Want: true},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, filesmanager.IsStorableName(tc.Input), "name %q", tc.Input)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", filesmanager.Extension("a.pdf"))
	assert.Equal(t, "gz", filesmanager.Extension("a.tar.gz"))
	assert.Equal(t, "", filesmanager.Extension("README"))
	assert.Equal(t, "", filesmanager.Extension("trailing."))
}

func TestUploadKey(t *testing.T) {
	tests := []struct {
		name    string
		req     filesmanager.UploadRequest
		want    string
		wantErr bool
	}{
		{name: "original name", req: filesmanager.UploadRequest{Filename: "scan.pdf"}, want: "scan.pdf"},
		{name: "custom name keeps extension", req: filesmanager.UploadRequest{Filename: "scan.pdf", CustomName: "report"}, want: "report.pdf"},
		{name: "custom name uses last extension", req: filesmanager.UploadRequest{Filename: "a.tar.gz", CustomName: "b"}, want: "b.gz"},
		{name: "custom name without extension", req: filesmanager.UploadRequest{Filename: "Makefile", CustomName: "build"}, want: "build"},
		{name: "blank custom name ignored", req: filesmanager.UploadRequest{Filename: "a.txt", CustomName: "  "}, want: "a.txt"},
		{name: "client path stripped", req: filesmanager.UploadRequest{Filename: `C:\Users\me\a.txt`}, want: "a.txt"},
		{name: "unix path stripped", req: filesmanager.UploadRequest{Filename: "/tmp/x/a.txt"}, want: "a.txt"},
		{name: "empty filename", req: filesmanager.UploadRequest{}, wantErr: true},
		{name: "custom name with slash", req: filesmanager.UploadRequest{Filename: "a.txt", CustomName: "x/y"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filesmanager.UploadKey(tt.req)
			if tt.wantErr {
				assert.ErrorIs(t, err, filesmanager.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenameKey(t *testing.T) {
	tests := []struct {
		name    string
		current string
		newBase string
		want    string
		wantErr bool
	}{
		{name: "keeps extension", current: "a.txt", newBase: "b", want: "b.txt"},
		{name: "extension typed again", current: "a.txt", newBase: "b.txt", want: "b.txt.txt"},
		{name: "no extension", current: "README", newBase: "NOTES", want: "NOTES"},
		{name: "trims whitespace", current: "a.txt", newBase: " b ", want: "b.txt"},
		{name: "empty", current: "a.txt", newBase: "", wantErr: true},
		{name: "slash", current: "a.txt", newBase: "x/y", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filesmanager.RenameKey(tt.current, tt.newBase)
			if tt.wantErr {
				assert.ErrorIs(t, err, filesmanager.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
