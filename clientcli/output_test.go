package clientcli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lista5/filesmanager/clientcli"
)

func TestNewFormatter(t *testing.T) {
	t.Run("json formatter", func(t *testing.T) {
		_, ok := clientcli.NewFormatter(true, false).(*clientcli.JSONFormatter)
		assert.True(t, ok)
	})

	t.Run("human formatter quiet", func(t *testing.T) {
		hf, ok := clientcli.NewFormatter(false, true).(*clientcli.HumanFormatter)
		require.True(t, ok)
		assert.True(t, hf.Quiet)
	})
}

func TestHumanFormatter_FormatUpload(t *testing.T) {
	result := clientcli.UploadResult{
		LocalPath: "scan.pdf",
		Size:      1024,
		FileInfo:  clientcli.FileInfo{ID: 7, Name: "report.pdf", URL: "u"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatUpload(&buf, result))
	assert.Contains(t, buf.String(), "Uploaded: scan.pdf -> report.pdf (1.0 KB)")
	assert.Contains(t, buf.String(), "ID: 7")

	buf.Reset()
	require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatUpload(&buf, result))
	assert.Equal(t, "7\n", buf.String())
}

func TestHumanFormatter_FormatDelete(t *testing.T) {
	results := []clientcli.DeleteResult{
		{ID: 1, Deleted: true},
		{ID: 2, Err: errors.New("server error: 404")},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatDelete(&buf, results))
	assert.Contains(t, buf.String(), "Deleted: 1")
	assert.Contains(t, buf.String(), "Error: 2 - server error: 404")

	buf.Reset()
	require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatDelete(&buf, results))
	assert.NotContains(t, buf.String(), "Deleted")
	assert.Contains(t, buf.String(), "Error: 2")
}

func TestHumanFormatter_FormatList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, nil))
		assert.Equal(t, "No files found\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		files := []clientcli.FileInfo{
			{ID: 1, Name: "a.txt"},
			{ID: 12, Name: "report.pdf"},
		}

		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{}).FormatList(&buf, files))

		out := buf.String()
		assert.Contains(t, out, "ID  NAME")
		assert.Contains(t, out, "    12  report.pdf")
		assert.Contains(t, out, "2 file(s)")
	})

	t.Run("quiet", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, (&clientcli.HumanFormatter{Quiet: true}).FormatList(&buf, []clientcli.FileInfo{{ID: 3, Name: "c.txt"}}))
		assert.Equal(t, "3\tc.txt\n", buf.String())
	})
}

func TestHumanFormatter_Profiles(t *testing.T) {
	profiles := []clientcli.Profile{
		{Name: "local", Endpoint: "http://localhost:5000"},
		{Name: "prod", Endpoint: "https://files.example.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileList(&buf, profiles, "prod"))
	assert.Contains(t, buf.String(), "* prod")
	assert.Contains(t, buf.String(), "  local")

	buf.Reset()
	require.NoError(t, (&clientcli.HumanFormatter{}).FormatProfileShow(&buf, profiles[1], true))
	assert.Contains(t, buf.String(), "prod (default)")
	assert.Contains(t, buf.String(), "https://files.example.com")
}

func TestJSONFormatter(t *testing.T) {
	f := &clientcli.JSONFormatter{}

	t.Run("upload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatUpload(&buf, clientcli.UploadResult{
			LocalPath: "scan.pdf",
			Size:      3,
			FileInfo:  clientcli.FileInfo{ID: 7, Name: "report.pdf", URL: "u"},
		}))
		assert.JSONEq(t, `{"local_path":"scan.pdf","size_bytes":3,"id":7,"name":"report.pdf","url":"u"}`, buf.String())
	})

	t.Run("list empty is array", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatList(&buf, nil))
		assert.JSONEq(t, `[]`, buf.String())
	})

	t.Run("delete", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatDelete(&buf, []clientcli.DeleteResult{
			{ID: 1, Deleted: true},
			{ID: 2, Err: errors.New("boom")},
		}))

		var out struct {
			Results []struct {
				ID      int64  `json:"id"`
				Deleted bool   `json:"deleted"`
				Error   string `json:"error"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
		require.Len(t, out.Results, 2)
		assert.True(t, out.Results[0].Deleted)
		assert.Equal(t, "boom", out.Results[1].Error)
	})

	t.Run("download url", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatDownloadURL(&buf, 4, "https://signed"))
		assert.JSONEq(t, `{"id":4,"url":"https://signed"}`, buf.String())
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, f.FormatError(&buf, errors.New("test error")))
		assert.JSONEq(t, `{"error":"test error"}`, buf.String())
	})
}
