package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, result UploadResult) error
	FormatRename(w io.Writer, file FileInfo) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatDownloadURL(w io.Writer, id int64, url string) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, files []FileInfo) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats an upload result as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, result UploadResult) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, result.ID)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Uploaded: %s -> %s (%s)\n", result.LocalPath, result.Name, formatSize(result.Size))
	_, _ = fmt.Fprintf(w, "  ID: %d\n", result.ID)
	return nil
}

// FormatRename formats a renamed file as human-readable text.
func (f *HumanFormatter) FormatRename(w io.Writer, file FileInfo) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Renamed: %d -> %s\n", file.ID, file.Name)
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %d (%s)\n", result.ID, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %d -> %s (%s)\n", result.ID, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatDownloadURL prints the signed URL of a file.
func (f *HumanFormatter) FormatDownloadURL(w io.Writer, _ int64, url string) error {
	_, _ = fmt.Fprintln(w, url)
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %d - %v\n", r.ID, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %d\n", r.ID)
		}
	}
	return nil
}

// FormatList formats the file list as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, files []FileInfo) error {
	if len(files) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
		return nil
	}

	if f.Quiet {
		for i := range files {
			_, _ = fmt.Fprintf(w, "%d\t%s\n", files[i].ID, files[i].Name)
		}
		return nil
	}

	maxNameLen := 4 // "NAME"
	for i := range files {
		if len(files[i].Name) > maxNameLen {
			maxNameLen = len(files[i].Name)
		}
	}
	if maxNameLen > 60 {
		maxNameLen = 60
	}

	_, _ = fmt.Fprintf(w, "%6s  %-*s\n", "ID", maxNameLen, "NAME")
	_, _ = fmt.Fprintf(w, "%s  %s\n", strings.Repeat("-", 6), strings.Repeat("-", maxNameLen))

	for i := range files {
		name := files[i].Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%6d  %-*s\n", files[i].ID, maxNameLen, name)
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s)\n", len(files))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result UploadResult) error {
	return writeJSON(w, result)
}

// FormatRename formats a renamed file as JSON.
func (f *JSONFormatter) FormatRename(w io.Writer, file FileInfo) error {
	return writeJSON(w, file)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatDownloadURL formats a signed URL as JSON.
func (f *JSONFormatter) FormatDownloadURL(w io.Writer, id int64, url string) error {
	return writeJSON(w, struct {
		ID  int64  `json:"id"`
		URL string `json:"url"`
	}{ID: id, URL: url})
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		ID      int64  `json:"id"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{ID: r.ID, Deleted: r.Deleted}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats the file list as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, files []FileInfo) error {
	if files == nil {
		files = []FileInfo{}
	}
	return writeJSON(w, files)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	maxNameLen := 4 // "NAME"
	for i := range profiles {
		if len(profiles[i].Name) > maxNameLen {
			maxNameLen = len(profiles[i].Name)
		}
	}
	if maxNameLen > 20 {
		maxNameLen = 20
	}

	_, _ = fmt.Fprintf(w, "  %-*s  %s\n", maxNameLen, "NAME", "ENDPOINT")
	_, _ = fmt.Fprintf(w, "  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", 30))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %s\n", marker, maxNameLen, name, p.Endpoint)
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = jsonProfile{
			Name:     profiles[i].Name,
			Endpoint: profiles[i].Endpoint,
			Default:  profiles[i].Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	return writeJSON(w, struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Default:  isDefault,
	})
}
