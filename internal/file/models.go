package file

// UploadResult describes a freshly stored object.
type UploadResult struct {
	Key         string
	Size        int64
	ContentType string
	DownloadURL string
}

// Entry is one listed object with a freshly signed download link.
type Entry struct {
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
	DownloadURL  string `json:"download_url"`
}
