package audio_downloader

import "time"

const (
	// DefaultBackendURL is the base address of the hosted conversion backend.
	DefaultBackendURL = "https://youtube-audio-backend-i2bd.onrender.com"
	// DefaultFilename is used when the backend doesn't name the file it returns.
	DefaultFilename = "youtube_audio.mp3"
	// DefaultReleaseDelay is how long a saved blob is kept before its temporary file is released.
	DefaultReleaseDelay = 5 * time.Second
)

// Backend endpoints, relative to the base address.
const (
	DownloadFilePath   = "/download-file"
	DownloadStreamPath = "/download-stream"
)
