// Package consts defines application-wide constants.
package consts

import "time"

// Downloader identifiers.
const (
	// DownloaderYTdlp selects the yt-dlp backed resolver and downloader.
	DownloaderYTdlp = "ytdlp"
	// DownloaderMock selects the in-process fake used for demos and tests.
	DownloaderMock = "mock"
)

const (
	// DefaultSimulateTime is the default time to simulate a download in the mock downloader.
	DefaultSimulateTime = 300 * time.Millisecond
	// DefaultFolderName is used when neither the playlist title nor its ID yields a name.
	DefaultFolderName = "playlist"
	// UntitledEntry is displayed for entries without a title.
	UntitledEntry = "Untitled"
	// ReportFilename is written into the destination folder after every run.
	ReportFilename = "report.json"
)

// Operator-facing messages.
const (
	MsgStarting   = "Starting download..."
	MsgEmptyURL   = "Please enter a valid playlist URL."
	MsgAllDone    = "All videos downloaded successfully!"
	MsgComplete   = "Download complete!"
	MsgTotalFmt   = "Total videos: %d"
	MsgEntryFmt   = "Downloading (%d/%d): %s"
	MsgEntryErr   = "Error downloading %s: %s"
	MsgFailedFmt  = "Download failed: %s"
	MsgSummaryFmt = "Done: %d downloaded, %d failed"
)

// Status API messages.
const (
	RespReady           = "ready"
	RespStatusRetrieved = "run status retrieved"
	RespReportRetrieved = "last report retrieved"
	RespNoReport        = "no finished run yet"
)
