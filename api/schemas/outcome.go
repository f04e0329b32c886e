package schemas

import "fmt"

// Reason classifies how a run ended.
type Reason string

const (
	ReasonOK              Reason = "OK"
	ReasonTimeout         Reason = "TIMEOUT"
	ReasonLoginFailed     Reason = "LOGIN_FAILED"
	ReasonVersionNotFound Reason = "VERSION_NOT_FOUND"
	// ReasonPageUnreachable and ReasonLaunchFailed never come out of the
	// download waiter; the run uses them to report navigation and browser
	// start failures through the same outcome value.
	ReasonPageUnreachable Reason = "PAGE_UNREACHABLE"
	ReasonLaunchFailed    Reason = "LAUNCH_FAILED"
)

// TriggerResult describes the download the navigator started.
type TriggerResult struct {
	// FileName is the name the vendor announced for the file, if any.
	FileName string `json:"file_name,omitempty"`
	// ExpectedSize is the size advertised by the listing in bytes, 0 if unknown.
	ExpectedSize int64 `json:"expected_size,omitempty"`
	// Title is the human readable label of the chosen installer.
	Title string `json:"title,omitempty"`
}

// DownloadOutcome is produced once per run.
type DownloadOutcome struct {
	Succeeded bool     `json:"succeeded"`
	FilePaths []string `json:"file_paths"`
	Reason    Reason   `json:"reason"`
}

// Completed returns a successful outcome.
func Completed(paths []string) DownloadOutcome {
	return DownloadOutcome{Succeeded: true, FilePaths: paths, Reason: ReasonOK}
}

// Failed returns an unsuccessful outcome for the given reason.
func Failed(reason Reason, paths []string) DownloadOutcome {
	if paths == nil {
		paths = []string{}
	}
	return DownloadOutcome{Succeeded: false, FilePaths: paths, Reason: reason}
}

func (o DownloadOutcome) String() string {
	return fmt.Sprintf("%s (%d file(s))", o.Reason, len(o.FilePaths))
}
