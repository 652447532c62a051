package elevateai

import "fmt"

// Status is the processing state of a remote interaction as reported by the service.
type Status string

// Status values reported by the remote service
const (
	StatusDeclared            Status = "declared"
	StatusFilePendingUpload   Status = "filePendingUpload"
	StatusFileUploading       Status = "fileUploading"
	StatusFileUploaded        Status = "fileUploaded"
	StatusFileUploadFailed    Status = "fileUploadFailed"
	StatusFilePendingDownload Status = "filePendingDownload"
	StatusFileDownloading     Status = "fileDownloading"
	StatusFileDownloaded      Status = "fileDownloaded"
	StatusFileDownloadFailed  Status = "fileDownloadFailed"
	StatusPendingProcessing   Status = "pendingProcessing"
	StatusProcessing          Status = "processing"
	StatusProcessed           Status = "processed"
	StatusProcessingFailed    Status = "processingFailed"
)

var statusExplanations = map[Status]string{
	StatusDeclared:            "Your audio interaction is declared and waiting in the queue.",
	StatusFilePendingUpload:   "Your audio interaction is declared, but the file is pending upload.",
	StatusFileUploading:       "Your file is currently being uploaded to the API.",
	StatusFileUploaded:        "Your file has been successfully uploaded and is waiting for processing.",
	StatusFileUploadFailed:    "An error occurred during the upload process. Please try again.",
	StatusFilePendingDownload: "Your file is in the queue to be downloaded.",
	StatusFileDownloading:     "Your file is currently being downloaded from the provided URL.",
	StatusFileDownloaded:      "Your file has been downloaded successfully and is waiting for processing.",
	StatusFileDownloadFailed:  "An error occurred while downloading the file. Please check the format and try again.",
	StatusPendingProcessing:   "Your interaction is in the queue for processing.",
	StatusProcessing:          "Your interaction is being actively processed.",
	StatusProcessed:           "Your interaction has been successfully processed. You can now retrieve the transcript.",
	StatusProcessingFailed:    "An error occurred during processing. Please contact support.",
}

// Known reports whether s is one of the enumerated status values.
func (s Status) Known() bool {
	_, ok := statusExplanations[s]
	return ok
}

// Succeeded reports whether s is the terminal success value.
func (s Status) Succeeded() bool {
	return s == StatusProcessed
}

// Failed reports whether s is one of the terminal failure values.
func (s Status) Failed() bool {
	switch s {
	case StatusProcessingFailed, StatusFileDownloadFailed, StatusFileUploadFailed:
		return true
	}
	return false
}

// Terminal reports whether no further polling should happen after s.
func (s Status) Terminal() bool {
	return s.Succeeded() || s.Failed()
}

// Explanation returns a plain-language description of s. Unrecognized values
// are reported verbatim so protocol drift stays visible.
func (s Status) Explanation() string {
	if text, ok := statusExplanations[s]; ok {
		return text
	}
	return fmt.Sprintf("Unknown status: %s", string(s))
}

func (s Status) String() string {
	return string(s)
}
