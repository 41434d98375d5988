package response

type File struct {
	OriginalName string `json:"originalName"`
	StoredName   string `json:"storedName"`
	Type         string `json:"type" example:"image"`
	Extension    string `json:"extension" example:"png"`
	Path         string `json:"path" example:"image/png/2026-10/0b8f3c1e-5f0c-4c38-9d8e-6ad5a1d2b7f1.png"`
	URL          string `json:"url" example:"/uploads/image/png/2026-10/0b8f3c1e-5f0c-4c38-9d8e-6ad5a1d2b7f1.png"`
}

// BatchItem carries either the stored file or the reason it was rejected.
type BatchItem struct {
	*File
	OriginalName string `json:"originalName"`
	Error        string `json:"error,omitempty"`
}

type Upload struct {
	Success    bool       `json:"success" example:"true"`
	StatusCode int        `json:"statusCode" example:"200"`
	Data       UploadData `json:"data"`
}

type UploadData struct {
	Message string `json:"message" example:"file uploaded"`
	File    File   `json:"file"`
}

type BatchUpload struct {
	Success    bool            `json:"success" example:"true"`
	StatusCode int             `json:"statusCode" example:"200"`
	Data       BatchUploadData `json:"data"`
}

type BatchUploadData struct {
	Message string      `json:"message" example:"2 of 3 files uploaded"`
	Files   []BatchItem `json:"files"`
}
