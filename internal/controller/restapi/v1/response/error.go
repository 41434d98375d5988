package response

type Error struct {
	Success    bool         `json:"success" example:"false"`
	StatusCode int          `json:"statusCode" example:"400"`
	Data       ErrorMessage `json:"data"`
}

type ErrorMessage struct {
	Message string `json:"message" example:"no file provided"`
}
