package entity

type Category string

const (
	CategoryAudio    Category = "audio"
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryOther    Category = "other"
)

func (c Category) String() string {
	return string(c)
}
