package dto

// ImportSectionRequest is one scraped section. Type and day accept the aliases the catalog
// source emits (Russian full and short forms, English words, upper-case codes).
type ImportSectionRequest struct {
	Type     string `json:"type" validate:"required,max=32"`
	Day      string `json:"day" validate:"required,max=16"`
	Time     string `json:"time" validate:"required,len=5"`
	Duration int    `json:"duration" validate:"min=0,max=12"`
	Teacher  string `json:"teacher" validate:"max=200"`
	Room     string `json:"room" validate:"max=100"`
	RawText  string `json:"raw_text" validate:"max=2000"`
}

// ImportCourseRequest creates or replaces a course and all of its sections.
type ImportCourseRequest struct {
	Code     string                 `json:"code" validate:"required,max=32"`
	Name     string                 `json:"name" validate:"required,max=255"`
	Credits  int                    `json:"credits" validate:"min=0,max=60"`
	Formula  string                 `json:"formula" validate:"required,max=32"`
	Sections []ImportSectionRequest `json:"sections" validate:"dive"`
}

// CourseListQuery pages the catalog listing.
type CourseListQuery struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=200"`
	Search   string `form:"q" validate:"max=64"`
}
