package dto

type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Normalize applies the default page size.
func (q *PageQuery) Normalize() {
	if q.Limit == 0 {
		q.Limit = 20
	}
}
