package surcharge

import "github.com/noah-isme/backend-freight/internal/expr"

type subject struct {
	id     string
	fields expr.Context
}

func (s subject) SubjectID() string     { return s.id }
func (s subject) Fields() expr.Context { return s.fields }

func box(id string, weight, length, width, height float64) subject {
	return subject{id: id, fields: expr.Context{
		"weight": weight,
		"length": length,
		"width":  width,
		"height": height,
	}}
}

func bracket(min float64, max *float64, price float64) Bracket {
	return Bracket{Min: Float(min), Max: max, Price: Float(price)}
}
