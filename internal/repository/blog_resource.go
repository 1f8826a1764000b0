package repository

import "github.com/ngocthuan/blog-api/internal/model"

// NewBlogResource describes the blogs table for the generic CRUD engine.
func NewBlogResource() *Resource {
	return &Resource{
		Name:  "blog",
		Table: "blogs",
		Columns: []Column{
			{Name: "title", Kind: KindString, Required: true},
			{Name: "author", Kind: KindString, Required: true},
			{Name: "summary", Kind: KindString, Required: true},
			{Name: "content", Kind: KindString, Required: true},
			{Name: "duration", Kind: KindInt, Required: true},
			{Name: "level", Kind: KindString, Required: true, Enum: model.Levels},
			{Name: "rate", Kind: KindFloat, Min: floatPtr(model.RateMin), Max: floatPtr(model.RateMax), Default: model.RateDefault},
			{Name: "topic", Kind: KindString, Required: true},
		},
	}
}
